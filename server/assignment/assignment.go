// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package assignment

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/task"
)

// 分配状态
const (
	StatusAssigned   = "assigned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Assignment 队伍与题目的分配关系
type Assignment struct {
	ID          string    `json:"id" db:"id"`
	TeamID      string    `json:"teamId" db:"team_id"`
	TaskID      string    `json:"taskId" db:"task_id"`
	Status      string    `json:"status" db:"status"`
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`
}

// TeamAssignment 队伍视角的分配：附带题目信息（不含flag）和提交概要
type TeamAssignment struct {
	Assignment
	TaskTitle       string         `json:"taskTitle" db:"task_title"`
	TaskCategory    string         `json:"taskCategory" db:"task_category"`
	TaskDifficulty  string         `json:"taskDifficulty" db:"task_difficulty"`
	TaskDescription string         `json:"taskDescription" db:"task_description"`
	TaskPoints      int            `json:"taskPoints" db:"task_points"`
	TaskResources   task.Resources `json:"taskResources" db:"task_resources"`

	SubmissionID     *string    `json:"submissionId" db:"submission_id"`
	SubmissionStatus *string    `json:"submissionStatus" db:"submission_status"`
	PointsAwarded    *int       `json:"pointsAwarded" db:"points_awarded"`
	SubmittedAt      *time.Time `json:"submittedAt" db:"submitted_at"`
}

// Detail 管理后台的分配列表行
type Detail struct {
	Assignment
	TeamName   string `json:"teamName" db:"team_name"`
	TaskTitle  string `json:"taskTitle" db:"task_title"`
	TaskPoints int    `json:"taskPoints" db:"task_points"`
}

const assignmentColumns = `id, team_id, task_id, status, last_updated`

// ValidStatus 是否为合法的分配状态
func ValidStatus(status string) bool {
	switch status {
	case StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Assign 为队伍分配题目；已分配时原样返回已有记录
func Assign(ctx context.Context, db *sqlx.DB, teamID, taskID string) (*Assignment, error) {
	var teamExists, taskExists bool
	err := db.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1), EXISTS(SELECT 1 FROM tasks WHERE id = $2)`,
		teamID, taskID).Scan(&teamExists, &taskExists)
	if err != nil {
		return nil, err
	}
	if !teamExists {
		return nil, apperr.NotFound("TEAM_NOT_FOUND", "队伍不存在")
	}
	if !taskExists {
		return nil, apperr.NotFound("TASK_NOT_FOUND", "题目不存在")
	}

	_, err = db.ExecContext(ctx, `INSERT INTO assignments (id, team_id, task_id, status, last_updated)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (team_id, task_id) DO NOTHING`,
		uuid.NewString(), teamID, taskID, StatusAssigned, time.Now())
	if err != nil {
		return nil, err
	}

	var a Assignment
	err = db.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments WHERE team_id = $1 AND task_id = $2`,
		teamID, taskID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignToAllTeams 将选中的题目分配给所有队伍，返回确保存在的分配数
func AssignToAllTeams(ctx context.Context, db *sqlx.DB, taskIDs []string) (int, error) {
	ids := mapset.NewThreadUnsafeSet(taskIDs...).ToSlice()
	slices.Sort(ids)

	for _, id := range ids {
		var exists bool
		if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id); err != nil {
			return 0, err
		}
		if !exists {
			return 0, apperr.NotFound("TASK_NOT_FOUND", "题目不存在: "+id)
		}
	}

	var teamIDs []string
	if err := db.SelectContext(ctx, &teamIDs, `SELECT id FROM teams ORDER BY created_at`); err != nil {
		return 0, err
	}

	count := 0
	for _, teamID := range teamIDs {
		for _, taskID := range ids {
			if _, err := Assign(ctx, db, teamID, taskID); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// UpdateStatus 修改分配状态；teamID 非空时校验归属
func UpdateStatus(ctx context.Context, db *sqlx.DB, assignmentID, teamID, status string) (*Assignment, error) {
	if !ValidStatus(status) {
		return nil, apperr.Validation("INVALID_STATUS", "无效的状态")
	}

	var owner string
	err := db.GetContext(ctx, &owner, `SELECT team_id FROM assignments WHERE id = $1`, assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("ASSIGNMENT_NOT_FOUND", "分配记录不存在")
	}
	if err != nil {
		return nil, err
	}
	if teamID != "" && owner != teamID {
		return nil, apperr.Forbidden("TEAM_MISMATCH", "不能修改其他队伍的题目状态")
	}

	var a Assignment
	err = db.QueryRowxContext(ctx, `UPDATE assignments SET status = $1, last_updated = $2 WHERE id = $3
		RETURNING `+assignmentColumns, status, time.Now(), assignmentID).StructScan(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get 按id获取分配
func Get(ctx context.Context, db *sqlx.DB, id string) (*Assignment, error) {
	var a Assignment
	err := db.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("ASSIGNMENT_NOT_FOUND", "分配记录不存在")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForTeam 队伍的全部分配，按最近更新排序
func ListForTeam(ctx context.Context, db *sqlx.DB, teamID string) ([]TeamAssignment, error) {
	list := []TeamAssignment{}
	err := db.SelectContext(ctx, &list, `
		SELECT a.id, a.team_id, a.task_id, a.status, a.last_updated,
		       t.title AS task_title, t.category AS task_category, t.difficulty AS task_difficulty,
		       t.description AS task_description, t.points AS task_points, t.resources AS task_resources,
		       s.id AS submission_id, s.status AS submission_status, s.points_awarded, s.updated_at AS submitted_at
		FROM assignments a
		JOIN tasks t ON t.id = a.task_id
		LEFT JOIN submissions s ON s.assignment_id = a.id
		WHERE a.team_id = $1
		ORDER BY a.last_updated DESC`, teamID)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// List 全部分配，附带队伍名和题目信息
func List(ctx context.Context, db *sqlx.DB) ([]Detail, error) {
	list := []Detail{}
	err := db.SelectContext(ctx, &list, `
		SELECT a.id, a.team_id, a.task_id, a.status, a.last_updated,
		       tm.name AS team_name, t.title AS task_title, t.points AS task_points
		FROM assignments a
		JOIN teams tm ON tm.id = a.team_id
		JOIN tasks t ON t.id = a.task_id
		ORDER BY a.last_updated DESC`)
	if err != nil {
		return nil, err
	}
	return list, nil
}
