// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package submission

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
)

// 审核状态
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PageSize 管理后台详细列表的最大条数
const PageSize = 1000

// Submission 队伍对某个分配的提交
type Submission struct {
	ID            string     `json:"id" db:"id"`
	AssignmentID  string     `json:"assignmentId" db:"assignment_id"`
	TeamID        string     `json:"teamId" db:"team_id"`
	Plan          string     `json:"plan" db:"plan"`
	Findings      string     `json:"findings" db:"findings"`
	Flag          string     `json:"flag" db:"flag"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
	Status        string     `json:"status" db:"status"`
	PointsAwarded int        `json:"pointsAwarded" db:"points_awarded"`
	AdminNotes    string     `json:"adminNotes" db:"admin_notes"`
	ReviewedAt    *time.Time `json:"reviewedAt" db:"reviewed_at"`
}

// Detail 附带队伍、题目信息的提交
type Detail struct {
	Submission
	TeamName         string `json:"teamName" db:"team_name"`
	TaskID           string `json:"taskId" db:"task_id"`
	TaskTitle        string `json:"taskTitle" db:"task_title"`
	TaskPoints       int    `json:"taskPoints" db:"task_points"`
	AssignmentStatus string `json:"assignmentStatus" db:"assignment_status"`
}

// Input 队伍提交内容
type Input struct {
	AssignmentID string
	TeamID       string
	Plan         string
	Findings     string
	Flag         string
}

// Filter 列表过滤条件，空字段不过滤
type Filter struct {
	AssignmentID string
	TeamID       string
}

const submissionColumns = `id, assignment_id, team_id, plan, findings, flag, created_at, updated_at,
	status, points_awarded, admin_notes, reviewed_at`

// Upsert 创建或更新提交；已有提交只更新内容，审核结果保持不变
func Upsert(ctx context.Context, db *sqlx.DB, in Input) (*Submission, error) {
	var owner string
	err := db.GetContext(ctx, &owner, `SELECT team_id FROM assignments WHERE id = $1`, in.AssignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("ASSIGNMENT_NOT_FOUND", "分配记录不存在")
	}
	if err != nil {
		return nil, err
	}
	if owner != in.TeamID {
		return nil, apperr.Forbidden("TEAM_MISMATCH", "不能为其他队伍的题目提交")
	}

	var s Submission
	err = db.QueryRowxContext(ctx, `
		INSERT INTO submissions (id, assignment_id, team_id, plan, findings, flag, created_at, updated_at,
			status, points_awarded, admin_notes, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, 0, '', NULL)
		ON CONFLICT (assignment_id) DO UPDATE SET plan = EXCLUDED.plan, findings = EXCLUDED.findings,
			flag = EXCLUDED.flag, updated_at = EXCLUDED.updated_at
		RETURNING `+submissionColumns,
		uuid.NewString(), in.AssignmentID, in.TeamID, in.Plan, in.Findings, in.Flag, time.Now(), StatusPending).
		StructScan(&s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Review 管理员审核提交
func Review(ctx context.Context, db *sqlx.DB, id, status string, points int, notes string) (*Submission, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, apperr.Validation("INVALID_STATUS", "审核状态只能是 approved 或 rejected")
	}
	if points < 0 {
		return nil, apperr.Validation("INVALID_POINTS", "分数不能为负")
	}

	var s Submission
	err := db.QueryRowxContext(ctx, `UPDATE submissions
		SET status = $1, points_awarded = $2, admin_notes = $3, reviewed_at = $4
		WHERE id = $5 RETURNING `+submissionColumns,
		status, points, notes, time.Now(), id).StructScan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("SUBMISSION_NOT_FOUND", "提交不存在")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteForTeam 清空队伍的所有提交，分配保持不变
func DeleteForTeam(ctx context.Context, db *sqlx.DB, teamID string) (int64, error) {
	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, teamID); err != nil {
		return 0, err
	}
	if !exists {
		return 0, apperr.NotFound("TEAM_NOT_FOUND", "队伍不存在")
	}

	res, err := db.ExecContext(ctx, `DELETE FROM submissions WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// List 按创建时间倒序列出提交
func List(ctx context.Context, db *sqlx.DB, f Filter) ([]Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if f.AssignmentID != "" {
		query += " AND assignment_id = $" + strconv.Itoa(argIdx)
		args = append(args, f.AssignmentID)
		argIdx++
	}
	if f.TeamID != "" {
		query += " AND team_id = $" + strconv.Itoa(argIdx)
		args = append(args, f.TeamID)
		argIdx++
	}
	query += " ORDER BY created_at DESC"

	list := []Submission{}
	if err := db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, err
	}
	return list, nil
}

// ListWithDetails 管理后台的提交列表，最多 PageSize 条
func ListWithDetails(ctx context.Context, db *sqlx.DB) ([]Detail, error) {
	list := []Detail{}
	err := db.SelectContext(ctx, &list, `
		SELECT s.id, s.assignment_id, s.team_id, s.plan, s.findings, s.flag, s.created_at, s.updated_at,
		       s.status, s.points_awarded, s.admin_notes, s.reviewed_at,
		       tm.name AS team_name, t.id AS task_id, t.title AS task_title, t.points AS task_points,
		       a.status AS assignment_status
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN teams tm ON tm.id = s.team_id
		JOIN tasks t ON t.id = a.task_id
		ORDER BY s.created_at DESC
		LIMIT $1`, PageSize)
	if err != nil {
		return nil, err
	}
	return list, nil
}
