// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package team

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/database"
)

// Team 参赛队伍（密码明文存储）
type Team struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Summary 管理后台队伍列表行
type Summary struct {
	Team
	AssignmentCount int `json:"assignmentCount" db:"assignment_count"`
	ApprovedCount   int `json:"approvedCount" db:"approved_count"`
	Score           int `json:"score" db:"score"`
}

// CreateInput 新建队伍参数
type CreateInput struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const teamColumns = `id, name, username, password, created_at`

func errTeamNotFound() error {
	return apperr.NotFound("TEAM_NOT_FOUND", "队伍不存在")
}

// Create 新建队伍，用户名重复时返回校验错误
func Create(ctx context.Context, db *sqlx.DB, in CreateInput) (*Team, error) {
	var t Team
	err := db.QueryRowxContext(ctx, `INSERT INTO teams (id, name, username, password, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING `+teamColumns,
		uuid.NewString(), in.Name, in.Username, in.Password, time.Now()).StructScan(&t)
	if database.IsUniqueViolation(err) {
		return nil, apperr.Validation("USERNAME_EXISTS", "用户名已存在")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get 按id获取队伍
func Get(ctx context.Context, db *sqlx.DB, id string) (*Team, error) {
	var t Team
	err := db.GetContext(ctx, &t, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errTeamNotFound()
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List 全部队伍及其分配数、通过数和得分
func List(ctx context.Context, db *sqlx.DB) ([]Summary, error) {
	list := []Summary{}
	err := db.SelectContext(ctx, &list, `
		SELECT t.id, t.name, t.username, t.password, t.created_at,
		       (SELECT COUNT(*) FROM assignments a WHERE a.team_id = t.id) AS assignment_count,
		       (SELECT COUNT(*) FROM submissions s WHERE s.team_id = t.id AND s.status = 'approved') AS approved_count,
		       (SELECT COALESCE(SUM(s.points_awarded), 0) FROM submissions s
		         WHERE s.team_id = t.id AND s.status = 'approved') AS score
		FROM teams t
		ORDER BY t.created_at`)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Delete 删除队伍，分配和提交级联删除
func Delete(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errTeamNotFound()
	}
	return nil
}

// ResetPassword 重置队伍密码
func ResetPassword(ctx context.Context, db *sqlx.DB, id, password string) error {
	if password == "" {
		return apperr.Validation("INVALID_PASSWORD", "密码不能为空")
	}
	res, err := db.ExecContext(ctx, `UPDATE teams SET password = $1 WHERE id = $2`, password, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errTeamNotFound()
	}
	return nil
}

// Authenticate 校验队伍用户名密码
func Authenticate(ctx context.Context, db *sqlx.DB, username, password string) (*Team, error) {
	var t Team
	err := db.GetContext(ctx, &t, `SELECT `+teamColumns+` FROM teams WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Auth("INVALID_CREDENTIALS", "用户名或密码错误")
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(t.Password), []byte(password)) != 1 {
		return nil, apperr.Auth("INVALID_CREDENTIALS", "用户名或密码错误")
	}
	return &t, nil
}
