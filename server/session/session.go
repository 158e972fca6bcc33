// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CookieName 管理员会话 cookie
const CookieName = "admin_session"

// Session 管理员会话，服务端不做过期处理
type Session struct {
	Token     string    `json:"-" db:"token"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Create 新建会话
func Create(ctx context.Context, db *sqlx.DB) (*Session, error) {
	var s Session
	err := db.QueryRowxContext(ctx, `INSERT INTO admin_sessions (token, created_at) VALUES ($1, $2)
		RETURNING token, created_at`, uuid.NewString(), time.Now()).StructScan(&s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Find 会话是否存在；空 token 直接返回 false
func Find(ctx context.Context, db *sqlx.DB, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	var exists bool
	err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM admin_sessions WHERE token = $1)`, token)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Delete 删除会话；空 token 或不存在时无操作
func Delete(ctx context.Context, db *sqlx.DB, token string) error {
	if token == "" {
		return nil
	}
	_, err := db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = $1`, token)
	return err
}

// DeleteAll 清空所有会话，返回删除数量
func DeleteAll(ctx context.Context, db *sqlx.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM admin_sessions`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
