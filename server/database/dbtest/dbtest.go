// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

// Package dbtest 为集成测试提供真实 PostgreSQL 连接，每个测试使用独立 schema
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"hackportal/server/database"
)

// EnvURL 集成测试数据库地址环境变量，未设置时跳过
const EnvURL = "TEST_DATABASE_URL"

// Open 创建临时 schema 并建表，测试结束后删除
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(EnvURL)
	if dsn == "" {
		t.Skip(EnvURL + " not set")
	}
	ctx := context.Background()

	admin, err := database.Open(ctx, dsn)
	require.NoError(t, err)
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.ExecContext(ctx, `CREATE SCHEMA `+schema)
	require.NoError(t, err)

	cfg, err := pgx.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.RuntimeParams["search_path"] = schema
	connStr := stdlib.RegisterConnConfig(cfg)

	db, err := database.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		stdlib.UnregisterConnConfig(connStr)
		admin.ExecContext(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
		admin.Close()
	})

	require.NoError(t, database.Migrate(ctx, db))
	return db
}

// Team 插入一支队伍，用户名与id相同
func Team(t testing.TB, db *sqlx.DB, id, name string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO teams (id, name, username, password) VALUES ($1, $2, $1, 'pw')`, id, name)
	require.NoError(t, err)
}

// Task 插入一道题目，标题与id相同
func Task(t testing.TB, db *sqlx.DB, id string, points int) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO tasks (id, title, category, difficulty, points)
		VALUES ($1, $1, 'web', 'beginner', $2)`, id, points)
	require.NoError(t, err)
}

// Count 统计表中满足条件的行数
func Count(t testing.TB, db *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

// Assignment 插入一条分配记录
func Assignment(t testing.TB, db *sqlx.DB, id, teamID, taskID string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO assignments (id, team_id, task_id) VALUES ($1, $2, $3)`, id, teamID, taskID)
	require.NoError(t, err)
}
