// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package task

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/database"
	"hackportal/server/logs"
)

// 难度
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Resources 有序的资源链接列表，以 JSONB 数组存储
type Resources []string

// Value 实现 driver.Valuer
func (r Resources) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (r *Resources) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = Resources{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("task: cannot scan %T into Resources", src)
}

// Task 题目
type Task struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Category    string    `json:"category" db:"category"`
	Difficulty  string    `json:"difficulty" db:"difficulty"`
	Description string    `json:"description" db:"description"`
	Flag        string    `json:"flag" db:"flag"`
	Points      int       `json:"points" db:"points"`
	Resources   Resources `json:"resources" db:"resources"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// CreateRequest 创建题目请求
type CreateRequest struct {
	Title       string   `json:"title" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Difficulty  string   `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	Description string   `json:"description"`
	Flag        string   `json:"flag"`
	Points      int      `json:"points" binding:"min=0"`
	Resources   []string `json:"resources" binding:"dive,url"`
}

const taskColumns = `id, title, category, difficulty, description, flag, points, resources, created_at`

// List 按难度、标题排序的全部题目
func List(ctx context.Context, db *sqlx.DB) ([]Task, error) {
	tasks := []Task{}
	err := db.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks
		ORDER BY CASE difficulty WHEN 'beginner' THEN 1 WHEN 'intermediate' THEN 2 ELSE 3 END, title`)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get 按id获取题目
func Get(ctx context.Context, db *sqlx.DB, id string) (*Task, error) {
	var t Task
	err := db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("TASK_NOT_FOUND", "题目不存在")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create 新建题目，标题重复时返回校验错误
func Create(ctx context.Context, db *sqlx.DB, req CreateRequest) (*Task, error) {
	resources := Resources(req.Resources)
	if resources == nil {
		resources = Resources{}
	}
	var t Task
	err := db.QueryRowxContext(ctx, `INSERT INTO tasks (id, title, category, difficulty, description, flag, points, resources)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+taskColumns,
		uuid.NewString(), req.Title, req.Category, req.Difficulty, req.Description, req.Flag, req.Points, resources).
		StructScan(&t)
	if database.IsUniqueViolation(err) {
		return nil, apperr.Validation("TITLE_EXISTS", "题目标题已存在")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// HandleListTasks 获取题目列表
func HandleListTasks(c *gin.Context, db *sqlx.DB) {
	tasks, err := List(c.Request.Context(), db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// HandleCreateTask 创建题目
func HandleCreateTask(c *gin.Context, db *sqlx.DB) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	t, err := Create(c.Request.Context(), db, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	slog.Info("task created", "id", t.ID, "title", t.Title)
	logs.WriteLog(c.Request.Context(), db, logs.TypeAdminOp, logs.LevelInfo, nil, c.ClientIP(),
		"管理员创建题目 ["+t.Title+"]", gin.H{"taskId": t.ID})
	c.JSON(http.StatusCreated, t)
}

// HandleGetTask 获取题目详情（含flag，管理后台）
func HandleGetTask(c *gin.Context, db *sqlx.DB) {
	t, err := Get(c.Request.Context(), db, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
