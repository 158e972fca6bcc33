// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package task

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var catalogTOML []byte

type catalogFile struct {
	Tasks []catalogTask `toml:"task"`
}

type catalogTask struct {
	ID          string   `toml:"id"`
	Title       string   `toml:"title"`
	Category    string   `toml:"category"`
	Difficulty  string   `toml:"difficulty"`
	Description string   `toml:"description"`
	Flag        string   `toml:"flag"`
	Points      int      `toml:"points"`
	Resources   []string `toml:"resources"`
}

// ParseCatalog 解析题库文件并校验必填字段
func ParseCatalog(data []byte) ([]Task, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse task catalog: %w", err)
	}

	tasks := make([]Task, 0, len(f.Tasks))
	for i, ct := range f.Tasks {
		if ct.ID == "" || ct.Title == "" {
			return nil, fmt.Errorf("task catalog entry %d: id and title are required", i)
		}
		switch ct.Difficulty {
		case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		default:
			return nil, fmt.Errorf("task catalog entry %q: unknown difficulty %q", ct.ID, ct.Difficulty)
		}
		resources := Resources(ct.Resources)
		if resources == nil {
			resources = Resources{}
		}
		tasks = append(tasks, Task{
			ID:          ct.ID,
			Title:       ct.Title,
			Category:    ct.Category,
			Difficulty:  ct.Difficulty,
			Description: ct.Description,
			Flag:        ct.Flag,
			Points:      ct.Points,
			Resources:   resources,
		})
	}
	return tasks, nil
}

// Catalog 内置题库
func Catalog() ([]Task, error) {
	return ParseCatalog(catalogTOML)
}

// Seed 写入内置题库，id 或标题已存在的题目跳过，返回新增数量
func Seed(ctx context.Context, db *sqlx.DB) (int, error) {
	tasks, err := Catalog()
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, t := range tasks {
		res, err := db.ExecContext(ctx, `INSERT INTO tasks (id, title, category, difficulty, description, flag, points, resources)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT DO NOTHING`,
			t.ID, t.Title, t.Category, t.Difficulty, t.Description, t.Flag, t.Points, t.Resources)
		if err != nil {
			return inserted, fmt.Errorf("seed task %s: %w", t.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	slog.Info("task catalog seeded", "total", len(tasks), "inserted", inserted)
	return inserted, nil
}
