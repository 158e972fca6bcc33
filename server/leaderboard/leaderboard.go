// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package leaderboard

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"hackportal/server/apperr"
)

// Entry 排行榜条目
type Entry struct {
	Rank                int    `json:"rank" db:"-"`
	TeamID              string `json:"teamId" db:"team_id"`
	TeamName            string `json:"teamName" db:"team_name"`
	Score               int    `json:"score" db:"score"`
	ChallengesCompleted int    `json:"challengesCompleted" db:"challenges_completed"`
}

// Standings 排行榜
type Standings struct {
	Leaderboard []Entry   `json:"leaderboard"`
	TotalTasks  int       `json:"totalTasks"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Get 汇总每个队伍已通过审核的得分并排名
func Get(ctx context.Context, db *sqlx.DB) (*Standings, error) {
	var (
		entries    []Entry
		totalTasks int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.SelectContext(gctx, &entries, `
			SELECT tm.id AS team_id, tm.name AS team_name,
			       COALESCE(SUM(s.points_awarded) FILTER (WHERE s.status = 'approved'), 0) AS score,
			       COUNT(DISTINCT s.assignment_id) FILTER (WHERE s.status = 'approved') AS challenges_completed
			FROM teams tm
			LEFT JOIN submissions s ON s.team_id = tm.id
			GROUP BY tm.id, tm.name`)
	})
	g.Go(func() error {
		return db.GetContext(gctx, &totalTasks, `SELECT COUNT(*) FROM tasks`)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []Entry{}
	}
	return &Standings{
		Leaderboard: Rank(entries),
		TotalTasks:  totalTasks,
		GeneratedAt: time.Now(),
	}, nil
}

// Rank 按得分降序、队名升序（不区分大小写）排序并编号，同分队伍名次不同
func Rank(entries []Entry) []Entry {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := col.CompareString(a.TeamName, b.TeamName); c != 0 {
			return c < 0
		}
		return a.TeamID < b.TeamID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// HandleGetLeaderboard 获取排行榜（公开）
func HandleGetLeaderboard(c *gin.Context, db *sqlx.DB) {
	st, err := Get(c.Request.Context(), db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
