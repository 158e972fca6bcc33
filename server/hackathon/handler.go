// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package hackathon

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/logs"
)

// SelectTasks 将选中的题目分配给所有队伍，返回确保存在的分配数（由 main 注入）
var SelectTasks func(ctx context.Context, db *sqlx.DB, taskIDs []string) (int, error)

// ActionRequest 管理员计时器操作
type ActionRequest struct {
	Action    string     `json:"action" binding:"required,oneof=start stop set-timer select-tasks"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	IsActive  *bool      `json:"isActive"`
	TaskIDs   []string   `json:"taskIds"`
}

// StatusResponse 比赛状态响应
type StatusResponse struct {
	*Status
	RemainingSeconds int64     `json:"remainingSeconds"`
	ServerTime       time.Time `json:"serverTime"`
}

func newStatusResponse(st *Status) StatusResponse {
	now := Now()
	return StatusResponse{Status: st, RemainingSeconds: st.RemainingSeconds(now), ServerTime: now}
}

// HandleGetStatus 获取比赛状态（公开）
func HandleGetStatus(c *gin.Context, db *sqlx.DB) {
	st, err := GetStatus(c.Request.Context(), db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(st))
}

// HandleAction 开始/停止/设置计时器/选题
func HandleAction(c *gin.Context, db *sqlx.DB) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	var (
		st  *Status
		err error
	)
	switch req.Action {
	case "start":
		st, err = Start(ctx, db)
	case "stop":
		st, err = Stop(ctx, db)
	case "set-timer":
		if req.IsActive == nil {
			apperr.Respond(c, apperr.Validation("INVALID_REQUEST", "缺少 isActive"))
			return
		}
		st, err = SetTimer(ctx, db, req.StartTime, req.EndTime, *req.IsActive)
	case "select-tasks":
		handleSelectTasks(c, db, req.TaskIDs)
		return
	}
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	slog.Info("hackathon timer changed", "action", req.Action, "isActive", st.IsActive)
	logs.WriteLog(ctx, db, logs.TypeHackathon, logs.LevelInfo, nil, c.ClientIP(),
		"管理员执行计时器操作 ["+req.Action+"]", st)
	c.JSON(http.StatusOK, newStatusResponse(st))
}

func handleSelectTasks(c *gin.Context, db *sqlx.DB, taskIDs []string) {
	if len(taskIDs) == 0 {
		apperr.Respond(c, apperr.Validation("INVALID_REQUEST", "请选择至少一道题目"))
		return
	}
	ctx := c.Request.Context()
	count, err := SelectTasks(ctx, db, taskIDs)
	if err != nil {
		apperr.RespondRef(c, err)
		return
	}
	logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelInfo, nil, c.ClientIP(),
		"管理员为所有队伍分配选中题目", gin.H{"taskIds": taskIDs, "assignments": count})
	c.JSON(http.StatusOK, gin.H{"message": "ASSIGNED", "assignments": count})
}

// RequireActive 比赛未进行时拒绝队伍写操作
func RequireActive(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, err := IsActive(c.Request.Context(), db)
		if err != nil {
			apperr.Respond(c, err)
			c.Abort()
			return
		}
		if !active {
			apperr.Respond(c, apperr.Inactive())
			c.Abort()
			return
		}
		c.Next()
	}
}
