// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package assignment

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/logs"
)

// CreateRequest 管理员分配题目请求
type CreateRequest struct {
	TeamID string `json:"teamId" binding:"required"`
	TaskID string `json:"taskId" binding:"required"`
}

// UpdateStatusRequest 队伍更新题目状态请求
type UpdateStatusRequest struct {
	AssignmentID string `json:"assignmentId" binding:"required"`
	Status       string `json:"status" binding:"required,oneof=assigned in-progress completed"`
}

// HandleListAssignments 获取全部分配（管理后台）
func HandleListAssignments(c *gin.Context, db *sqlx.DB) {
	list, err := List(c.Request.Context(), db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}

// HandleCreateAssignment 为队伍分配题目
func HandleCreateAssignment(c *gin.Context, db *sqlx.DB) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	a, err := Assign(ctx, db, req.TeamID, req.TaskID)
	if err != nil {
		apperr.RespondRef(c, err)
		return
	}

	logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelInfo, &a.TeamID, c.ClientIP(),
		"管理员分配题目", gin.H{"assignmentId": a.ID, "taskId": a.TaskID})
	c.JSON(http.StatusOK, a)
}

// HandleUpdateStatus 队伍更新自己的题目状态
func HandleUpdateStatus(c *gin.Context, db *sqlx.DB) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	teamID := c.GetString("teamID")
	a, err := UpdateStatus(c.Request.Context(), db, req.AssignmentID, teamID, req.Status)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	slog.Debug("assignment status updated", "assignment", a.ID, "team", teamID, "status", a.Status)
	c.JSON(http.StatusOK, a)
}

// HandleListTeamAssignments 获取某个队伍的分配（管理员或该队伍本身）
func HandleListTeamAssignments(c *gin.Context, db *sqlx.DB) {
	list, err := ListForTeam(c.Request.Context(), db, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}

// HandleGetAssignment 按id获取分配（管理后台）
func HandleGetAssignment(c *gin.Context, db *sqlx.DB) {
	a, err := Get(c.Request.Context(), db, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
