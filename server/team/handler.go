// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package team

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/assignment"
	"hackportal/server/logs"
	"hackportal/server/submission"
)

// UpdateRequest 管理员对队伍的操作
type UpdateRequest struct {
	Action   string `json:"action" binding:"required,oneof=reset-password reset-submissions"`
	Password string `json:"password"`
}

// HandleListTeams 获取队伍列表
func HandleListTeams(c *gin.Context, db *sqlx.DB) {
	list, err := List(c.Request.Context(), db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": list})
}

// HandleCreateTeam 创建队伍
func HandleCreateTeam(c *gin.Context, db *sqlx.DB) {
	var req CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	t, err := Create(ctx, db, req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelInfo, &t.ID, c.ClientIP(),
		"管理员创建队伍 ["+t.Name+"]", gin.H{"username": t.Username})
	c.JSON(http.StatusCreated, t)
}

// HandleGetTeam 获取队伍详情及其分配
func HandleGetTeam(c *gin.Context, db *sqlx.DB) {
	ctx := c.Request.Context()
	t, err := Get(ctx, db, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	list, err := assignment.ListForTeam(ctx, db, t.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": t, "assignments": list})
}

// HandleUpdateTeam 重置密码或清空提交
func HandleUpdateTeam(c *gin.Context, db *sqlx.DB) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	switch req.Action {
	case "reset-password":
		if err := ResetPassword(ctx, db, id, req.Password); err != nil {
			apperr.Respond(c, err)
			return
		}
		logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelWarning, &id, c.ClientIP(), "管理员重置队伍密码", nil)
		c.JSON(http.StatusOK, gin.H{"message": "PASSWORD_RESET"})

	case "reset-submissions":
		n, err := submission.DeleteForTeam(ctx, db, id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		slog.Info("team submissions reset", "team", id, "deleted", n)
		logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelWarning, &id, c.ClientIP(),
			"管理员清空队伍提交", gin.H{"deleted": n})
		submission.NotifyScoresChanged(db)
		c.JSON(http.StatusOK, gin.H{"message": "SUBMISSIONS_RESET", "deleted": n})
	}
}

// HandleDeleteTeam 删除队伍
func HandleDeleteTeam(c *gin.Context, db *sqlx.DB) {
	ctx := c.Request.Context()
	id := c.Param("id")
	t, err := Get(ctx, db, id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := Delete(ctx, db, id); err != nil {
		apperr.Respond(c, err)
		return
	}

	logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelWarning, nil, c.ClientIP(),
		"管理员删除队伍 ["+t.Name+"]", gin.H{"teamId": id})
	submission.NotifyScoresChanged(db)
	c.JSON(http.StatusOK, gin.H{"message": "DELETED"})
}
