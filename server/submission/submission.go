// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package submission

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/logs"
)

// UpsertRequest 队伍提交报告请求
type UpsertRequest struct {
	AssignmentID string `json:"assignmentId" binding:"required"`
	Plan         string `json:"plan"`
	Findings     string `json:"findings"`
	Flag         string `json:"flag"`
}

// ReviewRequest 管理员审核请求
type ReviewRequest struct {
	SubmissionID  string `json:"submissionId" binding:"required"`
	Status        string `json:"status" binding:"required,oneof=approved rejected"`
	PointsAwarded int    `json:"pointsAwarded" binding:"min=0"`
	AdminNotes    string `json:"adminNotes"`
}

// 分数变化通知函数类型定义
type ScoresChangedFunc func(db *sqlx.DB)

// ScoresChanged 审核或清空提交后调用，用于推送排行榜（由 main 注入）
var ScoresChanged ScoresChangedFunc

// NotifyScoresChanged 异步通知分数变化
func NotifyScoresChanged(db *sqlx.DB) {
	if ScoresChanged != nil {
		go ScoresChanged(db)
	}
}

// HandleListSubmissions 获取提交列表
// 管理员不带过滤时返回详细列表；队伍只能看到自己的提交
func HandleListSubmissions(c *gin.Context, db *sqlx.DB) {
	ctx := c.Request.Context()
	assignmentID := c.Query("assignmentId")

	if c.GetBool("isAdmin") {
		if assignmentID == "" {
			list, err := ListWithDetails(ctx, db)
			if err != nil {
				apperr.Respond(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"submissions": list})
			return
		}
		list, err := List(ctx, db, Filter{AssignmentID: assignmentID})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"submissions": list})
		return
	}

	list, err := List(ctx, db, Filter{AssignmentID: assignmentID, TeamID: c.GetString("teamID")})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": list})
}

// HandleUpsertSubmission 队伍创建或更新提交
func HandleUpsertSubmission(c *gin.Context, db *sqlx.DB) {
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	teamID := c.GetString("teamID")
	s, err := Upsert(ctx, db, Input{
		AssignmentID: req.AssignmentID,
		TeamID:       teamID,
		Plan:         req.Plan,
		Findings:     req.Findings,
		Flag:         req.Flag,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logs.WriteLog(ctx, db, logs.TypeSubmission, logs.LevelInfo, &teamID, c.ClientIP(),
		"队伍 ["+c.GetString("teamName")+"] 提交了报告", map[string]interface{}{
			"assignmentId": s.AssignmentID, "submissionId": s.ID,
		})
	c.JSON(http.StatusOK, s)
}

// HandleReviewSubmission 管理员审核提交
func HandleReviewSubmission(c *gin.Context, db *sqlx.DB) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	s, err := Review(ctx, db, req.SubmissionID, req.Status, req.PointsAwarded, req.AdminNotes)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	level := logs.LevelSuccess
	if s.Status == StatusRejected {
		level = logs.LevelWarning
	}
	logs.WriteLog(ctx, db, logs.TypeReview, level, &s.TeamID, c.ClientIP(),
		"管理员审核提交: "+s.Status+" | 得分: "+strconv.Itoa(s.PointsAwarded), map[string]interface{}{
			"submissionId": s.ID, "points": s.PointsAwarded,
		})
	NotifyScoresChanged(db)
	c.JSON(http.StatusOK, s)
}
