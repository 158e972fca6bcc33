// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package main

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"hackportal/server/apperr"
	"hackportal/server/assignment"
	"hackportal/server/config"
	"hackportal/server/hackathon"
	"hackportal/server/logs"
	"hackportal/server/session"
	"hackportal/server/team"
)

// teamTokenTTL 队伍 token 有效期
const teamTokenTTL = 24 * time.Hour

// adminAuth 管理员凭证（密码仅以 bcrypt 哈希保存在内存中）
type adminAuth struct {
	username      string
	passwordHash  []byte
	jwtSecret     []byte
	sessionMaxAge time.Duration
	secureCookie  bool
}

func newAdminAuth(cfg *config.Config) (*adminAuth, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &adminAuth{
		username:      cfg.AdminUsername,
		passwordHash:  hash,
		jwtSecret:     cfg.JWTSecret,
		sessionMaxAge: cfg.SessionMaxAge,
		secureCookie:  cfg.IsProduction(),
	}, nil
}

// checkCredentials 校验管理员用户名密码
func (a *adminAuth) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(a.username), []byte(username)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

func (a *adminAuth) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, maxAge, "/", "", a.secureCookie, true)
}

// generateJWT 生成队伍JWT令牌
func generateJWT(t *team.Team, secret []byte) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      t.ID,
		"username": t.Username,
		"name":     t.Name,
		"role":     "team",
		"exp":      now.Add(teamTokenTTL).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// handleTeamLogin 队伍登录：比赛未进行时拒绝
func handleTeamLogin(c *gin.Context, db *sqlx.DB, secret []byte) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	active, err := hackathon.IsActive(ctx, db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !active {
		apperr.Respond(c, apperr.Inactive())
		return
	}

	t, err := team.Authenticate(ctx, db, req.Username, req.Password)
	if err != nil {
		if apperr.IsKind(err, apperr.KindAuth) {
			logs.WriteLog(ctx, db, logs.TypeLogin, logs.LevelWarning, nil, c.ClientIP(),
				"队伍登录失败 ["+req.Username+"]", nil)
		}
		apperr.Respond(c, err)
		return
	}

	list, err := assignment.ListForTeam(ctx, db, t.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	token, err := generateJWT(t, secret)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	logs.WriteLog(ctx, db, logs.TypeLogin, logs.LevelSuccess, &t.ID, c.ClientIP(),
		"队伍 ["+t.Name+"] 登录系统", map[string]string{"username": t.Username})
	c.JSON(http.StatusOK, LoginResponse{Team: t, Assignments: list, Token: token})
}

// handleAdminLogin 管理员登录，成功后下发会话 cookie
func handleAdminLogin(c *gin.Context, db *sqlx.DB, auth *adminAuth) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Bind(err))
		return
	}

	ctx := c.Request.Context()
	if !auth.checkCredentials(req.Username, req.Password) {
		logs.WriteLog(ctx, db, logs.TypeLogin, logs.LevelWarning, nil, c.ClientIP(), "管理员登录失败", nil)
		apperr.Respond(c, apperr.Auth("INVALID_CREDENTIALS", "用户名或密码错误"))
		return
	}

	s, err := session.Create(ctx, db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	auth.setSessionCookie(c, s.Token, int(auth.sessionMaxAge/time.Second))

	logs.WriteLog(ctx, db, logs.TypeLogin, logs.LevelSuccess, nil, c.ClientIP(), "管理员登录系统", nil)
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

// handleAdminSession 查询当前管理员会话是否有效
func handleAdminSession(c *gin.Context, db *sqlx.DB) {
	token, _ := c.Cookie(session.CookieName)
	ok, err := session.Find(c.Request.Context(), db, token)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": ok})
}

// handleClearSessions 清空所有管理员会话（包括当前会话）
func handleClearSessions(c *gin.Context, db *sqlx.DB, auth *adminAuth) {
	ctx := c.Request.Context()
	n, err := session.DeleteAll(ctx, db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	auth.setSessionCookie(c, "", -1)

	logs.WriteLog(ctx, db, logs.TypeAdminOp, logs.LevelWarning, nil, c.ClientIP(),
		"管理员清空所有会话", map[string]int64{"deleted": n})
	c.JSON(http.StatusOK, gin.H{"message": "SESSIONS_CLEARED", "deleted": n})
}

// handleLogout 注销当前管理员会话
func handleLogout(c *gin.Context, db *sqlx.DB, auth *adminAuth) {
	ctx := c.Request.Context()
	token, _ := c.Cookie(session.CookieName)
	if err := session.Delete(ctx, db, token); err != nil {
		apperr.Respond(c, err)
		return
	}
	auth.setSessionCookie(c, "", -1)

	if token != "" {
		logs.WriteLog(ctx, db, logs.TypeLogout, logs.LevelInfo, nil, c.ClientIP(), "管理员退出登录", nil)
	}
	c.JSON(http.StatusOK, gin.H{"message": "LOGGED_OUT"})
}
