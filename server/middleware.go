// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"hackportal/server/apperr"
	"hackportal/server/session"
)

// parseTeamToken 校验队伍 token，返回队伍ID和队伍名
func parseTeamToken(tokenString string, secret []byte) (string, string, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", false
	}
	if role, _ := claims["role"].(string); role != "team" {
		return "", "", false
	}
	teamID, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	return teamID, name, teamID != ""
}

func bearerToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// teamAuthMiddleware 队伍JWT认证中间件
func teamAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "请先登录"})
			c.Abort()
			return
		}

		teamID, name, ok := parseTeamToken(tokenString, secret)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "INVALID_TOKEN", "message": "登录已失效，请重新登录"})
			c.Abort()
			return
		}

		c.Set("teamID", teamID)
		c.Set("teamName", name)
		c.Next()
	}
}

// isAdminSession 请求是否携带有效的管理员会话 cookie
func isAdminSession(c *gin.Context, db *sqlx.DB) (bool, error) {
	token, err := c.Cookie(session.CookieName)
	if err != nil {
		return false, nil
	}
	return session.Find(c.Request.Context(), db, token)
}

// adminAuthMiddleware 管理员会话认证中间件
func adminAuthMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := isAdminSession(c, db)
		if err != nil {
			apperr.Respond(c, err)
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "需要管理员登录"})
			c.Abort()
			return
		}
		c.Set("isAdmin", true)
		c.Next()
	}
}

// teamOrAdminMiddleware 管理员会话或队伍 token 均可
func teamOrAdminMiddleware(db *sqlx.DB, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := isAdminSession(c, db)
		if err != nil {
			apperr.Respond(c, err)
			c.Abort()
			return
		}
		if ok {
			c.Set("isAdmin", true)
			c.Next()
			return
		}

		teamID, name, valid := parseTeamToken(bearerToken(c), secret)
		if !valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "请先登录"})
			c.Abort()
			return
		}
		c.Set("teamID", teamID)
		c.Set("teamName", name)
		c.Next()
	}
}

// requireSelfOrAdmin 队伍只能访问自己的 :id 资源
func requireSelfOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool("isAdmin") || c.GetString("teamID") == c.Param("id") {
			c.Next()
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "无权访问其他队伍的数据"})
		c.Abort()
	}
}
