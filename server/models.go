// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package main

import (
	"hackportal/server/assignment"
	"hackportal/server/team"
)

// LoginRequest 登录请求（队伍与管理员共用）
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 队伍登录响应
type LoginResponse struct {
	Team        *team.Team                  `json:"team"`
	Assignments []assignment.TeamAssignment `json:"assignments"`
	Token       string                      `json:"token"`
}
