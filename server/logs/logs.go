// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package logs

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
)

// 日志类型常量
const (
	TypeLogin      = "login"
	TypeLogout     = "logout"
	TypeSubmission = "submission" // 队伍提交/更新报告
	TypeReview     = "review"     // 管理员审核
	TypeHackathon  = "hackathon"  // 计时器变更
	TypeAdminOp    = "admin_op"
)

// 日志级别常量
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelSuccess = "success"
)

// LogEntry 日志条目
type LogEntry struct {
	ID        int64           `json:"id" db:"id"`
	Type      string          `json:"type" db:"type"`
	Level     string          `json:"level" db:"level"`
	TeamID    *string         `json:"teamId,omitempty" db:"team_id"`
	TeamName  *string         `json:"teamName,omitempty" db:"team_name"`
	IPAddress string          `json:"ipAddress,omitempty" db:"ip_address"`
	Message   string          `json:"message" db:"message"`
	Details   json.RawMessage `json:"details,omitempty" db:"-"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`

	RawDetails string `json:"-" db:"raw_details"`
}

// writeWait 单次推送的写超时
const writeWait = 5 * time.Second

// WebSocket 连接管理
var (
	clients   = make(map[*websocket.Conn]bool)
	clientsMu sync.RWMutex
	upgrader  = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// WriteLog 写入审计日志并推送给在线管理员；写入失败只记录不返回
func WriteLog(ctx context.Context, db *sqlx.DB, logType, level string, teamID *string, ipAddress, message string, details interface{}) {
	var detailsJSON []byte
	var detailsArg interface{}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = b
			detailsArg = string(b)
		}
	}

	entry := LogEntry{
		Type:      logType,
		Level:     level,
		TeamID:    teamID,
		IPAddress: ipAddress,
		Message:   message,
		Details:   detailsJSON,
	}
	err := db.QueryRowxContext(ctx, `
		WITH inserted AS (
			INSERT INTO system_logs (type, level, team_id, ip_address, message, details)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, team_id, created_at
		)
		SELECT i.id, t.name AS team_name, i.created_at
		FROM inserted i LEFT JOIN teams t ON t.id = i.team_id`,
		logType, level, teamID, ipAddress, message, detailsArg).Scan(&entry.ID, &entry.TeamName, &entry.CreatedAt)
	if err != nil {
		slog.Warn("write system log failed", "type", logType, "error", err)
		entry.CreatedAt = time.Now()
	}

	go broadcastLog(entry)
}

// HandleGetLogs 获取日志列表（管理后台API）
func HandleGetLogs(c *gin.Context, db *sqlx.DB) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 10 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	logType := c.Query("type")
	level := c.Query("level")
	search := c.Query("search")

	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if logType != "" {
		where += " AND l.type = $" + strconv.Itoa(argIdx)
		args = append(args, logType)
		argIdx++
	}
	if level != "" {
		where += " AND l.level = $" + strconv.Itoa(argIdx)
		args = append(args, level)
		argIdx++
	}
	if search != "" {
		where += " AND l.message ILIKE $" + strconv.Itoa(argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}

	ctx := c.Request.Context()
	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM system_logs l`+where, args...); err != nil {
		slog.Error("count system logs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "服务器内部错误"})
		return
	}

	query := `
		SELECT l.id, l.type, l.level, l.team_id, t.name AS team_name, l.ip_address, l.message,
		       COALESCE(l.details::text, '') AS raw_details, l.created_at
		FROM system_logs l
		LEFT JOIN teams t ON l.team_id = t.id` + where +
		" ORDER BY l.created_at DESC LIMIT $" + strconv.Itoa(argIdx) + " OFFSET $" + strconv.Itoa(argIdx+1)
	args = append(args, pageSize, offset)

	logs := []LogEntry{}
	if err := db.SelectContext(ctx, &logs, query, args...); err != nil {
		slog.Error("list system logs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR", "message": "服务器内部错误"})
		return
	}
	for i := range logs {
		if logs[i].RawDetails != "" {
			logs[i].Details = json.RawMessage(logs[i].RawDetails)
		}
	}

	totalPages := (total + pageSize - 1) / pageSize
	c.JSON(http.StatusOK, gin.H{
		"logs":       logs,
		"total":      total,
		"page":       page,
		"pageSize":   pageSize,
		"totalPages": totalPages,
	})
}

// HandleLogsWebSocket WebSocket 实时日志推送
func HandleLogsWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	clientsMu.Lock()
	clients[conn] = true
	clientsMu.Unlock()

	defer func() {
		clientsMu.Lock()
		delete(clients, conn)
		clientsMu.Unlock()
	}()

	// 保持连接，读取客户端消息（心跳）
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcastLog 广播日志给所有客户端
func broadcastLog(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	// 写操作需要独占，避免同一连接并发写
	clientsMu.Lock()
	defer clientsMu.Unlock()

	for conn := range clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(clients, conn)
		}
	}
}
