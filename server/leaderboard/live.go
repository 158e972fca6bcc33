// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package leaderboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
)

// writeWait 单次推送的写超时
const writeWait = 5 * time.Second

// WebSocket 连接管理（排行榜大屏）
var (
	liveClients  = make(map[*websocket.Conn]bool)
	liveMutex    sync.Mutex
	liveUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// HandleLeaderboardWebSocket 排行榜实时推送，连接建立时先发送一次当前排名
func HandleLeaderboardWebSocket(c *gin.Context, db *sqlx.DB) {
	conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if st, err := Get(c.Request.Context(), db); err == nil {
		if data, err := json.Marshal(st); err == nil {
			liveMutex.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.TextMessage, data)
			liveMutex.Unlock()
		}
	}

	liveMutex.Lock()
	liveClients[conn] = true
	liveMutex.Unlock()

	defer func() {
		liveMutex.Lock()
		delete(liveClients, conn)
		liveMutex.Unlock()
	}()

	// 保持连接，等待客户端断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// BroadcastStandings 重新计算排行榜并推送给所有大屏连接（得分变化时调用）
func BroadcastStandings(db *sqlx.DB) {
	liveMutex.Lock()
	n := len(liveClients)
	liveMutex.Unlock()
	if n == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := Get(ctx, db)
	if err != nil {
		slog.Warn("broadcast leaderboard failed", "error", err)
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}

	liveMutex.Lock()
	defer liveMutex.Unlock()
	for conn := range liveClients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(liveClients, conn)
		}
	}
	slog.Debug("leaderboard broadcast", "clients", len(liveClients))
}
