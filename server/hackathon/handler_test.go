// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package hackathon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackportal/server/apperr"
)

func newRouter(db *sqlx.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/hackathon", func(c *gin.Context) { HandleGetStatus(c, db) })
	r.POST("/hackathon", func(c *gin.Context) { HandleAction(c, db) })
	r.POST("/gated", RequireActive(db), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandleGetStatusReportsRemaining(t *testing.T) {
	now := t0.Add(time.Hour)
	freezeClock(t, now)
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT is_active").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(true, t0, t0.Add(TimerDuration), t0))

	w := do(newRouter(db), http.MethodGet, "/hackathon", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		IsActive         bool  `json:"isActive"`
		RemainingSeconds int64 `json:"remainingSeconds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.IsActive)
	assert.Equal(t, int64(23*3600), body.RemainingSeconds)
}

func TestHandleActionStart(t *testing.T) {
	freezeClock(t, t0)
	db, mock := newMock(t)
	end := t0.Add(TimerDuration)
	mock.ExpectQuery("INSERT INTO hackathon_status").
		WithArgs(t0, end).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(true, t0, end, t0))
	mock.ExpectQuery("INSERT INTO system_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_name", "created_at"}).AddRow(1, nil, t0))

	w := do(newRouter(db), http.MethodPost, "/hackathon", `{"action":"start"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isActive":true`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleActionRejectsUnknownAction(t *testing.T) {
	db, _ := newMock(t)
	w := do(newRouter(db), http.MethodPost, "/hackathon", `{"action":"pause"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestHandleActionSetTimerRequiresIsActive(t *testing.T) {
	db, _ := newMock(t)
	w := do(newRouter(db), http.MethodPost, "/hackathon", `{"action":"set-timer","startTime":"2026-10-15T09:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleActionSelectTasks(t *testing.T) {
	db, mock := newMock(t)
	prev := SelectTasks
	t.Cleanup(func() { SelectTasks = prev })

	var got []string
	SelectTasks = func(ctx context.Context, db *sqlx.DB, taskIDs []string) (int, error) {
		got = taskIDs
		return 6, nil
	}
	mock.ExpectQuery("INSERT INTO system_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_name", "created_at"}).AddRow(1, nil, t0))

	w := do(newRouter(db), http.MethodPost, "/hackathon", `{"action":"select-tasks","taskIds":["t1","t2"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"t1", "t2"}, got)
	assert.Contains(t, w.Body.String(), `"assignments":6`)
}

func TestHandleActionSelectTasksUnknownTask(t *testing.T) {
	db, _ := newMock(t)
	prev := SelectTasks
	t.Cleanup(func() { SelectTasks = prev })
	SelectTasks = func(ctx context.Context, db *sqlx.DB, taskIDs []string) (int, error) {
		return 0, apperr.NotFound("TASK_NOT_FOUND", "题目不存在")
	}

	w := do(newRouter(db), http.MethodPost, "/hackathon", `{"action":"select-tasks","taskIds":["missing"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "TASK_NOT_FOUND")
}

func TestRequireActiveAfterWindowCloses(t *testing.T) {
	// 开始后25小时提交应被拒绝
	now := t0.Add(25 * time.Hour)
	freezeClock(t, now)
	db, mock := newMock(t)
	end := t0.Add(TimerDuration)
	mock.ExpectQuery("SELECT is_active").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(true, t0, end, t0))
	mock.ExpectQuery("UPDATE hackathon_status").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(false, t0, end, now))

	w := do(newRouter(db), http.MethodPost, "/gated", `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "COMPETITION_INACTIVE")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireActiveWithinWindow(t *testing.T) {
	freezeClock(t, t0.Add(time.Minute))
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT is_active").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(true, t0, t0.Add(TimerDuration), t0))

	w := do(newRouter(db), http.MethodPost, "/gated", `{}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
