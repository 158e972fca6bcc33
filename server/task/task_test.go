// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package task

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackportal/server/apperr"
)

var taskCols = []string{"id", "title", "category", "difficulty", "description", "flag", "points", "resources", "created_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestResourcesRoundTripKeepsOrder(t *testing.T) {
	in := Resources{"https://b.example", "https://a.example"}
	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, `["https://b.example","https://a.example"]`, v)

	var out Resources
	require.NoError(t, out.Scan([]byte(v.(string))))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)
	assert.Error(t, out.Scan(42))

	var nilRes Resources
	v, err = nilRes.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestListTasks(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("SELECT id, title, category, difficulty, description, flag, points, resources, created_at FROM tasks").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("recon-open-ports", "Port Recon", "Reconnaissance", "beginner", "", "HP{x}", 100, []byte(`["https://nmap.org"]`), now).
			AddRow("pwn-stack-overflow", "Return to Win", "Binary Exploitation", "advanced", "", "HP{y}", 500, []byte(`[]`), now))

	tasks, err := List(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, Resources{"https://nmap.org"}, tasks[0].Resources)
	assert.Equal(t, 500, tasks[1].Points)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingTask(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM tasks WHERE id = \\$1").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(taskCols))

	_, err := Get(context.Background(), db, "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateDuplicateTitle(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO tasks").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := Create(context.Background(), db, CreateRequest{Title: "Port Recon", Category: "Web", Difficulty: "beginner"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestHandleCreateTask(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs(sqlmock.AnyArg(), "XSS Guestbook", "Web", "intermediate", "", "HP{z}", 200, `["https://owasp.org/xss"]`).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t-1", "XSS Guestbook", "Web", "intermediate", "", "HP{z}", 200, []byte(`["https://owasp.org/xss"]`), now))
	mock.ExpectQuery("INSERT INTO system_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_name", "created_at"}).AddRow(1, nil, now))

	r := gin.New()
	r.POST("/tasks", func(c *gin.Context) { HandleCreateTask(c, db) })
	body := `{"title":"XSS Guestbook","category":"Web","difficulty":"intermediate","flag":"HP{z}","points":200,"resources":["https://owasp.org/xss"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"resources":["https://owasp.org/xss"]`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCreateTaskRejectsBadDifficulty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, _ := newMock(t)
	r := gin.New()
	r.POST("/tasks", func(c *gin.Context) { HandleCreateTask(c, db) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"x","category":"y","difficulty":"expert"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Difficulty")
}

func TestHandleGetTask(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMock(t)
	mock.ExpectQuery("FROM tasks WHERE id = \\$1").
		WithArgs("web-robots").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("web-robots", "Robots", "web", DifficultyBeginner, "", "HP{robots}", 100, `["https://example.com/robots.txt"]`, time.Now()))
	mock.ExpectQuery("FROM tasks WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(taskCols))

	r := gin.New()
	r.GET("/tasks/:id", func(c *gin.Context) { HandleGetTask(c, db) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/web-robots", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"flag":"HP{robots}"`)
	assert.Contains(t, w.Body.String(), "https://example.com/robots.txt")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "TASK_NOT_FOUND")
	require.NoError(t, mock.ExpectationsWereMet())
}
