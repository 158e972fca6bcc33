// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package session

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

type uuidArg struct{}

func (uuidArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func TestCreate(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO admin_sessions \(token, created_at\)`).
		WithArgs(uuidArg{}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"token", "created_at"}).AddRow("3f1c9a4e-2b7d-4c1a-9f0e-6a5b8c7d2e10", now))

	s, err := Create(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "3f1c9a4e-2b7d-4c1a-9f0e-6a5b8c7d2e10", s.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind(t *testing.T) {
	db, mock := newMock(t)

	ok, err := Find(context.Background(), db, "")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM admin_sessions WHERE token = \$1\)`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err = Find(context.Background(), db, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, mock := newMock(t)
	require.NoError(t, Delete(context.Background(), db, ""))

	mock.ExpectExec(`DELETE FROM admin_sessions WHERE token = \$1`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Delete(context.Background(), db, "gone"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAll(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM admin_sessions$`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := DeleteAll(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
