// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackportal/server/apperr"
	"hackportal/server/database/dbtest"
)

func TestAssignTwiceReturnsSameRowInPostgres(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.Team(t, db, "team-1", "Red Team")
	dbtest.Task(t, db, "task-1", 100)
	ctx := context.Background()

	first, err := Assign(ctx, db, "team-1", "task-1")
	require.NoError(t, err)
	_, err = UpdateStatus(ctx, db, first.ID, "team-1", StatusInProgress)
	require.NoError(t, err)

	second, err := Assign(ctx, db, "team-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, StatusInProgress, second.Status)
	assert.Equal(t, 1, dbtest.Count(t, db, `SELECT COUNT(*) FROM assignments`))

	_, err = Assign(ctx, db, "team-1", "ghost")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAssignToAllTeamsInPostgres(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.Team(t, db, "team-1", "Red Team")
	dbtest.Team(t, db, "team-2", "Blue Team")
	dbtest.Task(t, db, "task-1", 100)
	dbtest.Task(t, db, "task-2", 200)
	ctx := context.Background()

	n, err := AssignToAllTeams(ctx, db, []string{"task-2", "task-1", "task-2"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = AssignToAllTeams(ctx, db, []string{"task-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4, dbtest.Count(t, db, `SELECT COUNT(*) FROM assignments`))
}
