// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package leaderboard

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackportal/server/database/dbtest"
	"hackportal/server/submission"
)

func submit(t *testing.T, db *sqlx.DB, assignmentID, teamID string) *submission.Submission {
	t.Helper()
	s, err := submission.Upsert(context.Background(), db, submission.Input{
		AssignmentID: assignmentID, TeamID: teamID, Plan: "plan",
	})
	require.NoError(t, err)
	return s
}

func review(t *testing.T, db *sqlx.DB, s *submission.Submission, status string, points int) {
	t.Helper()
	_, err := submission.Review(context.Background(), db, s.ID, status, points, "")
	require.NoError(t, err)
}

func TestGetCountsOnlyApprovedInPostgres(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.Team(t, db, "team-a", "A")
	dbtest.Team(t, db, "team-b", "B")
	dbtest.Team(t, db, "team-c", "C")
	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		dbtest.Task(t, db, id, 100)
	}
	dbtest.Assignment(t, db, "a1", "team-a", "t1")
	dbtest.Assignment(t, db, "a2", "team-a", "t2")
	dbtest.Assignment(t, db, "a3", "team-a", "t3")
	dbtest.Assignment(t, db, "b1", "team-b", "t3")
	dbtest.Assignment(t, db, "c1", "team-c", "t1")

	// A: 100+50 通过，另有一题被拒但给了分；B: 200 通过；C: 仅待审核
	review(t, db, submit(t, db, "a1", "team-a"), submission.StatusApproved, 100)
	review(t, db, submit(t, db, "a2", "team-a"), submission.StatusApproved, 50)
	review(t, db, submit(t, db, "a3", "team-a"), submission.StatusRejected, 999)
	review(t, db, submit(t, db, "b1", "team-b"), submission.StatusApproved, 200)
	submit(t, db, "c1", "team-c")

	st, err := Get(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalTasks)
	assert.Equal(t, []Entry{
		{Rank: 1, TeamID: "team-b", TeamName: "B", Score: 200, ChallengesCompleted: 1},
		{Rank: 2, TeamID: "team-a", TeamName: "A", Score: 150, ChallengesCompleted: 2},
		{Rank: 3, TeamID: "team-c", TeamName: "C", Score: 0, ChallengesCompleted: 0},
	}, st.Leaderboard)
}
