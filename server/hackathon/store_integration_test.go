// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package hackathon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackportal/server/database/dbtest"
)

func TestTimerExpiresOnReadInPostgres(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	freezeClock(t, t0)
	st, err := Start(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, st.EndTime)
	assert.True(t, st.EndTime.Equal(t0.Add(TimerDuration)))

	freezeClock(t, t0.Add(time.Hour))
	active, err := IsActive(ctx, db)
	require.NoError(t, err)
	assert.True(t, active)

	freezeClock(t, t0.Add(25*time.Hour))
	st, err = GetStatus(ctx, db)
	require.NoError(t, err)
	assert.False(t, st.IsActive)
	assert.True(t, st.StartTime.Equal(t0))
	assert.Equal(t, 1, dbtest.Count(t, db, `SELECT COUNT(*) FROM hackathon_status WHERE NOT is_active`))
}
