// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package hackathon

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// TimerDuration 一键开始时的比赛时长
const TimerDuration = 24 * time.Hour

// Now 当前时间，测试时可替换
var Now = time.Now

// Status 比赛计时器状态（单行表 id=1）
type Status struct {
	IsActive  bool       `json:"isActive" db:"is_active"`
	StartTime *time.Time `json:"startTime" db:"start_time"`
	EndTime   *time.Time `json:"endTime" db:"end_time"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Expired 计时器处于激活状态且已到结束时间
func (s *Status) Expired(now time.Time) bool {
	return s.IsActive && s.EndTime != nil && !now.Before(*s.EndTime)
}

// RemainingSeconds 距离结束的秒数，未激活或无结束时间时为0
func (s *Status) RemainingSeconds(now time.Time) int64 {
	if !s.IsActive || s.EndTime == nil {
		return 0
	}
	if d := s.EndTime.Sub(now); d > 0 {
		return int64(d / time.Second)
	}
	return 0
}

const statusColumns = `is_active, start_time, end_time, updated_at`

// GetStatus 读取比赛状态：首次读取时初始化，读取时顺带处理到期自动结束
func GetStatus(ctx context.Context, db *sqlx.DB) (*Status, error) {
	st, err := selectStatus(ctx, db)
	if errors.Is(err, sql.ErrNoRows) {
		// 并发首读时只有一条插入生效
		_, err = db.ExecContext(ctx, `INSERT INTO hackathon_status (id, is_active, start_time, end_time, updated_at)
			VALUES (1, FALSE, NULL, NULL, $1) ON CONFLICT (id) DO NOTHING`, Now())
		if err != nil {
			return nil, err
		}
		st, err = selectStatus(ctx, db)
	}
	if err != nil {
		return nil, err
	}

	now := Now()
	if !st.Expired(now) {
		return st, nil
	}

	// 只结束仍处于激活且已到期的计时，读写之间被重新开始的比赛保持不变
	var expired Status
	err = db.QueryRowxContext(ctx, `UPDATE hackathon_status SET is_active = FALSE, updated_at = $1
		WHERE id = 1 AND is_active AND end_time <= $1 RETURNING `+statusColumns, now).StructScan(&expired)
	if errors.Is(err, sql.ErrNoRows) {
		return selectStatus(ctx, db)
	}
	if err != nil {
		return nil, err
	}
	return &expired, nil
}

// IsActive 比赛当前是否进行中
func IsActive(ctx context.Context, db *sqlx.DB) (bool, error) {
	st, err := GetStatus(ctx, db)
	if err != nil {
		return false, err
	}
	return st.IsActive, nil
}

// Start 开始比赛，覆盖之前的计时
func Start(ctx context.Context, db *sqlx.DB) (*Status, error) {
	now := Now()
	return upsert(ctx, db, `INSERT INTO hackathon_status (id, is_active, start_time, end_time, updated_at)
		VALUES (1, TRUE, $1, $2, $1)
		ON CONFLICT (id) DO UPDATE SET is_active = TRUE, start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time, updated_at = EXCLUDED.updated_at
		RETURNING `+statusColumns, now, now.Add(TimerDuration))
}

// Stop 停止比赛，保留开始/结束时间
func Stop(ctx context.Context, db *sqlx.DB) (*Status, error) {
	return upsert(ctx, db, `INSERT INTO hackathon_status (id, is_active, start_time, end_time, updated_at)
		VALUES (1, FALSE, NULL, NULL, $1)
		ON CONFLICT (id) DO UPDATE SET is_active = FALSE, updated_at = EXCLUDED.updated_at
		RETURNING `+statusColumns, Now())
}

// SetTimer 管理员直接设置时间窗口和激活状态，不校验先后顺序
func SetTimer(ctx context.Context, db *sqlx.DB, start, end *time.Time, isActive bool) (*Status, error) {
	return upsert(ctx, db, `INSERT INTO hackathon_status (id, is_active, start_time, end_time, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET is_active = EXCLUDED.is_active, start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time, updated_at = EXCLUDED.updated_at
		RETURNING `+statusColumns, isActive, start, end, Now())
}

func selectStatus(ctx context.Context, db *sqlx.DB) (*Status, error) {
	var st Status
	err := db.GetContext(ctx, &st, `SELECT `+statusColumns+` FROM hackathon_status WHERE id = 1`)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func upsert(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (*Status, error) {
	var st Status
	if err := db.QueryRowxContext(ctx, query, args...).StructScan(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
