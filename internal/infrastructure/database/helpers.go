package database

import (
	"context"
	"fmt"
	"time"
)

// Ping kiểm tra database còn sống và responsive, dùng cho /health
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	// Health check không nên chờ quá lâu
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close đóng pool. Gọi nhiều lần vẫn an toàn.
func (db *PostgresDB) Close() error {
	if db.Pool == nil {
		return nil
	}

	db.logger.Info().Msg("Closing database connection pool")
	db.Pool.Close()
	db.Pool = nil
	return nil
}

// PoolStats - snapshot thống kê của connection pool
type PoolStats struct {
	TotalConns      int32         `json:"totalConns"`
	AcquiredConns   int32         `json:"acquiredConns"`
	IdleConns       int32         `json:"idleConns"`
	MaxConns        int32         `json:"maxConns"`
	AcquireCount    int64         `json:"acquireCount"`
	AvgAcquireTime  time.Duration `json:"avgAcquireTimeNs"`
	EmptyAcquires   int64         `json:"emptyAcquireCount"`
	CanceledAcquire int64         `json:"canceledAcquireCount"`
}

// Stats trả về snapshot của pool statistics
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		TotalConns:      raw.TotalConns(),
		AcquiredConns:   raw.AcquiredConns(),
		IdleConns:       raw.IdleConns(),
		MaxConns:        raw.MaxConns(),
		AcquireCount:    raw.AcquireCount(),
		AvgAcquireTime:  calculateAvgDuration(raw.AcquireDuration(), raw.AcquireCount()),
		EmptyAcquires:   raw.EmptyAcquireCount(),
		CanceledAcquire: raw.CanceledAcquireCount(),
	}, nil
}

func calculateAvgDuration(totalDuration time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return totalDuration / time.Duration(count)
}
