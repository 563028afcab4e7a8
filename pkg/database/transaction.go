package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// WithTransaction flow:
//     Begin transaction với TxOptions (isolation level)
//     Defer rollback - tự động rollback nếu:
//         fn return error
//         có panic xảy ra
//         commit fail
//     Rollback dùng context không bị cancel, request bị hủy vẫn trả connection về pool
//     Commit nếu không có error

// TxFunc là function type được execute trong transaction
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// Beginner - pgxpool.Pool và pgx.Conn đều thỏa mãn
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTransaction wraps fn trong một transaction.
// Auto rollback nếu có error hoặc panic, auto commit nếu success.
func WithTransaction(ctx context.Context, db Beginner, opts pgx.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rollbackCtx := context.WithoutCancel(ctx)
		if rbErr := tx.Rollback(rollbackCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		if p := recover(); p != nil {
			panic(p) // re-throw sau khi đã rollback
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}
