package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"brigadez/internal/apperr"
	"brigadez/internal/metrics"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Storage struct {
	db            *sqlx.DB
	logger        *zap.Logger
	slowThreshold time.Duration
}

func NewStorage(db *sqlx.DB, logger *zap.Logger, slowThreshold time.Duration) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if slowThreshold == 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &Storage{db: db, logger: logger, slowThreshold: slowThreshold}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// track меряет длительность запроса: гистограмма + предупреждение о медленном запросе.
// Использование: defer s.track("select", "enquiries")()
func (s *Storage) track(operation, table string) func() {
	start := time.Now()
	return func() {
		took := time.Since(start)
		metrics.RecordDBQueryDuration(operation, table, took)
		if took > s.slowThreshold {
			s.logger.Warn("slow-query",
				zap.String("operation", operation),
				zap.String("table", table),
				zap.Duration("took", took),
			)
			metrics.IncrementSlowQuery(operation, table)
		}
	}
}

// withTx выполняет fn в транзакции; ошибка fn откатывает всё
func (s *Storage) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Storage(op, err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", zap.String("op", op), zap.Error(rbErr))
		}
		return apperr.Storage(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage(op, err)
	}
	return nil
}

// lockOwner сериализует транзакции одного пользователя в пределах namespace
func lockOwner(ctx context.Context, tx *sqlx.Tx, namespace, ownerID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, namespace+":"+ownerID)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}
