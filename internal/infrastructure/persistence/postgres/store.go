package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rehab-hub/rehab-adherence/internal/domain/catalog"
	"github.com/rehab-hub/rehab-adherence/internal/domain/progress"
	"github.com/rehab-hub/rehab-adherence/internal/domain/schedule"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/retry"
)

// Store implements store.Store on a pgx pool, or on one transaction when
// obtained through Atomic.
type Store struct {
	conn    *Connection
	q       Querier
	inTx    bool
	cache   user.Cache
	retrier *retry.Retrier
	log     *logger.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a pool-backed store. cache may be nil.
func NewStore(conn *Connection, cache user.Cache, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("postgres"))

	s := &Store{conn: conn, q: conn.Pool(), cache: cache, log: log}
	s.retrier = retry.DatabaseRetrier(IsTransient,
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("retrying transaction", logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
		}),
	)
	return s
}

func (s *Store) Users() user.Repository {
	return &userRepo{q: s.q, cache: s.cache, log: s.log}
}

func (s *Store) Catalog() catalog.Repository    { return &catalogRepo{q: s.q} }
func (s *Store) Schedules() schedule.Repository { return &scheduleRepo{q: s.q} }
func (s *Store) Progress() progress.Repository  { return &progressRepo{q: s.q} }

// Atomic runs fn inside one transaction. Serialization failures and
// deadlocks replay the whole transaction; nested calls join the outer one.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			return fn(&Store{conn: s.conn, q: tx, inTx: true, cache: s.cache, retrier: s.retrier, log: s.log})
		})
	})
}
