package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Transactor runs fn inside a single transaction that is committed if fn returns nil and rolled back otherwise.
type Transactor interface {
	Transact(ctx context.Context, fn func(Queries) error) error
	Close() error
}

type Storage struct {
	ctx    context.Context
	logger *zap.Logger
	pool   *pgxpool.Pool
}

func NewStorage(ctx context.Context, l *zap.Logger) *Storage {
	return &Storage{ctx: ctx, logger: l}
}

func (s *Storage) Connect(dsn string) error {
	var err error
	s.pool, err = pgxpool.Connect(s.ctx, dsn)
	return err
}

func (s *Storage) Migrate(ctx context.Context) error {
	return s.Begin(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) Begin(ctx context.Context, fn func(pgx.Tx) error) error {
	return s.pool.BeginFunc(ctx, fn)
}

func (s *Storage) Transact(ctx context.Context, fn func(Queries) error) error {
	return s.Begin(ctx, func(tx pgx.Tx) error {
		return fn(&pgQueries{tx: tx})
	})
}

func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// translate maps constraint violations onto storage sentinels so callers need not know about SQLSTATE codes.
func translate(err error) error {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505":
			return &constraintError{sentinel: ErrDuplicate, pg: pe}
		case "23503":
			return &constraintError{sentinel: ErrNotFound, pg: pe}
		}
	}
	return err
}

type constraintError struct {
	sentinel error
	pg       *pgconn.PgError
}

func (e *constraintError) Error() string {
	return e.sentinel.Error() + " (" + e.pg.ConstraintName + ")"
}

func (e *constraintError) Unwrap() error {
	return e.sentinel
}
