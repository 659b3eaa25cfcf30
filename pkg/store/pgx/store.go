package pgx

import (
	"context"
	"errors"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("run not found")

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// RunDBStore implements store.RunStore on PostgreSQL with pgvector for
// section embedding search.
type RunDBStore struct {
	conn pgxIConn
}

func New(pool *pgxpool.Pool) *RunDBStore {
	return &RunDBStore{conn: pool}
}

// NewWithConnection creates a RunDBStore on an existing connection,
// mainly for transactions and tests.
func NewWithConnection(conn pgxIConn) *RunDBStore {
	return &RunDBStore{conn: conn}
}
