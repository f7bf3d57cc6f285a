package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
)

// ErrPoolClosed is returned by Pool.DB after Close has been called.
var ErrPoolClosed = errors.New("database pool is closed")

// Pool owns the process-wide database handle. The handle is connected on
// first use and shared by every caller until Close.
type Pool struct {
	driver          string
	dsn             string
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration

	mu     sync.Mutex
	db     *sqlx.DB
	err    error
	closed bool
}

// Opt configures a Pool.
type Opt func(*Pool)

// WithDriver overrides the database/sql driver name (default "pgx").
func WithDriver(name string) Opt {
	return func(p *Pool) { p.driver = name }
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Opt {
	return func(p *Pool) { p.maxOpenConns = n }
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Opt {
	return func(p *Pool) { p.maxIdleConns = n }
}

// WithConnMaxLifetime sets how long a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Opt {
	return func(p *Pool) { p.connMaxLifetime = d }
}

// NewPool creates a Pool for dsn. No connection is made until DB is called.
func NewPool(dsn string, opts ...Opt) *Pool {
	p := &Pool{
		driver:          "pgx",
		dsn:             dsn,
		maxOpenConns:    16,
		maxIdleConns:    8,
		connMaxLifetime: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DB returns the shared handle, connecting on the first call.
// A failed first connection is remembered and returned to every later caller.
func (p *Pool) DB(ctx context.Context) (*sqlx.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if p.db != nil || p.err != nil {
		return p.db, p.err
	}

	db, err := sqlx.ConnectContext(ctx, p.driver, p.dsn)
	if err != nil {
		p.err = fmt.Errorf("connect to database: %w", err)
		logger.Named("db").Errorw("database connection failed", "driver", p.driver, "error", err)
		return nil, p.err
	}
	db.SetMaxOpenConns(p.maxOpenConns)
	db.SetMaxIdleConns(p.maxIdleConns)
	db.SetConnMaxLifetime(p.connMaxLifetime)

	logger.Named("db").Infow("database pool initialized",
		"driver", p.driver,
		"max_open_conns", p.maxOpenConns,
		"max_idle_conns", p.maxIdleConns,
	)

	p.db = db
	return p.db, nil
}

// Close releases the handle. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
