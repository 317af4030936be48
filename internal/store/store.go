// Package store is the relational persistence layer: the deduplication gate
// over active contracts and the transactional writer for the record graph.
// It runs against Postgres through a pgx pool in production and against an
// in-memory SQLite database in tests and batch dry runs.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect Dialect
	logger  *slog.Logger
}

// OpenPostgres connects a pgx pool and exposes it through database/sql so the
// same query code serves both dialects.
func OpenPostgres(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, eris.Wrap(err, "parsing database url")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "creating connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "pinging database")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      stdlib.OpenDBFromPool(pool),
		pool:    pool,
		dialect: DialectPostgres,
		logger:  logger,
	}, nil
}

// OpenSQLite opens an in-memory database. A single connection keeps all
// statements on the same memory instance.
func OpenSQLite(logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, eris.Wrap(err, "opening sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dialect: DialectSQLite, logger: logger}, nil
}

func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// InitSchema applies the portable DDL. Statements are idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "applying schema statement %q", firstLine(stmt))
		}
	}
	s.logger.Debug("schema applied", "statements", len(schemaStatements))
	return nil
}

// rebind rewrites ? placeholders to the $N form Postgres expects.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
