// Package postgres is the relational store. It talks to PostgreSQL through the
// pgx driver registered with database/sql and owns the schema via goose.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Open connects to the database and checks the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration embedded in the binary.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin tx: %w", err))
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return classify(fmt.Errorf("failed to rollback withTx: %w", errors.Join(err, er)))
		}
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit withTx: %w", err))
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify marks connection level failures as unavailable. Errors that already
// carry a domain kind pass through untouched.
func classify(err error) error {
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	var connErr *pgconn.ConnectError
	code := pgCode(err)
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &connErr) || pgconn.Timeout(err) ||
		strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P") {
		return apperr.Unavailable("storage is unavailable", err)
	}
	return err
}

// placeholders renders rows of n positional parameters starting at $1.
func placeholders(rows, n int) string {
	var b strings.Builder
	for r := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range n {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", r*n+c+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}
