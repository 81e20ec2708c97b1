// Package store wraps *sql.DB with dialect-transparent statement
// execution and transaction management. All SQL in this codebase is
// written with ? placeholders; the store rewrites them for the active
// backend so repositories and services never branch on the driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Executor is the statement surface shared by the store itself and by
// transaction-scoped handles. Repository methods that must participate in
// a caller's transaction take an Executor parameter.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row

	// InsertID runs an INSERT written without a RETURNING clause and
	// returns the new row id, using RETURNING on postgres and
	// LastInsertId on sqlite.
	InsertID(ctx context.Context, query string, args ...interface{}) (int, error)
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Rebind rewrites ? placeholders into the dialect's native form. Question
// marks inside single-quoted literals are left alone; the codebase does
// not use other quoting styles in statements.
func (s *Store) Rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	return rebindPostgres(query)
}

func rebindPostgres(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			b.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *Store) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.Rebind(query), args...)
}

func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.Rebind(query), args...)
}

func (s *Store) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.Rebind(query), args...)
}

func (s *Store) InsertID(ctx context.Context, query string, args ...interface{}) (int, error) {
	return insertID(ctx, s.db, s.dialect, s.Rebind(query), args...)
}

// WithTx runs fn inside one transaction. The Executor handed to fn is
// scoped to that transaction and performs the same placeholder rewriting.
// The transaction commits when fn returns nil and rolls back when fn
// returns an error or panics; fn's error is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(ex Executor) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txExecutor{tx: tx, store: s}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txExecutor struct {
	tx    *sql.Tx
	store *Store
}

func (e *txExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return e.tx.ExecContext(ctx, e.store.Rebind(query), args...)
}

func (e *txExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return e.tx.QueryContext(ctx, e.store.Rebind(query), args...)
}

func (e *txExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return e.tx.QueryRowContext(ctx, e.store.Rebind(query), args...)
}

func (e *txExecutor) InsertID(ctx context.Context, query string, args ...interface{}) (int, error) {
	return insertID(ctx, e.tx, e.store.dialect, e.store.Rebind(query), args...)
}

type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func insertID(ctx context.Context, runner sqlRunner, dialect Dialect, rebound string, args ...interface{}) (int, error) {
	if dialect == DialectPostgres {
		var id int
		if err := runner.QueryRowContext(ctx, rebound+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := runner.ExecContext(ctx, rebound, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return int(id), nil
}
