// Package repository stores surveys, their questions and options, and the
// answers users give, and rebuilds the nested survey objects from the
// relational tables.
//
// Every write that creates more than one row runs inside a single
// transaction, so a failure part way leaves nothing behind.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned by point lookups when the row does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyAnswered is returned when a user submits a second answer to a
// question they already answered.
var ErrAlreadyAnswered = errors.New("question already answered")

// StorageError wraps a failure of the underlying database.
// Op is a dotted code naming the statement that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyAnswered) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Store is the survey repository. It does not own the database handle:
// whoever opened it closes it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db}
}

// Tx exposes single-row inserts bound to one transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise. The error of fn is returned unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("db.begin_tx", err)
	}
	defer tx.Rollback()

	err = fn(&Tx{tx})
	if err != nil {
		return err
	}

	return storageErr("db.commit", tx.Commit())
}

// collect runs a query and scans every row with scan, returning an empty
// (never nil) slice when there are no rows.
func collect[T any](ctx context.Context, db *sql.DB, op string, scan func(*sql.Rows) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, storageErr(op+".scan", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return storageErr("db.ping", s.db.PingContext(ctx))
}
