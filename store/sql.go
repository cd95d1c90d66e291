// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/db"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type sqlQueries struct {
	q      queryer
	logger *slog.Logger
}

// SQLStore implements Store on database/sql. The same queries run on
// postgres and sqlite.
type SQLStore struct {
	sqlQueries
	conn *sql.DB
}

func New(conn *sql.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{
		sqlQueries: sqlQueries{q: conn, logger: logger},
		conn:       conn,
	}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("begin_tx", err)
	}

	if err := fn(&sqlQueries{q: tx, logger: s.logger}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return s.fail("commit_tx", err)
	}
	return nil
}

// fail logs a storage failure once and classifies it. Timeouts and lock
// contention become apperr.KindUnavailable so they are never mistaken for
// a business outcome.
func (s *sqlQueries) fail(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"layer", "store",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)

	if errors.Is(err, context.Canceled) {
		s.logger.Debug("storage operation canceled", fields...)
		return apperr.Wrap(apperr.KindUnavailable, "request canceled", err)
	}
	if db.IsTransient(err) {
		s.logger.Warn("storage operation timed out", fields...)
		return apperr.Wrap(apperr.KindUnavailable, "storage unavailable, try again", err)
	}
	s.logger.Error("storage operation failed", fields...)
	return fmt.Errorf("%s: %w", event, err)
}

// exactlyOne maps an UPDATE/DELETE that touched no rows to notFound.
func (s *sqlQueries) exactlyOne(event string, res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail(event, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

var _ Store = (*SQLStore)(nil)
