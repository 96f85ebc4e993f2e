// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"context"
	"database/sql"
)

// Preparer is anything statements can be prepared on, such as a *sql.DB, a
// *sql.Conn or a *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// args binds params, or a new parameter record when params is nil, and
// returns the values for the positional placeholders.
func (t *Template[P, R]) args(params *P) ([]any, error) {
	if params == nil {
		params = t.newParams()
	}
	n := -1
	if sc, ok := t.handler.(interface{ slotCount() int }); ok {
		n = sc.slotCount()
	}
	binds := newBinds(n)
	if err := t.handler.Bind(params, binds); err != nil {
		return nil, err
	}
	return binds.Args()
}

func (t *Template[P, R]) execError(op string, err error) error {
	return &ExecError{Op: op, SQL: t.SQL(), Err: err}
}

// Exec runs the statement and returns the number of rows affected, or -1
// when the driver cannot report it.
func (t *Template[P, R]) Exec(ctx context.Context, conn Preparer, params *P) (n int64, err error) {
	args, err := t.args(params)
	if err != nil {
		return -1, t.execError("bind", err)
	}
	stmt, err := conn.PrepareContext(ctx, t.SQL())
	if err != nil {
		return -1, t.execError("prepare", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			n, err = -1, t.execError("close", cerr)
		}
	}()

	t.logger.V(1).Info("executing statement", "sql", t.SQL(), "args", len(args))
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return -1, t.execError("execute", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return -1, nil
	}
	return n, nil
}

// Query runs the statement and returns its rows. The rows must be closed,
// which happens automatically once they are exhausted.
func (t *Template[P, R]) Query(ctx context.Context, conn Preparer, params *P) (*Rows[R], error) {
	args, err := t.args(params)
	if err != nil {
		return nil, t.execError("bind", err)
	}
	stmt, err := conn.PrepareContext(ctx, t.SQL())
	if err != nil {
		return nil, t.execError("prepare", err)
	}

	t.logger.V(1).Info("running query", "sql", t.SQL(), "args", len(args))
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		stmt.Close()
		return nil, t.execError("execute", err)
	}
	cursor, err := newCursor(rows)
	if err != nil {
		rows.Close()
		stmt.Close()
		return nil, t.execError("iterate", err)
	}
	return &Rows[R]{
		sql:       t.SQL(),
		stmt:      stmt,
		cursor:    cursor,
		decode:    t.handler.Decode,
		newRecord: t.newResult,
	}, nil
}

// ForEach runs the query and calls fn with every record. Iteration stops at
// the first error returned by fn, which ForEach then returns. The rows are
// released on every path out of ForEach.
func (t *Template[P, R]) ForEach(ctx context.Context, conn Preparer, params *P, fn func(*R) error) error {
	rows, err := t.Query(ctx, conn, params)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows.Record()); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Collect runs the query and returns all of its records.
func (t *Template[P, R]) Collect(ctx context.Context, conn Preparer, params *P) ([]*R, error) {
	var records []*R
	err := t.ForEach(ctx, conn, params, func(r *R) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// QueryOne runs the query and returns its first record. It returns
// [ErrNoRows] if there are no rows.
func (t *Template[P, R]) QueryOne(ctx context.Context, conn Preparer, params *P) (*R, error) {
	rows, err := t.Query(ctx, conn, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}
	r := rows.Record()
	return r, rows.Close()
}
