// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlnorm

import (
	"database/sql"
	"errors"
	"iter"
)

// Rows is the forward-only sequence of records returned by a query. It holds
// the database cursor and the prepared statement until it is exhausted or
// closed.
type Rows[R any] struct {
	sql       string
	stmt      *sql.Stmt
	cursor    *Cursor
	decode    func(*Cursor, *R) error
	newRecord func() *R

	record *R
	err    error
	// done is true once the cursor and statement have been released.
	done bool
	// closed is true if Close released the rows before they were exhausted.
	closed   bool
	consumed bool
}

// Next decodes the next row, which is then available from [Rows.Record]. It
// returns false when there are no more rows or an error occurred. The rows
// are released as soon as Next returns false.
func (r *Rows[R]) Next() bool {
	if r.done {
		if r.closed && r.err == nil {
			r.err = ErrRowsClosed
		}
		return false
	}
	ok, err := r.cursor.next()
	if err != nil {
		r.fail("iterate", err)
		return false
	}
	if !ok {
		r.release()
		return false
	}
	rec := r.newRecord()
	if err := r.decode(r.cursor, rec); err != nil {
		r.fail("decode", err)
		return false
	}
	r.record = rec
	return true
}

// Record returns the record decoded by the last call to [Rows.Next].
func (r *Rows[R]) Record() *R {
	return r.record
}

// Err returns the error that ended the iteration, if any.
func (r *Rows[R]) Err() error {
	return r.err
}

// Close releases the rows. It can be called multiple times and returns the
// error that ended the iteration, if any.
func (r *Rows[R]) Close() error {
	if !r.done {
		r.closed = true
		r.release()
	}
	if errors.Is(r.err, ErrRowsClosed) {
		return nil
	}
	return r.err
}

// All returns an iterator over the remaining records. The rows are closed
// when the loop ends. Rows can only be ranged over once; later calls to All
// yield [ErrRowsConsumed].
func (r *Rows[R]) All() iter.Seq2[*R, error] {
	consumed := r.consumed
	r.consumed = true
	return func(yield func(*R, error) bool) {
		if consumed {
			yield(nil, ErrRowsConsumed)
			return
		}
		defer r.Close()
		for r.Next() {
			if !yield(r.record, nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (r *Rows[R]) fail(op string, err error) {
	r.err = &ExecError{Op: op, SQL: r.sql, Err: err}
	r.release()
}

func (r *Rows[R]) release() {
	r.done = true
	r.record = nil
	err := r.cursor.rows.Close()
	if serr := r.stmt.Close(); err == nil {
		err = serr
	}
	if err != nil && r.err == nil {
		r.err = &ExecError{Op: "close", SQL: r.sql, Err: err}
	}
}
