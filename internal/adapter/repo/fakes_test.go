package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/awonak/pool-party/internal/infra"
)

type sqlCall struct {
	query string
	args  []any
}

// fakeSQL answers marked statements from canned responses keyed by statement.
type fakeSQL struct {
	rows    map[string][][]any
	row     map[string]func(args []any) ([]any, error)
	calls   []sqlCall
	txs     int
	commits int
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{rows: map[string][][]any{}, row: map[string]func([]any) ([]any, error){}}
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sqlCall{query: query, args: args})
	return pgconn.CommandTag{}, nil
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, sqlCall{query: query, args: args})
	fn, ok := f.row[query]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	values, err := fn(args)
	return fakeRow{values: values, err: err}
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, sqlCall{query: query, args: args})
	return &fakeRows{rows: f.rows[query]}, nil
}

func (f *fakeSQL) InTx(_ context.Context, fn func(tx infra.SQLExecutor) error) error {
	f.txs++
	if err := fn(f); err != nil {
		return err
	}
	f.commits++
	return nil
}

func (f *fakeSQL) callsTo(query string) []sqlCall {
	var out []sqlCall
	for _, c := range f.calls {
		if c.query == query {
			out = append(out, c)
		}
	}
	return out
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return assign(dest, r.rows[r.idx-1])
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, fmt.Errorf("values not supported in test rows") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(values[i])
		if !v.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("scan: column %d is %s, destination is %s", i, v.Type(), target.Type())
		}
		target.Set(v)
	}
	return nil
}

var _ infra.TxRunner = (*fakeSQL)(nil)
