// Package store is the relational facade over the query builder: a small,
// declarative find/create/update/delete API per entity table. Unlike the
// raw builder it returns Go errors, with ErrNotFound distinguishing missing
// rows from infrastructure failures.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/petalworks/bloom/internal/query"
)

// ErrNotFound is returned by FindUnique when no row matches.
var ErrNotFound = errors.New("store: row not found")

// Order is a single-column sort directive.
type Order struct {
	Column string
	Desc   bool
}

// Options narrows a find call. Where is equality-only; Take/Skip page the
// result set.
type Options struct {
	Where   map[string]any
	OrderBy *Order
	Take    int
	Skip    int
}

// Table exposes facade operations for one registered table.
type Table[T any] struct {
	db   bun.IDB
	name string
}

// NewTable builds a facade for the named table, failing for tables missing
// from the schema registry.
func NewTable[T any](db bun.IDB, name string) (*Table[T], error) {
	// Construct a throwaway builder purely for the registry check.
	if _, err := query.New[T](db, name); err != nil {
		return nil, err
	}
	return &Table[T]{db: db, name: name}, nil
}

// MustTable is NewTable for statically-known table names.
func MustTable[T any](db bun.IDB, name string) *Table[T] {
	t, err := NewTable[T](db, name)
	if err != nil {
		panic(err)
	}
	return t
}

// WithTx rebinds the facade to a transaction-scoped connection.
func (t *Table[T]) WithTx(db bun.IDB) *Table[T] {
	return &Table[T]{db: db, name: t.name}
}

// Name returns the underlying table name.
func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) builder() *query.Builder[T] {
	b, err := query.New[T](t.db, t.name)
	if err != nil {
		// NewTable already proved the table exists.
		panic(err)
	}
	return b
}

func (t *Table[T]) applyOptions(b *query.Builder[T], opts Options) *query.Builder[T] {
	for col, v := range opts.Where {
		b = b.Eq(col, v)
	}
	if opts.OrderBy != nil {
		b = b.OrderBy(opts.OrderBy.Column, opts.OrderBy.Desc)
	}
	if opts.Skip > 0 {
		take := opts.Take
		if take <= 0 {
			take = 100
		}
		b = b.Range(opts.Skip, opts.Skip+take-1)
	} else if opts.Take > 0 {
		b = b.Limit(opts.Take)
	}
	return b
}

// FindMany returns all rows matching the options.
func (t *Table[T]) FindMany(ctx context.Context, opts Options) ([]T, error) {
	res := t.applyOptions(t.builder(), opts).Execute(ctx)
	if !res.Success {
		return nil, fmt.Errorf("store: find %s: %w", t.name, res.Err)
	}
	return res.Data, nil
}

// Count returns the number of rows matching the equality where map.
func (t *Table[T]) Count(ctx context.Context, where map[string]any) (int, error) {
	b := t.builder()
	for col, v := range where {
		b = b.Eq(col, v)
	}
	res := b.Execute(ctx)
	if !res.Success {
		return 0, fmt.Errorf("store: count %s: %w", t.name, res.Err)
	}
	return res.Count, nil
}

// FindUnique returns the single row matching the options or ErrNotFound.
// With multiple matches the first row under the accumulated ordering wins.
func (t *Table[T]) FindUnique(ctx context.Context, opts Options) (*T, error) {
	res := t.applyOptions(t.builder(), opts).Single().Execute(ctx)
	if !res.Success {
		return nil, fmt.Errorf("store: find %s: %w", t.name, res.Err)
	}
	if len(res.Data) == 0 {
		return nil, ErrNotFound
	}
	row := res.Data[0]
	return &row, nil
}

// Create inserts one row, filling generated fields in place.
func (t *Table[T]) Create(ctx context.Context, row *T) error {
	res := t.builder().Insert(ctx, row)
	if !res.Success {
		return fmt.Errorf("store: create %s: %w", t.name, res.Err)
	}
	return nil
}

// CreateMany inserts all rows in one statement.
func (t *Table[T]) CreateMany(ctx context.Context, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	res := t.builder().Insert(ctx, rows...)
	if !res.Success {
		return fmt.Errorf("store: create %s: %w", t.name, res.Err)
	}
	return nil
}

// Update applies data to rows matching where and reports rows touched.
func (t *Table[T]) Update(ctx context.Context, where map[string]any, data map[string]any) (int, error) {
	res := t.builder().Update(ctx, data, where)
	if !res.Success {
		return 0, fmt.Errorf("store: update %s: %w", t.name, res.Err)
	}
	return res.Count, nil
}

// Delete removes rows matching where and reports rows removed.
func (t *Table[T]) Delete(ctx context.Context, where map[string]any) (int, error) {
	res := t.builder().Delete(ctx, where)
	if !res.Success {
		return 0, fmt.Errorf("store: delete %s: %w", t.name, res.Err)
	}
	return res.Count, nil
}

// Increment atomically adjusts col by delta on rows matching where; a
// negative delta refuses to push the column below zero. Returns rows
// touched, zero meaning the conditional update did not apply.
func (t *Table[T]) Increment(ctx context.Context, col string, delta int64, where map[string]any) (int, error) {
	res := t.builder().Increment(ctx, col, delta, where)
	if !res.Success {
		return 0, fmt.Errorf("store: increment %s.%s: %w", t.name, col, res.Err)
	}
	return res.Count, nil
}
