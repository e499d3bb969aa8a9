// Package query implements a fluent, per-table query builder on top of Bun.
// Builders are created for exactly one registered table and validate every
// column reference against the schema registry. Terminal operations never
// panic and never return a bare error: results always arrive in a uniform
// envelope so callers can branch on Success.
package query

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/petalworks/bloom/internal/schema"
)

// Result is the uniform envelope returned by every terminal operation.
type Result[T any] struct {
	Success bool
	Data    []T
	Count   int
	Err     error
}

func failure[T any](err error) Result[T] {
	return Result[T]{Success: false, Err: err}
}

type filterKind int

const (
	filterEq filterKind = iota
	filterNeq
	filterGt
	filterGte
	filterLt
	filterLte
	filterLike
	filterILike
	filterIn
	filterIsNull
)

type filter struct {
	kind   filterKind
	column string
	value  any
	values []any
}

type ordering struct {
	column string
	desc   bool
}

// Builder accumulates filters for a single registered table. All fluent
// calls mutate and return the same builder; the first schema violation is
// captured and surfaced by the next terminal call.
type Builder[T any] struct {
	db    bun.IDB
	table schema.Table
	err   error

	filters []filter
	orders  []ordering
	offset  int
	limit   int
	single  bool
	columns []string
}

// New constructs a builder for the named table, failing fast when the table
// is not registered.
func New[T any](db bun.IDB, table string) (*Builder[T], error) {
	t, err := schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	return &Builder[T]{db: db, table: t, limit: -1, offset: -1}, nil
}

func (b *Builder[T]) checkColumn(col string) bool {
	if b.err != nil {
		return false
	}
	if !b.table.HasColumn(col) {
		b.err = fmt.Errorf("query: table %q has no column %q", b.table.Name, col)
		return false
	}
	return true
}

func (b *Builder[T]) addFilter(kind filterKind, col string, value any) *Builder[T] {
	if b.checkColumn(col) {
		b.filters = append(b.filters, filter{kind: kind, column: col, value: value})
	}
	return b
}

// Eq adds an equality filter.
func (b *Builder[T]) Eq(col string, v any) *Builder[T] { return b.addFilter(filterEq, col, v) }

// Neq adds an inequality filter.
func (b *Builder[T]) Neq(col string, v any) *Builder[T] { return b.addFilter(filterNeq, col, v) }

// Gt adds a strictly-greater filter.
func (b *Builder[T]) Gt(col string, v any) *Builder[T] { return b.addFilter(filterGt, col, v) }

// Gte adds a greater-or-equal filter.
func (b *Builder[T]) Gte(col string, v any) *Builder[T] { return b.addFilter(filterGte, col, v) }

// Lt adds a strictly-less filter.
func (b *Builder[T]) Lt(col string, v any) *Builder[T] { return b.addFilter(filterLt, col, v) }

// Lte adds a less-or-equal filter.
func (b *Builder[T]) Lte(col string, v any) *Builder[T] { return b.addFilter(filterLte, col, v) }

// Like adds a case-sensitive pattern filter.
func (b *Builder[T]) Like(col, pattern string) *Builder[T] {
	return b.addFilter(filterLike, col, pattern)
}

// ILike adds a case-insensitive pattern filter.
func (b *Builder[T]) ILike(col, pattern string) *Builder[T] {
	return b.addFilter(filterILike, col, pattern)
}

// In filters the column to the given value set.
func (b *Builder[T]) In(col string, values ...any) *Builder[T] {
	if b.checkColumn(col) {
		b.filters = append(b.filters, filter{kind: filterIn, column: col, values: values})
	}
	return b
}

// IsNull filters rows where the column is NULL.
func (b *Builder[T]) IsNull(col string) *Builder[T] { return b.addFilter(filterIsNull, col, nil) }

// OrderBy appends a sort column.
func (b *Builder[T]) OrderBy(col string, desc bool) *Builder[T] {
	if b.checkColumn(col) {
		b.orders = append(b.orders, ordering{column: col, desc: desc})
	}
	return b
}

// Range selects rows from..to inclusive, zero-based.
func (b *Builder[T]) Range(from, to int) *Builder[T] {
	if from < 0 || to < from {
		if b.err == nil {
			b.err = fmt.Errorf("query: invalid range [%d, %d]", from, to)
		}
		return b
	}
	b.offset = from
	b.limit = to - from + 1
	return b
}

// Limit caps the number of rows returned.
func (b *Builder[T]) Limit(n int) *Builder[T] {
	b.limit = n
	return b
}

// Single restricts the query to at most one row.
func (b *Builder[T]) Single() *Builder[T] {
	b.single = true
	return b
}

// Columns narrows the selected column set.
func (b *Builder[T]) Columns(cols ...string) *Builder[T] {
	for _, c := range cols {
		if !b.checkColumn(c) {
			return b
		}
	}
	b.columns = append(b.columns, cols...)
	return b
}

func applyFilter(q *bun.SelectQuery, f filter) *bun.SelectQuery {
	ident := bun.Ident(f.column)
	switch f.kind {
	case filterEq:
		return q.Where("? = ?", ident, f.value)
	case filterNeq:
		return q.Where("? != ?", ident, f.value)
	case filterGt:
		return q.Where("? > ?", ident, f.value)
	case filterGte:
		return q.Where("? >= ?", ident, f.value)
	case filterLt:
		return q.Where("? < ?", ident, f.value)
	case filterLte:
		return q.Where("? <= ?", ident, f.value)
	case filterLike:
		return q.Where("? LIKE ?", ident, f.value)
	case filterILike:
		return q.Where("? ILIKE ?", ident, f.value)
	case filterIn:
		return q.Where("? IN (?)", ident, bun.In(f.values))
	case filterIsNull:
		return q.Where("? IS NULL", ident)
	}
	return q
}

func (b *Builder[T]) buildSelect(rows *[]T) *bun.SelectQuery {
	q := b.db.NewSelect().Model(rows)
	if len(b.columns) > 0 {
		q = q.Column(b.columns...)
	}
	for _, f := range b.filters {
		q = applyFilter(q, f)
	}
	for _, o := range b.orders {
		if o.desc {
			q = q.OrderExpr("? DESC", bun.Ident(o.column))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(o.column))
		}
	}
	if b.offset >= 0 {
		q = q.Offset(b.offset)
	}
	limit := b.limit
	if b.single {
		limit = 1
	}
	if limit >= 0 {
		q = q.Limit(limit)
	}
	return q
}

// String renders the accumulated select for inspection.
func (b *Builder[T]) String() string {
	var rows []T
	return b.buildSelect(&rows).String()
}

// Execute runs the accumulated select and returns rows plus the total count
// of matching rows irrespective of pagination.
func (b *Builder[T]) Execute(ctx context.Context) Result[T] {
	if b.err != nil {
		return failure[T](b.err)
	}
	var rows []T
	count, err := b.buildSelect(&rows).ScanAndCount(ctx)
	if err != nil {
		return failure[T](err)
	}
	return Result[T]{Success: true, Data: rows, Count: count}
}

// Insert persists the given rows, filling in generated primary keys.
func (b *Builder[T]) Insert(ctx context.Context, rows ...*T) Result[T] {
	if b.err != nil {
		return failure[T](b.err)
	}
	if len(rows) == 0 {
		return failure[T](fmt.Errorf("query: insert into %q with no rows", b.table.Name))
	}
	var q *bun.InsertQuery
	if len(rows) == 1 {
		q = b.db.NewInsert().Model(rows[0])
	} else {
		q = b.db.NewInsert().Model(&rows)
	}
	res, err := q.Returning("id").Exec(ctx)
	if err != nil {
		return failure[T](err)
	}
	count := len(rows)
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		count = int(n)
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return Result[T]{Success: true, Data: out, Count: count}
}

// whereEquality applies an equality-only where map, validating columns and
// rejecting an empty target set. update/delete always re-specify their
// targets here instead of reusing accumulated filter state.
func (b *Builder[T]) whereEquality(where map[string]any) error {
	if len(where) == 0 {
		return fmt.Errorf("query: %q mutation requires a non-empty where", b.table.Name)
	}
	for col := range where {
		if !b.table.HasColumn(col) {
			return fmt.Errorf("query: table %q has no column %q", b.table.Name, col)
		}
	}
	return nil
}

// Update applies data to rows matching the equality where map and reports
// the number of rows touched.
func (b *Builder[T]) Update(ctx context.Context, data map[string]any, where map[string]any) Result[T] {
	if b.err != nil {
		return failure[T](b.err)
	}
	if len(data) == 0 {
		return failure[T](fmt.Errorf("query: update of %q with no data", b.table.Name))
	}
	for col := range data {
		if !b.table.HasColumn(col) {
			return failure[T](fmt.Errorf("query: table %q has no column %q", b.table.Name, col))
		}
	}
	if err := b.whereEquality(where); err != nil {
		return failure[T](err)
	}
	q := b.db.NewUpdate().Model((*T)(nil))
	for col, v := range data {
		q = q.Set("? = ?", bun.Ident(col), v)
	}
	for col, v := range where {
		q = q.Where("? = ?", bun.Ident(col), v)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return failure[T](err)
	}
	n, _ := res.RowsAffected()
	return Result[T]{Success: true, Count: int(n)}
}

// Delete removes rows matching the equality where map.
func (b *Builder[T]) Delete(ctx context.Context, where map[string]any) Result[T] {
	if b.err != nil {
		return failure[T](b.err)
	}
	if err := b.whereEquality(where); err != nil {
		return failure[T](err)
	}
	q := b.db.NewDelete().Model((*T)(nil))
	for col, v := range where {
		q = q.Where("? = ?", bun.Ident(col), v)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return failure[T](err)
	}
	n, _ := res.RowsAffected()
	return Result[T]{Success: true, Count: int(n)}
}

// Increment atomically adjusts a numeric column by delta on rows matching
// the equality where map. Negative deltas carry a `col >= -delta` guard so
// the column can never be driven below zero; callers must treat Count == 0
// as a failed conditional update.
func (b *Builder[T]) Increment(ctx context.Context, col string, delta int64, where map[string]any) Result[T] {
	if b.err != nil {
		return failure[T](b.err)
	}
	if !b.table.HasColumn(col) {
		return failure[T](fmt.Errorf("query: table %q has no column %q", b.table.Name, col))
	}
	if err := b.whereEquality(where); err != nil {
		return failure[T](err)
	}
	ident := bun.Ident(col)
	q := b.db.NewUpdate().Model((*T)(nil)).Set("? = ? + ?", ident, ident, delta)
	for wcol, v := range where {
		q = q.Where("? = ?", bun.Ident(wcol), v)
	}
	if delta < 0 {
		q = q.Where("? >= ?", ident, -delta)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return failure[T](err)
	}
	n, _ := res.RowsAffected()
	return Result[T]{Success: true, Count: int(n)}
}
