package reader

import (
	"context"

	"github.com/tordrt/schemagraph/internal/accessor"
	"github.com/tordrt/schemagraph/internal/convert"
	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/schema"
)

// TableList returns the keys of all tables, honoring the table exclusion.
// No detail is loaded.
func (r *Reader) TableList(ctx context.Context) ([]schema.Key, error) {
	rows, err := r.acc.FetchTables(ctx, r.filter())
	if err != nil {
		return nil, err
	}
	var out []schema.Key
	for _, k := range convert.TableKeys(rows) {
		if !excluded(r.opts.Exclude.Table, k.Name) {
			out = append(out, k)
		}
	}
	return out, nil
}

// AllTables loads every table with its columns, keys, indexes and triggers
// and runs the fix-up pass once.
func (r *Reader) AllTables(ctx context.Context) ([]*schema.Table, error) {
	s := r.session()
	if _, err := r.loadTables(ctx, s); err != nil {
		return nil, err
	}
	if err := r.finish(s); err != nil {
		return nil, err
	}
	return s.Tables, nil
}

// columnSets hands column rows already fetched by the table loader to the
// view loader. fetched distinguishes "nothing left over" from "not read".
type columnSets struct {
	sets    []convert.ColumnSet
	fetched bool
}

// loadTables registers the non-excluded tables and attaches their detail.
// Column sets that matched no table are returned for the view loader.
func (r *Reader) loadTables(ctx context.Context, s *schema.Schema) (columnSets, error) {
	f := r.filter()
	rows, err := r.acc.FetchTables(ctx, f)
	if err != nil {
		return columnSets{}, err
	}

	var tables []*schema.Table
	for _, t := range convert.Tables(rows) {
		if excluded(r.opts.Exclude.Table, t.Name) {
			r.log.DebugWith("table excluded", map[string]any{"table": t.Key().String()})
			continue
		}
		tables = append(tables, t)
	}
	for i, t := range tables {
		r.progress(Reading, KindTable, t.Name, i, len(tables))
		registered := s.AddTable(t)
		if registered != t {
			resetTable(registered)
			registered.Description = t.Description
		}
	}
	if len(tables) == 0 {
		return columnSets{}, nil
	}

	colRows, err := r.acc.FetchColumns(ctx, f)
	if err != nil {
		return columnSets{}, err
	}
	leftover := columnSets{fetched: true}
	for _, set := range convert.Columns(colRows) {
		if excluded(r.opts.Exclude.Table, set.Object.Name) || len(convert.ApplyColumns(s, []convert.ColumnSet{set})) > 0 {
			leftover.sets = append(leftover.sets, set)
		}
	}

	if err := r.attachTableDetail(ctx, s, f); err != nil {
		return columnSets{}, err
	}
	for i, t := range tables {
		r.progress(Processing, KindTable, t.Name, i, len(tables))
	}
	return leftover, nil
}

// resetTable drops everything a reload recomputes.
func resetTable(t *schema.Table) {
	t.ClearColumns()
	t.PrimaryKey = nil
	t.ForeignKeys = nil
	t.UniqueKeys = nil
	t.CheckConstraints = nil
	t.DefaultConstraints = nil
	t.Indexes = nil
	t.Triggers = nil
	t.ForeignKeyChildren = nil
	t.ManyToMany = nil
}

// attachTableDetail layers keys, indexes, triggers and column attributes
// onto tables whose columns are attached. The bulk path and the targeted
// loader share it; f decides which tables the rows cover.
func (r *Reader) attachTableDetail(ctx context.Context, s *schema.Schema, f accessor.Filter) error {
	pk, err := r.acc.FetchPrimaryKeys(ctx, f)
	if err != nil {
		return err
	}
	for _, a := range convert.ApplyPrimaryKeys(s, pk) {
		r.ambiguous = append(r.ambiguous, a)
		r.log.WarnWith("multiple primary key constraints reported", nil, map[string]any{
			"table":     a.Table.String(),
			"kept":      a.Kept,
			"discarded": a.Discarded,
		})
	}

	steps := []struct {
		fetch func(context.Context, accessor.Filter) (db.Rows, error)
		apply func(convert.Catalog, db.Rows)
	}{
		{r.acc.FetchForeignKeys, convert.ApplyForeignKeys},
		{r.acc.FetchUniqueKeys, convert.ApplyUniqueKeys},
		{r.acc.FetchCheckConstraints, convert.ApplyCheckConstraints},
		{r.acc.FetchDefaultConstraints, convert.ApplyDefaultConstraints},
		{r.acc.FetchIndexes, convert.ApplyIndexes},
		{r.acc.FetchTriggers, convert.ApplyTriggers},
		{r.acc.FetchIdentityColumns, convert.ApplyIdentity},
		{r.acc.FetchComputedColumns, convert.ApplyComputed},
		{r.acc.FetchTableDescriptions, convert.ApplyTableDescriptions},
		{r.acc.FetchColumnDescriptions, convert.ApplyColumnDescriptions},
	}
	for _, step := range steps {
		rows, err := step.fetch(ctx, f)
		if err != nil {
			return err
		}
		step.apply(s, rows)
	}

	for _, t := range s.Tables {
		convert.MarkColumns(t)
	}
	return nil
}
