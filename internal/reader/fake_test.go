package reader

import (
	"context"
	"strings"

	"github.com/tordrt/schemagraph/internal/accessor"
	"github.com/tordrt/schemagraph/internal/db"
)

// fakeAccessor serves canned rows per capability, filtered the way catalog
// statements filter: owner against table_schema, name against the object
// name column of the capability.
type fakeAccessor struct {
	rows     map[accessor.Capability]db.Rows
	errs     map[accessor.Capability]error
	soft     map[accessor.Capability]error
	degraded []accessor.Degradation
	calls    []call
}

type call struct {
	capability accessor.Capability
	filter     accessor.Filter
}

func newFake() *fakeAccessor {
	return &fakeAccessor{
		rows: make(map[accessor.Capability]db.Rows),
		errs: make(map[accessor.Capability]error),
		soft: make(map[accessor.Capability]error),
	}
}

func (f *fakeAccessor) add(c accessor.Capability, rows ...db.Row) *fakeAccessor {
	f.rows[c] = append(f.rows[c], rows...)
	return f
}

func (f *fakeAccessor) callsTo(c accessor.Capability) []accessor.Filter {
	var out []accessor.Filter
	for _, cl := range f.calls {
		if cl.capability == c {
			out = append(out, cl.filter)
		}
	}
	return out
}

func (f *fakeAccessor) fetch(c accessor.Capability, flt accessor.Filter) (db.Rows, error) {
	f.calls = append(f.calls, call{capability: c, filter: flt})
	if err := f.errs[c]; err != nil {
		return nil, err
	}
	if err := f.soft[c]; err != nil {
		f.degraded = append(f.degraded, accessor.Degradation{Capability: c, Filter: flt, Err: err})
		return db.Rows{}, nil
	}
	nameKey := "table_name"
	switch c {
	case accessor.Views:
		nameKey = "view_name"
	case accessor.Procedures, accessor.Functions, accessor.Arguments, accessor.ProcedureSource, accessor.ResultSets:
		nameKey = "routine_name"
	case accessor.Packages:
		nameKey = "package_name"
	}
	out := db.Rows{}
	for _, r := range f.rows[c] {
		if flt.Owner != "" && !strings.EqualFold(r.String("table_schema", "routine_schema", "owner"), flt.Owner) {
			continue
		}
		if flt.Name != "" && !strings.EqualFold(r.String(nameKey), flt.Name) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAccessor) Dialect() accessor.Dialect         { return accessor.Generic }
func (f *fakeAccessor) Supports(accessor.Capability) bool { return true }
func (f *fakeAccessor) Degraded() []accessor.Degradation  { return f.degraded }

func (f *fakeAccessor) ResetDegraded() []accessor.Degradation {
	prev := f.degraded
	f.degraded = nil
	return prev
}

func (f *fakeAccessor) RestoreDegraded(d []accessor.Degradation) { f.degraded = d }

func (f *fakeAccessor) FetchOwners(context.Context) (db.Rows, error) {
	return f.fetch(accessor.Owners, accessor.Filter{})
}
func (f *fakeAccessor) FetchUsers(context.Context) (db.Rows, error) {
	return f.fetch(accessor.Users, accessor.Filter{})
}
func (f *fakeAccessor) FetchTables(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Tables, flt)
}
func (f *fakeAccessor) FetchColumns(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Columns, flt)
}
func (f *fakeAccessor) FetchViews(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Views, flt)
}
func (f *fakeAccessor) FetchPrimaryKeys(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.PrimaryKeys, flt)
}
func (f *fakeAccessor) FetchForeignKeys(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.ForeignKeys, flt)
}
func (f *fakeAccessor) FetchUniqueKeys(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.UniqueKeys, flt)
}
func (f *fakeAccessor) FetchCheckConstraints(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.CheckConstraints, flt)
}
func (f *fakeAccessor) FetchDefaultConstraints(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.DefaultConstraints, flt)
}
func (f *fakeAccessor) FetchIndexes(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Indexes, flt)
}
func (f *fakeAccessor) FetchTriggers(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Triggers, flt)
}
func (f *fakeAccessor) FetchIdentityColumns(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.IdentityColumns, flt)
}
func (f *fakeAccessor) FetchComputedColumns(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.ComputedColumns, flt)
}
func (f *fakeAccessor) FetchTableDescriptions(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.TableDescriptions, flt)
}
func (f *fakeAccessor) FetchColumnDescriptions(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.ColumnDescriptions, flt)
}
func (f *fakeAccessor) FetchSequences(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Sequences, flt)
}
func (f *fakeAccessor) FetchProcedures(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Procedures, flt)
}
func (f *fakeAccessor) FetchFunctions(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Functions, flt)
}
func (f *fakeAccessor) FetchPackages(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Packages, flt)
}
func (f *fakeAccessor) FetchArguments(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.Arguments, flt)
}
func (f *fakeAccessor) FetchProcedureSource(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.ProcedureSource, flt)
}
func (f *fakeAccessor) FetchResultSets(_ context.Context, flt accessor.Filter) (db.Rows, error) {
	return f.fetch(accessor.ResultSets, flt)
}
func (f *fakeAccessor) FetchDataTypes(context.Context) (db.Rows, error) {
	return f.fetch(accessor.DataTypes, accessor.Filter{})
}

// Row builders in the canonical raw field names.

func tableRow(owner, name string) db.Row {
	return db.Row{"table_schema": owner, "table_name": name}
}

func columnRow(owner, table, column string, ordinal int, dataType string) db.Row {
	return db.Row{
		"table_schema":     owner,
		"table_name":       table,
		"column_name":      column,
		"ordinal_position": int64(ordinal),
		"data_type":        dataType,
		"is_nullable":      "NO",
	}
}

func keyRow(owner, table, constraint, column string, ordinal int) db.Row {
	return db.Row{
		"table_schema":     owner,
		"table_name":       table,
		"constraint_name":  constraint,
		"column_name":      column,
		"ordinal_position": int64(ordinal),
	}
}

func fkRow(owner, table, constraint, column, refTable, refColumn string) db.Row {
	r := keyRow(owner, table, constraint, column, 1)
	r["fk_table"] = refTable
	r["fk_column"] = refColumn
	return r
}
