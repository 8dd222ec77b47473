package reader

import (
	"context"

	"github.com/tordrt/schemagraph/internal/accessor"
	"github.com/tordrt/schemagraph/internal/convert"
	"github.com/tordrt/schemagraph/internal/schema"
)

// Table loads one named table into the session graph and returns it. The
// columns are fetched first; without a configured owner the owner of the
// first column row is adopted and the columns are fetched again scoped to
// it. A table already in the graph is merged in place: its columns are
// replaced and other collections only gain entries with new names. A name
// the catalog does not know yields nil and no error.
func (r *Reader) Table(ctx context.Context, name string) (*schema.Table, error) {
	f := accessor.Filter{Owner: r.opts.Owner, Name: name}
	rows, err := r.acc.FetchColumns(ctx, f)
	if err != nil {
		return nil, err
	}
	sets := convert.Columns(rows)
	if len(sets) == 0 {
		return nil, nil
	}

	if f.Owner == "" && sets[0].Object.Owner != "" {
		f.Owner = sets[0].Object.Owner
		r.log.DebugWith("owner inferred", map[string]any{"table": name, "owner": f.Owner})
		if rows, err = r.acc.FetchColumns(ctx, f); err != nil {
			return nil, err
		}
		if sets = convert.Columns(rows); len(sets) == 0 {
			return nil, nil
		}
	}
	set := sets[0]

	tableRows, err := r.acc.FetchTables(ctx, f)
	if err != nil {
		return nil, err
	}
	listed := convert.Tables(tableRows)
	if len(listed) == 0 {
		// The name belongs to a view or vanished between fetches.
		return nil, nil
	}

	s := r.session()
	t := s.FindTable(set.Object.Owner, set.Object.Name)
	if t == nil {
		t = s.AddTable(&schema.Table{Name: set.Object.Name, Owner: set.Object.Owner})
	}
	if t.Description == "" {
		t.Description = listed[0].Description
	}
	convert.ApplyColumns(s, []convert.ColumnSet{set})

	f.Name = t.Name
	if err := r.attachTableDetail(ctx, s, f); err != nil {
		return nil, err
	}
	if err := r.finish(s); err != nil {
		return nil, err
	}
	return t, nil
}
