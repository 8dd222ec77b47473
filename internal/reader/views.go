package reader

import (
	"context"

	"github.com/tordrt/schemagraph/internal/convert"
	"github.com/tordrt/schemagraph/internal/schema"
)

// AllViews loads every non-excluded view with its definition and columns.
func (r *Reader) AllViews(ctx context.Context) ([]*schema.View, error) {
	s := r.session()
	if err := r.loadViews(ctx, s, columnSets{}); err != nil {
		return nil, err
	}
	if err := r.finish(s); err != nil {
		return nil, err
	}
	return s.Views, nil
}

// loadViews registers views and attaches their columns, reusing the column
// sets the table loader left over when it fetched any.
func (r *Reader) loadViews(ctx context.Context, s *schema.Schema, cols columnSets) error {
	f := r.filter()
	rows, err := r.acc.FetchViews(ctx, f)
	if err != nil {
		return err
	}

	var views []*schema.View
	for _, v := range convert.Views(rows) {
		if excluded(r.opts.Exclude.View, v.Name) {
			continue
		}
		views = append(views, v)
	}
	for i, v := range views {
		r.progress(Reading, KindView, v.Name, i, len(views))
		if existing := s.AddView(v); existing != v {
			existing.Definition = v.Definition
		}
	}
	if len(views) == 0 {
		return nil
	}

	sets := cols.sets
	if !cols.fetched {
		colRows, err := r.acc.FetchColumns(ctx, f)
		if err != nil {
			return err
		}
		sets = convert.Columns(colRows)
	}
	for _, set := range sets {
		if s.FindView(set.Object.Owner, set.Object.Name) == nil || excluded(r.opts.Exclude.View, set.Object.Name) {
			continue
		}
		convert.ApplyColumns(viewsOnly{s}, []convert.ColumnSet{set})
	}
	for i, v := range views {
		r.progress(Processing, KindView, v.Name, i, len(views))
	}
	return nil
}

// viewsOnly hides tables so column sets attach to same-named views.
type viewsOnly struct {
	*schema.Schema
}

func (viewsOnly) FindTable(string, string) *schema.Table { return nil }
