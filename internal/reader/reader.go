// Package reader drives a read session: it pulls raw rows through an
// Accessor, converts and attaches them to one Schema and runs the fix-up
// pass when the graph is complete.
package reader

import (
	"context"
	"fmt"

	"github.com/tordrt/schemagraph/internal/accessor"
	"github.com/tordrt/schemagraph/internal/convert"
	"github.com/tordrt/schemagraph/internal/fixup"
	"github.com/tordrt/schemagraph/internal/logger"
	"github.com/tordrt/schemagraph/internal/schema"
)

// Phase of a progress event.
type Phase int

const (
	Reading Phase = iota
	Processing
)

func (p Phase) String() string {
	if p == Processing {
		return "processing"
	}
	return "reading"
}

// Progress is one notification fired during bulk operations.
type Progress struct {
	Phase Phase
	Kind  string
	Name  string
	Index int
	Count int
}

// Object kinds reported in Progress.Kind.
const (
	KindTable     = "table"
	KindView      = "view"
	KindProcedure = "procedure"
	KindFunction  = "function"
	KindPackage   = "package"
)

// Exclusions skip objects by name before any per-object work. A nil
// predicate excludes nothing.
type Exclusions struct {
	Table     func(name string) bool
	View      func(name string) bool
	Procedure func(name string) bool
	Package   func(name string) bool
}

func excluded(pred func(string) bool, name string) bool {
	return pred != nil && pred(name)
}

// Options configure a Reader.
type Options struct {
	ConnectionString string
	Owner            string
	Exclude          Exclusions
	OnProgress       func(Progress)
	Logger           *logger.Logger
}

// Reader owns the Schema of one read session. It is not safe for
// concurrent use.
type Reader struct {
	acc       accessor.Accessor
	opts      Options
	log       *logger.Logger
	schema    *schema.Schema
	ambiguous []convert.AmbiguousKey
}

// New creates a Reader over acc.
func New(acc accessor.Accessor, opts Options) *Reader {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Reader{
		acc:  acc,
		opts: opts,
		log:  log.With().Str("component", "reader").Logger(),
	}
}

// Schema returns the session graph built by the operations run so far.
func (r *Reader) Schema() *schema.Schema {
	return r.session()
}

// Dialect returns the accessor's dialect.
func (r *Reader) Dialect() accessor.Dialect {
	return r.acc.Dialect()
}

func (r *Reader) session() *schema.Schema {
	if r.schema == nil {
		r.schema = r.newSchema()
	}
	return r.schema
}

func (r *Reader) newSchema() *schema.Schema {
	return schema.New(r.opts.ConnectionString, string(r.acc.Dialect()), r.opts.Owner)
}

func (r *Reader) filter() accessor.Filter {
	return accessor.Filter{Owner: r.opts.Owner}
}

func (r *Reader) progress(phase Phase, kind, name string, index, count int) {
	if r.opts.OnProgress == nil {
		return
	}
	r.opts.OnProgress(Progress{Phase: phase, Kind: kind, Name: name, Index: index, Count: count})
}

// ReadAll performs a full bulk read into a fresh Schema: users, tables,
// views, routines and packages, sequences and data types. The fix-up pass
// runs once at the end. Diagnostics restart with each bulk read. On error
// no schema is returned and the session graph and diagnostics are left as
// they were.
func (r *Reader) ReadAll(ctx context.Context) (*schema.Schema, error) {
	s := r.newSchema()
	s.BeginLoading()
	prev, prevAmbiguous := r.schema, r.ambiguous
	prevDegraded := r.acc.ResetDegraded()
	r.schema, r.ambiguous = s, nil
	restore := func() {
		r.schema, r.ambiguous = prev, prevAmbiguous
		r.acc.RestoreDegraded(prevDegraded)
	}

	r.log.InfoWith("bulk read started", map[string]any{"dialect": s.Dialect, "owner": s.Owner})
	if err := r.readAll(ctx, s); err != nil {
		restore()
		r.log.ErrorWith("bulk read failed", err, nil)
		return nil, err
	}

	s.Finalize()
	if err := fixup.Run(s); err != nil {
		restore()
		return nil, err
	}
	r.log.InfoWith("bulk read finished", map[string]any{
		"tables":     len(s.Tables),
		"views":      len(s.Views),
		"procedures": len(s.StoredProcedures),
		"functions":  len(s.Functions),
		"packages":   len(s.Packages),
		"degraded":   len(r.acc.Degraded()),
	})
	return s, nil
}

func (r *Reader) readAll(ctx context.Context, s *schema.Schema) error {
	if _, err := r.Users(ctx); err != nil {
		return err
	}
	leftover, err := r.loadTables(ctx, s)
	if err != nil {
		return err
	}
	if err := r.loadViews(ctx, s, leftover); err != nil {
		return err
	}
	if err := r.loadRoutines(ctx, s); err != nil {
		return err
	}
	if _, err := r.Sequences(ctx); err != nil {
		return err
	}
	if _, err := r.DataTypes(ctx); err != nil {
		return err
	}
	return nil
}

// finish runs the fix-up pass unless a bulk read is still loading.
func (r *Reader) finish(s *schema.Schema) error {
	if s.Phase == schema.Loading {
		return nil
	}
	if err := fixup.Run(s); err != nil {
		return fmt.Errorf("failed to finalize schema: %w", err)
	}
	return nil
}
