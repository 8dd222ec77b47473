package reader

import (
	"context"

	"github.com/tordrt/schemagraph/internal/convert"
	"github.com/tordrt/schemagraph/internal/schema"
)

// StoredProcedureList returns the keys of procedures, functions and
// packages without arguments or source.
func (r *Reader) StoredProcedureList(ctx context.Context) ([]schema.Key, error) {
	procs, fns, pkgs, err := r.fetchRoutines(ctx)
	if err != nil {
		return nil, err
	}
	var out []schema.Key
	for _, p := range procs {
		out = append(out, p.Key())
	}
	for _, fn := range fns {
		out = append(out, fn.Key())
	}
	for _, p := range pkgs {
		out = append(out, p.Key())
	}
	return out, nil
}

// AllStoredProcedures loads procedures, functions and packages with their
// arguments, source text and result sets into the session graph.
func (r *Reader) AllStoredProcedures(ctx context.Context) error {
	s := r.session()
	if err := r.loadRoutines(ctx, s); err != nil {
		return err
	}
	return r.finish(s)
}

func (r *Reader) fetchRoutines(ctx context.Context) ([]*schema.StoredProcedure, []*schema.Function, []*schema.Package, error) {
	f := r.filter()
	procRows, err := r.acc.FetchProcedures(ctx, f)
	if err != nil {
		return nil, nil, nil, err
	}
	fnRows, err := r.acc.FetchFunctions(ctx, f)
	if err != nil {
		return nil, nil, nil, err
	}
	pkgRows, err := r.acc.FetchPackages(ctx, f)
	if err != nil {
		return nil, nil, nil, err
	}

	var procs []*schema.StoredProcedure
	for _, p := range convert.Procedures(procRows) {
		if !excluded(r.opts.Exclude.Procedure, p.Name) {
			procs = append(procs, p)
		}
	}
	var fns []*schema.Function
	for _, fn := range convert.Functions(fnRows) {
		if !excluded(r.opts.Exclude.Procedure, fn.Name) {
			fns = append(fns, fn)
		}
	}
	var pkgs []*schema.Package
	for _, p := range convert.Packages(pkgRows) {
		if !excluded(r.opts.Exclude.Package, p.Name) {
			pkgs = append(pkgs, p)
		}
	}
	return procs, fns, pkgs, nil
}

// loadRoutines replaces the routine collections of s and attaches
// arguments, source and result sets.
func (r *Reader) loadRoutines(ctx context.Context, s *schema.Schema) error {
	procs, fns, pkgs, err := r.fetchRoutines(ctx)
	if err != nil {
		return err
	}
	count := len(procs) + len(fns) + len(pkgs)
	index := 0
	for _, p := range procs {
		r.progress(Reading, KindProcedure, p.Name, index, count)
		index++
	}
	for _, fn := range fns {
		r.progress(Reading, KindFunction, fn.Name, index, count)
		index++
	}
	for _, p := range pkgs {
		r.progress(Reading, KindPackage, p.Name, index, count)
		index++
	}
	s.StoredProcedures, s.Functions, s.Packages = procs, fns, pkgs
	if count == 0 {
		return nil
	}

	f := r.filter()
	args, err := r.acc.FetchArguments(ctx, f)
	if err != nil {
		return err
	}
	convert.ApplyArguments(s, args)
	convert.FillReturnTypes(s.Functions)
	for _, p := range s.Packages {
		convert.FillReturnTypes(p.Functions)
	}

	source, err := r.acc.FetchProcedureSource(ctx, f)
	if err != nil {
		return err
	}
	convert.ApplySource(s, source)

	results, err := r.acc.FetchResultSets(ctx, f)
	if err != nil {
		return err
	}
	convert.ApplyResultSets(s, results)

	routines := s.AllRoutines()
	for i, sp := range routines {
		r.progress(Processing, KindProcedure, sp.Key().String(), i, len(routines))
	}
	return nil
}
