package reader

import (
	"context"
	"fmt"

	"github.com/tordrt/schemagraph/internal/convert"
	"github.com/tordrt/schemagraph/internal/fixup"
	"github.com/tordrt/schemagraph/internal/schema"
)

// DataTypes loads the type catalog into the session graph. When tables,
// views or routines are already loaded their types are re-propagated.
func (r *Reader) DataTypes(ctx context.Context) ([]*schema.DataType, error) {
	rows, err := r.acc.FetchDataTypes(ctx)
	if err != nil {
		return nil, err
	}
	s := r.session()
	s.SetDataTypes(convert.DataTypes(rows))
	if s.Phase == schema.Finalized && (len(s.Tables) > 0 || len(s.Views) > 0 || len(s.AllRoutines()) > 0) {
		fixup.PropagateTypes(s)
	}
	return s.DataTypes, nil
}

// Owners lists the schema owners visible to the connection.
func (r *Reader) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.acc.FetchOwners(ctx)
	if err != nil {
		return nil, err
	}
	return convert.Owners(rows), nil
}

// Users loads the database principals into the session graph.
func (r *Reader) Users(ctx context.Context) ([]*schema.User, error) {
	rows, err := r.acc.FetchUsers(ctx)
	if err != nil {
		return nil, err
	}
	s := r.session()
	s.Users = convert.Users(rows)
	return s.Users, nil
}

// Sequences loads sequences into the session graph. Engines without
// sequences yield an empty collection.
func (r *Reader) Sequences(ctx context.Context) ([]*schema.Sequence, error) {
	rows, err := r.acc.FetchSequences(ctx, r.filter())
	if err != nil {
		return nil, err
	}
	s := r.session()
	s.Sequences = convert.Sequences(rows)
	if s.Sequences == nil {
		s.Sequences = []*schema.Sequence{}
	}
	return s.Sequences, nil
}

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	// Degraded marks optional catalog data that could not be read.
	Degraded DiagnosticKind = "degraded"
	// AmbiguousPrimaryKey marks a table whose catalog reported several
	// primary key constraint names.
	AmbiguousPrimaryKey DiagnosticKind = "ambiguous_primary_key"
)

// Diagnostic reports a condition that did not fail the read but left the
// graph less complete than the catalog would allow.
type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind" yaml:"kind"`
	Capability string         `json:"capability,omitempty" yaml:"capability,omitempty"`
	Object     string         `json:"object,omitempty" yaml:"object,omitempty"`
	Message    string         `json:"message" yaml:"message"`
}

// Diagnostics lists degraded fetches and ambiguous primary keys seen so far.
func (r *Reader) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.acc.Degraded() {
		object := d.Filter.Name
		if d.Filter.Owner != "" && object != "" {
			object = d.Filter.Owner + "." + object
		}
		out = append(out, Diagnostic{
			Kind:       Degraded,
			Capability: d.Capability.String(),
			Object:     object,
			Message:    d.Err.Error(),
		})
	}
	for _, a := range r.ambiguous {
		out = append(out, Diagnostic{
			Kind:    AmbiguousPrimaryKey,
			Object:  a.Table.String(),
			Message: fmt.Sprintf("kept %q, discarded %q", a.Kept, a.Discarded),
		})
	}
	return out
}
