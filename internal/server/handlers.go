package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tordrt/schemagraph/internal/errs"
	"github.com/tordrt/schemagraph/internal/formatter"
	"github.com/tordrt/schemagraph/internal/schema"
)

// emptyOwner stands in for a blank owner in table paths.
const emptyOwner = "-"

// TableSummary is one entry of GET /tables.
type TableSummary struct {
	Owner        string       `json:"owner,omitempty"`
	Name         string       `json:"name"`
	Columns      int          `json:"columns"`
	PrimaryKey   []string     `json:"primary_key,omitempty"`
	References   []schema.Key `json:"references,omitempty"`
	ReferencedBy []schema.Key `json:"referenced_by,omitempty"`
	Junction     bool         `json:"junction,omitempty"`
}

func summarize(t *schema.Table) TableSummary {
	sum := TableSummary{
		Owner:        t.Owner,
		Name:         t.Name,
		Columns:      len(t.Columns),
		ReferencedBy: t.ForeignKeyChildren,
		Junction:     t.IsManyToManyJunction(),
	}
	if t.PrimaryKey != nil {
		sum.PrimaryKey = t.PrimaryKey.Columns
	}
	for _, fk := range t.ForeignKeys {
		if fk.Referenced != nil {
			sum.References = append(sum.References, *fk.Referenced)
		}
	}
	return sum
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap, _, loaded := s.snapshot()
	data := map[string]any{"loaded": snap != nil}
	if snap != nil {
		data["loaded_at"] = loaded.UTC().Format(time.RFC3339)
		data["dialect"] = snap.Dialect
	}
	success(w, http.StatusOK, data, "ok")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Load(r.Context()); err != nil {
		fail(w, statusFor(err), err, "failed to read schema")
		return
	}
	snap, diags, _ := s.snapshot()
	success(w, http.StatusOK, map[string]any{
		"tables":      len(snap.Tables),
		"diagnostics": len(diags),
	}, "schema reloaded")
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	snap, _, _ := s.snapshot()
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatter.FormatYAML
	}

	var contentType string
	switch format {
	case formatter.FormatYAML:
		contentType = "application/yaml"
	case formatter.FormatMarkdown:
		contentType = "text/markdown; charset=utf-8"
	default:
		contentType = "text/plain; charset=utf-8"
	}

	f, err := formatter.New(format, w)
	if err != nil {
		fail(w, http.StatusBadRequest, errs.Wrap(errs.ErrKindInvalidInput, "format", err), "unsupported format")
		return
	}
	w.Header().Set("Content-Type", contentType)
	if err := f.Format(snap); err != nil {
		s.log.ErrorWith("failed to render schema", err, map[string]any{"format": format})
	}
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	snap, _, _ := s.snapshot()
	out := make([]TableSummary, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		out = append(out, summarize(t))
	}
	success(w, http.StatusOK, out, "")
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	snap, _, _ := s.snapshot()
	owner := chi.URLParam(r, "owner")
	if owner == emptyOwner {
		owner = ""
	}
	name := chi.URLParam(r, "name")

	t := snap.FindTable(owner, name)
	if t == nil {
		err := errs.Newf(errs.ErrKindNotFound, "table %s not found", schema.Key{Owner: owner, Name: name})
		fail(w, http.StatusNotFound, err, "table not found")
		return
	}
	success(w, http.StatusOK, t, "")
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	snap, _, _ := s.snapshot()
	views := snap.Views
	if views == nil {
		views = []*schema.View{}
	}
	success(w, http.StatusOK, views, "")
}

func (s *Server) handleProcedures(w http.ResponseWriter, _ *http.Request) {
	snap, _, _ := s.snapshot()
	success(w, http.StatusOK, map[string]any{
		"procedures": snap.StoredProcedures,
		"functions":  snap.Functions,
		"packages":   snap.Packages,
	}, "")
}

func (s *Server) handleOwners(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	owners := s.owners
	s.mu.RUnlock()
	if owners == nil {
		owners = []string{}
	}
	success(w, http.StatusOK, owners, "")
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	_, diags, _ := s.snapshot()
	if diags == nil {
		success(w, http.StatusOK, []any{}, "")
		return
	}
	success(w, http.StatusOK, diags, "")
}
