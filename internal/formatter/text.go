package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// TextFormatter formats schema as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the schema in compact text format
func (f *TextFormatter) Format(s *schema.Schema) error {
	for i, table := range s.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.FormatTable(table)
	}
	for _, v := range s.Views {
		_, _ = fmt.Fprintln(f.writer)
		f.formatView(v)
	}
	routines := s.AllRoutines()
	if len(routines) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		for _, sp := range routines {
			_, _ = fmt.Fprintf(f.writer, "ROUTINE %s\n", routineSignature(sp))
		}
	}
	if len(s.Sequences) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		for _, seq := range s.Sequences {
			_, _ = fmt.Fprintf(f.writer, "SEQUENCE %s INCREMENT %d\n", schema.Key{Owner: seq.Owner, Name: seq.Name}, seq.IncrementBy)
		}
	}
	return nil
}

// FormatTable writes one table.
func (f *TextFormatter) FormatTable(table *schema.Table) {
	// Table header with primary key
	pkStr := ""
	if table.PrimaryKey != nil {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey.Columns, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", table.Key(), pkStr)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatColumn(col))
	}

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s(%s) (%s)\n",
				strings.Join(fk.Columns, ", "), target(fk), targetColumns(fk), Cardinality(table, fk))
		}
	}

	if len(table.ForeignKeyChildren) > 0 {
		var names []string
		for _, k := range table.ForeignKeyChildren {
			names = append(names, k.String())
		}
		_, _ = fmt.Fprintf(f.writer, "  REFERENCED BY: %s\n", strings.Join(names, ", "))
	}
	if table.IsManyToManyJunction() {
		_, _ = fmt.Fprintf(f.writer, "  JUNCTION: %s ↔ %s\n", table.ManyToMany[0], table.ManyToMany[1])
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range table.Indexes {
			unique := ""
			if idx.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}

	for _, ck := range table.CheckConstraints {
		_, _ = fmt.Fprintf(f.writer, "  CHECK %s: %s\n", ck.Name, ck.Expression)
	}
	for _, tr := range table.Triggers {
		_, _ = fmt.Fprintf(f.writer, "  TRIGGER %s %s %s\n", tr.Name, tr.Timing, tr.Event)
	}
}

func (f *TextFormatter) formatView(v *schema.View) {
	_, _ = fmt.Fprintf(f.writer, "VIEW %s\n", v.Key())
	for _, col := range v.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s: %s\n", col.Name, col.TypeName())
	}
}

func formatColumn(col *schema.Column) string {
	parts := append([]string{col.Name + ":", col.TypeName()}, columnFlags(col)...)
	return strings.Join(parts, " ")
}
