package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range s.Tables {
		f.FormatTable(table)
	}
	for _, v := range s.Views {
		f.formatView(v)
	}
	f.formatRoutines(s.AllRoutines())
	return nil
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table *schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Key())
	if table.Description != "" {
		_, _ = fmt.Fprintf(f.writer, "%s\n\n", table.Description)
	}

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		line := fmt.Sprintf("- **%s:** %s", col.Name, col.TypeName())
		if flags := columnFlags(col); len(flags) > 0 {
			line += ", " + strings.Join(flags, ", ")
		}
		if col.Description != "" {
			line += " — " + col.Description
		}
		_, _ = fmt.Fprintln(f.writer, line)
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(table.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, fk := range table.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s(%s) (%s)\n",
				strings.Join(fk.Columns, ", "),
				target(fk),
				targetColumns(fk),
				Cardinality(table, fk))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if table.IsManyToManyJunction() {
		_, _ = fmt.Fprintf(f.writer, "Junction between **%s** and **%s**.\n\n", table.ManyToMany[0], table.ManyToMany[1])
	}

	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Idx")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range table.Indexes {
			if idx.IsUnique {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.CheckConstraints) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Checks")
		_, _ = fmt.Fprintln(f.writer)
		for _, ck := range table.CheckConstraints {
			_, _ = fmt.Fprintf(f.writer, "- %s: `%s`\n", ck.Name, ck.Expression)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(table.Triggers) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Triggers")
		_, _ = fmt.Fprintln(f.writer)
		for _, tr := range table.Triggers {
			_, _ = fmt.Fprintf(f.writer, "- %s (%s %s)\n", tr.Name, tr.Timing, tr.Event)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

// FormatReferencedBy lists the tables whose foreign keys point at table.
func (f *MarkdownFormatter) FormatReferencedBy(table *schema.Table) {
	if len(table.ForeignKeyChildren) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "### Referenced by")
	_, _ = fmt.Fprintln(f.writer)
	for _, k := range table.ForeignKeyChildren {
		_, _ = fmt.Fprintf(f.writer, "- %s\n", k)
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatView(v *schema.View) {
	_, _ = fmt.Fprintf(f.writer, "## View %s\n\n", v.Key())
	for _, col := range v.Columns {
		_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.TypeName())
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatRoutines(routines []*schema.StoredProcedure) {
	if len(routines) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "## Routines")
	_, _ = fmt.Fprintln(f.writer)
	for _, sp := range routines {
		_, _ = fmt.Fprintf(f.writer, "- `%s`\n", routineSignature(sp))
	}
	_, _ = fmt.Fprintln(f.writer)
}
