// Package formatter renders a finished schema graph for humans and LLMs.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// Formatter writes a whole schema.
type Formatter interface {
	Format(s *schema.Schema) error
}

// New returns the single-stream formatter for format.
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	case FormatYAML:
		return NewYAMLFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'text', 'markdown' or 'yaml')", format)
	}
}

// Cardinality describes a foreign key from the referencing side: one-to-one
// when its columns are also the primary key or a unique key, else
// many-to-one.
func Cardinality(t *schema.Table, fk *schema.Constraint) string {
	if t.PrimaryKey != nil && sameColumns(t.PrimaryKey.Columns, fk.Columns) {
		return "one-to-one"
	}
	for _, uk := range t.UniqueKeys {
		if sameColumns(uk.Columns, fk.Columns) {
			return "one-to-one"
		}
	}
	for _, idx := range t.Indexes {
		if idx.IsUnique && sameColumns(idx.Columns, fk.Columns) {
			return "one-to-one"
		}
	}
	return "many-to-one"
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, c := range a {
		seen[strings.ToLower(c)] = true
	}
	for _, c := range b {
		if !seen[strings.ToLower(c)] {
			return false
		}
	}
	return true
}

// target names the referenced table of fk, preferring the resolved key.
func target(fk *schema.Constraint) string {
	if fk.Referenced != nil {
		return fk.Referenced.String()
	}
	if fk.RefersToOwner != "" {
		return fk.RefersToOwner + "." + fk.RefersToTable
	}
	return fk.RefersToTable
}

func targetColumns(fk *schema.Constraint) string {
	if len(fk.RefersToColumns) == 0 {
		return "?"
	}
	return strings.Join(fk.RefersToColumns, ", ")
}

// columnFlags lists the constraint markers of a column in display order.
func columnFlags(c *schema.Column) []string {
	var flags []string
	if c.IsPrimaryKey {
		flags = append(flags, "PK")
	}
	if c.IsAutoNumber {
		flags = append(flags, "AUTO")
	}
	if c.IsUniqueKey {
		flags = append(flags, "UNIQUE")
	}
	if !c.Nullable {
		flags = append(flags, "NOT NULL")
	}
	if c.DefaultValue != nil {
		flags = append(flags, "DEFAULT "+*c.DefaultValue)
	}
	if c.IsComputed {
		if c.ComputedDefinition != "" {
			flags = append(flags, "COMPUTED("+c.ComputedDefinition+")")
		} else {
			flags = append(flags, "COMPUTED")
		}
	}
	if c.ForeignKeyTable != nil {
		flags = append(flags, "FK → "+c.ForeignKeyTable.String())
	}
	return flags
}

func routineSignature(sp *schema.StoredProcedure) string {
	var args []string
	for _, a := range sp.Arguments {
		if a.Direction == schema.Return {
			continue
		}
		arg := strings.TrimSpace(a.Name + " " + a.DbDataType)
		if a.Direction != schema.In {
			arg += " " + a.Direction.String()
		}
		args = append(args, arg)
	}
	return fmt.Sprintf("%s(%s)", sp.Key().String(), strings.Join(args, ", "))
}
