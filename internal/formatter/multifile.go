package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the schema to multiple files
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if f.OutputFormat == FormatYAML {
		return fmt.Errorf("multi-file output supports text and markdown only")
	}
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(s); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range s.Tables {
		if err := f.writeTableFile(table, s); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Key(), err)
		}
	}

	return nil
}

// FileName returns the per-table file name for a key.
func (f *MultiFileFormatter) FileName(k schema.Key) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(k.String())
	return name + f.getFileExtension()
}

func (f *MultiFileFormatter) writeOverview(s *schema.Schema) error {
	file, err := os.Create(filepath.Join(f.OutputDir, "_overview"+f.getFileExtension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>%s`\n\n", f.getFileExtension())
		_, _ = fmt.Fprintf(file, "## Tables\n\n")
	} else {
		_, _ = fmt.Fprintf(file, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>%s\n\n", f.getFileExtension())
	}

	for _, table := range sortedTables(s.Tables) {
		if f.OutputFormat == FormatMarkdown {
			_, _ = fmt.Fprintf(file, "- **%s**", table.Key())
		} else {
			_, _ = fmt.Fprintf(file, "%s", table.Key())
		}

		// Show outgoing relationships
		if len(table.ForeignKeys) > 0 {
			targets := []string{}
			for _, fk := range table.ForeignKeys {
				targets = append(targets, target(fk))
			}
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}
		if table.IsManyToManyJunction() {
			_, _ = fmt.Fprintf(file, " [junction]")
		}
		_, _ = fmt.Fprintf(file, "\n")
	}

	if len(s.Views) > 0 {
		if f.OutputFormat == FormatMarkdown {
			_, _ = fmt.Fprintf(file, "\n## Views\n\n")
		} else {
			_, _ = fmt.Fprintf(file, "\nVIEWS\n")
		}
		for _, v := range s.Views {
			if f.OutputFormat == FormatMarkdown {
				_, _ = fmt.Fprintf(file, "- %s\n", v.Key())
			} else {
				_, _ = fmt.Fprintf(file, "%s\n", v.Key())
			}
		}
	}
	return nil
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(table *schema.Table, s *schema.Schema) error {
	file, err := os.Create(filepath.Join(f.OutputDir, f.FileName(table.Key())))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	incoming := FindIncomingRelations(table, s)
	if f.OutputFormat == FormatMarkdown {
		NewMarkdownFormatter(file).FormatTable(table)
		if len(incoming) > 0 {
			_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
			writeIncoming(file, "- ", incoming)
			_, _ = fmt.Fprintln(file)
		}
		return nil
	}

	NewTextFormatter(file).FormatTable(table)
	if len(incoming) > 0 {
		_, _ = fmt.Fprintln(file)
		_, _ = fmt.Fprintln(file, "  INCOMING:")
		writeIncoming(file, "    ", incoming)
	}
	return nil
}

func writeIncoming(w io.Writer, prefix string, incoming []IncomingRelation) {
	for _, rel := range incoming {
		_, _ = fmt.Fprintf(w, "%s%s(%s) → %s (%s)\n",
			prefix,
			rel.SourceTable, strings.Join(rel.SourceColumns, ", "),
			strings.Join(rel.TargetColumns, ", "),
			rel.Cardinality)
	}
}

// IncomingRelation represents a relationship pointing to this table
type IncomingRelation struct {
	SourceTable   schema.Key
	SourceColumns []string
	TargetColumns []string
	Cardinality   string
}

// FindIncomingRelations walks the table's foreign key children and returns
// every resolved foreign key that points back at it.
func FindIncomingRelations(table *schema.Table, s *schema.Schema) []IncomingRelation {
	var incoming []IncomingRelation
	key := table.Key()
	for _, childKey := range table.ForeignKeyChildren {
		child := s.Table(childKey)
		if child == nil {
			continue
		}
		for _, fk := range child.ForeignKeys {
			if fk.Referenced == nil || *fk.Referenced != key {
				continue
			}
			incoming = append(incoming, IncomingRelation{
				SourceTable:   childKey,
				SourceColumns: fk.Columns,
				TargetColumns: fk.RefersToColumns,
				Cardinality:   Cardinality(child, fk),
			})
		}
	}
	return incoming
}

func sortedTables(tables []*schema.Table) []*schema.Table {
	sorted := make([]*schema.Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Key().String() < sorted[j].Key().String()
	})
	return sorted
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == FormatMarkdown {
		return ".md"
	}
	return ".txt"
}
