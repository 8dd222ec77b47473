// Package fixup resolves the name-based references of a loaded schema into
// a navigable graph. Every step recomputes its derived state from scratch,
// so running the pass twice changes nothing.
package fixup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tordrt/schemagraph/internal/schema"
)

// Run applies the six steps in order. The schema must be Finalized.
func Run(s *schema.Schema) error {
	if err := s.RequireFinalized(); err != nil {
		return fmt.Errorf("failed to run fix-up: %w", err)
	}
	ResolveForeignKeys(s)
	LinkForeignKeyColumns(s)
	BuildInverseAdjacency(s)
	DetectJunctions(s)
	InferAutoNumbers(s)
	PropagateTypes(s)
	return nil
}

// ResolveForeignKeys points every foreign key at its target table, or nil
// when the target is not loaded. An explicit referenced owner must match;
// otherwise the referencing table's owner is tried first, then a name that
// is unique across owners. Empty referenced columns are filled from the
// target's primary key.
func ResolveForeignKeys(s *schema.Schema) {
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			fk.Referenced = nil
			target := resolveTarget(s, t, fk)
			if target == nil {
				continue
			}
			k := target.Key()
			fk.Referenced = &k
			if len(fk.RefersToColumns) == 0 && target.PrimaryKey != nil {
				fk.RefersToColumns = append([]string(nil), target.PrimaryKey.Columns...)
			}
		}
	}
}

func resolveTarget(s *schema.Schema, from *schema.Table, fk *schema.Constraint) *schema.Table {
	name := fk.RefersToTable
	if name == "" {
		return nil
	}
	if fk.RefersToOwner != "" {
		return s.FindTable(fk.RefersToOwner, name)
	}
	if t := s.FindTable(from.Owner, name); t != nil {
		return t
	}
	var match *schema.Table
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			if match != nil {
				return nil
			}
			match = t
		}
	}
	return match
}

// LinkForeignKeyColumns flags foreign key members and gives the sole member
// of a resolved single-column foreign key a direct reference to its target.
func LinkForeignKeyColumns(s *schema.Schema) {
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			c.ForeignKeyTable = nil
		}
		for _, fk := range t.ForeignKeys {
			for _, name := range fk.Columns {
				if c := t.Column(name); c != nil {
					c.IsForeignKey = true
				}
			}
			if len(fk.Columns) != 1 || fk.Referenced == nil {
				continue
			}
			if c := t.Column(fk.Columns[0]); c != nil {
				k := *fk.Referenced
				c.ForeignKeyTable = &k
			}
		}
	}
}

// BuildInverseAdjacency lists, for every table, the distinct tables whose
// foreign keys reference it, in table order.
func BuildInverseAdjacency(s *schema.Schema) {
	for _, t := range s.Tables {
		t.ForeignKeyChildren = nil
	}
	for _, child := range s.Tables {
		for _, fk := range child.ForeignKeys {
			if fk.Referenced == nil {
				continue
			}
			parent := s.Table(*fk.Referenced)
			if parent == nil || containsKey(parent.ForeignKeyChildren, child.Key()) {
				continue
			}
			parent.ForeignKeyChildren = append(parent.ForeignKeyChildren, child.Key())
		}
	}
}

func containsKey(keys []schema.Key, k schema.Key) bool {
	for _, existing := range keys {
		if existing == k {
			return true
		}
	}
	return false
}

// DetectJunctions classifies a table as a many-to-many junction when every
// primary key column belongs to a resolved foreign key lying wholly inside
// the primary key, and those foreign keys reach exactly two distinct other
// tables.
func DetectJunctions(s *schema.Schema) {
	for _, t := range s.Tables {
		t.ManyToMany = nil
		if ends, ok := junctionEnds(t); ok {
			t.ManyToMany = ends
		}
	}
}

func junctionEnds(t *schema.Table) ([]schema.Key, bool) {
	if !t.IsComposite() {
		return nil, false
	}
	pk := make(map[string]bool, len(t.PrimaryKey.Columns))
	for _, c := range t.PrimaryKey.Columns {
		pk[strings.ToLower(c)] = true
	}

	covered := make(map[string]bool)
	var ends []schema.Key
	for _, fk := range t.ForeignKeys {
		if fk.Referenced == nil || *fk.Referenced == t.Key() || !within(fk.Columns, pk) {
			continue
		}
		for _, c := range fk.Columns {
			covered[strings.ToLower(c)] = true
		}
		if !containsKey(ends, *fk.Referenced) {
			ends = append(ends, *fk.Referenced)
		}
	}
	if len(ends) != 2 || len(covered) != len(pk) {
		return nil, false
	}
	return ends, true
}

func within(cols []string, set map[string]bool) bool {
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		if !set[strings.ToLower(c)] {
			return false
		}
	}
	return true
}

var sequenceDefault = regexp.MustCompile(`(?i)(nextval\s*\(|\.nextval\b|next\s+value\s+for\b|\bautoincrement\b|\bgen_id\s*\()`)

const sequenceCallExpr = `(?:nextval\s*\(|\.nextval\b|next\s+value\s+for\b|\bgen_id\s*\()`

// InferAutoNumbers marks engine-assigned columns: any column with catalog
// identity metadata, then the sole primary key column when its default
// draws from a sequence or a trigger assigns it from one.
func InferAutoNumbers(s *schema.Schema) {
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			c.IsAutoNumber = c.Identity != nil
		}
		if t.PrimaryKey == nil || len(t.PrimaryKey.Columns) != 1 {
			continue
		}
		pk := t.Column(t.PrimaryKey.Columns[0])
		if pk == nil || pk.IsAutoNumber {
			continue
		}
		switch {
		case pk.DefaultValue != nil && sequenceDefault.MatchString(*pk.DefaultValue):
			pk.IsAutoNumber = true
		case triggerAssigns(t.Triggers, pk.Name):
			pk.IsAutoNumber = true
		}
	}
}

// triggerAssigns reports whether a trigger body assigns column a sequence
// value within one statement, either as new.col := <sequence call> or as
// SELECT <sequence call> INTO :new.col.
func triggerAssigns(triggers []*schema.Trigger, column string) bool {
	q := regexp.QuoteMeta(column)
	target := `(?:^|[^\w$#]):?new\s*\.\s*(?:"` + q + `"|` + q + `)`
	assign := regexp.MustCompile(`(?i)` + target + `\s*:?=\s*[^;=]*?` + sequenceCallExpr)
	selectInto := regexp.MustCompile(`(?i)` + sequenceCallExpr + `[^;]*?\binto\s*` + target + `(?:[^\w$#"]|$)`)
	for _, tr := range triggers {
		if assign.MatchString(tr.Body) || selectInto.MatchString(tr.Body) {
			return true
		}
	}
	return false
}

// PropagateTypes attaches the catalog DataType matching each declared type
// of columns, view columns, routine arguments and result columns.
func PropagateTypes(s *schema.Schema) {
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			c.DataType = s.DataType(c.DbDataType)
		}
	}
	for _, v := range s.Views {
		for _, c := range v.Columns {
			c.DataType = s.DataType(c.DbDataType)
		}
	}
	for _, r := range s.AllRoutines() {
		for _, a := range r.Arguments {
			a.DataType = s.DataType(a.DbDataType)
		}
		for _, rs := range r.ResultSets {
			for _, c := range rs.Columns {
				c.DataType = s.DataType(c.DbDataType)
			}
		}
	}
}
