package convert

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/schema"
)

type constraintKey struct {
	table schema.Key
	name  string
}

func constraintKeyOf(r db.Row) constraintKey {
	return constraintKey{table: tableKeyOf(r), name: r.String(constraintField...)}
}

// memberColumns returns the column names of a constraint group in ordinal
// order.
func memberColumns(rows db.Rows) []string {
	var cols []string
	for _, r := range byOrdinal(rows) {
		if name := r.String(columnField...); name != "" {
			cols = append(cols, name)
		}
	}
	return cols
}

// AmbiguousKey reports a table whose catalog listed more than one primary
// key constraint name.
type AmbiguousKey struct {
	Table     schema.Key
	Kept      string
	Discarded []string
}

// ApplyPrimaryKeys assembles primary keys. When a table reports several
// constraint names the first group whose members all exist on the table
// wins, falling back to the first group; the rest are returned as
// ambiguities and never merged.
func ApplyPrimaryKeys(c Catalog, rows db.Rows) []AmbiguousKey {
	byTable := groupByTable(groupBy(rows, constraintKeyOf))

	var ambiguous []AmbiguousKey
	for _, tg := range byTable {
		t := c.FindTable(tg.key.Owner, tg.key.Name)
		if t == nil {
			continue
		}
		groups := tg.groups
		chosen := groups[0]
		for _, g := range groups {
			if allExist(t, memberColumns(g.rows)) {
				chosen = g
				break
			}
		}
		t.AddConstraint(&schema.Constraint{
			Kind:    schema.PrimaryKey,
			Name:    chosen.key.name,
			Columns: memberColumns(chosen.rows),
		})
		if len(groups) > 1 {
			a := AmbiguousKey{Table: t.Key(), Kept: chosen.key.name}
			for _, g := range groups {
				if g != chosen {
					a.Discarded = append(a.Discarded, g.key.name)
				}
			}
			ambiguous = append(ambiguous, a)
		}
	}
	return ambiguous
}

type tableGroups struct {
	key    schema.Key
	groups []*group[constraintKey]
}

// groupByTable collects constraint groups per table in first-seen order.
func groupByTable(groups []*group[constraintKey]) []*tableGroups {
	var out []*tableGroups
	index := make(map[schema.Key]*tableGroups)
	for _, g := range groups {
		tg, ok := index[g.key.table]
		if !ok {
			tg = &tableGroups{key: g.key.table}
			index[g.key.table] = tg
			out = append(out, tg)
		}
		tg.groups = append(tg.groups, g)
	}
	return out
}

func allExist(t *schema.Table, cols []string) bool {
	if len(cols) == 0 {
		return false
	}
	for _, name := range cols {
		if t.Column(name) == nil {
			return false
		}
	}
	return true
}

// ApplyForeignKeys assembles foreign keys, one per (table, constraint name).
func ApplyForeignKeys(c Catalog, rows db.Rows) {
	for _, g := range groupBy(rows, constraintKeyOf) {
		t := c.FindTable(g.key.table.Owner, g.key.table.Name)
		if t == nil {
			continue
		}
		ordered := byOrdinal(g.rows)
		first := ordered[0]
		fk := &schema.Constraint{
			Kind:               schema.ForeignKey,
			Name:               g.key.name,
			RefersToTable:      first.String(refTableField...),
			RefersToOwner:      first.String(refOwnerField...),
			RefersToConstraint: first.String(refConsField...),
			DeleteRule:         normalizeRule(first.String("delete_rule", "on_delete")),
			UpdateRule:         normalizeRule(first.String("update_rule", "on_update")),
		}
		for _, r := range ordered {
			fk.Columns = append(fk.Columns, r.String(columnField...))
			if ref := r.String(refColumnField...); ref != "" {
				fk.RefersToColumns = append(fk.RefersToColumns, ref)
			}
		}
		t.AddConstraint(fk)
	}
}

func normalizeRule(rule string) string {
	rule = strings.ToUpper(strings.TrimSpace(rule))
	if rule == "" {
		return ""
	}
	return strings.Join(strings.Fields(rule), " ")
}

// ApplyUniqueKeys assembles unique constraints.
func ApplyUniqueKeys(c Catalog, rows db.Rows) {
	for _, g := range groupBy(rows, constraintKeyOf) {
		if t := c.FindTable(g.key.table.Owner, g.key.table.Name); t != nil {
			t.AddConstraint(&schema.Constraint{
				Kind:    schema.UniqueKey,
				Name:    g.key.name,
				Columns: memberColumns(g.rows),
			})
		}
	}
}

// notNullCheck matches the check constraints some catalogs generate for
// NOT NULL columns.
var notNullCheck = regexp.MustCompile(`(?i)^\s*"?[\w$#]+"?\s+IS\s+NOT\s+NULL\s*$`)

// ApplyCheckConstraints assembles check constraints, skipping generated
// NOT NULL checks.
func ApplyCheckConstraints(c Catalog, rows db.Rows) {
	for _, g := range groupBy(rows, constraintKeyOf) {
		t := c.FindTable(g.key.table.Owner, g.key.table.Name)
		if t == nil {
			continue
		}
		expr := strings.TrimSpace(g.rows[0].Text(expressionField...))
		if notNullCheck.MatchString(expr) {
			continue
		}
		t.AddConstraint(&schema.Constraint{
			Kind:       schema.Check,
			Name:       g.key.name,
			Columns:    memberColumns(g.rows),
			Expression: expr,
		})
	}
}

// ApplyDefaultConstraints assembles named default constraints.
func ApplyDefaultConstraints(c Catalog, rows db.Rows) {
	for _, g := range groupBy(rows, constraintKeyOf) {
		if t := c.FindTable(g.key.table.Owner, g.key.table.Name); t != nil {
			t.AddConstraint(&schema.Constraint{
				Kind:       schema.Default,
				Name:       g.key.name,
				Columns:    memberColumns(g.rows),
				Expression: strings.TrimSpace(g.rows[0].Text(expressionField...)),
			})
		}
	}
}

// ApplyIndexes assembles non-primary-key indexes.
func ApplyIndexes(c Catalog, rows db.Rows) {
	keyOf := func(r db.Row) constraintKey {
		return constraintKey{table: tableKeyOf(r), name: r.String(indexField...)}
	}
	for _, g := range groupBy(rows, keyOf) {
		t := c.FindTable(g.key.table.Owner, g.key.table.Name)
		if t == nil || g.key.name == "" {
			continue
		}
		t.AddIndex(&schema.Index{
			Name:      g.key.name,
			IndexType: g.rows[0].String("index_type"),
			IsUnique:  g.rows[0].Bool("is_unique", "uniqueness", "unique"),
			Columns:   memberColumns(g.rows),
		})
	}
}

var triggerHeader = regexp.MustCompile(`(?i)\b(BEFORE|AFTER|INSTEAD\s+OF)\s+(INSERT|UPDATE|DELETE)\b`)

// ApplyTriggers assembles triggers. Bodies split across rows are joined in
// line order; event and timing are read from the body when the catalog
// omits them.
func ApplyTriggers(c Catalog, rows db.Rows) {
	keyOf := func(r db.Row) constraintKey {
		return constraintKey{table: tableKeyOf(r), name: r.String(triggerField...)}
	}
	for _, g := range groupBy(rows, keyOf) {
		t := c.FindTable(g.key.table.Owner, g.key.table.Name)
		if t == nil || g.key.name == "" {
			continue
		}
		tr := &schema.Trigger{
			Name:   g.key.name,
			Event:  triggerEvents(g.rows),
			Timing: strings.ToUpper(g.rows[0].String(timingField...)),
			Body:   strings.TrimSpace(triggerBody(g.rows)),
		}
		if m := triggerHeader.FindStringSubmatch(tr.Body); m != nil {
			if tr.Timing == "" {
				tr.Timing = strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))
			}
			if tr.Event == "" {
				tr.Event = strings.ToUpper(m[2])
			}
		}
		t.AddTrigger(tr)
	}
}

// triggerEvents merges the events of a trigger reported one row per event.
func triggerEvents(rows db.Rows) string {
	var events []string
	for _, r := range rows {
		if e := strings.ToUpper(r.String(eventField...)); e != "" && !slices.Contains(events, e) {
			events = append(events, e)
		}
	}
	return strings.Join(events, " OR ")
}

// triggerBody joins numbered source lines. Rows without line numbers repeat
// one body per event and are collapsed.
func triggerBody(rows db.Rows) string {
	for _, r := range rows {
		if _, ok := r.Int(lineField...); ok {
			return joinLines(rows, bodyField...)
		}
	}
	var parts []string
	for _, r := range rows {
		if b := r.Text(bodyField...); b != "" && !slices.Contains(parts, b) {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "")
}

// MarkColumns recomputes the key and index flags of t's columns from its
// constraints and indexes.
func MarkColumns(t *schema.Table) {
	for _, col := range t.Columns {
		col.IsPrimaryKey, col.IsForeignKey, col.IsUniqueKey, col.IsIndexed = false, false, false, false
	}
	mark := func(names []string, set func(*schema.Column)) {
		for _, name := range names {
			if col := t.Column(name); col != nil {
				set(col)
			}
		}
	}
	if t.PrimaryKey != nil {
		mark(t.PrimaryKey.Columns, func(c *schema.Column) { c.IsPrimaryKey = true })
	}
	for _, fk := range t.ForeignKeys {
		mark(fk.Columns, func(c *schema.Column) { c.IsForeignKey = true })
	}
	for _, uk := range t.UniqueKeys {
		mark(uk.Columns, func(c *schema.Column) { c.IsUniqueKey = true })
	}
	for _, idx := range t.Indexes {
		mark(idx.Columns, func(c *schema.Column) { c.IsIndexed = true })
	}
}
