package convert

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/schema"
)

// Tables converts table rows, dropping duplicates and rows without a name.
func Tables(rows db.Rows) []*schema.Table {
	var out []*schema.Table
	seen := make(map[schema.Key]bool)
	for _, r := range rows {
		k := tableKeyOf(r)
		if k.Name == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, &schema.Table{Name: k.Name, Owner: k.Owner, Description: r.String(descField...)})
	}
	return out
}

// TableKeys converts table rows to keys only.
func TableKeys(rows db.Rows) []schema.Key {
	tables := Tables(rows)
	out := make([]schema.Key, len(tables))
	for i, t := range tables {
		out[i] = t.Key()
	}
	return out
}

// Owners converts owner rows to names.
func Owners(rows db.Rows) []string {
	var out []string
	for _, r := range rows {
		if name := r.String(ownerField...); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Users converts principal rows.
func Users(rows db.Rows) []*schema.User {
	var out []*schema.User
	for _, r := range rows {
		if name := r.String("user_name", "username", "name"); name != "" {
			out = append(out, &schema.User{Name: name})
		}
	}
	return out
}

// ColumnSet is the columns of one table or view in catalog order.
type ColumnSet struct {
	Object  schema.Key
	Columns []*schema.Column
}

// Columns groups column rows by owning object. Columns are ordered by the
// catalog's ordinal; AddColumn later renumbers them from 1.
func Columns(rows db.Rows) []ColumnSet {
	var out []ColumnSet
	for _, g := range groupBy(rows, tableKeyOf) {
		set := ColumnSet{Object: g.key}
		for _, r := range byOrdinal(g.rows) {
			if c := column(r); c != nil {
				set.Columns = append(set.Columns, c)
			}
		}
		out = append(out, set)
	}
	return out
}

func column(r db.Row) *schema.Column {
	name := r.String(columnField...)
	if name == "" {
		return nil
	}
	base, length, precision, scale := ParseTypeText(r.String(typeField...))
	c := &schema.Column{
		Name:        name,
		DbDataType:  base,
		Length:      r.NullInt(lengthField...),
		Precision:   r.NullInt(precField...),
		Scale:       r.NullInt(scaleField...),
		Nullable:    r.Bool(nullableField...),
		Description: r.String(descField...),
	}
	if c.Length == nil {
		c.Length = length
	}
	if c.Precision == nil {
		c.Precision = precision
	}
	if c.Scale == nil {
		c.Scale = scale
	}
	if d := r.NullString(defaultField...); d != nil {
		v := strings.TrimSpace(*d)
		if v != "" && !strings.EqualFold(v, "NULL") {
			c.DefaultValue = &v
		}
	}
	return c
}

var typeArgs = regexp.MustCompile(`^\s*([^(]+?)\s*\(\s*(\d+)\s*(?:(?:,\s*(\d+))|\s+(?:BYTE|CHAR))?\s*\)\s*(.*)$`)

// ParseTypeText splits declared type text such as "varchar(50)" or
// "numeric(10,2)" into its base name and size. A two-argument form is
// precision and scale; a single argument is a length.
func ParseTypeText(text string) (base string, length, precision, scale *int) {
	m := typeArgs.FindStringSubmatch(text)
	if m == nil {
		return strings.TrimSpace(text), nil, nil, nil
	}
	base = m[1]
	if m[4] != "" {
		base += " " + strings.TrimSpace(m[4])
	}
	first, _ := strconv.Atoi(m[2])
	if m[3] != "" {
		second, _ := strconv.Atoi(m[3])
		return base, nil, &first, &second
	}
	return base, &first, nil, nil
}

// ApplyColumns replaces the columns of every table or view the sets name.
// It returns the keys no loaded object matched.
func ApplyColumns(c Catalog, sets []ColumnSet) []schema.Key {
	var missing []schema.Key
	for _, set := range sets {
		if t := c.FindTable(set.Object.Owner, set.Object.Name); t != nil {
			t.ClearColumns()
			for _, col := range set.Columns {
				t.AddColumn(col)
			}
			continue
		}
		if v := c.FindView(set.Object.Owner, set.Object.Name); v != nil {
			v.Columns = nil
			for _, col := range set.Columns {
				v.AddColumn(col)
			}
			continue
		}
		missing = append(missing, set.Object)
	}
	return missing
}

func findColumn(c Catalog, r db.Row) *schema.Column {
	k := tableKeyOf(r)
	name := r.String(columnField...)
	if t := c.FindTable(k.Owner, k.Name); t != nil {
		return t.Column(name)
	}
	if v := c.FindView(k.Owner, k.Name); v != nil {
		return v.Column(name)
	}
	return nil
}

// ApplyIdentity marks identity columns. Seed and increment default to 1.
func ApplyIdentity(c Catalog, rows db.Rows) {
	for _, r := range rows {
		col := findColumn(c, r)
		if col == nil {
			continue
		}
		col.Identity = &schema.Identity{
			Seed:      r.IntOr(1, "seed", "seed_value", "identity_start"),
			Increment: r.IntOr(1, "increment", "increment_value", "identity_increment"),
		}
	}
}

// ApplyComputed marks computed columns and records their expression.
func ApplyComputed(c Catalog, rows db.Rows) {
	for _, r := range rows {
		col := findColumn(c, r)
		if col == nil {
			continue
		}
		col.IsComputed = true
		col.ComputedDefinition = strings.TrimSpace(r.Text("computed_definition", "generation_expression", "definition"))
	}
}

// ApplyTableDescriptions sets table and view descriptions.
func ApplyTableDescriptions(c Catalog, rows db.Rows) {
	for _, r := range rows {
		k := tableKeyOf(r)
		desc := r.String(descField...)
		if desc == "" {
			continue
		}
		if t := c.FindTable(k.Owner, k.Name); t != nil {
			t.Description = desc
		} else if v := c.FindView(k.Owner, k.Name); v != nil {
			v.Description = desc
		}
	}
}

// ApplyColumnDescriptions sets column descriptions.
func ApplyColumnDescriptions(c Catalog, rows db.Rows) {
	for _, r := range rows {
		if col := findColumn(c, r); col != nil {
			if desc := r.String(descField...); desc != "" {
				col.Description = desc
			}
		}
	}
}

// Views converts view rows. Definitions split across rows are joined in
// line order.
func Views(rows db.Rows) []*schema.View {
	var out []*schema.View
	keyOf := func(r db.Row) schema.Key {
		return schema.Key{Owner: ownerOf(r), Name: r.String(viewField...)}
	}
	for _, g := range groupBy(rows, keyOf) {
		if g.key.Name == "" {
			continue
		}
		out = append(out, &schema.View{
			Name:       g.key.Name,
			Owner:      g.key.Owner,
			Definition: strings.TrimSpace(joinLines(g.rows, "view_definition", "text", "viewtext")),
		})
	}
	return out
}

// joinLines concatenates a text field across rows ordered by line number.
func joinLines(rows db.Rows, keys ...string) string {
	var b strings.Builder
	for _, r := range byOrdinal(rows, lineField...) {
		b.WriteString(r.Text(keys...))
	}
	return b.String()
}

// Sequences converts sequence rows.
func Sequences(rows db.Rows) []*schema.Sequence {
	var out []*schema.Sequence
	for _, r := range rows {
		name := r.String("sequence_name")
		if name == "" {
			continue
		}
		s := &schema.Sequence{
			Name:        name,
			Owner:       ownerOf(r),
			IncrementBy: r.IntOr(1, "increment_by", "increment"),
		}
		if n, ok := r.Int("min_value", "minimum_value"); ok {
			s.MinValue = &n
		}
		if n, ok := r.Int("max_value", "maximum_value"); ok {
			s.MaxValue = &n
		}
		out = append(out, s)
	}
	return out
}
