// Package convert turns raw catalog rows into graph entities. Every logical
// field is read through the full list of aliases the dialect catalogs use
// for it, so one converter serves every dialect.
package convert

import (
	"sort"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/schema"
)

// Field aliases, most specific first.
var (
	ownerField    = []string{"table_schema", "owner", "table_owner", "schema_name", "creator", "routine_schema", "sequence_schema", "sequence_owner"}
	tableField    = []string{"table_name", "tname"}
	viewField     = []string{"view_name", "table_name"}
	columnField   = []string{"column_name", "cname"}
	ordinalField  = []string{"ordinal_position", "position", "column_id", "colno", "seq"}
	typeField     = []string{"data_type", "type_name", "coltype", "domain_name"}
	nullableField = []string{"is_nullable", "nullable", "nulls"}
	defaultField  = []string{"column_default", "data_default", "default_value"}
	lengthField   = []string{"character_maximum_length", "data_length", "char_length", "length", "max_length"}
	precField     = []string{"numeric_precision", "data_precision", "precision"}
	scaleField    = []string{"numeric_scale", "data_scale", "scale"}
	descField     = []string{"description", "comments", "remarks"}

	constraintField = []string{"constraint_name", "index_name"}
	indexField      = []string{"index_name", "constraint_name"}
	refOwnerField   = []string{"fk_schema", "r_owner", "referenced_table_schema"}
	refTableField   = []string{"fk_table", "referenced_table_name"}
	refColumnField  = []string{"fk_column", "referenced_column_name"}
	refConsField    = []string{"fk_constraint_name", "r_constraint_name", "unique_constraint_name"}
	expressionField = []string{"expression", "check_clause", "search_condition", "definition"}

	triggerField = []string{"trigger_name", "trigname"}
	eventField   = []string{"triggering_event", "event_manipulation", "event"}
	timingField  = []string{"trigger_type", "action_timing", "trigtime"}
	bodyField    = []string{"trigger_body", "action_statement", "trigdefn"}
	lineField    = []string{"line", "colid"}

	routineField   = []string{"routine_name", "object_name", "procname", "name"}
	packageField   = []string{"package_name"}
	argumentField  = []string{"argument_name", "parameter_name", "parmname"}
	directionField = []string{"in_out", "parameter_mode", "parmmode"}
)

func ownerOf(r db.Row) string { return r.String(ownerField...) }

func tableKeyOf(r db.Row) schema.Key {
	return schema.Key{Owner: ownerOf(r), Name: r.String(tableField...)}
}

// Catalog is the part of the graph converters attach to.
type Catalog interface {
	FindTable(owner, name string) *schema.Table
	FindView(owner, name string) *schema.View
	FindPackage(owner, name string) *schema.Package
	FindRoutine(owner, pkg, name string) *schema.StoredProcedure
}

// group collects rows that share a key, keeping first-seen key order.
type group[K comparable] struct {
	key  K
	rows db.Rows
}

func groupBy[K comparable](rows db.Rows, keyOf func(db.Row) K) []*group[K] {
	var out []*group[K]
	index := make(map[K]*group[K])
	for _, r := range rows {
		k := keyOf(r)
		g, ok := index[k]
		if !ok {
			g = &group[K]{key: k}
			index[k] = g
			out = append(out, g)
		}
		g.rows = append(g.rows, r)
	}
	return out
}

// byOrdinal sorts rows in place by the first ordinal alias present, keeping
// catalog order among equal or missing ordinals.
func byOrdinal(rows db.Rows, keys ...string) db.Rows {
	if len(keys) == 0 {
		keys = ordinalField
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].IntOr(0, keys...) < rows[j].IntOr(0, keys...)
	})
	return rows
}
