package convert

import (
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/schema"
)

func routineKeyOf(r db.Row) schema.Key {
	return schema.Key{Owner: ownerOf(r), Name: r.String(routineField...)}
}

// Procedures converts standalone procedure rows.
func Procedures(rows db.Rows) []*schema.StoredProcedure {
	var out []*schema.StoredProcedure
	for _, g := range groupBy(rows, routineKeyOf) {
		if g.key.Name == "" {
			continue
		}
		out = append(out, &schema.StoredProcedure{
			Name:        g.key.Name,
			Owner:       g.key.Owner,
			Description: g.rows[0].String(descField...),
		})
	}
	return out
}

// Functions converts standalone function rows.
func Functions(rows db.Rows) []*schema.Function {
	var out []*schema.Function
	for _, g := range groupBy(rows, routineKeyOf) {
		if g.key.Name == "" {
			continue
		}
		r := g.rows[0]
		out = append(out, &schema.Function{
			StoredProcedure: schema.StoredProcedure{
				Name:        g.key.Name,
				Owner:       g.key.Owner,
				Description: r.String(descField...),
			},
			ReturnType: r.String("return_type"),
			Language:   r.String("language", "external_language"),
		})
	}
	return out
}

// Packages converts package rows. A row with a member_name adds a member;
// member_type FUNCTION makes it a function.
func Packages(rows db.Rows) []*schema.Package {
	var out []*schema.Package
	keyOf := func(r db.Row) schema.Key {
		return schema.Key{Owner: ownerOf(r), Name: r.String(packageField...)}
	}
	for _, g := range groupBy(rows, keyOf) {
		if g.key.Name == "" {
			continue
		}
		p := &schema.Package{Name: g.key.Name, Owner: g.key.Owner}
		seen := make(map[string]bool)
		for _, r := range g.rows {
			member := r.String("member_name", "procedure_name")
			if member == "" || seen[member] {
				continue
			}
			seen[member] = true
			sp := schema.StoredProcedure{Name: member, Owner: p.Owner, Package: p.Name}
			if strings.EqualFold(r.String("member_type"), "FUNCTION") {
				p.Functions = append(p.Functions, &schema.Function{StoredProcedure: sp})
			} else {
				p.StoredProcedures = append(p.StoredProcedures, &sp)
			}
		}
		out = append(out, p)
	}
	return out
}

type routineRef struct {
	owner, pkg, name string
}

func routineRefOf(r db.Row) routineRef {
	return routineRef{owner: ownerOf(r), pkg: r.String(packageField...), name: r.String(routineField...)}
}

// ApplyArguments replaces the arguments of every routine the rows name.
// A nameless argument at position 0 is the return value.
func ApplyArguments(c Catalog, rows db.Rows) {
	for _, g := range groupBy(rows, routineRefOf) {
		sp := c.FindRoutine(g.key.owner, g.key.pkg, g.key.name)
		if sp == nil {
			continue
		}
		sp.Arguments = nil
		ordinal := 0
		for _, r := range byOrdinal(g.rows) {
			arg := argument(r)
			if arg.Direction != schema.Return {
				ordinal++
				arg.Ordinal = ordinal
			}
			sp.Arguments = append(sp.Arguments, arg)
		}
	}
}

func argument(r db.Row) *schema.Argument {
	base, length, precision, scale := ParseTypeText(r.String(typeField...))
	arg := &schema.Argument{
		Name:       r.String(argumentField...),
		Direction:  ParseDirection(r.String(directionField...)),
		DbDataType: base,
		Length:     r.NullInt("data_length", "character_maximum_length", "width"),
		Precision:  r.NullInt(precField...),
		Scale:      r.NullInt(scaleField...),
	}
	if arg.Length == nil {
		arg.Length = length
	}
	if arg.Precision == nil {
		arg.Precision = precision
	}
	if arg.Scale == nil {
		arg.Scale = scale
	}
	if arg.Name == "" && r.IntOr(-1, ordinalField...) == 0 {
		arg.Direction = schema.Return
	}
	return arg
}

// ParseDirection reads the argument modes catalogs report.
func ParseDirection(mode string) schema.Direction {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mode), " ", "")) {
	case "OUT":
		return schema.Out
	case "INOUT", "IN/OUT", "IN_OUT":
		return schema.InOut
	case "RETURN", "RESULT":
		return schema.Return
	default:
		return schema.In
	}
}

// FillReturnTypes copies the type of a function's return argument into
// ReturnType where the routine listing left it empty.
func FillReturnTypes(fns []*schema.Function) {
	for _, f := range fns {
		if f.ReturnType != "" {
			continue
		}
		for _, a := range f.Arguments {
			if a.Direction == schema.Return {
				f.ReturnType = a.DbDataType
				break
			}
		}
	}
}

// ApplySource sets routine source text and package specification and body.
// Sources split across rows are joined in line order.
func ApplySource(c Catalog, rows db.Rows) {
	keyOf := func(r db.Row) routineRef {
		return routineRef{owner: ownerOf(r), pkg: strings.ToUpper(r.String("type")), name: r.String("name", "routine_name")}
	}
	for _, g := range groupBy(rows, keyOf) {
		text := strings.TrimSpace(joinLines(g.rows, "text", "source"))
		switch g.key.pkg {
		case "PACKAGE":
			if p := c.FindPackage(g.key.owner, g.key.name); p != nil {
				p.Definition = text
			}
		case "PACKAGE BODY":
			if p := c.FindPackage(g.key.owner, g.key.name); p != nil {
				p.Body = text
			}
		default:
			if sp := c.FindRoutine(g.key.owner, "", g.key.name); sp != nil {
				sp.Source = text
			}
		}
	}
}

// ApplyResultSets attaches the first result set shape of each procedure.
func ApplyResultSets(c Catalog, rows db.Rows) {
	for _, g := range groupBy(rows, routineRefOf) {
		sp := c.FindRoutine(g.key.owner, g.key.pkg, g.key.name)
		if sp == nil {
			continue
		}
		rs := &schema.ResultSet{}
		for i, r := range byOrdinal(g.rows) {
			rs.Columns = append(rs.Columns, &schema.ResultColumn{
				Name:       r.String(columnField...),
				Ordinal:    i + 1,
				DbDataType: r.String(typeField...),
				Nullable:   r.Bool(nullableField...),
			})
		}
		sp.ResultSets = []*schema.ResultSet{rs}
	}
}
