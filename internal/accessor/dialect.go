package accessor

import (
	"sort"
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/errs"
)

// Dialect tags a catalog shape.
type Dialect string

const (
	SQLServer       Dialect = "sqlserver"
	PostgreSQL      Dialect = "postgresql"
	MySQL           Dialect = "mysql"
	Oracle          Dialect = "oracle"
	SQLite          Dialect = "sqlite"
	SybaseASE       Dialect = "sybase-ase"
	SybaseASA       Dialect = "sybase-asa"
	SybaseUltraLite Dialect = "sybase-ultralite"
	Generic         Dialect = "generic"
)

// variant is the per-dialect configuration behind the Accessor interface:
// its catalog statements and the driver quirks the accessor consults.
type variant struct {
	dialect Dialect
	driver  string
	bind    BindStyle

	// bindByName binds {owner}/{name} as named parameters; required where
	// positional binds would have to repeat a value per occurrence.
	bindByName bool
	// upperFilters folds unquoted filter values to upper case (catalogs
	// that store unquoted identifiers in upper case).
	upperFilters bool

	queries  map[Capability]string
	builtins []string

	// normalize rewrites one raw row in place.
	normalize func(Capability, db.Row)
	// reshape expands or merges raw rows, e.g. list-valued catalog columns.
	reshape func(Capability, db.Rows) db.Rows
}

var variants = map[Dialect]*variant{}

func register(v *variant) {
	variants[v.dialect] = v
}

// providerAliases maps driver names, URL schemes and ADO-style invariant
// names to dialects.
var providerAliases = map[string]Dialect{
	"sqlserver":                       SQLServer,
	"mssql":                           SQLServer,
	"system.data.sqlclient":           SQLServer,
	"microsoft.data.sqlclient":        SQLServer,
	"postgres":                        PostgreSQL,
	"postgresql":                      PostgreSQL,
	"pgx":                             PostgreSQL,
	"npgsql":                          PostgreSQL,
	"mysql":                           MySQL,
	"mariadb":                         MySQL,
	"mysql.data.mysqlclient":          MySQL,
	"devart.data.mysql":               MySQL,
	"oracle":                          Oracle,
	"godror":                          Oracle,
	"go-ora":                          Oracle,
	"system.data.oracleclient":        Oracle,
	"oracle.dataaccess.client":        Oracle,
	"oracle.manageddataaccess.client": Oracle,
	"sqlite":                          SQLite,
	"sqlite3":                         SQLite,
	"system.data.sqlite":              SQLite,
	"microsoft.data.sqlite":           SQLite,
	"sybase":                          SybaseASE,
	"ase":                             SybaseASE,
	"tds":                             SybaseASE,
	"sybase.data.aseclient":           SybaseASE,
	"sqlanywhere":                     SybaseASA,
	"asa":                             SybaseASA,
	"ianywhere.data.sqlanywhere":      SybaseASA,
	"ultralite":                       SybaseUltraLite,
	"ianywhere.data.ultralite":        SybaseUltraLite,
}

// ParseProvider maps a provider identifier to a dialect. Empty identifiers
// are rejected; unknown ones resolve to Generic.
func ParseProvider(provider string) (Dialect, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "provider identifier is required")
	}
	p = strings.TrimSuffix(strings.TrimSuffix(p, "://"), ":")
	if d, ok := providerAliases[p]; ok {
		return d, nil
	}
	if _, ok := variants[Dialect(p)]; ok {
		return Dialect(p), nil
	}
	return Generic, nil
}

// Dialects lists the registered dialects.
func Dialects() []Dialect {
	out := make([]Dialect, 0, len(variants))
	for d := range variants {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DriverFor returns the database/sql (or pgx) driver name a dialect opens
// its connections with. override wins when set.
func DriverFor(d Dialect, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	v, ok := variants[d]
	if !ok {
		return "", errs.Newf(errs.ErrKindInvalidInput, "unknown dialect %q", d)
	}
	if v.driver == "" {
		return "", errs.Newf(errs.ErrKindInvalidInput, "dialect %q needs an explicit driver name", d)
	}
	return v.driver, nil
}

// BuiltinTypes returns the type names a dialect falls back to when its
// catalog has no type listing.
func BuiltinTypes(d Dialect) []string {
	if v, ok := variants[d]; ok {
		return v.builtins
	}
	return nil
}
