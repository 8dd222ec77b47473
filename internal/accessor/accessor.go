// Package accessor fetches raw catalog rows. Each dialect is a variant
// (catalog statements plus driver quirks) behind one Accessor interface,
// chosen from a dispatch table by dialect tag.
package accessor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/errs"
	"github.com/tordrt/schemagraph/internal/logger"
)

// Filter narrows a fetch to one owner and/or one object. Empty fields
// match everything.
type Filter struct {
	Owner string
	Name  string
}

// Degradation records a soft failure that was swallowed.
type Degradation struct {
	Capability Capability
	Filter     Filter
	Err        error
}

// Accessor is the capability interface over one dialect's catalog. A
// capability the engine lacks yields empty rows and a nil error.
type Accessor interface {
	Dialect() Dialect
	Supports(c Capability) bool
	Degraded() []Degradation
	// ResetDegraded clears the recorded degradations and returns them.
	ResetDegraded() []Degradation
	// RestoreDegraded replaces the recorded degradations with d.
	RestoreDegraded(d []Degradation)

	FetchOwners(ctx context.Context) (db.Rows, error)
	FetchUsers(ctx context.Context) (db.Rows, error)
	FetchTables(ctx context.Context, f Filter) (db.Rows, error)
	FetchColumns(ctx context.Context, f Filter) (db.Rows, error)
	FetchViews(ctx context.Context, f Filter) (db.Rows, error)
	FetchPrimaryKeys(ctx context.Context, f Filter) (db.Rows, error)
	FetchForeignKeys(ctx context.Context, f Filter) (db.Rows, error)
	FetchUniqueKeys(ctx context.Context, f Filter) (db.Rows, error)
	FetchCheckConstraints(ctx context.Context, f Filter) (db.Rows, error)
	FetchDefaultConstraints(ctx context.Context, f Filter) (db.Rows, error)
	FetchIndexes(ctx context.Context, f Filter) (db.Rows, error)
	FetchTriggers(ctx context.Context, f Filter) (db.Rows, error)
	FetchIdentityColumns(ctx context.Context, f Filter) (db.Rows, error)
	FetchComputedColumns(ctx context.Context, f Filter) (db.Rows, error)
	FetchTableDescriptions(ctx context.Context, f Filter) (db.Rows, error)
	FetchColumnDescriptions(ctx context.Context, f Filter) (db.Rows, error)
	FetchSequences(ctx context.Context, f Filter) (db.Rows, error)
	FetchProcedures(ctx context.Context, f Filter) (db.Rows, error)
	FetchFunctions(ctx context.Context, f Filter) (db.Rows, error)
	FetchPackages(ctx context.Context, f Filter) (db.Rows, error)
	FetchArguments(ctx context.Context, f Filter) (db.Rows, error)
	FetchProcedureSource(ctx context.Context, f Filter) (db.Rows, error)
	FetchResultSets(ctx context.Context, f Filter) (db.Rows, error)
	FetchDataTypes(ctx context.Context) (db.Rows, error)
}

// Resolve binds the variant registered for d to client. Unregistered
// dialects get the Generic variant, which only issues information_schema
// queries.
func Resolve(d Dialect, client db.Client, log *logger.Logger) Accessor {
	if log == nil {
		log = logger.Nop()
	}
	v, ok := variants[d]
	if !ok || d == Generic {
		g := *variants[Generic]
		g.bind = bindStyleFor(client.Driver())
		v = &g
	}
	return &catalog{
		v:      v,
		client: client,
		log:    log.With().Str("dialect", string(v.dialect)).Logger(),
	}
}

func bindStyleFor(driver string) BindStyle {
	switch driver {
	case db.DriverPgx, "postgres":
		return BindDollar
	case db.DriverSQLServer, "mssql":
		return BindAt
	case db.DriverOracle, "godror":
		return BindColon
	default:
		return BindQuestion
	}
}

type catalog struct {
	v        *variant
	client   db.Client
	log      *logger.Logger
	degraded []Degradation
}

func (c *catalog) Dialect() Dialect { return c.v.dialect }

func (c *catalog) Supports(capability Capability) bool {
	return c.v.queries[capability] != ""
}

func (c *catalog) Degraded() []Degradation {
	return append([]Degradation(nil), c.degraded...)
}

func (c *catalog) ResetDegraded() []Degradation {
	prev := c.degraded
	c.degraded = nil
	return prev
}

func (c *catalog) RestoreDegraded(d []Degradation) {
	c.degraded = d
}

func (c *catalog) fetch(ctx context.Context, capability Capability, f Filter) (db.Rows, error) {
	query := c.v.queries[capability]
	if query == "" {
		return db.Rows{}, nil
	}

	owner, name := f.Owner, f.Name
	if c.v.upperFilters {
		owner, name = foldIdentifier(owner), foldIdentifier(name)
	}
	stmt, args := bind(query, c.v.bind, c.v.bindByName, owner, name)

	start := time.Now()
	rows, err := db.Fetch(ctx, c.client, stmt, args...)
	if err != nil {
		return c.fail(capability, f, err)
	}

	if c.v.normalize != nil {
		for _, row := range rows {
			c.v.normalize(capability, row)
		}
	}
	if c.v.reshape != nil {
		rows = c.v.reshape(capability, rows)
	}
	if rows == nil {
		rows = db.Rows{}
	}

	c.log.DebugWith("catalog fetch", map[string]any{
		"capability": capability.String(),
		"owner":      f.Owner,
		"name":       f.Name,
		"rows":       len(rows),
		"elapsed":    time.Since(start).String(),
	})
	return rows, nil
}

var unquotedIdentifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]*$`)

// foldIdentifier upper-cases a filter value the way the catalog stores an
// unquoted identifier. A double-quoted value is matched verbatim without
// its quotes, and a value that cannot be an unquoted identifier is left
// as given.
func foldIdentifier(v string) string {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return strings.ReplaceAll(v[1:len(v)-1], `""`, `"`)
	}
	if unquotedIdentifier.MatchString(v) {
		return strings.ToUpper(v)
	}
	return v
}

// fail applies the failure policy of capability to err.
func (c *catalog) fail(capability Capability, f Filter, err error) (db.Rows, error) {
	switch {
	case errs.IsUnsupported(err):
		c.log.DebugWith("catalog feature not available", map[string]any{
			"capability": capability.String(),
			"error":      err.Error(),
		})
		return db.Rows{}, nil
	case PolicyFor(capability) == Soft && !errs.IsFatal(err):
		c.log.WarnWith("optional catalog data unavailable", err, map[string]any{
			"capability": capability.String(),
			"owner":      f.Owner,
			"name":       f.Name,
		})
		c.degraded = append(c.degraded, Degradation{Capability: capability, Filter: f, Err: err})
		return db.Rows{}, nil
	}
	return nil, fmt.Errorf("failed to fetch %s: %w", capability, err)
}

func (c *catalog) FetchOwners(ctx context.Context) (db.Rows, error) {
	return c.fetch(ctx, Owners, Filter{})
}

func (c *catalog) FetchUsers(ctx context.Context) (db.Rows, error) {
	return c.fetch(ctx, Users, Filter{})
}

func (c *catalog) FetchTables(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Tables, f)
}

func (c *catalog) FetchColumns(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Columns, f)
}

func (c *catalog) FetchViews(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Views, f)
}

func (c *catalog) FetchPrimaryKeys(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, PrimaryKeys, f)
}

func (c *catalog) FetchForeignKeys(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, ForeignKeys, f)
}

func (c *catalog) FetchUniqueKeys(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, UniqueKeys, f)
}

func (c *catalog) FetchCheckConstraints(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, CheckConstraints, f)
}

func (c *catalog) FetchDefaultConstraints(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, DefaultConstraints, f)
}

func (c *catalog) FetchIndexes(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Indexes, f)
}

func (c *catalog) FetchTriggers(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Triggers, f)
}

func (c *catalog) FetchIdentityColumns(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, IdentityColumns, f)
}

func (c *catalog) FetchComputedColumns(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, ComputedColumns, f)
}

func (c *catalog) FetchTableDescriptions(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, TableDescriptions, f)
}

func (c *catalog) FetchColumnDescriptions(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, ColumnDescriptions, f)
}

func (c *catalog) FetchSequences(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Sequences, f)
}

func (c *catalog) FetchProcedures(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Procedures, f)
}

func (c *catalog) FetchFunctions(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Functions, f)
}

func (c *catalog) FetchPackages(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Packages, f)
}

func (c *catalog) FetchArguments(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, Arguments, f)
}

func (c *catalog) FetchProcedureSource(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, ProcedureSource, f)
}

func (c *catalog) FetchResultSets(ctx context.Context, f Filter) (db.Rows, error) {
	return c.fetch(ctx, ResultSets, f)
}

func (c *catalog) FetchDataTypes(ctx context.Context) (db.Rows, error) {
	rows, err := c.fetch(ctx, DataTypes, Filter{})
	if err != nil || len(rows) > 0 {
		return rows, err
	}
	builtins := BuiltinTypes(c.v.dialect)
	out := make(db.Rows, 0, len(builtins))
	for _, name := range builtins {
		out = append(out, db.Row{"type_name": name})
	}
	return out, nil
}
