// Package schema is the dialect-independent catalog graph: tables, views,
// routines and types, cross-referenced by stable (owner, name) keys.
package schema

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemagraph/internal/errs"
)

// Phase is the two-state load protocol of a Schema. Fix-up only runs on a
// Finalized schema.
type Phase int

const (
	Loading Phase = iota
	Finalized
)

func (p Phase) String() string {
	if p == Finalized {
		return "finalized"
	}
	return "loading"
}

// MarshalText renders the phase for YAML and JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the form MarshalText writes.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case Loading.String():
		*p = Loading
	case Finalized.String():
		*p = Finalized
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Schema is the root of the graph for one read session. It is not safe for
// concurrent mutation.
type Schema struct {
	ConnectionString string `yaml:"-" json:"-"`
	Dialect          string `yaml:"dialect" json:"dialect"`
	Owner            string `yaml:"owner,omitempty" json:"owner,omitempty"`
	Phase            Phase  `yaml:"phase" json:"phase"`

	Tables           []*Table           `yaml:"tables" json:"tables"`
	Views            []*View            `yaml:"views,omitempty" json:"views,omitempty"`
	StoredProcedures []*StoredProcedure `yaml:"procedures,omitempty" json:"procedures,omitempty"`
	Functions        []*Function        `yaml:"functions,omitempty" json:"functions,omitempty"`
	Packages         []*Package         `yaml:"packages,omitempty" json:"packages,omitempty"`
	Sequences        []*Sequence        `yaml:"sequences,omitempty" json:"sequences,omitempty"`
	Users            []*User            `yaml:"users,omitempty" json:"users,omitempty"`
	DataTypes        []*DataType        `yaml:"data_types,omitempty" json:"data_types,omitempty"`

	tableIndex map[Key]*Table
	typeIndex  map[string]*DataType
	typeCount  int
}

// New creates an empty schema in the Finalized phase.
func New(connectionString, dialect, owner string) *Schema {
	return &Schema{
		ConnectionString: connectionString,
		Dialect:          dialect,
		Owner:            owner,
		Phase:            Finalized,
	}
}

// BeginLoading switches to Loading so intermediate steps skip fix-up.
func (s *Schema) BeginLoading() {
	s.Phase = Loading
}

// Finalize switches to Finalized. Callers run the fix-up pass next.
func (s *Schema) Finalize() {
	s.Phase = Finalized
}

// RequireFinalized returns an InvalidState error unless the schema is
// Finalized.
func (s *Schema) RequireFinalized() error {
	if s.Phase != Finalized {
		return errs.New(errs.ErrKindInvalidState, "schema is still loading")
	}
	return nil
}

// AddTable registers t. If a table with the same key exists it is returned
// unchanged and t is discarded.
func (s *Schema) AddTable(t *Table) *Table {
	if existing := s.Table(t.Key()); existing != nil {
		return existing
	}
	s.Tables = append(s.Tables, t)
	s.indexTable(t)
	return t
}

// Table returns the table with exactly key k, or nil.
func (s *Schema) Table(k Key) *Table {
	if len(s.tableIndex) != len(s.Tables) {
		s.reindex()
	}
	return s.tableIndex[k]
}

// FindTable looks a table up by owner and name. With an owner only an exact
// match counts. Without one, a table with no owner wins, then the first
// table of that name in load order.
func (s *Schema) FindTable(owner, name string) *Table {
	if t := s.Table(Key{Owner: owner, Name: name}); t != nil {
		return t
	}
	if owner != "" {
		for _, t := range s.Tables {
			if strings.EqualFold(t.Owner, owner) && strings.EqualFold(t.Name, name) {
				return t
			}
		}
		return nil
	}
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// View returns the view with key k, or nil.
func (s *Schema) View(k Key) *View {
	for _, v := range s.Views {
		if v.Key() == k {
			return v
		}
	}
	return nil
}

// FindView looks a view up by owner and name with the same owner rules as
// FindTable.
func (s *Schema) FindView(owner, name string) *View {
	if v := s.View(Key{Owner: owner, Name: name}); v != nil {
		return v
	}
	for _, v := range s.Views {
		if strings.EqualFold(v.Name, name) && (owner == "" || strings.EqualFold(v.Owner, owner)) {
			return v
		}
	}
	return nil
}

// FindPackage looks a package up by owner and name.
func (s *Schema) FindPackage(owner, name string) *Package {
	for _, p := range s.Packages {
		if strings.EqualFold(p.Name, name) && (owner == "" || strings.EqualFold(p.Owner, owner)) {
			return p
		}
	}
	return nil
}

// FindRoutine looks up a procedure, a function or, when pkg is set, a
// package member. Functions are returned through their embedded procedure.
func (s *Schema) FindRoutine(owner, pkg, name string) *StoredProcedure {
	match := func(p *StoredProcedure) bool {
		return strings.EqualFold(p.Name, name) && (owner == "" || strings.EqualFold(p.Owner, owner))
	}
	if pkg != "" {
		p := s.FindPackage(owner, pkg)
		if p == nil {
			return nil
		}
		for _, sp := range p.StoredProcedures {
			if match(sp) {
				return sp
			}
		}
		for _, f := range p.Functions {
			if match(&f.StoredProcedure) {
				return &f.StoredProcedure
			}
		}
		return nil
	}
	for _, sp := range s.StoredProcedures {
		if match(sp) {
			return sp
		}
	}
	for _, f := range s.Functions {
		if match(&f.StoredProcedure) {
			return &f.StoredProcedure
		}
	}
	return nil
}

// AllRoutines lists procedures, functions and package members in that
// order.
func (s *Schema) AllRoutines() []*StoredProcedure {
	var out []*StoredProcedure
	out = append(out, s.StoredProcedures...)
	for _, f := range s.Functions {
		out = append(out, &f.StoredProcedure)
	}
	for _, p := range s.Packages {
		out = append(out, p.StoredProcedures...)
		for _, f := range p.Functions {
			out = append(out, &f.StoredProcedure)
		}
	}
	return out
}

// AddView registers v, returning the existing view when the key is taken.
func (s *Schema) AddView(v *View) *View {
	if existing := s.View(v.Key()); existing != nil {
		return existing
	}
	s.Views = append(s.Views, v)
	return v
}

// SetDataTypes replaces the type catalog.
func (s *Schema) SetDataTypes(types []*DataType) {
	s.DataTypes = types
	s.typeIndex = nil
}

// DataType looks up a catalog type by normalized name.
func (s *Schema) DataType(name string) *DataType {
	if s.typeIndex == nil || s.typeCount != len(s.DataTypes) {
		s.typeCount = len(s.DataTypes)
		s.typeIndex = make(map[string]*DataType, len(s.DataTypes))
		for _, dt := range s.DataTypes {
			key := NormalizeTypeName(dt.Name)
			if _, dup := s.typeIndex[key]; !dup {
				s.typeIndex[key] = dt
			}
		}
	}
	return s.typeIndex[NormalizeTypeName(name)]
}

// NormalizeTypeName lower-cases a declared type and strips any length or
// precision suffix: "VARCHAR2(30 BYTE)" becomes "varchar2".
func NormalizeTypeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(name[i:], ')'); j >= 0 {
			rest = name[i+j+1:]
		}
		name = strings.TrimSpace(name[:i] + rest)
	}
	return strings.Join(strings.Fields(name), " ")
}

func (s *Schema) indexTable(t *Table) {
	if s.tableIndex == nil {
		s.tableIndex = make(map[Key]*Table)
	}
	s.tableIndex[t.Key()] = t
}

func (s *Schema) reindex() {
	s.tableIndex = make(map[Key]*Table, len(s.Tables))
	for _, t := range s.Tables {
		s.tableIndex[t.Key()] = t
	}
}
