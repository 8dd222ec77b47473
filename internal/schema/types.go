package schema

import (
	"fmt"
	"strings"
)

// Key identifies a table, view or routine within a Schema. Cross references
// in the graph are Keys resolved through the Schema index, never pointers.
type Key struct {
	Owner string `yaml:"owner,omitempty" json:"owner,omitempty"`
	Name  string `yaml:"name" json:"name"`
}

func (k Key) String() string {
	if k.Owner == "" {
		return k.Name
	}
	return k.Owner + "." + k.Name
}

// Table represents a database table.
type Table struct {
	Name        string `yaml:"name" json:"name"`
	Owner       string `yaml:"owner,omitempty" json:"owner,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Columns            []*Column     `yaml:"columns" json:"columns"`
	PrimaryKey         *Constraint   `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	ForeignKeys        []*Constraint `yaml:"foreign_keys,omitempty" json:"foreign_keys,omitempty"`
	UniqueKeys         []*Constraint `yaml:"unique_keys,omitempty" json:"unique_keys,omitempty"`
	CheckConstraints   []*Constraint `yaml:"check_constraints,omitempty" json:"check_constraints,omitempty"`
	DefaultConstraints []*Constraint `yaml:"default_constraints,omitempty" json:"default_constraints,omitempty"`
	Indexes            []*Index      `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	Triggers           []*Trigger    `yaml:"triggers,omitempty" json:"triggers,omitempty"`

	// Derived by the fix-up pass.
	ForeignKeyChildren []Key `yaml:"foreign_key_children,omitempty" json:"foreign_key_children,omitempty"`
	ManyToMany         []Key `yaml:"many_to_many,omitempty" json:"many_to_many,omitempty"`
}

// Key returns the table's identity.
func (t *Table) Key() Key { return Key{Owner: t.Owner, Name: t.Name} }

// Column finds a column by name. Exact match wins over a case-insensitive one.
func (t *Table) Column(name string) *Column {
	return findColumn(t.Columns, name)
}

// IsComposite reports whether the primary key spans more than one column.
func (t *Table) IsComposite() bool {
	return t.PrimaryKey != nil && len(t.PrimaryKey.Columns) > 1
}

// IsManyToManyJunction reports whether the fix-up pass classified the table
// as a junction between two other tables.
func (t *Table) IsManyToManyJunction() bool {
	return len(t.ManyToMany) == 2
}

// Traverse returns the table on the other side of a junction. ok is false
// when t is not a junction or from is not one of its two ends.
func (t *Table) Traverse(from Key) (Key, bool) {
	if !t.IsManyToManyJunction() {
		return Key{}, false
	}
	switch from {
	case t.ManyToMany[0]:
		return t.ManyToMany[1], true
	case t.ManyToMany[1]:
		return t.ManyToMany[0], true
	}
	return Key{}, false
}

// AddColumn appends c, stamping its owning table and next ordinal.
func (t *Table) AddColumn(c *Column) {
	c.Table = t.Key()
	c.Ordinal = len(t.Columns) + 1
	t.Columns = append(t.Columns, c)
}

// ClearColumns drops every column and column-level derived state.
func (t *Table) ClearColumns() {
	t.Columns = nil
}

// AddConstraint files c under the collection for its kind. A second primary
// key or a constraint whose name is already present is ignored; the return
// value reports whether c was added.
func (t *Table) AddConstraint(c *Constraint) bool {
	c.TableName = t.Name
	c.TableOwner = t.Owner
	switch c.Kind {
	case PrimaryKey:
		if t.PrimaryKey != nil {
			return false
		}
		t.PrimaryKey = c
		return true
	case ForeignKey:
		return addUnique(&t.ForeignKeys, c)
	case UniqueKey:
		return addUnique(&t.UniqueKeys, c)
	case Check:
		return addUnique(&t.CheckConstraints, c)
	case Default:
		return addUnique(&t.DefaultConstraints, c)
	}
	return false
}

func addUnique(list *[]*Constraint, c *Constraint) bool {
	for _, existing := range *list {
		if existing.Name != "" && existing.Name == c.Name {
			return false
		}
	}
	*list = append(*list, c)
	return true
}

// AddIndex appends idx unless an index with the same name exists.
func (t *Table) AddIndex(idx *Index) bool {
	for _, existing := range t.Indexes {
		if existing.Name == idx.Name {
			return false
		}
	}
	idx.Table = t.Key()
	t.Indexes = append(t.Indexes, idx)
	return true
}

// AddTrigger appends tr unless a trigger with the same name exists.
func (t *Table) AddTrigger(tr *Trigger) bool {
	for _, existing := range t.Triggers {
		if existing.Name == tr.Name {
			return false
		}
	}
	tr.Table = t.Key()
	t.Triggers = append(t.Triggers, tr)
	return true
}

// Column represents a table or view column.
type Column struct {
	Name    string `yaml:"name" json:"name"`
	Table   Key    `yaml:"-" json:"-"`
	Ordinal int    `yaml:"ordinal" json:"ordinal"`

	DbDataType   string    `yaml:"type" json:"type"`
	DataType     *DataType `yaml:"-" json:"-"`
	Length       *int      `yaml:"length,omitempty" json:"length,omitempty"`
	Precision    *int      `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale        *int      `yaml:"scale,omitempty" json:"scale,omitempty"`
	Nullable     bool      `yaml:"nullable" json:"nullable"`
	DefaultValue *string   `yaml:"default,omitempty" json:"default,omitempty"`
	Description  string    `yaml:"description,omitempty" json:"description,omitempty"`

	IsPrimaryKey bool `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	IsForeignKey bool `yaml:"foreign_key,omitempty" json:"foreign_key,omitempty"`
	IsUniqueKey  bool `yaml:"unique,omitempty" json:"unique,omitempty"`
	IsIndexed    bool `yaml:"indexed,omitempty" json:"indexed,omitempty"`
	IsAutoNumber bool `yaml:"auto_number,omitempty" json:"auto_number,omitempty"`
	IsComputed   bool `yaml:"computed,omitempty" json:"computed,omitempty"`

	ComputedDefinition string    `yaml:"computed_definition,omitempty" json:"computed_definition,omitempty"`
	Identity           *Identity `yaml:"identity,omitempty" json:"identity,omitempty"`

	// Set by the fix-up pass for sole members of single-column foreign keys.
	ForeignKeyTable *Key `yaml:"foreign_key_table,omitempty" json:"foreign_key_table,omitempty"`
}

// Identity carries identity column seed and increment when the catalog
// reports them.
type Identity struct {
	Seed      int64 `yaml:"seed" json:"seed"`
	Increment int64 `yaml:"increment" json:"increment"`
}

// TypeName returns the declared type with its length or precision, e.g.
// varchar(50) or numeric(10,2).
func (c *Column) TypeName() string {
	switch {
	case c.Precision != nil && c.Scale != nil && *c.Scale > 0:
		return fmt.Sprintf("%s(%d,%d)", c.DbDataType, *c.Precision, *c.Scale)
	case c.Length != nil && *c.Length > 0 && (c.DataType == nil || c.DataType.Kind == KindString || c.DataType.Kind == KindBinary):
		return fmt.Sprintf("%s(%d)", c.DbDataType, *c.Length)
	default:
		return c.DbDataType
	}
}

func findColumn(cols []*Column, name string) *Column {
	for _, c := range cols {
		if c.Name == name {
			return c
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// ConstraintKind tags a Constraint.
type ConstraintKind int

const (
	PrimaryKey ConstraintKind = iota
	ForeignKey
	UniqueKey
	Check
	Default
)

func (k ConstraintKind) String() string {
	switch k {
	case PrimaryKey:
		return "PRIMARY KEY"
	case ForeignKey:
		return "FOREIGN KEY"
	case UniqueKey:
		return "UNIQUE"
	case Check:
		return "CHECK"
	case Default:
		return "DEFAULT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the kind for YAML and JSON.
func (k ConstraintKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the form MarshalText writes.
func (k *ConstraintKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case PrimaryKey.String():
		*k = PrimaryKey
	case ForeignKey.String():
		*k = ForeignKey
	case UniqueKey.String():
		*k = UniqueKey
	case Check.String():
		*k = Check
	case Default.String():
		*k = Default
	default:
		return fmt.Errorf("unknown constraintkind %q", text)
	}
	return nil
}

// Constraint is a primary, foreign, unique, check or default constraint.
type Constraint struct {
	Kind       ConstraintKind `yaml:"kind" json:"kind"`
	Name       string         `yaml:"name" json:"name"`
	TableName  string         `yaml:"-" json:"-"`
	TableOwner string         `yaml:"-" json:"-"`
	Columns    []string       `yaml:"columns,omitempty" json:"columns,omitempty"`

	RefersToConstraint string   `yaml:"refers_to_constraint,omitempty" json:"refers_to_constraint,omitempty"`
	RefersToTable      string   `yaml:"refers_to_table,omitempty" json:"refers_to_table,omitempty"`
	RefersToOwner      string   `yaml:"refers_to_owner,omitempty" json:"refers_to_owner,omitempty"`
	RefersToColumns    []string `yaml:"refers_to_columns,omitempty" json:"refers_to_columns,omitempty"`
	DeleteRule         string   `yaml:"delete_rule,omitempty" json:"delete_rule,omitempty"`
	UpdateRule         string   `yaml:"update_rule,omitempty" json:"update_rule,omitempty"`

	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`

	// Resolved by the fix-up pass; nil when the target is outside the
	// loaded scope.
	Referenced *Key `yaml:"referenced,omitempty" json:"referenced,omitempty"`
}

// Index represents a non-primary-key index.
type Index struct {
	Name      string   `yaml:"name" json:"name"`
	Table     Key      `yaml:"-" json:"-"`
	IndexType string   `yaml:"type,omitempty" json:"type,omitempty"`
	IsUnique  bool     `yaml:"unique,omitempty" json:"unique,omitempty"`
	Columns   []string `yaml:"columns" json:"columns"`
}

// Trigger represents a table trigger.
type Trigger struct {
	Name   string `yaml:"name" json:"name"`
	Table  Key    `yaml:"-" json:"-"`
	Event  string `yaml:"event,omitempty" json:"event,omitempty"`
	Timing string `yaml:"timing,omitempty" json:"timing,omitempty"`
	Body   string `yaml:"body,omitempty" json:"body,omitempty"`
}

// View represents a database view.
type View struct {
	Name        string    `yaml:"name" json:"name"`
	Owner       string    `yaml:"owner,omitempty" json:"owner,omitempty"`
	Definition  string    `yaml:"definition,omitempty" json:"definition,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Columns     []*Column `yaml:"columns" json:"columns"`
}

// Key returns the view's identity.
func (v *View) Key() Key { return Key{Owner: v.Owner, Name: v.Name} }

// Column finds a view column by name.
func (v *View) Column(name string) *Column {
	return findColumn(v.Columns, name)
}

// AddColumn appends c, stamping its owning view and next ordinal.
func (v *View) AddColumn(c *Column) {
	c.Table = v.Key()
	c.Ordinal = len(v.Columns) + 1
	v.Columns = append(v.Columns, c)
}

// Sequence represents a sequence generator.
type Sequence struct {
	Name        string `yaml:"name" json:"name"`
	Owner       string `yaml:"owner,omitempty" json:"owner,omitempty"`
	MinValue    *int64 `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue    *int64 `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	IncrementBy int64  `yaml:"increment_by" json:"increment_by"`
}

// User is a database principal.
type User struct {
	Name string `yaml:"name" json:"name"`
}
