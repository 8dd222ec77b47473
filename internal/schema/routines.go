package schema

import "fmt"

// Direction of a routine argument.
type Direction int

const (
	In Direction = iota
	Out
	InOut
	Return
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "OUT"
	case InOut:
		return "INOUT"
	case Return:
		return "RETURN"
	default:
		return "IN"
	}
}

// MarshalText renders the direction for YAML and JSON.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the form MarshalText writes.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case In.String():
		*d = In
	case Out.String():
		*d = Out
	case InOut.String():
		*d = InOut
	case Return.String():
		*d = Return
	default:
		return fmt.Errorf("unknown direction %q", text)
	}
	return nil
}

// Argument is one routine parameter.
type Argument struct {
	Name       string    `yaml:"name" json:"name"`
	Ordinal    int       `yaml:"ordinal" json:"ordinal"`
	Direction  Direction `yaml:"direction" json:"direction"`
	DbDataType string    `yaml:"type" json:"type"`
	DataType   *DataType `yaml:"-" json:"-"`
	Length     *int      `yaml:"length,omitempty" json:"length,omitempty"`
	Precision  *int      `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale      *int      `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// ResultColumn is one column of a routine result set.
type ResultColumn struct {
	Name       string    `yaml:"name" json:"name"`
	Ordinal    int       `yaml:"ordinal" json:"ordinal"`
	DbDataType string    `yaml:"type" json:"type"`
	DataType   *DataType `yaml:"-" json:"-"`
	Nullable   bool      `yaml:"nullable" json:"nullable"`
}

// ResultSet describes the shape of rows a procedure returns.
type ResultSet struct {
	Name    string          `yaml:"name,omitempty" json:"name,omitempty"`
	Columns []*ResultColumn `yaml:"columns" json:"columns"`
}

// StoredProcedure is a standalone or package-member procedure.
type StoredProcedure struct {
	Name        string       `yaml:"name" json:"name"`
	Owner       string       `yaml:"owner,omitempty" json:"owner,omitempty"`
	Package     string       `yaml:"package,omitempty" json:"package,omitempty"`
	Arguments   []*Argument  `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Source      string       `yaml:"source,omitempty" json:"source,omitempty"`
	ResultSets  []*ResultSet `yaml:"result_sets,omitempty" json:"result_sets,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
}

// Key returns the routine's identity. Package members are qualified by
// their package name.
func (p *StoredProcedure) Key() Key {
	if p.Package != "" {
		return Key{Owner: p.Owner, Name: p.Package + "." + p.Name}
	}
	return Key{Owner: p.Owner, Name: p.Name}
}

// Function is a stored routine with a return type.
type Function struct {
	StoredProcedure `yaml:",inline"`
	ReturnType      string `yaml:"return_type,omitempty" json:"return_type,omitempty"`
	Language        string `yaml:"language,omitempty" json:"language,omitempty"`
}

// Package groups procedures and functions (Oracle packages).
type Package struct {
	Name             string             `yaml:"name" json:"name"`
	Owner            string             `yaml:"owner,omitempty" json:"owner,omitempty"`
	Definition       string             `yaml:"definition,omitempty" json:"definition,omitempty"`
	Body             string             `yaml:"body,omitempty" json:"body,omitempty"`
	StoredProcedures []*StoredProcedure `yaml:"procedures,omitempty" json:"procedures,omitempty"`
	Functions        []*Function        `yaml:"functions,omitempty" json:"functions,omitempty"`
}

// Key returns the package's identity.
func (p *Package) Key() Key { return Key{Owner: p.Owner, Name: p.Name} }

// TypeKind classifies a DataType.
type TypeKind int

const (
	KindOther TypeKind = iota
	KindNumeric
	KindString
	KindDateTime
	KindBinary
	KindBoolean
	KindGeometry
	KindEnumerated
)

func (k TypeKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindBinary:
		return "binary"
	case KindBoolean:
		return "boolean"
	case KindGeometry:
		return "geometry"
	case KindEnumerated:
		return "enumerated"
	default:
		return "other"
	}
}

// MarshalText renders the kind for YAML and JSON.
func (k TypeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the form MarshalText writes.
func (k *TypeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case KindOther.String():
		*k = KindOther
	case KindNumeric.String():
		*k = KindNumeric
	case KindString.String():
		*k = KindString
	case KindDateTime.String():
		*k = KindDateTime
	case KindBinary.String():
		*k = KindBinary
	case KindBoolean.String():
		*k = KindBoolean
	case KindGeometry.String():
		*k = KindGeometry
	case KindEnumerated.String():
		*k = KindEnumerated
	default:
		return fmt.Errorf("unknown typekind %q", text)
	}
	return nil
}

// DataType is a catalog type entry with its semantic classification and the
// Go scalar type consumers map it to.
type DataType struct {
	Name          string   `yaml:"name" json:"name"`
	Kind          TypeKind `yaml:"kind" json:"kind"`
	HostType      string   `yaml:"host_type" json:"host_type"`
	MaxLength     *int     `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Precision     *int     `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale         *int     `yaml:"scale,omitempty" json:"scale,omitempty"`
	IsUserDefined bool     `yaml:"user_defined,omitempty" json:"user_defined,omitempty"`
}

func (d *DataType) IsNumeric() bool  { return d != nil && d.Kind == KindNumeric }
func (d *DataType) IsString() bool   { return d != nil && d.Kind == KindString }
func (d *DataType) IsDateTime() bool { return d != nil && d.Kind == KindDateTime }
func (d *DataType) IsBinary() bool   { return d != nil && d.Kind == KindBinary }
