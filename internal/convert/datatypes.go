package convert

import (
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
	"github.com/tordrt/schemagraph/internal/schema"
)

// DataTypes converts type catalog rows, classifying each type and mapping it
// to a Go host type.
func DataTypes(rows db.Rows) []*schema.DataType {
	var out []*schema.DataType
	seen := make(map[string]bool)
	for _, r := range rows {
		name := r.String("type_name", "data_type", "domain_name", "name")
		key := schema.NormalizeTypeName(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		kind := Classify(name)
		if kind == schema.KindOther {
			kind = postgresCategory(r.String("category"), r.String("type_kind"))
		}
		dt := &schema.DataType{
			Name:          name,
			Kind:          kind,
			HostType:      HostType(name, kind),
			MaxLength:     r.NullInt("max_length", "length"),
			Precision:     r.NullInt(precField...),
			Scale:         r.NullInt(scaleField...),
			IsUserDefined: r.Bool("is_user_defined"),
		}
		if dt.MaxLength != nil && *dt.MaxLength <= 0 {
			dt.MaxLength = nil
		}
		out = append(out, dt)
	}
	return out
}

// postgresCategory maps pg_type.typcategory and typtype codes.
func postgresCategory(category, typeKind string) schema.TypeKind {
	if typeKind == "e" || category == "E" {
		return schema.KindEnumerated
	}
	switch category {
	case "N":
		return schema.KindNumeric
	case "S":
		return schema.KindString
	case "D", "T":
		return schema.KindDateTime
	case "B":
		return schema.KindBoolean
	case "G":
		return schema.KindGeometry
	}
	return schema.KindOther
}

var typeKinds = map[string]schema.TypeKind{}

func init() {
	for kind, names := range map[schema.TypeKind][]string{
		schema.KindNumeric: {
			"int", "integer", "bigint", "smallint", "tinyint", "mediumint", "int2", "int4", "int8",
			"serial", "bigserial", "smallserial", "decimal", "numeric", "number", "dec", "money", "smallmoney",
			"float", "float4", "float8", "real", "double", "double precision", "binary_float", "binary_double",
			"year", "oid",
		},
		schema.KindString: {
			"char", "character", "nchar", "varchar", "character varying", "nvarchar", "varchar2", "nvarchar2",
			"text", "ntext", "tinytext", "mediumtext", "longtext", "clob", "nclob", "long", "citext", "bpchar",
			"name", "sysname", "uuid", "uniqueidentifier", "xml", "xmltype", "json", "jsonb", "rowid", "urowid",
			"long varchar", "string",
		},
		schema.KindDateTime: {
			"date", "time", "timetz", "timestamp", "timestamptz", "datetime", "datetime2", "smalldatetime",
			"datetimeoffset", "interval", "timestamp with time zone", "timestamp without time zone",
			"time with time zone", "time without time zone", "timestamp with local time zone",
			"interval year to month", "interval day to second",
		},
		schema.KindBinary: {
			"binary", "varbinary", "blob", "tinyblob", "mediumblob", "longblob", "bytea", "image", "raw",
			"long raw", "bfile", "varbit", "bit varying", "long binary", "rowversion",
		},
		schema.KindBoolean: {"bool", "boolean", "bit"},
		schema.KindGeometry: {
			"geometry", "geography", "point", "linestring", "polygon", "multipoint", "multilinestring",
			"multipolygon", "geometrycollection", "sdo_geometry", "box", "circle", "line", "lseg", "path",
		},
		schema.KindEnumerated: {"enum", "set"},
	} {
		for _, n := range names {
			typeKinds[n] = kind
		}
	}
}

// Classify returns the semantic kind of a declared type name.
func Classify(typeName string) schema.TypeKind {
	name := schema.NormalizeTypeName(typeName)
	if strings.HasSuffix(name, "[]") {
		return schema.KindOther
	}
	if k, ok := typeKinds[name]; ok {
		return k
	}
	switch {
	case strings.HasPrefix(name, "timestamp"), strings.HasPrefix(name, "interval"):
		return schema.KindDateTime
	case strings.HasPrefix(name, "unsigned "):
		return Classify(strings.TrimPrefix(name, "unsigned "))
	case strings.HasSuffix(name, " unsigned"):
		return Classify(strings.TrimSuffix(name, " unsigned"))
	}
	return schema.KindOther
}

// HostType names the Go type a value of the type maps to.
func HostType(typeName string, kind schema.TypeKind) string {
	name := schema.NormalizeTypeName(typeName)
	switch kind {
	case schema.KindNumeric:
		switch name {
		case "smallint", "int2", "smallserial", "year":
			return "int16"
		case "tinyint":
			return "uint8"
		case "int", "integer", "int4", "serial", "mediumint":
			return "int32"
		case "bigint", "int8", "bigserial", "oid":
			return "int64"
		case "real", "float4", "binary_float":
			return "float32"
		}
		return "float64"
	case schema.KindString, schema.KindEnumerated:
		return "string"
	case schema.KindDateTime:
		if strings.HasPrefix(name, "interval") {
			return "time.Duration"
		}
		return "time.Time"
	case schema.KindBinary, schema.KindGeometry:
		return "[]byte"
	case schema.KindBoolean:
		return "bool"
	}
	if strings.HasSuffix(name, "[]") {
		return "[]" + HostType(strings.TrimSuffix(name, "[]"), Classify(strings.TrimSuffix(name, "[]")))
	}
	return "any"
}
