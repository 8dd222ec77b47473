package accessor

// Capability names one kind of catalog fetch.
type Capability int

const (
	Owners Capability = iota
	Users
	Tables
	Columns
	Views
	PrimaryKeys
	ForeignKeys
	UniqueKeys
	CheckConstraints
	DefaultConstraints
	Indexes
	Triggers
	IdentityColumns
	ComputedColumns
	TableDescriptions
	ColumnDescriptions
	Sequences
	Procedures
	Functions
	Packages
	Arguments
	ProcedureSource
	ResultSets
	DataTypes
)

var capabilityNames = map[Capability]string{
	Owners:             "owners",
	Users:              "users",
	Tables:             "tables",
	Columns:            "columns",
	Views:              "views",
	PrimaryKeys:        "primary_keys",
	ForeignKeys:        "foreign_keys",
	UniqueKeys:         "unique_keys",
	CheckConstraints:   "check_constraints",
	DefaultConstraints: "default_constraints",
	Indexes:            "indexes",
	Triggers:           "triggers",
	IdentityColumns:    "identity_columns",
	ComputedColumns:    "computed_columns",
	TableDescriptions:  "table_descriptions",
	ColumnDescriptions: "column_descriptions",
	Sequences:          "sequences",
	Procedures:         "procedures",
	Functions:          "functions",
	Packages:           "packages",
	Arguments:          "arguments",
	ProcedureSource:    "procedure_source",
	ResultSets:         "result_sets",
	DataTypes:          "data_types",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return "unknown"
}

// Policy decides what happens when a fetch fails.
type Policy int

const (
	// Hard failures propagate to the caller.
	Hard Policy = iota
	// Soft failures are logged, recorded and degrade to an empty result.
	Soft
)

// softCapabilities carry optional, non-structural data.
var softCapabilities = map[Capability]bool{
	Users:              true,
	TableDescriptions:  true,
	ColumnDescriptions: true,
	ProcedureSource:    true,
	Functions:          true,
	ResultSets:         true,
}

// PolicyFor returns the failure policy of c.
func PolicyFor(c Capability) Policy {
	if softCapabilities[c] {
		return Soft
	}
	return Hard
}
