package accessor

import (
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
)

const pgSystemSchemas = `('pg_catalog', 'information_schema', 'pg_toast')`

func init() {
	register(&variant{
		dialect:   PostgreSQL,
		driver:    db.DriverPgx,
		bind:      BindDollar,
		normalize: normalizePostgresRow,
		queries: map[Capability]string{
			Owners: `
				SELECT nspname AS schema_name
				FROM pg_namespace
				WHERE nspname NOT IN ` + pgSystemSchemas + `
				  AND nspname NOT LIKE 'pg\_temp\_%' AND nspname NOT LIKE 'pg\_toast\_temp\_%'
				ORDER BY nspname`,
			Users: `SELECT usename AS user_name FROM pg_user ORDER BY usename`,
			Tables: `
				SELECT table_schema, table_name
				FROM information_schema.tables
				WHERE table_type = 'BASE TABLE'
				  AND table_schema NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR table_schema = {owner})
				  AND ({name}::text IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name`,
			Columns: `
				SELECT table_schema, table_name, column_name, ordinal_position,
				       data_type, udt_name, is_nullable, column_default,
				       character_maximum_length, numeric_precision, numeric_scale
				FROM information_schema.columns
				WHERE table_schema NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR table_schema = {owner})
				  AND ({name}::text IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name, ordinal_position`,
			Views: `
				SELECT table_schema, table_name AS view_name, view_definition
				FROM information_schema.views
				WHERE table_schema NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR table_schema = {owner})
				  AND ({name}::text IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name`,
			PrimaryKeys: pgKeyColumns("PRIMARY KEY"),
			UniqueKeys:  pgKeyColumns("UNIQUE"),
			ForeignKeys: `
				SELECT n.nspname AS table_schema, c.relname AS table_name, con.conname AS constraint_name,
				       a.attname AS column_name, k.ord AS ordinal_position,
				       fn.nspname AS fk_schema, fc.relname AS fk_table, fa.attname AS fk_column,
				       fcon.conname AS fk_constraint_name,
				       CASE con.confdeltype WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
				            WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT' ELSE 'NO ACTION' END AS delete_rule,
				       CASE con.confupdtype WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
				            WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT' ELSE 'NO ACTION' END AS update_rule
				FROM pg_constraint con
				JOIN pg_class c ON c.oid = con.conrelid
				JOIN pg_namespace n ON n.oid = c.relnamespace
				JOIN pg_class fc ON fc.oid = con.confrelid
				JOIN pg_namespace fn ON fn.oid = fc.relnamespace
				LEFT JOIN pg_constraint fcon ON fcon.conindid = con.conindid AND fcon.conrelid = con.confrelid
				     AND fcon.contype IN ('p', 'u')
				CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
				JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
				JOIN pg_attribute fa ON fa.attrelid = con.confrelid AND fa.attnum = k.fattnum
				WHERE con.contype = 'f'
				  AND n.nspname NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR n.nspname = {owner})
				  AND ({name}::text IS NULL OR c.relname = {name})
				ORDER BY n.nspname, c.relname, con.conname, k.ord`,
			CheckConstraints: `
				SELECT n.nspname AS table_schema, c.relname AS table_name, con.conname AS constraint_name,
				       pg_get_constraintdef(con.oid) AS expression
				FROM pg_constraint con
				JOIN pg_class c ON c.oid = con.conrelid
				JOIN pg_namespace n ON n.oid = c.relnamespace
				WHERE con.contype = 'c'
				  AND n.nspname NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR n.nspname = {owner})
				  AND ({name}::text IS NULL OR c.relname = {name})
				ORDER BY n.nspname, c.relname, con.conname`,
			Indexes: `
				SELECT n.nspname AS table_schema, t.relname AS table_name, i.relname AS index_name,
				       a.attname AS column_name, k.ord AS ordinal_position,
				       ix.indisunique AS is_unique, am.amname AS index_type
				FROM pg_index ix
				JOIN pg_class t ON t.oid = ix.indrelid
				JOIN pg_class i ON i.oid = ix.indexrelid
				JOIN pg_am am ON am.oid = i.relam
				JOIN pg_namespace n ON n.oid = t.relnamespace
				CROSS JOIN LATERAL unnest(ix.indkey::int2[]) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
				WHERE t.relkind IN ('r', 'p') AND NOT ix.indisprimary
				  AND n.nspname NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR n.nspname = {owner})
				  AND ({name}::text IS NULL OR t.relname = {name})
				ORDER BY n.nspname, t.relname, i.relname, k.ord`,
			// action_statement only names the trigger function; its source is
			// appended so the body shows what the trigger assigns.
			Triggers: `
				SELECT t.event_object_schema AS table_schema, t.event_object_table AS table_name,
				       t.trigger_name, t.event_manipulation AS triggering_event,
				       t.action_timing AS trigger_type,
				       t.action_statement || COALESCE(E'\n' || (
				           SELECT p.prosrc
				           FROM pg_trigger tg
				           JOIN pg_class c ON c.oid = tg.tgrelid
				           JOIN pg_namespace n ON n.oid = c.relnamespace
				           JOIN pg_proc p ON p.oid = tg.tgfoid
				           WHERE NOT tg.tgisinternal AND tg.tgname = t.trigger_name
				             AND c.relname = t.event_object_table AND n.nspname = t.event_object_schema
				       ), '') AS trigger_body
				FROM information_schema.triggers t
				WHERE ({owner}::text IS NULL OR t.event_object_schema = {owner})
				  AND ({name}::text IS NULL OR t.event_object_table = {name})
				ORDER BY t.event_object_schema, t.event_object_table, t.trigger_name`,
			IdentityColumns: `
				SELECT table_schema, table_name, column_name,
				       identity_start AS seed, identity_increment AS increment
				FROM information_schema.columns
				WHERE is_identity = 'YES'
				  AND ({owner}::text IS NULL OR table_schema = {owner})
				  AND ({name}::text IS NULL OR table_name = {name})`,
			ComputedColumns: `
				SELECT table_schema, table_name, column_name, generation_expression AS computed_definition
				FROM information_schema.columns
				WHERE is_generated = 'ALWAYS'
				  AND ({owner}::text IS NULL OR table_schema = {owner})
				  AND ({name}::text IS NULL OR table_name = {name})`,
			TableDescriptions: `
				SELECT n.nspname AS table_schema, c.relname AS table_name, d.description
				FROM pg_description d
				JOIN pg_class c ON c.oid = d.objoid AND d.classoid = 'pg_class'::regclass
				JOIN pg_namespace n ON n.oid = c.relnamespace
				WHERE d.objsubid = 0 AND c.relkind IN ('r', 'p', 'v')
				  AND ({owner}::text IS NULL OR n.nspname = {owner})
				  AND ({name}::text IS NULL OR c.relname = {name})`,
			ColumnDescriptions: `
				SELECT n.nspname AS table_schema, c.relname AS table_name, a.attname AS column_name, d.description
				FROM pg_description d
				JOIN pg_class c ON c.oid = d.objoid AND d.classoid = 'pg_class'::regclass
				JOIN pg_namespace n ON n.oid = c.relnamespace
				JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = d.objsubid
				WHERE d.objsubid > 0
				  AND ({owner}::text IS NULL OR n.nspname = {owner})
				  AND ({name}::text IS NULL OR c.relname = {name})`,
			Sequences: `
				SELECT sequence_schema, sequence_name, minimum_value AS min_value,
				       maximum_value AS max_value, increment AS increment_by
				FROM information_schema.sequences
				WHERE ({owner}::text IS NULL OR sequence_schema = {owner})
				  AND ({name}::text IS NULL OR sequence_name = {name})
				ORDER BY sequence_schema, sequence_name`,
			Procedures: pgRoutines("PROCEDURE"),
			Functions:  pgRoutines("FUNCTION"),
			Arguments: `
				SELECT r.routine_schema, r.routine_name, p.parameter_name AS argument_name,
				       p.ordinal_position, p.parameter_mode AS in_out,
				       p.data_type, p.udt_name,
				       p.character_maximum_length AS data_length,
				       p.numeric_precision AS data_precision, p.numeric_scale AS data_scale
				FROM information_schema.parameters p
				JOIN information_schema.routines r
				  ON r.specific_schema = p.specific_schema AND r.specific_name = p.specific_name
				WHERE r.routine_schema NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR r.routine_schema = {owner})
				  AND ({name}::text IS NULL OR r.routine_name = {name})
				ORDER BY r.routine_schema, r.routine_name, p.ordinal_position`,
			ProcedureSource: `
				SELECT n.nspname AS owner, p.proname AS name,
				       CASE p.prokind WHEN 'p' THEN 'PROCEDURE' ELSE 'FUNCTION' END AS type,
				       pg_get_functiondef(p.oid) AS text
				FROM pg_proc p
				JOIN pg_namespace n ON n.oid = p.pronamespace
				WHERE p.prokind IN ('f', 'p')
				  AND n.nspname NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR n.nspname = {owner})
				  AND ({name}::text IS NULL OR p.proname = {name})`,
			DataTypes: `
				SELECT t.typname AS type_name, t.typlen AS max_length,
				       t.typcategory::text AS category, t.typtype::text AS type_kind,
				       (n.nspname <> 'pg_catalog') AS is_user_defined
				FROM pg_type t
				JOIN pg_namespace n ON n.oid = t.typnamespace
				WHERE (n.nspname = 'pg_catalog' AND t.typtype = 'b' AND t.typname NOT LIKE '\_%')
				   OR t.typtype = 'e'
				ORDER BY t.typname`,
		},
	})
}

func pgKeyColumns(constraintType string) string {
	return `
				SELECT tc.table_schema, tc.table_name, tc.constraint_name,
				       kcu.column_name, kcu.ordinal_position
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON kcu.constraint_schema = tc.constraint_schema
				 AND kcu.constraint_name = tc.constraint_name
				 AND kcu.table_name = tc.table_name
				WHERE tc.constraint_type = '` + constraintType + `'
				  AND tc.table_schema NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR tc.table_schema = {owner})
				  AND ({name}::text IS NULL OR tc.table_name = {name})
				ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position`
}

func pgRoutines(routineType string) string {
	return `
				SELECT routine_schema, routine_name, data_type AS return_type,
				       external_language AS language
				FROM information_schema.routines
				WHERE routine_type = '` + routineType + `'
				  AND routine_schema NOT IN ` + pgSystemSchemas + `
				  AND ({owner}::text IS NULL OR routine_schema = {owner})
				  AND ({name}::text IS NULL OR routine_name = {name})
				ORDER BY routine_schema, routine_name`
}

// normalizePostgresRow gives columns, arguments and the type catalog one
// vocabulary so type propagation can match them.
func normalizePostgresRow(c Capability, row db.Row) {
	switch c {
	case Columns, Arguments:
		row["data_type"] = normalizePostgresType(row.String("data_type"), row.String("udt_name"))
	case DataTypes:
		row["type_name"] = normalizeUdtName(row.String("type_name"))
	}
}

// normalizePostgresType maps verbose SQL type names to commonly-used
// PostgreSQL equivalents.
func normalizePostgresType(dataType, udtName string) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		return "varchar"
	case "character":
		return "char"
	case "bit varying":
		return "varbit"
	case "ARRAY":
		// udt_name has an underscore prefix for arrays: "_int4" is integer[]
		if strings.HasPrefix(udtName, "_") {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts internal type names to the names
// information_schema reports for columns.
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	case "bpchar":
		return "char"
	default:
		if strings.HasPrefix(udtName, "_") {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return udtName
	}
}
