package accessor

import "github.com/tordrt/schemagraph/internal/db"

const mysqlSystemSchemas = `('mysql', 'information_schema', 'performance_schema', 'sys')`

var mysqlBuiltins = []string{
	"tinyint", "smallint", "mediumint", "int", "bigint", "decimal", "float", "double", "bit",
	"char", "varchar", "tinytext", "text", "mediumtext", "longtext", "enum", "set", "json",
	"binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob",
	"date", "datetime", "timestamp", "time", "year",
	"geometry", "point", "linestring", "polygon",
}

func init() {
	register(&variant{
		dialect:  MySQL,
		driver:   db.DriverMySQL,
		bind:     BindQuestion,
		builtins: mysqlBuiltins,
		queries: map[Capability]string{
			Owners: `
				SELECT schema_name
				FROM information_schema.schemata
				WHERE schema_name NOT IN ` + mysqlSystemSchemas + `
				ORDER BY schema_name`,
			Users: `SELECT DISTINCT user AS user_name FROM mysql.user ORDER BY user`,
			Tables: `
				SELECT table_schema, table_name, table_comment AS description
				FROM information_schema.tables
				WHERE table_type = 'BASE TABLE'
				  AND table_schema NOT IN ` + mysqlSystemSchemas + `
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name`,
			Columns: `
				SELECT table_schema, table_name, column_name, ordinal_position,
				       data_type, column_type, is_nullable, column_default,
				       character_maximum_length, numeric_precision, numeric_scale
				FROM information_schema.columns
				WHERE table_schema NOT IN ` + mysqlSystemSchemas + `
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name, ordinal_position`,
			Views: `
				SELECT table_schema, table_name AS view_name, view_definition
				FROM information_schema.views
				WHERE table_schema NOT IN ` + mysqlSystemSchemas + `
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name`,
			PrimaryKeys: mysqlKeyColumns("PRIMARY KEY"),
			UniqueKeys:  mysqlKeyColumns("UNIQUE"),
			ForeignKeys: `
				SELECT kcu.table_schema, kcu.table_name, kcu.constraint_name,
				       kcu.column_name, kcu.ordinal_position,
				       kcu.referenced_table_schema AS fk_schema,
				       kcu.referenced_table_name AS fk_table,
				       kcu.referenced_column_name AS fk_column,
				       rc.unique_constraint_name AS fk_constraint_name,
				       rc.delete_rule, rc.update_rule
				FROM information_schema.key_column_usage kcu
				JOIN information_schema.referential_constraints rc
				  ON rc.constraint_schema = kcu.constraint_schema
				 AND rc.constraint_name = kcu.constraint_name
				 AND rc.table_name = kcu.table_name
				WHERE kcu.referenced_table_name IS NOT NULL
				  AND ({owner} IS NULL OR kcu.table_schema = {owner})
				  AND ({name} IS NULL OR kcu.table_name = {name})
				ORDER BY kcu.table_schema, kcu.table_name, kcu.constraint_name, kcu.ordinal_position`,
			// information_schema.check_constraints exists from 8.0.16; older
			// servers report 1109 which reads as an absent capability.
			CheckConstraints: `
				SELECT tc.table_schema, tc.table_name, tc.constraint_name,
				       cc.check_clause AS expression
				FROM information_schema.table_constraints tc
				JOIN information_schema.check_constraints cc
				  ON cc.constraint_schema = tc.constraint_schema
				 AND cc.constraint_name = tc.constraint_name
				WHERE tc.constraint_type = 'CHECK'
				  AND ({owner} IS NULL OR tc.table_schema = {owner})
				  AND ({name} IS NULL OR tc.table_name = {name})
				ORDER BY tc.table_schema, tc.table_name, tc.constraint_name`,
			Indexes: `
				SELECT table_schema, table_name, index_name, column_name,
				       seq_in_index AS ordinal_position,
				       CASE WHEN non_unique = 0 THEN 'YES' ELSE 'NO' END AS is_unique,
				       index_type
				FROM information_schema.statistics
				WHERE index_name <> 'PRIMARY'
				  AND table_schema NOT IN ` + mysqlSystemSchemas + `
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name, index_name, seq_in_index`,
			Triggers: `
				SELECT event_object_schema AS table_schema, event_object_table AS table_name,
				       trigger_name, event_manipulation AS triggering_event,
				       action_timing AS trigger_type, action_statement AS trigger_body
				FROM information_schema.triggers
				WHERE ({owner} IS NULL OR event_object_schema = {owner})
				  AND ({name} IS NULL OR event_object_table = {name})
				ORDER BY event_object_schema, event_object_table, trigger_name`,
			IdentityColumns: `
				SELECT table_schema, table_name, column_name
				FROM information_schema.columns
				WHERE extra LIKE '%auto_increment%'
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			ComputedColumns: `
				SELECT table_schema, table_name, column_name, generation_expression AS computed_definition
				FROM information_schema.columns
				WHERE extra LIKE '%GENERATED%'
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			TableDescriptions: `
				SELECT table_schema, table_name, table_comment AS description
				FROM information_schema.tables
				WHERE table_comment <> ''
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			ColumnDescriptions: `
				SELECT table_schema, table_name, column_name, column_comment AS description
				FROM information_schema.columns
				WHERE column_comment <> ''
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			Procedures: mysqlRoutines("PROCEDURE"),
			Functions:  mysqlRoutines("FUNCTION"),
			Arguments: `
				SELECT specific_schema AS routine_schema, specific_name AS routine_name,
				       parameter_name AS argument_name, ordinal_position,
				       parameter_mode AS in_out, data_type,
				       character_maximum_length AS data_length,
				       numeric_precision AS data_precision, numeric_scale AS data_scale
				FROM information_schema.parameters
				WHERE ordinal_position > 0
				  AND ({owner} IS NULL OR specific_schema = {owner})
				  AND ({name} IS NULL OR specific_name = {name})
				ORDER BY specific_schema, specific_name, ordinal_position`,
			ProcedureSource: `
				SELECT routine_schema AS owner, routine_name AS name, routine_type AS type,
				       routine_definition AS text
				FROM information_schema.routines
				WHERE ({owner} IS NULL OR routine_schema = {owner})
				  AND ({name} IS NULL OR routine_name = {name})`,
		},
	})
}

func mysqlKeyColumns(constraintType string) string {
	return `
				SELECT tc.table_schema, tc.table_name, tc.constraint_name,
				       kcu.column_name, kcu.ordinal_position
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON kcu.constraint_schema = tc.constraint_schema
				 AND kcu.constraint_name = tc.constraint_name
				 AND kcu.table_name = tc.table_name
				WHERE tc.constraint_type = '` + constraintType + `'
				  AND tc.table_schema NOT IN ` + mysqlSystemSchemas + `
				  AND ({owner} IS NULL OR tc.table_schema = {owner})
				  AND ({name} IS NULL OR tc.table_name = {name})
				ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position`
}

func mysqlRoutines(routineType string) string {
	return `
				SELECT routine_schema, routine_name, dtd_identifier AS return_type,
				       routine_comment AS description
				FROM information_schema.routines
				WHERE routine_type = '` + routineType + `'
				  AND routine_schema NOT IN ` + mysqlSystemSchemas + `
				  AND ({owner} IS NULL OR routine_schema = {owner})
				  AND ({name} IS NULL OR routine_name = {name})
				ORDER BY routine_schema, routine_name`
}
