package accessor

// Generic covers engines without a dedicated variant through the
// ANSI information_schema views. Its bind style follows the client driver.
func init() {
	register(&variant{
		dialect: Generic,
		bind:    BindQuestion,
		queries: map[Capability]string{
			Owners: `
				SELECT schema_name
				FROM information_schema.schemata
				WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'INFORMATION_SCHEMA', 'sys')
				ORDER BY schema_name`,
			Tables: `
				SELECT table_schema, table_name
				FROM information_schema.tables
				WHERE table_type = 'BASE TABLE'
				  AND table_schema NOT IN ('information_schema', 'pg_catalog', 'INFORMATION_SCHEMA', 'sys')
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name`,
			Columns: `
				SELECT table_schema, table_name, column_name, ordinal_position, data_type,
				       is_nullable, column_default, character_maximum_length,
				       numeric_precision, numeric_scale
				FROM information_schema.columns
				WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'INFORMATION_SCHEMA', 'sys')
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name, ordinal_position`,
			Views: `
				SELECT table_schema, table_name AS view_name, view_definition
				FROM information_schema.views
				WHERE table_schema NOT IN ('information_schema', 'pg_catalog', 'INFORMATION_SCHEMA', 'sys')
				  AND ({owner} IS NULL OR table_schema = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_schema, table_name`,
			PrimaryKeys: genericKeyColumns("PRIMARY KEY"),
			UniqueKeys:  genericKeyColumns("UNIQUE"),
			ForeignKeys: `
				SELECT fk.table_schema, fk.table_name, rc.constraint_name, fk.column_name, fk.ordinal_position,
				       pk.table_schema AS fk_schema, pk.table_name AS fk_table, pk.column_name AS fk_column,
				       rc.unique_constraint_name AS fk_constraint_name, rc.delete_rule, rc.update_rule
				FROM information_schema.referential_constraints rc
				JOIN information_schema.key_column_usage fk
				  ON fk.constraint_schema = rc.constraint_schema AND fk.constraint_name = rc.constraint_name
				JOIN information_schema.key_column_usage pk
				  ON pk.constraint_schema = rc.unique_constraint_schema
				 AND pk.constraint_name = rc.unique_constraint_name
				 AND pk.ordinal_position = fk.ordinal_position
				WHERE ({owner} IS NULL OR fk.table_schema = {owner})
				  AND ({name} IS NULL OR fk.table_name = {name})
				ORDER BY fk.table_schema, fk.table_name, rc.constraint_name, fk.ordinal_position`,
			Procedures: genericRoutines("PROCEDURE"),
			Functions:  genericRoutines("FUNCTION"),
		},
	})
}

func genericKeyColumns(constraintType string) string {
	return `
				SELECT tc.table_schema, tc.table_name, tc.constraint_name,
				       kcu.column_name, kcu.ordinal_position
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON kcu.constraint_schema = tc.constraint_schema
				 AND kcu.constraint_name = tc.constraint_name
				WHERE tc.constraint_type = '` + constraintType + `'
				  AND ({owner} IS NULL OR tc.table_schema = {owner})
				  AND ({name} IS NULL OR tc.table_name = {name})
				ORDER BY tc.table_schema, tc.table_name, tc.constraint_name, kcu.ordinal_position`
}

func genericRoutines(routineType string) string {
	return `
				SELECT routine_schema, routine_name, data_type AS return_type
				FROM information_schema.routines
				WHERE routine_type = '` + routineType + `'
				  AND ({owner} IS NULL OR routine_schema = {owner})
				  AND ({name} IS NULL OR routine_name = {name})
				ORDER BY routine_schema, routine_name`
}
