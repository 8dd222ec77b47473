package accessor

import "github.com/tordrt/schemagraph/internal/db"

func init() {
	register(&variant{
		dialect: SQLServer,
		driver:  db.DriverSQLServer,
		bind:    BindAt,
		queries: map[Capability]string{
			Owners: `
				SELECT s.name AS schema_name
				FROM sys.schemas s
				WHERE s.schema_id < 16384 AND s.name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
				ORDER BY s.name`,
			Users: `
				SELECT name AS user_name
				FROM sys.database_principals
				WHERE type IN ('S', 'U', 'E') AND name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
				ORDER BY name`,
			Tables: `
				SELECT TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name
				FROM INFORMATION_SCHEMA.TABLES
				WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_NAME <> 'sysdiagrams'
				  AND ({owner} IS NULL OR TABLE_SCHEMA = {owner})
				  AND ({name} IS NULL OR TABLE_NAME = {name})
				ORDER BY TABLE_SCHEMA, TABLE_NAME`,
			Columns: `
				SELECT TABLE_SCHEMA AS table_schema, TABLE_NAME AS table_name, COLUMN_NAME AS column_name,
				       ORDINAL_POSITION AS ordinal_position, DATA_TYPE AS data_type,
				       IS_NULLABLE AS is_nullable, COLUMN_DEFAULT AS column_default,
				       CHARACTER_MAXIMUM_LENGTH AS character_maximum_length,
				       NUMERIC_PRECISION AS numeric_precision, NUMERIC_SCALE AS numeric_scale
				FROM INFORMATION_SCHEMA.COLUMNS
				WHERE ({owner} IS NULL OR TABLE_SCHEMA = {owner})
				  AND ({name} IS NULL OR TABLE_NAME = {name})
				ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION`,
			Views: `
				SELECT TABLE_SCHEMA AS table_schema, TABLE_NAME AS view_name,
				       VIEW_DEFINITION AS view_definition
				FROM INFORMATION_SCHEMA.VIEWS
				WHERE ({owner} IS NULL OR TABLE_SCHEMA = {owner})
				  AND ({name} IS NULL OR TABLE_NAME = {name})
				ORDER BY TABLE_SCHEMA, TABLE_NAME`,
			PrimaryKeys: sqlServerKeyColumns("PRIMARY KEY"),
			UniqueKeys:  sqlServerKeyColumns("UNIQUE"),
			ForeignKeys: `
				SELECT fk.TABLE_SCHEMA AS table_schema, fk.TABLE_NAME AS table_name,
				       rc.CONSTRAINT_NAME AS constraint_name, fk.COLUMN_NAME AS column_name,
				       fk.ORDINAL_POSITION AS ordinal_position,
				       pk.TABLE_SCHEMA AS fk_schema, pk.TABLE_NAME AS fk_table, pk.COLUMN_NAME AS fk_column,
				       rc.UNIQUE_CONSTRAINT_NAME AS fk_constraint_name,
				       rc.DELETE_RULE AS delete_rule, rc.UPDATE_RULE AS update_rule
				FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
				JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE fk
				  ON fk.CONSTRAINT_SCHEMA = rc.CONSTRAINT_SCHEMA AND fk.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
				JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE pk
				  ON pk.CONSTRAINT_SCHEMA = rc.UNIQUE_CONSTRAINT_SCHEMA AND pk.CONSTRAINT_NAME = rc.UNIQUE_CONSTRAINT_NAME
				 AND pk.ORDINAL_POSITION = fk.ORDINAL_POSITION
				WHERE ({owner} IS NULL OR fk.TABLE_SCHEMA = {owner})
				  AND ({name} IS NULL OR fk.TABLE_NAME = {name})
				ORDER BY fk.TABLE_SCHEMA, fk.TABLE_NAME, rc.CONSTRAINT_NAME, fk.ORDINAL_POSITION`,
			CheckConstraints: `
				SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name,
				       cc.name AS constraint_name, cc.definition AS expression
				FROM sys.check_constraints cc
				JOIN sys.tables t ON t.object_id = cc.parent_object_id
				WHERE ({owner} IS NULL OR SCHEMA_NAME(t.schema_id) = {owner})
				  AND ({name} IS NULL OR t.name = {name})
				ORDER BY 1, 2, 3`,
			DefaultConstraints: `
				SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name,
				       dc.name AS constraint_name, c.name AS column_name, dc.definition AS expression
				FROM sys.default_constraints dc
				JOIN sys.tables t ON t.object_id = dc.parent_object_id
				JOIN sys.columns c ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id
				WHERE ({owner} IS NULL OR SCHEMA_NAME(t.schema_id) = {owner})
				  AND ({name} IS NULL OR t.name = {name})
				ORDER BY 1, 2, 3`,
			Indexes: `
				SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name,
				       i.name AS index_name, c.name AS column_name, ic.key_ordinal AS ordinal_position,
				       i.is_unique, i.type_desc AS index_type
				FROM sys.indexes i
				JOIN sys.tables t ON t.object_id = i.object_id
				JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
				JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
				WHERE i.is_primary_key = 0 AND i.is_unique_constraint = 0 AND i.name IS NOT NULL
				  AND ic.key_ordinal > 0
				  AND ({owner} IS NULL OR SCHEMA_NAME(t.schema_id) = {owner})
				  AND ({name} IS NULL OR t.name = {name})
				ORDER BY 1, 2, 3, ic.key_ordinal`,
			Triggers: `
				SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name,
				       tr.name AS trigger_name,
				       CASE WHEN tr.is_instead_of_trigger = 1 THEN 'INSTEAD OF' ELSE 'AFTER' END AS trigger_type,
				       STUFF((SELECT ', ' + te.type_desc FROM sys.trigger_events te
				              WHERE te.object_id = tr.object_id FOR XML PATH('')), 1, 2, '') AS triggering_event,
				       OBJECT_DEFINITION(tr.object_id) AS trigger_body
				FROM sys.triggers tr
				JOIN sys.tables t ON t.object_id = tr.parent_id
				WHERE ({owner} IS NULL OR SCHEMA_NAME(t.schema_id) = {owner})
				  AND ({name} IS NULL OR t.name = {name})
				ORDER BY 1, 2, 3`,
			IdentityColumns: `
				SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name,
				       ic.name AS column_name,
				       CAST(ic.seed_value AS bigint) AS seed, CAST(ic.increment_value AS bigint) AS increment
				FROM sys.identity_columns ic
				JOIN sys.tables t ON t.object_id = ic.object_id
				WHERE ({owner} IS NULL OR SCHEMA_NAME(t.schema_id) = {owner})
				  AND ({name} IS NULL OR t.name = {name})`,
			ComputedColumns: `
				SELECT SCHEMA_NAME(t.schema_id) AS table_schema, t.name AS table_name,
				       cc.name AS column_name, cc.definition AS computed_definition
				FROM sys.computed_columns cc
				JOIN sys.tables t ON t.object_id = cc.object_id
				WHERE ({owner} IS NULL OR SCHEMA_NAME(t.schema_id) = {owner})
				  AND ({name} IS NULL OR t.name = {name})`,
			TableDescriptions: `
				SELECT SCHEMA_NAME(o.schema_id) AS table_schema, o.name AS table_name,
				       CAST(ep.value AS nvarchar(4000)) AS description
				FROM sys.extended_properties ep
				JOIN sys.objects o ON o.object_id = ep.major_id
				WHERE ep.name = 'MS_Description' AND ep.minor_id = 0 AND ep.class = 1
				  AND ({owner} IS NULL OR SCHEMA_NAME(o.schema_id) = {owner})
				  AND ({name} IS NULL OR o.name = {name})`,
			ColumnDescriptions: `
				SELECT SCHEMA_NAME(o.schema_id) AS table_schema, o.name AS table_name,
				       c.name AS column_name, CAST(ep.value AS nvarchar(4000)) AS description
				FROM sys.extended_properties ep
				JOIN sys.objects o ON o.object_id = ep.major_id
				JOIN sys.columns c ON c.object_id = ep.major_id AND c.column_id = ep.minor_id
				WHERE ep.name = 'MS_Description' AND ep.minor_id > 0 AND ep.class = 1
				  AND ({owner} IS NULL OR SCHEMA_NAME(o.schema_id) = {owner})
				  AND ({name} IS NULL OR o.name = {name})`,
			Sequences: `
				SELECT SCHEMA_NAME(schema_id) AS sequence_schema, name AS sequence_name,
				       CAST(minimum_value AS bigint) AS min_value, CAST(maximum_value AS bigint) AS max_value,
				       CAST(increment AS bigint) AS increment_by
				FROM sys.sequences
				WHERE ({owner} IS NULL OR SCHEMA_NAME(schema_id) = {owner})
				  AND ({name} IS NULL OR name = {name})
				ORDER BY 1, 2`,
			Procedures: sqlServerRoutines("PROCEDURE"),
			Functions:  sqlServerRoutines("FUNCTION"),
			Arguments: `
				SELECT SPECIFIC_SCHEMA AS routine_schema, SPECIFIC_NAME AS routine_name,
				       PARAMETER_NAME AS argument_name, ORDINAL_POSITION AS ordinal_position,
				       CASE WHEN IS_RESULT = 'YES' THEN 'RETURN' ELSE PARAMETER_MODE END AS in_out,
				       DATA_TYPE AS data_type, CHARACTER_MAXIMUM_LENGTH AS data_length,
				       NUMERIC_PRECISION AS data_precision, NUMERIC_SCALE AS data_scale
				FROM INFORMATION_SCHEMA.PARAMETERS
				WHERE ({owner} IS NULL OR SPECIFIC_SCHEMA = {owner})
				  AND ({name} IS NULL OR SPECIFIC_NAME = {name})
				ORDER BY SPECIFIC_SCHEMA, SPECIFIC_NAME, ORDINAL_POSITION`,
			ProcedureSource: `
				SELECT SCHEMA_NAME(o.schema_id) AS owner, o.name AS name, o.type_desc AS type,
				       OBJECT_DEFINITION(o.object_id) AS text
				FROM sys.objects o
				WHERE o.type IN ('P', 'FN', 'IF', 'TF')
				  AND ({owner} IS NULL OR SCHEMA_NAME(o.schema_id) = {owner})
				  AND ({name} IS NULL OR o.name = {name})`,
			ResultSets: `
				SELECT SCHEMA_NAME(p.schema_id) AS routine_schema, p.name AS routine_name,
				       r.name AS column_name, r.column_ordinal AS ordinal_position,
				       r.system_type_name AS data_type, r.is_nullable
				FROM sys.procedures p
				CROSS APPLY sys.dm_exec_describe_first_result_set_for_object(p.object_id, 0) r
				WHERE r.error_number IS NULL AND r.name IS NOT NULL
				  AND ({owner} IS NULL OR SCHEMA_NAME(p.schema_id) = {owner})
				  AND ({name} IS NULL OR p.name = {name})
				ORDER BY 1, 2, r.column_ordinal`,
			DataTypes: `
				SELECT name AS type_name, max_length, precision, scale, is_user_defined
				FROM sys.types
				ORDER BY name`,
		},
	})
}

func sqlServerKeyColumns(constraintType string) string {
	return `
				SELECT tc.TABLE_SCHEMA AS table_schema, tc.TABLE_NAME AS table_name,
				       tc.CONSTRAINT_NAME AS constraint_name, kcu.COLUMN_NAME AS column_name,
				       kcu.ORDINAL_POSITION AS ordinal_position
				FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
				JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
				  ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA AND kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
				WHERE tc.CONSTRAINT_TYPE = '` + constraintType + `'
				  AND ({owner} IS NULL OR tc.TABLE_SCHEMA = {owner})
				  AND ({name} IS NULL OR tc.TABLE_NAME = {name})
				ORDER BY tc.TABLE_SCHEMA, tc.TABLE_NAME, tc.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`
}

func sqlServerRoutines(routineType string) string {
	return `
				SELECT ROUTINE_SCHEMA AS routine_schema, ROUTINE_NAME AS routine_name,
				       DATA_TYPE AS return_type
				FROM INFORMATION_SCHEMA.ROUTINES
				WHERE ROUTINE_TYPE = '` + routineType + `'
				  AND ({owner} IS NULL OR ROUTINE_SCHEMA = {owner})
				  AND ({name} IS NULL OR ROUTINE_NAME = {name})
				ORDER BY ROUTINE_SCHEMA, ROUTINE_NAME`
}
