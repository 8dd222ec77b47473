package accessor

import "github.com/tordrt/schemagraph/internal/db"

const oracleSystemOwners = `('SYS', 'SYSTEM', 'OUTLN', 'DBSNMP', 'XDB', 'MDSYS', 'CTXSYS', 'ORDSYS', 'ORDDATA',
	'WMSYS', 'EXFSYS', 'OLAPSYS', 'APEX_PUBLIC_USER', 'FLOWS_FILES', 'ANONYMOUS', 'APPQOSSYS',
	'AUDSYS', 'DVSYS', 'GSMADMIN_INTERNAL', 'LBACSYS', 'OJVMSYS', 'ORACLE_OCM', 'DBSFWUSER')`

var oracleBuiltins = []string{
	"NUMBER", "FLOAT", "BINARY_FLOAT", "BINARY_DOUBLE", "INTEGER",
	"CHAR", "NCHAR", "VARCHAR2", "NVARCHAR2", "CLOB", "NCLOB", "LONG",
	"DATE", "TIMESTAMP", "TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITH LOCAL TIME ZONE",
	"INTERVAL YEAR TO MONTH", "INTERVAL DAY TO SECOND",
	"RAW", "LONG RAW", "BLOB", "BFILE", "ROWID", "UROWID", "XMLTYPE", "SDO_GEOMETRY",
}

func init() {
	register(&variant{
		dialect:      Oracle,
		driver:       db.DriverOracle,
		bind:         BindColon,
		bindByName:   true,
		upperFilters: true,
		builtins:     oracleBuiltins,
		queries: map[Capability]string{
			Owners: `
				SELECT username AS schema_name
				FROM all_users
				WHERE username NOT IN ` + oracleSystemOwners + `
				ORDER BY username`,
			Users: `SELECT username AS user_name FROM all_users ORDER BY username`,
			Tables: `
				SELECT owner, table_name
				FROM all_tables
				WHERE owner NOT IN ` + oracleSystemOwners + `
				  AND table_name NOT LIKE 'BIN$%'
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY owner, table_name`,
			Columns: `
				SELECT owner, table_name, column_name, column_id AS ordinal_position,
				       data_type, nullable, data_default AS column_default,
				       char_length AS character_maximum_length,
				       data_precision AS numeric_precision, data_scale AS numeric_scale
				FROM all_tab_columns
				WHERE owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY owner, table_name, column_id`,
			Views: `
				SELECT owner, view_name, text AS view_definition
				FROM all_views
				WHERE owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR view_name = {name})
				ORDER BY owner, view_name`,
			PrimaryKeys: oracleKeyColumns("P"),
			UniqueKeys:  oracleKeyColumns("U"),
			ForeignKeys: `
				SELECT c.owner, c.table_name, c.constraint_name, cc.column_name, cc.position AS ordinal_position,
				       r.owner AS fk_schema, r.table_name AS fk_table, rc.column_name AS fk_column,
				       c.r_constraint_name AS fk_constraint_name, c.delete_rule
				FROM all_constraints c
				JOIN all_cons_columns cc
				  ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
				JOIN all_constraints r
				  ON r.owner = c.r_owner AND r.constraint_name = c.r_constraint_name
				JOIN all_cons_columns rc
				  ON rc.owner = r.owner AND rc.constraint_name = r.constraint_name AND rc.position = cc.position
				WHERE c.constraint_type = 'R'
				  AND c.owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR c.owner = {owner})
				  AND ({name} IS NULL OR c.table_name = {name})
				ORDER BY c.owner, c.table_name, c.constraint_name, cc.position`,
			// search_condition is LONG and includes the generated NOT NULL
			// checks; the converter drops those.
			CheckConstraints: `
				SELECT owner, table_name, constraint_name, search_condition AS expression
				FROM all_constraints
				WHERE constraint_type = 'C'
				  AND owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY owner, table_name, constraint_name`,
			Indexes: `
				SELECT i.table_owner AS owner, i.table_name, i.index_name, ic.column_name,
				       ic.column_position AS ordinal_position, i.uniqueness AS is_unique,
				       i.index_type
				FROM all_indexes i
				JOIN all_ind_columns ic ON ic.index_owner = i.owner AND ic.index_name = i.index_name
				WHERE i.table_owner NOT IN ` + oracleSystemOwners + `
				  AND NOT EXISTS (SELECT 1 FROM all_constraints c
				                  WHERE c.owner = i.table_owner AND c.index_name = i.index_name
				                    AND c.constraint_type IN ('P', 'U'))
				  AND ({owner} IS NULL OR i.table_owner = {owner})
				  AND ({name} IS NULL OR i.table_name = {name})
				ORDER BY i.table_owner, i.table_name, i.index_name, ic.column_position`,
			Triggers: `
				SELECT table_owner AS owner, table_name, trigger_name, triggering_event,
				       trigger_type, trigger_body
				FROM all_triggers
				WHERE base_object_type = 'TABLE'
				  AND table_owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR table_owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_owner, table_name, trigger_name`,
			// all_tab_identity_cols exists from 12c; 11g reports ORA-00942.
			IdentityColumns: `
				SELECT owner, table_name, column_name
				FROM all_tab_identity_cols
				WHERE ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			ComputedColumns: `
				SELECT owner, table_name, column_name, data_default AS computed_definition
				FROM all_tab_cols
				WHERE virtual_column = 'YES' AND hidden_column = 'NO'
				  AND owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			TableDescriptions: `
				SELECT owner, table_name, comments AS description
				FROM all_tab_comments
				WHERE comments IS NOT NULL
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			ColumnDescriptions: `
				SELECT owner, table_name, column_name, comments AS description
				FROM all_col_comments
				WHERE comments IS NOT NULL
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR table_name = {name})`,
			Sequences: `
				SELECT sequence_owner AS owner, sequence_name,
				       min_value, LEAST(max_value, 9223372036854775807) AS max_value, increment_by
				FROM all_sequences
				WHERE sequence_owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR sequence_owner = {owner})
				  AND ({name} IS NULL OR sequence_name = {name})
				ORDER BY sequence_owner, sequence_name`,
			Procedures: oracleStandalone("PROCEDURE"),
			Functions:  oracleStandalone("FUNCTION"),
			Packages: `
				SELECT p.owner, p.object_name AS package_name, p.procedure_name AS member_name,
				       CASE WHEN EXISTS (SELECT 1 FROM all_arguments a
				                         WHERE a.owner = p.owner AND a.package_name = p.object_name
				                           AND a.object_name = p.procedure_name
				                           AND a.position = 0 AND a.data_level = 0)
				            THEN 'FUNCTION' ELSE 'PROCEDURE' END AS member_type
				FROM all_procedures p
				WHERE p.object_type = 'PACKAGE'
				  AND p.owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR p.owner = {owner})
				  AND ({name} IS NULL OR p.object_name = {name})
				ORDER BY p.owner, p.object_name, p.subprogram_id`,
			Arguments: `
				SELECT owner, package_name, object_name AS routine_name, argument_name,
				       position AS ordinal_position, in_out, data_type,
				       data_length, data_precision, data_scale
				FROM all_arguments
				WHERE data_level = 0
				  AND owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR object_name = {name} OR package_name = {name})
				ORDER BY owner, package_name, object_name, sequence`,
			ProcedureSource: `
				SELECT owner, name, type, line, text
				FROM all_source
				WHERE type IN ('PROCEDURE', 'FUNCTION', 'PACKAGE', 'PACKAGE BODY')
				  AND owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR name = {name})
				ORDER BY owner, name, type, line`,
		},
	})
}

func oracleKeyColumns(constraintType string) string {
	return `
				SELECT c.owner, c.table_name, c.constraint_name, cc.column_name, cc.position AS ordinal_position
				FROM all_constraints c
				JOIN all_cons_columns cc
				  ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
				WHERE c.constraint_type = '` + constraintType + `'
				  AND c.owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR c.owner = {owner})
				  AND ({name} IS NULL OR c.table_name = {name})
				ORDER BY c.owner, c.table_name, c.constraint_name, cc.position`
}

func oracleStandalone(objectType string) string {
	return `
				SELECT owner, object_name AS routine_name
				FROM all_procedures
				WHERE object_type = '` + objectType + `'
				  AND owner NOT IN ` + oracleSystemOwners + `
				  AND ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR object_name = {name})
				ORDER BY owner, object_name`
}
