package accessor

import "github.com/tordrt/schemagraph/internal/db"

// SQLite has no owners; {owner} never appears in its statements. Catalog
// data comes from sqlite_master joined to the table-valued pragmas.

const sqliteObjects = `
				FROM sqlite_master m
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
				  AND ({name} IS NULL OR m.name = {name})`

var sqliteBuiltins = []string{
	"integer", "int", "bigint", "smallint", "tinyint", "real", "double", "float", "numeric", "decimal",
	"boolean", "text", "varchar", "char", "clob", "blob", "date", "datetime", "timestamp",
}

func init() {
	register(&variant{
		dialect:  SQLite,
		driver:   db.DriverSQLite,
		bind:     BindQuestion,
		builtins: sqliteBuiltins,
		queries: map[Capability]string{
			Tables: `
				SELECT m.name AS table_name` + sqliteObjects + `
				ORDER BY m.name`,
			Columns: `
				SELECT m.name AS table_name, p.cid + 1 AS ordinal_position, p.name AS column_name,
				       p.type AS data_type,
				       CASE WHEN p."notnull" = 0 AND p.pk = 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
				       p.dflt_value AS column_default
				FROM sqlite_master m
				JOIN pragma_table_xinfo(m.name) p
				WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%'
				  AND ({name} IS NULL OR m.name = {name})
				ORDER BY m.name, p.cid`,
			Views: `
				SELECT name AS view_name, sql AS view_definition
				FROM sqlite_master
				WHERE type = 'view' AND ({name} IS NULL OR name = {name})
				ORDER BY name`,
			PrimaryKeys: `
				SELECT m.name AS table_name, 'PK_' || m.name AS constraint_name,
				       p.name AS column_name, p.pk AS ordinal_position
				FROM sqlite_master m
				JOIN pragma_table_info(m.name) p
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND p.pk > 0
				  AND ({name} IS NULL OR m.name = {name})
				ORDER BY m.name, p.pk`,
			ForeignKeys: `
				SELECT m.name AS table_name, 'FK_' || m.name || '_' || f.id AS constraint_name,
				       f."from" AS column_name, f.seq + 1 AS ordinal_position,
				       f."table" AS fk_table, f."to" AS fk_column,
				       f.on_delete AS delete_rule, f.on_update AS update_rule
				FROM sqlite_master m
				JOIN pragma_foreign_key_list(m.name) f
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
				  AND ({name} IS NULL OR m.name = {name})
				ORDER BY m.name, f.id DESC, f.seq`,
			UniqueKeys: `
				SELECT m.name AS table_name, il.name AS constraint_name,
				       ii.name AS column_name, ii.seqno + 1 AS ordinal_position
				FROM sqlite_master m
				JOIN pragma_index_list(m.name) il
				JOIN pragma_index_info(il.name) ii
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND il.origin = 'u'
				  AND ({name} IS NULL OR m.name = {name})
				ORDER BY m.name, il.name, ii.seqno`,
			Indexes: `
				SELECT m.name AS table_name, il.name AS index_name,
				       ii.name AS column_name, ii.seqno + 1 AS ordinal_position,
				       il."unique" AS is_unique
				FROM sqlite_master m
				JOIN pragma_index_list(m.name) il
				JOIN pragma_index_info(il.name) ii
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND il.origin = 'c'
				  AND ({name} IS NULL OR m.name = {name})
				ORDER BY m.name, il.name, ii.seqno`,
			Triggers: `
				SELECT tbl_name AS table_name, name AS trigger_name, sql AS trigger_body
				FROM sqlite_master
				WHERE type = 'trigger' AND ({name} IS NULL OR tbl_name = {name})
				ORDER BY tbl_name, name`,
			// A lone INTEGER PRIMARY KEY column aliases the rowid.
			IdentityColumns: `
				SELECT m.name AS table_name, p.name AS column_name
				FROM sqlite_master m
				JOIN pragma_table_info(m.name) p
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
				  AND p.pk = 1 AND upper(p.type) = 'INTEGER'
				  AND (SELECT count(*) FROM pragma_table_info(m.name) k WHERE k.pk > 0) = 1
				  AND ({name} IS NULL OR m.name = {name})`,
			ComputedColumns: `
				SELECT m.name AS table_name, p.name AS column_name
				FROM sqlite_master m
				JOIN pragma_table_xinfo(m.name) p
				WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND p.hidden IN (2, 3)
				  AND ({name} IS NULL OR m.name = {name})`,
		},
	})
}
