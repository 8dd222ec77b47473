package accessor

import (
	"strconv"
	"strings"

	"github.com/tordrt/schemagraph/internal/db"
)

// The Sybase family has no driver registered by this module; callers name
// one explicitly (an ODBC bridge, a FreeTDS-based driver).

// sybaseKeyColumn picks the n-th of sysreferences' sixteen key slots.
func sybaseKeyColumn(slot string) string {
	var b strings.Builder
	b.WriteString("CASE v.number")
	for i := 1; i <= 16; i++ {
		n := strconv.Itoa(i)
		b.WriteString(" WHEN " + n + " THEN r." + slot + n)
	}
	b.WriteString(" END")
	return b.String()
}

func sybaseIndexColumns(where string) string {
	return `
				SELECT user_name(o.uid) AS owner, o.name AS table_name, i.name AS constraint_name,
				       i.name AS index_name, index_col(o.name, i.indid, v.number, o.uid) AS column_name,
				       v.number AS ordinal_position,
				       CASE WHEN (i.status & 2) = 2 THEN 'YES' ELSE 'NO' END AS is_unique,
				       CASE WHEN i.indid = 1 THEN 'CLUSTERED' ELSE 'NONCLUSTERED' END AS index_type
				FROM sysindexes i
				JOIN sysobjects o ON o.id = i.id
				JOIN master..spt_values v ON v.type = 'P' AND v.number BETWEEN 1 AND i.keycnt
				WHERE o.type = 'U' AND i.indid BETWEEN 1 AND 254
				  AND ` + where + `
				  AND index_col(o.name, i.indid, v.number, o.uid) IS NOT NULL
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, 3, v.number`
}

func init() {
	register(&variant{
		dialect: SybaseASE,
		bind:    BindQuestion,
		queries: map[Capability]string{
			Owners: `
				SELECT DISTINCT user_name(uid) AS schema_name
				FROM sysobjects WHERE type IN ('U', 'V', 'P')
				ORDER BY 1`,
			Users: `SELECT name AS user_name FROM sysusers WHERE uid > 0 AND uid < 16384 ORDER BY name`,
			Tables: `
				SELECT user_name(uid) AS owner, name AS table_name
				FROM sysobjects
				WHERE type = 'U'
				  AND ({owner} IS NULL OR user_name(uid) = {owner})
				  AND ({name} IS NULL OR name = {name})
				ORDER BY 1, 2`,
			Columns: `
				SELECT user_name(o.uid) AS owner, o.name AS table_name, c.name AS column_name,
				       c.colid AS ordinal_position, t.name AS data_type,
				       CASE WHEN (c.status & 8) = 8 THEN 'YES' ELSE 'NO' END AS is_nullable,
				       c.length AS character_maximum_length, c.prec AS numeric_precision, c.scale AS numeric_scale,
				       d.text AS column_default
				FROM sysobjects o
				JOIN syscolumns c ON c.id = o.id
				JOIN systypes t ON t.usertype = c.usertype
				LEFT JOIN syscomments d ON d.id = c.cdefault AND d.colid = 1
				WHERE o.type IN ('U', 'V')
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, c.colid`,
			Views: `
				SELECT user_name(o.uid) AS owner, o.name AS view_name, c.colid AS line, c.text AS view_definition
				FROM sysobjects o
				LEFT JOIN syscomments c ON c.id = o.id
				WHERE o.type = 'V'
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, c.colid`,
			PrimaryKeys: sybaseIndexColumns("(i.status & 2048) = 2048"),
			UniqueKeys:  sybaseIndexColumns("(i.status & 2048) = 0 AND (i.status & 4096) = 4096"),
			Indexes:     sybaseIndexColumns("(i.status & 2048) = 0 AND (i.status & 4096) = 0"),
			ForeignKeys: `
				SELECT user_name(o.uid) AS owner, o.name AS table_name, c.name AS constraint_name,
				       col_name(r.tableid, ` + sybaseKeyColumn("fokey") + `) AS column_name,
				       v.number AS ordinal_position,
				       r.pmrydbname AS fk_database, user_name(p.uid) AS fk_schema, p.name AS fk_table,
				       col_name(r.reftabid, ` + sybaseKeyColumn("refkey") + `) AS fk_column
				FROM sysreferences r
				JOIN sysobjects o ON o.id = r.tableid
				JOIN sysobjects c ON c.id = r.constrid
				JOIN sysobjects p ON p.id = r.reftabid
				JOIN master..spt_values v ON v.type = 'P' AND v.number BETWEEN 1 AND r.keycnt
				WHERE ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, 3, v.number`,
			Triggers: `
				SELECT user_name(o.uid) AS owner, o.name AS table_name, tr.name AS trigger_name,
				       CASE WHEN o.instrig = tr.id THEN 'INSERT' WHEN o.updtrig = tr.id THEN 'UPDATE'
				            WHEN o.deltrig = tr.id THEN 'DELETE' END AS triggering_event,
				       c.colid AS line, c.text AS trigger_body
				FROM sysobjects tr
				JOIN sysobjects o ON o.id = tr.deltrig
				JOIN syscomments c ON c.id = tr.id
				WHERE tr.type = 'TR'
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, 3, c.colid`,
			IdentityColumns: `
				SELECT user_name(o.uid) AS owner, o.name AS table_name, c.name AS column_name
				FROM sysobjects o
				JOIN syscolumns c ON c.id = o.id
				WHERE o.type = 'U' AND (c.status & 128) = 128
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})`,
			ComputedColumns: `
				SELECT user_name(o.uid) AS owner, o.name AS table_name, c.name AS column_name,
				       d.text AS computed_definition
				FROM sysobjects o
				JOIN syscolumns c ON c.id = o.id
				LEFT JOIN syscomments d ON d.id = c.computedcol AND d.colid = 1
				WHERE o.type = 'U' AND c.computedcol IS NOT NULL
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})`,
			Procedures: `
				SELECT user_name(uid) AS owner, name AS routine_name
				FROM sysobjects
				WHERE type = 'P'
				  AND ({owner} IS NULL OR user_name(uid) = {owner})
				  AND ({name} IS NULL OR name = {name})
				ORDER BY 1, 2`,
			Arguments: `
				SELECT user_name(o.uid) AS owner, o.name AS routine_name, c.name AS argument_name,
				       c.colid AS ordinal_position,
				       CASE WHEN (c.status2 & 2) = 2 THEN 'OUT' WHEN (c.status2 & 4) = 4 THEN 'INOUT' ELSE 'IN' END AS in_out,
				       t.name AS data_type, c.length AS data_length, c.prec AS data_precision, c.scale AS data_scale
				FROM sysobjects o
				JOIN syscolumns c ON c.id = o.id
				JOIN systypes t ON t.usertype = c.usertype
				WHERE o.type = 'P'
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, c.colid`,
			ProcedureSource: `
				SELECT user_name(o.uid) AS owner, o.name AS name, 'PROCEDURE' AS type,
				       c.colid AS line, c.text AS text
				FROM sysobjects o
				JOIN syscomments c ON c.id = o.id
				WHERE o.type = 'P'
				  AND ({owner} IS NULL OR user_name(o.uid) = {owner})
				  AND ({name} IS NULL OR o.name = {name})
				ORDER BY 1, 2, c.colid`,
			DataTypes: `
				SELECT name AS type_name, length AS max_length, prec AS precision, scale,
				       CASE WHEN usertype > 100 THEN 1 ELSE 0 END AS is_user_defined
				FROM systypes
				ORDER BY name`,
		},
	})

	register(&variant{
		dialect: SybaseASA,
		bind:    BindQuestion,
		reshape: reshapeSQLAnywhere,
		queries: map[Capability]string{
			Owners: `SELECT DISTINCT creator AS schema_name FROM SYS.SYSCATALOG WHERE creator NOT IN ('SYS', 'dbo') ORDER BY 1`,
			Users:  `SELECT user_name FROM SYS.SYSUSER ORDER BY user_name`,
			Tables: `
				SELECT creator AS owner, tname AS table_name, remarks AS description
				FROM SYS.SYSCATALOG
				WHERE tabletype = 'TABLE' AND creator NOT IN ('SYS', 'dbo', 'rs_systabgroup')
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR tname = {name})
				ORDER BY 1, 2`,
			Columns: `
				SELECT creator AS owner, tname AS table_name, cname AS column_name, colno AS ordinal_position,
				       coltype AS data_type, CASE nulls WHEN 'Y' THEN 'YES' ELSE 'NO' END AS is_nullable,
				       length AS character_maximum_length, syslength AS numeric_scale,
				       default_value AS column_default, remarks AS description
				FROM SYS.SYSCOLUMNS
				WHERE ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR tname = {name})
				ORDER BY 1, 2, colno`,
			Views: `
				SELECT vcreator AS owner, viewname AS view_name, viewtext AS view_definition
				FROM SYS.SYSVIEWS
				WHERE ({owner} IS NULL OR vcreator = {owner})
				  AND ({name} IS NULL OR viewname = {name})
				ORDER BY 1, 2`,
			PrimaryKeys: `
				SELECT creator AS owner, tname AS table_name, 'PK_' || tname AS constraint_name,
				       cname AS column_name, colno AS ordinal_position
				FROM SYS.SYSCOLUMNS
				WHERE in_primary_key = 'Y'
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR tname = {name})
				ORDER BY 1, 2, colno`,
			// columns is "fk_col IS pk_col, ..."; reshape expands it.
			ForeignKeys: `
				SELECT foreign_creator AS owner, foreign_tname AS table_name, role AS constraint_name,
				       primary_creator AS fk_schema, primary_tname AS fk_table, columns AS column_pairs
				FROM SYS.SYSFOREIGNKEYS
				WHERE ({owner} IS NULL OR foreign_creator = {owner})
				  AND ({name} IS NULL OR foreign_tname = {name})
				ORDER BY 1, 2, 3`,
			// colnames is "c1 ASC,c2 DESC"; reshape expands it.
			UniqueKeys: `
				SELECT creator AS owner, tname AS table_name, iname AS constraint_name, colnames AS column_list
				FROM SYS.SYSINDEXES
				WHERE indextype = 'Unique constraint'
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR tname = {name})
				ORDER BY 1, 2, 3`,
			Indexes: `
				SELECT creator AS owner, tname AS table_name, iname AS index_name, colnames AS column_list,
				       CASE indextype WHEN 'Unique' THEN 'YES' ELSE 'NO' END AS is_unique
				FROM SYS.SYSINDEXES
				WHERE indextype IN ('Unique', 'Non-unique')
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR tname = {name})
				ORDER BY 1, 2, 3`,
			Triggers: `
				SELECT owner, tname AS table_name, trigname AS trigger_name,
				       event AS triggering_event, trigtime AS trigger_type, trigdefn AS trigger_body
				FROM SYS.SYSTRIGGERS
				WHERE ({owner} IS NULL OR owner = {owner})
				  AND ({name} IS NULL OR tname = {name})
				ORDER BY 1, 2, 3`,
			IdentityColumns: `
				SELECT creator AS owner, tname AS table_name, cname AS column_name
				FROM SYS.SYSCOLUMNS
				WHERE default_value = 'autoincrement'
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR tname = {name})`,
			Procedures: `
				SELECT creator AS owner, procname AS routine_name, remarks AS description
				FROM SYS.SYSPROCS
				WHERE creator NOT IN ('SYS', 'dbo')
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR procname = {name})
				ORDER BY 1, 2`,
			Arguments: `
				SELECT creator AS owner, procname AS routine_name, parmname AS argument_name,
				       parm_id AS ordinal_position, parmmode AS in_out, domain_name AS data_type,
				       width AS data_length, scale AS data_scale
				FROM SYS.SYSPROCPARMS
				WHERE parmtype = 'NORMAL'
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR procname = {name})
				ORDER BY 1, 2, parm_id`,
			ResultSets: `
				SELECT creator AS owner, procname AS routine_name, parmname AS column_name,
				       parm_id AS ordinal_position, domain_name AS data_type
				FROM SYS.SYSPROCPARMS
				WHERE parmtype = 'RESULT'
				  AND ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR procname = {name})
				ORDER BY 1, 2, parm_id`,
			ProcedureSource: `
				SELECT creator AS owner, procname AS name, 'PROCEDURE' AS type, proc_defn AS text
				FROM SYS.SYSPROCS
				WHERE ({owner} IS NULL OR creator = {owner})
				  AND ({name} IS NULL OR procname = {name})`,
			DataTypes: `
				SELECT domain_name AS type_name, "precision" AS precision
				FROM SYS.SYSDOMAIN
				ORDER BY domain_name`,
		},
	})

	register(&variant{
		dialect: SybaseUltraLite,
		bind:    BindQuestion,
		queries: map[Capability]string{
			Tables: `
				SELECT table_name
				FROM systable
				WHERE (object_type IS NULL OR object_type = 'table')
				  AND table_name NOT LIKE 'sys%'
				  AND ({name} IS NULL OR table_name = {name})
				ORDER BY table_name`,
			Columns: `
				SELECT t.table_name, c.column_name, c.column_id AS ordinal_position,
				       c.domain AS data_type, c.domain_info AS character_maximum_length,
				       CASE c.nulls WHEN 'Y' THEN 'YES' ELSE 'NO' END AS is_nullable,
				       c."default" AS column_default
				FROM systable t
				JOIN syscolumn c ON c.table_id = t.object_id
				WHERE ({name} IS NULL OR t.table_name = {name})
				ORDER BY t.table_name, c.column_id`,
			PrimaryKeys: ultraLiteIndexColumns("i.type = 'primary'"),
			UniqueKeys:  ultraLiteIndexColumns("i.type = 'unique'"),
			Indexes:     ultraLiteIndexColumns("i.type = 'index'"),
		},
	})
}

func ultraLiteIndexColumns(where string) string {
	return `
				SELECT t.table_name, i.index_name AS constraint_name, i.index_name,
				       c.column_name, x.sequence AS ordinal_position, 'NO' AS is_unique
				FROM sysindex i
				JOIN systable t ON t.object_id = i.table_id
				JOIN sysixcol x ON x.table_id = i.table_id AND x.index_id = i.object_id
				JOIN syscolumn c ON c.table_id = x.table_id AND c.column_id = x.column_id
				WHERE ` + where + `
				  AND ({name} IS NULL OR t.table_name = {name})
				ORDER BY t.table_name, i.index_name, x.sequence`
}

// reshapeSQLAnywhere expands the list-valued columns of SYSFOREIGNKEYS and
// SYSINDEXES into one row per member column.
func reshapeSQLAnywhere(c Capability, rows db.Rows) db.Rows {
	switch c {
	case ForeignKeys:
		return expandList(rows, "column_pairs", ",", func(row db.Row, item string) {
			local, referenced, _ := strings.Cut(item, " IS ")
			row["column_name"] = strings.TrimSpace(local)
			row["fk_column"] = strings.TrimSpace(referenced)
		})
	case UniqueKeys, Indexes:
		return expandList(rows, "column_list", ",", func(row db.Row, item string) {
			fields := strings.Fields(item)
			if len(fields) > 0 {
				row["column_name"] = fields[0]
			}
		})
	}
	return rows
}

// expandList emits one copy of each row per separated item of key, with a
// 1-based ordinal_position.
func expandList(rows db.Rows, key, sep string, fill func(db.Row, string)) db.Rows {
	out := make(db.Rows, 0, len(rows))
	for _, row := range rows {
		pos := 0
		for _, item := range strings.Split(row.Text(key), sep) {
			if strings.TrimSpace(item) == "" {
				continue
			}
			pos++
			expanded := make(db.Row, len(row)+2)
			for k, v := range row {
				if k != key {
					expanded[k] = v
				}
			}
			expanded["ordinal_position"] = pos
			fill(expanded, strings.TrimSpace(item))
			out = append(out, expanded)
		}
	}
	return out
}
