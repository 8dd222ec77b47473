package accessor

import (
	"database/sql"
	"strconv"
	"strings"
)

// BindStyle is a driver's placeholder syntax.
type BindStyle int

const (
	// BindQuestion uses ? once per occurrence (MySQL, SQLite, ODBC).
	BindQuestion BindStyle = iota
	// BindDollar uses $1, $2 numbered per distinct parameter (pgx).
	BindDollar
	// BindAt uses @p1, @p2 numbered per distinct parameter (SQL Server).
	BindAt
	// BindColon uses :1, :2 once per occurrence (positional Oracle binds).
	BindColon
)

// Query placeholders. A nil bound value means "match everything".
const (
	ownerParam = "{owner}"
	nameParam  = "{name}"
)

// bind rewrites the {owner} and {name} tokens of query into driver
// placeholders and returns the matching arguments. With byName the tokens
// become :owner and :name bound through sql.Named, so a repeated parameter
// is sent once.
func bind(query string, style BindStyle, byName bool, owner, name string) (string, []any) {
	values := map[string]any{ownerParam: nullable(owner), nameParam: nullable(name)}

	var (
		b        strings.Builder
		args     []any
		numbered = map[string]int{}
	)
	rest := query
	for {
		i, token := nextToken(rest)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		rest = rest[i+len(token):]
		param := strings.Trim(token, "{}")

		switch {
		case byName:
			b.WriteString(":" + param)
			if _, seen := numbered[token]; !seen {
				numbered[token] = len(numbered) + 1
				args = append(args, sql.Named(param, values[token]))
			}
		case style == BindDollar || style == BindAt:
			n, seen := numbered[token]
			if !seen {
				n = len(numbered) + 1
				numbered[token] = n
				args = append(args, values[token])
			}
			if style == BindDollar {
				b.WriteString("$" + strconv.Itoa(n))
			} else {
				b.WriteString("@p" + strconv.Itoa(n))
			}
		case style == BindColon:
			args = append(args, values[token])
			b.WriteString(":" + strconv.Itoa(len(args)))
		default:
			args = append(args, values[token])
			b.WriteString("?")
		}
	}
	return b.String(), args
}

func nextToken(s string) (int, string) {
	o := strings.Index(s, ownerParam)
	n := strings.Index(s, nameParam)
	switch {
	case o < 0 && n < 0:
		return -1, ""
	case n < 0 || (o >= 0 && o < n):
		return o, ownerParam
	default:
		return n, nameParam
	}
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
