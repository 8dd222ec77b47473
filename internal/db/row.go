package db

import (
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Row is one raw catalog record keyed by lower-cased column name.
type Row map[string]any

// Rows is the raw result of one catalog fetch.
type Rows []Row

// Value returns the first non-nil value stored under any of keys.
func (r Row) Value(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first present value as trimmed text, or "".
func (r Row) String(keys ...string) string {
	v, ok := r.Value(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(toString(v))
}

// Text is String without trimming, for bodies and source lines.
func (r Row) Text(keys ...string) string {
	v, ok := r.Value(keys...)
	if !ok {
		return ""
	}
	return toString(v)
}

// NullString returns nil when no key carries a value.
func (r Row) NullString(keys ...string) *string {
	v, ok := r.Value(keys...)
	if !ok {
		return nil
	}
	s := toString(v)
	return &s
}

// Int returns the first present value as an integer.
func (r Row) Int(keys ...string) (int64, bool) {
	v, ok := r.Value(keys...)
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// IntOr returns Int or def.
func (r Row) IntOr(def int64, keys ...string) int64 {
	if n, ok := r.Int(keys...); ok {
		return n
	}
	return def
}

// NullInt returns a pointer to the integer value, or nil.
func (r Row) NullInt(keys ...string) *int {
	n, ok := r.Int(keys...)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

// Bool interprets YES/NO, Y/N, TRUE/FALSE, 1/0 and native booleans.
func (r Row) Bool(keys ...string) bool {
	v, ok := r.Value(keys...)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string, []byte:
		switch strings.ToUpper(strings.TrimSpace(toString(b))) {
		case "YES", "Y", "TRUE", "T", "1", "UNIQUE":
			return true
		}
		return false
	default:
		n, ok := toInt(v)
		return ok && n != 0
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case *big.Int:
		return n.Int64(), true
	case sql.NullInt64:
		return n.Int64, n.Valid
	case string, []byte:
		s := strings.TrimSpace(toString(n))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// ScanRows drains rows into Rows. Byte slices are copied into strings since
// database/sql reuses the buffers between Next calls.
func ScanRows(rows *sql.Rows) (Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = strings.ToLower(c)
	}

	var out Rows
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, k := range keys {
			if b, ok := vals[i].([]byte); ok {
				row[k] = string(b)
				continue
			}
			row[k] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
