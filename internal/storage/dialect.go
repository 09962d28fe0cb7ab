package storage

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect captures the few places where SQLite and PostgreSQL disagree
type dialect struct {
	name string

	// numbered placeholders ($1, $2) instead of ?
	numbered bool

	// list wraps a string slice for writing, scanList for reading
	list     func(v []string) driver.Valuer
	scanList func(v *[]string) sql.Scanner

	// hasSkill is a WHERE fragment matching agents carrying one skill
	hasSkill string

	sizeQuery string

	uniqueViolation func(err error) bool
}

var sqliteDialect = &dialect{
	name:      "sqlite",
	list:      func(v []string) driver.Valuer { return jsonList{v: &v} },
	scanList:  func(v *[]string) sql.Scanner { return jsonList{v: v} },
	hasSkill:  "EXISTS (SELECT 1 FROM json_each(agents.skills) WHERE json_each.value = ?)",
	sizeQuery: "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
	uniqueViolation: func(err error) bool {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) {
			code := sqliteErr.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
		}
		return false
	},
}

var postgresDialect = &dialect{
	name:      "postgres",
	numbered:  true,
	list: func(v []string) driver.Valuer {
		if v == nil {
			v = []string{}
		}
		return pq.StringArray(v)
	},
	scanList:  func(v *[]string) sql.Scanner { return (*pq.StringArray)(v) },
	hasSkill:  "? = ANY(agents.skills)",
	sizeQuery: "SELECT pg_database_size(current_database())",
	uniqueViolation: func(err error) bool {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return pqErr.Code == "23505"
		}
		return false
	},
}

// rebind rewrites ? placeholders for dialects that number them
func (d *dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// jsonList stores a string slice as a JSON array in a TEXT column
type jsonList struct {
	v *[]string
}

func (l jsonList) Value() (driver.Value, error) {
	if l.v == nil || *l.v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(*l.v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l jsonList) Scan(src interface{}) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*l.v = []string{}
		return nil
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return fmt.Errorf("cannot scan %T into string list", src)
	}

	out := []string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l.v = out
	return nil
}
