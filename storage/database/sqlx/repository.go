// Package sqlxrepos implements the domain repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// trapNoRowsErr maps the sql "no rows" err to notFound
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// affected reports whether the statement touched at least one row.
func affected(res sql.Result, err error, msg string) (bool, error) {
	if err != nil {
		return false, errors.Wrap(err, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, msg)
	}
	return n > 0, nil
}

// conditions accumulates "col = $n" filters joined with AND.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) eq(column string, val interface{}) {
	c.args = append(c.args, val)
	c.clauses = append(c.clauses, fmt.Sprintf("%s = $%d", column, len(c.args)))
}

// next returns the number of the next placeholder.
func (c conditions) next() int {
	return len(c.args) + 1
}

func (c conditions) String() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// paginate appends LIMIT & OFFSET to the query and returns its args.
func (c conditions) paginate(query string, limit, offset int) (string, []interface{}) {
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", c.next(), c.next()+1)
	return query, append(append([]interface{}{}, c.args...), limit, offset)
}
