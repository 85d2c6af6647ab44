// Package parse wraps the vitess SQL parser behind the narrow boundary the
// rewriter needs: SQL text in, mutable statement tree out.
package parse

import (
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	opentracing "github.com/opentracing/opentracing-go"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/starview-db/starview/sql"
)

// ErrEmptyQuery is returned when the query is empty or whitespace only.
var ErrEmptyQuery = errors.NewKind("cannot parse empty query")

// Parse parses the given SQL sentence and returns the corresponding
// statement tree. Parse failures propagate unchanged; the rewriter never
// attempts to repair malformed SQL.
func Parse(ctx *sql.Context, query string) (sqlparser.Statement, error) {
	span, _ := ctx.Span("parse", opentracing.Tag{Key: "query", Value: query})
	defer span.Finish()

	s := strings.TrimSpace(query)
	if strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	if s == "" {
		return nil, ErrEmptyQuery.New()
	}

	return sqlparser.Parse(s)
}
