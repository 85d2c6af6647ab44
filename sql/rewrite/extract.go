package rewrite

import (
	"sort"

	"github.com/dolthub/vitess/go/vt/sqlparser"
)

// References holds the table and column names mentioned by a query.
// Table names are recorded exactly as written in FROM position, never
// resolved against aliases. Column names are recorded by bare name only;
// the qualifier, if any, is dropped, so columns cannot be attributed to a
// specific table of a multi-table query.
type References struct {
	Tables  map[string]bool
	Columns map[string]bool
}

// SortedTables returns the referenced table names in lexicographic order.
func (r *References) SortedTables() []string {
	tables := make([]string, 0, len(r.Tables))
	for t := range r.Tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// extractReferences walks the whole statement tree, including joins and
// nested subqueries, collecting every FROM table name and every column
// name. A query without column references (e.g. SELECT * FROM t LIMIT 5)
// yields an empty column set.
func extractReferences(stmt sqlparser.Statement) *References {
	refs := &References{
		Tables:  make(map[string]bool),
		Columns: make(map[string]bool),
	}

	// The visit function never fails, so neither does Walk.
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			if t, ok := n.Expr.(sqlparser.TableName); ok {
				refs.Tables[t.Name.String()] = true
			}
		case *sqlparser.ColName:
			refs.Columns[n.Name.String()] = true
		}
		return true, nil
	}, stmt)

	return refs
}
