package rewrite

import (
	"fmt"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"

	"github.com/starview-db/starview/sql"
)

// buildTableExpr constructs the replacement for a FROM reference to the
// given logical table. With no dimensions to join, the replacement is the
// bare fact table. Otherwise it is a derived table joining the fact table
// to each required dimension on its join key:
//
//	(SELECT * FROM fact, dim1, dim2 WHERE fact.k1 = dim1.k1 AND fact.k2 = dim2.k2)
//
// The derived table is built as SQL text and parsed back; a parse failure
// means the schema metadata produced invalid SQL and is fatal.
func buildTableExpr(schema sql.StarSchema, plan *RewritePlan) (sqlparser.SimpleTableExpr, error) {
	if plan.FactOnly() {
		return sqlparser.TableName{Name: sqlparser.NewTableIdent(schema.FactTable)}, nil
	}

	tables := append([]string{schema.FactTable}, plan.Dimensions...)
	conds := make([]string, 0, len(plan.Dimensions))
	for _, dim := range plan.Dimensions {
		key, ok := schema.JoinKey(dim)
		if !ok {
			return nil, sql.ErrRewriteConstruction.New(
				fmt.Sprintf("no join key registered for dimension table %s", dim))
		}
		conds = append(conds, fmt.Sprintf("%s.%s = %s.%s", schema.FactTable, key, dim, key))
	}

	derived := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s",
		strings.Join(tables, ", "),
		strings.Join(conds, " AND "),
	)

	stmt, err := sqlparser.Parse(derived)
	if err != nil {
		return nil, sql.ErrRewriteConstruction.Wrap(err, derived)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, sql.ErrRewriteConstruction.New(derived)
	}

	return &sqlparser.Subquery{Select: sel}, nil
}

// rewriteTable replaces every FROM reference to the given logical table
// with the expression dictated by the plan, leaving the original alias, if
// any, attached to the replacement. Each reference gets its own freshly
// built subtree and is swapped atomically; the rest of the tree is never
// touched. Reports whether anything changed.
func rewriteTable(stmt sqlparser.Statement, schema sql.StarSchema, plan *RewritePlan) (bool, error) {
	var changed bool
	err := sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		te, ok := node.(*sqlparser.AliasedTableExpr)
		if !ok {
			return true, nil
		}
		name, ok := te.Expr.(sqlparser.TableName)
		if !ok || name.Name.String() != plan.Table {
			return true, nil
		}

		expr, err := buildTableExpr(schema, plan)
		if err != nil {
			return false, err
		}

		te.Expr = expr
		changed = true
		// Don't descend into the replacement subtree: it may mention the
		// logical name again (a fact table named like its logical table)
		// and must not be rewritten twice.
		return false, nil
	}, stmt)
	if err != nil {
		return false, err
	}

	return changed, nil
}
