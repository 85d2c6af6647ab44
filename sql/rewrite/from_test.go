package rewrite

import (
	"testing"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/stretchr/testify/require"

	"github.com/starview-db/starview/sql"
)

func TestBuildTableExprFactOnly(t *testing.T) {
	require := require.New(t)

	plan := &RewritePlan{Table: "accidents"}
	expr, err := buildTableExpr(accidentsSchema, plan)
	require.NoError(err)

	name, ok := expr.(sqlparser.TableName)
	require.True(ok)
	require.Equal("accidents_fact", name.Name.String())
}

func TestBuildTableExprDerivedTable(t *testing.T) {
	require := require.New(t)

	plan := &RewritePlan{
		Table:      "accidents",
		Dimensions: []string{"accidents_dim1", "accidents_dim2"},
	}
	expr, err := buildTableExpr(accidentsSchema, plan)
	require.NoError(err)

	subquery, ok := expr.(*sqlparser.Subquery)
	require.True(ok)
	require.Equal(
		"select * from accidents_fact, accidents_dim1, accidents_dim2"+
			" where accidents_fact.p1 = accidents_dim1.p1 and accidents_fact.p2 = accidents_dim2.p2",
		sqlparser.String(subquery.Select),
	)
}

func TestBuildTableExprMissingJoinKey(t *testing.T) {
	require := require.New(t)

	schema := sql.StarSchema{
		FactTable:   "accidents_fact",
		ColumnOwner: map[string]string{"Severity": "accidents_dim1"},
	}
	plan := &RewritePlan{Table: "accidents", Dimensions: []string{"accidents_dim1"}}

	_, err := buildTableExpr(schema, plan)
	require.Error(err)
	require.True(sql.ErrRewriteConstruction.Is(err))
}

func TestBuildTableExprBadIdentifier(t *testing.T) {
	require := require.New(t)

	schema := sql.StarSchema{
		FactTable:       "accidents fact table",
		DimensionTables: map[string]string{"accidents_dim1": "p1"},
	}
	plan := &RewritePlan{Table: "accidents", Dimensions: []string{"accidents_dim1"}}

	_, err := buildTableExpr(schema, plan)
	require.Error(err)
	require.True(sql.ErrRewriteConstruction.Is(err))
}

func TestRewriteTableFactOnlyKeepsAlias(t *testing.T) {
	require := require.New(t)

	stmt := mustParse(t, "SELECT a.ID FROM accidents AS a")
	plan := &RewritePlan{Table: "accidents"}

	changed, err := rewriteTable(stmt, accidentsSchema, plan)
	require.NoError(err)
	require.True(changed)
	require.Equal("select a.ID from accidents_fact as a", sqlparser.String(stmt))
}

func TestRewriteTableDerivedKeepsAlias(t *testing.T) {
	require := require.New(t)

	stmt := mustParse(t, "SELECT a.ID, a.Severity FROM accidents AS a")
	plan := &RewritePlan{Table: "accidents", Dimensions: []string{"accidents_dim1"}}

	changed, err := rewriteTable(stmt, accidentsSchema, plan)
	require.NoError(err)
	require.True(changed)
	require.Equal(
		"select a.ID, a.Severity from"+
			" (select * from accidents_fact, accidents_dim1 where accidents_fact.p1 = accidents_dim1.p1) as a",
		sqlparser.String(stmt),
	)
}

func TestRewriteTableUntouchedWhenAbsent(t *testing.T) {
	require := require.New(t)

	stmt := mustParse(t, "SELECT ID FROM incidents")
	plan := &RewritePlan{Table: "accidents"}

	changed, err := rewriteTable(stmt, accidentsSchema, plan)
	require.NoError(err)
	require.False(changed)
	require.Equal("select ID from incidents", sqlparser.String(stmt))
}

func TestRewriteTableInsideSubquery(t *testing.T) {
	require := require.New(t)

	stmt := mustParse(t, "SELECT x.ID FROM (SELECT ID FROM accidents) AS x")
	plan := &RewritePlan{Table: "accidents"}

	changed, err := rewriteTable(stmt, accidentsSchema, plan)
	require.NoError(err)
	require.True(changed)
	require.Equal(
		"select x.ID from (select ID from accidents_fact) as x",
		sqlparser.String(stmt),
	)
}
