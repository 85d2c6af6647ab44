package rewrite

import (
	"testing"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, query string) sqlparser.Statement {
	t.Helper()
	stmt, err := sqlparser.Parse(query)
	require.NoError(t, err)
	return stmt
}

func TestExtractReferences(t *testing.T) {
	testCases := []struct {
		query   string
		tables  []string
		columns []string
	}{
		{
			"SELECT ID FROM accidents WHERE ID = 1",
			[]string{"accidents"},
			[]string{"ID"},
		},
		{
			"SELECT ID, Severity FROM accidents",
			[]string{"accidents"},
			[]string{"ID", "Severity"},
		},
		{
			// Qualifiers are dropped, only bare column names are kept.
			"SELECT a.ID FROM accidents AS a",
			[]string{"accidents"},
			[]string{"ID"},
		},
		{
			// No column references at all.
			"SELECT * FROM accidents LIMIT 5",
			[]string{"accidents"},
			nil,
		},
		{
			// Tables and columns inside subqueries are collected too.
			"SELECT ID FROM accidents WHERE ID IN (SELECT Ref FROM incidents)",
			[]string{"accidents", "incidents"},
			[]string{"ID", "Ref"},
		},
		{
			"SELECT a.ID, b.Name FROM accidents a JOIN drivers b ON a.DriverID = b.ID",
			[]string{"accidents", "drivers"},
			[]string{"DriverID", "ID", "Name"},
		},
		{
			"SELECT x.ID FROM (SELECT ID FROM accidents) AS x",
			[]string{"accidents"},
			[]string{"ID"},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.query, func(t *testing.T) {
			require := require.New(t)

			refs := extractReferences(mustParse(t, tt.query))
			require.Equal(tt.tables, refs.SortedTables())

			require.Len(refs.Columns, len(tt.columns))
			for _, col := range tt.columns {
				require.True(refs.Columns[col], "missing column %s", col)
			}
		})
	}
}
