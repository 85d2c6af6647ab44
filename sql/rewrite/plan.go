package rewrite

import (
	"sort"

	"github.com/starview-db/starview/sql"
)

// RewritePlan is the set of dimension tables a query actually needs from
// one star schema. It is derived per query and discarded once the FROM
// clause has been rewritten.
type RewritePlan struct {
	// Table is the logical table name the plan was computed for.
	Table string
	// Dimensions holds the required dimension table names in lexicographic
	// order, so the rewritten query text is reproducible.
	Dimensions []string
}

// FactOnly reports whether every referenced column lives on the fact
// table, in which case no join is needed at all.
func (p *RewritePlan) FactOnly() bool {
	return len(p.Dimensions) == 0
}

// planJoinSet computes the minimal set of dimension tables whose columns
// the query uses. Columns are collected query-wide, not scoped to the
// given table: a column unknown to the schema is skipped silently since it
// may belong to a different table in the same query. Columns owned by the
// fact table need no join.
func planJoinSet(table string, schema sql.StarSchema, columns map[string]bool) *RewritePlan {
	seen := make(map[string]bool)
	for col := range columns {
		owner, ok := schema.ColumnOwner[col]
		if !ok || owner == schema.FactTable {
			continue
		}
		seen[owner] = true
	}

	dims := make([]string, 0, len(seen))
	for dim := range seen {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	return &RewritePlan{Table: table, Dimensions: dims}
}
