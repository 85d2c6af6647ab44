package sql

import (
	"sort"
	"sync"
)

// StarSchema describes the physical layout of one logical table: a fact
// table holding most of its columns plus a set of dimension tables joined
// to the fact table on a shared key column.
type StarSchema struct {
	// FactTable is the physical table holding the majority of the columns.
	FactTable string
	// DimensionTables maps each dimension's physical table name to the
	// column used to join it to the fact table. The join column must exist
	// under the same name in both tables.
	DimensionTables map[string]string
	// ColumnOwner maps every column that can appear in a query against the
	// logical table to the physical table that stores it. Columns missing
	// from the map are assumed to live on the fact table.
	ColumnOwner map[string]string
}

// HasDimensions reports whether the schema has any dimension tables at all.
// A schema without dimensions never needs rewriting.
func (s StarSchema) HasDimensions() bool {
	return len(s.DimensionTables) > 0
}

// Owner returns the physical table that stores the given column. Unknown
// columns are assumed to belong to the fact table.
func (s StarSchema) Owner(column string) string {
	if owner, ok := s.ColumnOwner[column]; ok {
		return owner
	}
	return s.FactTable
}

// JoinKey returns the column joining the given dimension table to the fact
// table, if the dimension is part of this schema.
func (s StarSchema) JoinKey(dimension string) (string, bool) {
	key, ok := s.DimensionTables[dimension]
	return key, ok
}

func (s StarSchema) copy() StarSchema {
	c := StarSchema{
		FactTable:       s.FactTable,
		DimensionTables: make(map[string]string, len(s.DimensionTables)),
		ColumnOwner:     make(map[string]string, len(s.ColumnOwner)),
	}
	for k, v := range s.DimensionTables {
		c.DimensionTables[k] = v
	}
	for k, v := range s.ColumnOwner {
		c.ColumnOwner[k] = v
	}
	return c
}

// SchemaRegistry holds the star schemas registered for logical table names.
// Registration is additive, a later registration for the same name replaces
// the earlier one. Lookups and rewrites may run concurrently; the registry
// guards its map with a read-write lock, so registering while rewrites are
// in flight is safe as well, although the usual pattern is to complete all
// registrations before issuing queries.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]StarSchema
	version uint64
}

// NewSchemaRegistry returns a new empty SchemaRegistry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{
		schemas: make(map[string]StarSchema),
	}
}

// Register stores or replaces the schema for the given logical table name.
// The schema maps are copied, so the caller keeps ownership of its own.
// Join keys are not validated against the physical tables; that is the
// caller's responsibility.
func (r *SchemaRegistry) Register(name string, schema StarSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[name] = schema.copy()
	r.version++
}

// RegisterAll registers every schema in the given map. Equivalent to
// calling Register once per entry.
func (r *SchemaRegistry) RegisterAll(schemas map[string]StarSchema) {
	for name, schema := range schemas {
		r.Register(name, schema)
	}
}

// Lookup returns the schema registered for the given logical table name.
// Absence is not an error, it means the table is not a star schema and
// queries against it are left alone.
func (r *SchemaRegistry) Lookup(name string) (StarSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[name]
	return schema, ok
}

// Tables returns the registered logical table names in lexicographic order.
func (r *SchemaRegistry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Version returns a counter incremented on every registration. Cached
// rewrite results are keyed on it so re-registering a schema invalidates
// them.
func (r *SchemaRegistry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}
