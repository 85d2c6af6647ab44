// Package starview rewrites SQL queries written against logical flat
// tables into queries against the star schemas that physically back them.
// Callers register the star schema of each logical table once, then run
// every compiled query through the engine before handing it to their
// database driver. Queries that don't touch a registered table come back
// unchanged.
package starview

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/starview-db/starview/sql"
	"github.com/starview-db/starview/sql/rewrite"
)

const defaultCacheSize = 1024

// Config for the engine.
type Config struct {
	// CacheSize is the maximum number of rewritten queries kept in the
	// result cache. Zero means the default size.
	CacheSize uint
	// DisableCache turns off rewrite result caching entirely.
	DisableCache bool
}

// Engine is a SQL rewriting engine.
type Engine struct {
	Registry *sql.SchemaRegistry
	Rewriter *rewrite.Rewriter
	cache    *sql.QueryCache
}

type cacheKey struct {
	Version uint64
	Query   string
}

// New creates a new Engine with an empty registry.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	registry := sql.NewSchemaRegistry()

	var cache *sql.QueryCache
	if !cfg.DisableCache {
		size := cfg.CacheSize
		if size == 0 {
			size = defaultCacheSize
		}
		cache = sql.NewQueryCache(size)
	}

	return &Engine{
		Registry: registry,
		Rewriter: rewrite.NewDefault(registry),
		cache:    cache,
	}
}

// RegisterSchema registers the star schema backing the given logical table
// name. Registering the same name again replaces the earlier schema.
func (e *Engine) RegisterSchema(name string, schema sql.StarSchema) {
	e.Registry.Register(name, schema)
}

// RegisterSchemas registers every schema in the given map.
func (e *Engine) RegisterSchemas(schemas map[string]sql.StarSchema) {
	e.Registry.RegisterAll(schemas)
}

// Rewrite rewrites one query against the registered star schemas and
// returns the SQL text to execute in its place. The result is the original
// text unchanged when rewriting is inapplicable. Rewrite is safe to call
// concurrently.
func (e *Engine) Rewrite(ctx *sql.Context, query string) (string, error) {
	var key uint64
	if e.cache != nil {
		key = sql.CacheKey(cacheKey{e.Registry.Version(), query})
		if cached, err := e.cache.Get(key); err == nil {
			return cached, nil
		}
	}

	rewritten, err := e.Rewriter.RewriteString(ctx, query)
	if err != nil {
		return "", err
	}

	if rewritten != query {
		logrus.WithFields(logrus.Fields{
			"pid":       ctx.Pid(),
			"query":     query,
			"rewritten": rewritten,
			"duration":  time.Since(ctx.QueryTime()),
		}).Debug("rewrote query against star schema")
	}

	if e.cache != nil {
		e.cache.Put(key, rewritten)
	}

	return rewritten, nil
}

// RewriteAll rewrites the given queries in parallel and returns the
// results in the same order. Each query only reads the registry, so
// concurrent rewrites against a stable registry are safe.
func (e *Engine) RewriteAll(ctx *sql.Context, queries []string) ([]string, error) {
	results := make([]string, len(queries))

	eg, egCtx := ctx.NewErrgroup()
	for i, query := range queries {
		i, query := i, query
		eg.Go(func() error {
			rewritten, err := e.Rewrite(egCtx, query)
			if err != nil {
				return err
			}
			results[i] = rewritten
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
