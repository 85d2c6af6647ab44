// Package rewrite turns queries against logical tables into queries
// against the physical tables of their registered star schemas. It is the
// analysis layer between the SQL parser and the execution engine: tree in,
// tree out, with the schema registry as its only other input.
package rewrite

import (
	"os"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/starview-db/starview/sql"
	"github.com/starview-db/starview/sql/parse"
)

const debugRewriterKey = "DEBUG_REWRITER"

// RuleFunc transforms a statement tree. The references extracted from the
// original query are passed along so rules don't re-walk the tree for them.
type RuleFunc func(ctx *sql.Context, r *Rewriter, stmt sqlparser.Statement, refs *References) (sqlparser.Statement, error)

// Rule to transform a statement tree.
type Rule struct {
	// Name of the rule.
	Name string
	// Apply transforms a statement tree.
	Apply RuleFunc
}

// DefaultRules to apply to every rewritable query.
var DefaultRules = []Rule{
	{"resolve_star_schemas", resolveStarSchemas},
}

// Builder provides an easy way to generate a Rewriter with custom rules
// around the default ones.
type Builder struct {
	preRules  []Rule
	postRules []Rule
	registry  *sql.SchemaRegistry
	debug     bool
}

// NewBuilder creates a new Builder from a specific registry.
func NewBuilder(registry *sql.SchemaRegistry) *Builder {
	return &Builder{registry: registry}
}

// WithDebug activates debug on the Rewriter.
func (b *Builder) WithDebug() *Builder {
	b.debug = true
	return b
}

// AddPreRewriteRule adds a new rule to apply before the standard rules.
func (b *Builder) AddPreRewriteRule(name string, fn RuleFunc) *Builder {
	b.preRules = append(b.preRules, Rule{name, fn})
	return b
}

// AddPostRewriteRule adds a new rule to apply after the standard rules.
func (b *Builder) AddPostRewriteRule(name string, fn RuleFunc) *Builder {
	b.postRules = append(b.postRules, Rule{name, fn})
	return b
}

// Build creates a new Rewriter from the builder.
func (b *Builder) Build() *Rewriter {
	_, debug := os.LookupEnv(debugRewriterKey)

	var rules []Rule
	rules = append(rules, b.preRules...)
	rules = append(rules, DefaultRules...)
	rules = append(rules, b.postRules...)

	return &Rewriter{
		Debug:    debug || b.debug,
		debugCtx: make([]string, 0),
		Rules:    rules,
		Registry: b.registry,
	}
}

// Rewriter rewrites queries referencing registered star schemas so they
// read from the physical fact and dimension tables instead. It is
// stateless across calls; each call is an independent transformation of
// text to text with the registry as the only persistent input, so one
// Rewriter can serve concurrent rewrites. Each call runs its rules
// against a call-scoped copy carrying the debug context stack.
//
// Columns are matched against schemas by bare name across the whole query,
// so two registered logical tables sharing a column name in one query
// cannot be told apart. Queries against a single registered table at a
// time are rewritten correctly.
type Rewriter struct {
	// Whether to log various debugging messages.
	Debug    bool
	debugCtx []string
	// Rules to apply, in order.
	Rules []Rule
	// Registry of star schemas for logical tables.
	Registry *sql.SchemaRegistry
}

// NewDefault creates a default Rewriter instance for the given registry.
// To add custom rules, use the Builder.
func NewDefault(registry *sql.SchemaRegistry) *Rewriter {
	return NewBuilder(registry).Build()
}

// Log prints an INFO message to stdout with the given message and args
// if the rewriter is in debug mode.
func (r *Rewriter) Log(msg string, args ...interface{}) {
	if r != nil && r.Debug {
		if len(r.debugCtx) > 0 {
			ctx := strings.Join(r.debugCtx, "/")
			logrus.Infof("%s: "+msg, append([]interface{}{ctx}, args...)...)
		} else {
			logrus.Infof(msg, args...)
		}
	}
}

// PushDebugContext pushes the given context string onto the context stack,
// to use when logging debug messages.
func (r *Rewriter) PushDebugContext(msg string) {
	if r != nil {
		r.debugCtx = append(r.debugCtx, msg)
	}
}

// PopDebugContext pops a context message off the context stack.
func (r *Rewriter) PopDebugContext() {
	if r != nil && len(r.debugCtx) > 0 {
		r.debugCtx = r.debugCtx[:len(r.debugCtx)-1]
	}
}

// RewriteString rewrites one query. The result is either the query's
// physical form, or the original text unchanged when rewriting is
// inapplicable: the query references no columns at all (nothing to decide
// which dimensions are needed), or no registered table. Malformed SQL
// fails here, before any mutation.
func (r *Rewriter) RewriteString(ctx *sql.Context, query string) (string, error) {
	stmt, err := parse.Parse(ctx, query)
	if err != nil {
		return "", err
	}

	span, ctx := ctx.Span("rewrite", opentracing.Tag{Key: "query", Value: query})
	defer span.Finish()

	refs := extractReferences(stmt)
	if len(refs.Columns) == 0 {
		// Without column references there is no way to tell which
		// dimensions a star schema query needs, so the original text is
		// returned as-is.
		r.Log("no column references in query, skipping rewrite")
		return query, nil
	}

	stmt, changed, err := r.RewriteStatement(ctx, stmt, refs)
	if err != nil {
		return "", err
	}
	if !changed {
		return query, nil
	}

	return sqlparser.String(stmt), nil
}

// RewriteStatement applies every rule to the given statement tree and
// reports whether any rule changed it. The tree stays a syntactically
// valid query at every intermediate step.
func (r *Rewriter) RewriteStatement(
	ctx *sql.Context,
	stmt sqlparser.Statement,
	refs *References,
) (sqlparser.Statement, bool, error) {
	before := sqlparser.String(stmt)

	// Rules run against a call-scoped copy of the rewriter so the debug
	// context stack is never shared between concurrent rewrites.
	call := *r
	call.debugCtx = nil

	var err error
	call.Log("starting rewrite of statement of type: %T", stmt)
	for _, rule := range call.Rules {
		call.PushDebugContext(rule.Name)
		stmt, err = rule.Apply(ctx, &call, stmt, refs)
		call.PopDebugContext()
		if err != nil {
			return nil, false, err
		}
	}

	return stmt, sqlparser.String(stmt) != before, nil
}

// resolveStarSchemas replaces each FROM reference to a registered logical
// table with its physical star schema form, per the columns the query
// actually touches.
func resolveStarSchemas(ctx *sql.Context, r *Rewriter, stmt sqlparser.Statement, refs *References) (sqlparser.Statement, error) {
	span, _ := ctx.Span("resolve_star_schemas")
	defer span.Finish()

	for _, table := range refs.SortedTables() {
		schema, ok := r.Registry.Lookup(table)
		if !ok {
			// Not a star schema, leave it alone.
			continue
		}
		if !schema.HasDimensions() {
			r.Log("schema for %s has no dimension tables, nothing to rewrite", table)
			continue
		}

		plan := planJoinSet(table, schema, refs.Columns)
		changed, err := rewriteTable(stmt, schema, plan)
		if err != nil {
			return nil, err
		}
		if changed {
			r.Log("rewrote %s onto fact table %s joining dimensions %v",
				table, schema.FactTable, plan.Dimensions)
		}
	}

	return stmt, nil
}
