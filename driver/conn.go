package driver

import (
	"context"
	"database/sql/driver"

	"github.com/starview-db/starview"
	sv "github.com/starview-db/starview/sql"
)

// Conn is a connection to the underlying driver that rewrites every
// statement before delegating it.
type Conn struct {
	engine *starview.Engine
	conn   driver.Conn
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
)

func (c *Conn) rewrite(ctx context.Context, query string) (string, error) {
	return c.engine.Rewrite(sv.NewContext(ctx, sv.WithQuery(query)), query)
}

// Prepare prepares the rewritten form of the query on the underlying
// connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	rewritten, err := c.rewrite(context.Background(), query)
	if err != nil {
		return nil, err
	}

	return c.conn.Prepare(rewritten)
}

// PrepareContext prepares the rewritten form of the query on the
// underlying connection.
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	rewritten, err := c.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}

	if pc, ok := c.conn.(driver.ConnPrepareContext); ok {
		return pc.PrepareContext(ctx, rewritten)
	}

	return c.conn.Prepare(rewritten)
}

// QueryContext rewrites the query and delegates it, if the underlying
// connection supports direct queries. Otherwise database/sql falls back to
// PrepareContext, which also rewrites.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}

	rewritten, err := c.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}

	return qc.QueryContext(ctx, rewritten, args)
}

// ExecContext rewrites the statement and delegates it, if the underlying
// connection supports direct execution.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}

	rewritten, err := c.rewrite(ctx, query)
	if err != nil {
		return nil, err
	}

	return ec.ExecContext(ctx, rewritten, args)
}

// Begin starts a transaction on the underlying connection.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.conn.Begin()
}

// BeginTx starts a transaction on the underlying connection.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if bt, ok := c.conn.(driver.ConnBeginTx); ok {
		return bt.BeginTx(ctx, opts)
	}

	return c.conn.Begin()
}

// Ping pings the underlying connection when supported.
func (c *Conn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
