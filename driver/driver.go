// Package driver exposes an Engine as a stdlib SQL driver wrapper.
//
// It sits between database/sql and any real driver: statement text is run
// through the rewriting engine on its way down, and the underlying driver
// executes the result with no awareness that rewriting occurred.
package driver

import (
	"database/sql/driver"

	"github.com/starview-db/starview"
)

// A Driver rewrites statement text before handing it to the underlying
// driver.
type Driver struct {
	engine  *starview.Engine
	wrapped driver.Driver
}

var _ driver.Driver = (*Driver)(nil)

// New returns a Driver rewriting queries with engine and executing them
// with the given underlying driver.
func New(engine *starview.Engine, wrapped driver.Driver) *Driver {
	return &Driver{
		engine:  engine,
		wrapped: wrapped,
	}
}

// Open opens a connection through the underlying driver.
func (d *Driver) Open(name string) (driver.Conn, error) {
	conn, err := d.wrapped.Open(name)
	if err != nil {
		return nil, err
	}

	return &Conn{engine: d.engine, conn: conn}, nil
}
