// Package executor provides the database execution boundary: a small
// interface the catalog and lifecycle layers run parameterized statements
// through, plus the SQL Server implementation backed by sqlx.
package executor

import (
	"context"
	"time"
)

// Config holds database connection parameters for an executor.
type Config struct {
	DSN             string
	SchemaName      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Executor runs a single parameterized statement against the database.
// Placeholders in the query text are positional `?` markers; implementations
// translate them to the driver's native convention.
type Executor interface {
	Run(ctx context.Context, query string, args ...interface{}) (*Result, error)
}

// Result is the uniform outcome of running a statement: a row set, a textual
// message, or nothing. Exactly the shapes the lifecycle layer classifies.
type Result struct {
	Columns []string
	Rows    []map[string]interface{}
	Message string
}

// Tabular reports whether the result carries a row set.
func (r *Result) Tabular() bool {
	return r != nil && len(r.Columns) > 0
}

// Scalar returns the single value of a one-row, one-column result. The second
// return is false for any other shape. A present-but-NULL value returns
// (nil, true), which callers use as the absence sentinel in catalog lookups.
func (r *Result) Scalar() (interface{}, bool) {
	if r == nil || len(r.Columns) != 1 || len(r.Rows) != 1 {
		return nil, false
	}
	return r.Rows[0][r.Columns[0]], true
}

// Empty reports whether the result carries neither rows nor a message.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Columns) == 0 && r.Message == "")
}
