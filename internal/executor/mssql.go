package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
)

// Client is the SQL Server Executor implementation. It owns a sqlx connection
// pool and is safe for concurrent use.
type Client struct {
	db         *sqlx.DB
	schemaName string
}

// Connect opens a connection pool to the SQL Server database described by cfg
// and verifies it with a ping.
func Connect(cfg Config) (*Client, error) {
	db, err := sqlx.Connect("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql connect: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	c := &Client{db: db, schemaName: "dbo"}
	if cfg.SchemaName != "" {
		c.schemaName = cfg.SchemaName
	}
	return c, nil
}

// Close closes the connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// SchemaName returns the schema procedures are created in.
func (c *Client) SchemaName() string {
	return c.schemaName
}

// QuoteIdentifier wraps a SQL identifier in brackets, escaping any embedded
// closing brackets.
func (c *Client) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Run executes a parameterized statement. The `?` placeholders are rebound to
// the driver's @pN convention before execution. Statements that produce no
// row set (DDL, DROP) yield an empty Result.
func (c *Client) Run(ctx context.Context, query string, args ...interface{}) (*Result, error) {
	rows, err := c.db.QueryxContext(ctx, c.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("run statement: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	result := &Result{Columns: cols}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return result, nil
}
