// Package procedure orchestrates the stored procedure lifecycle: create,
// existence check, drop, and execute. It centralizes error translation so
// callers see one taxonomy regardless of which collaborator failed.
package procedure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sprocketdb/sprocket/internal/catalog"
	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/executor"
	"github.com/sprocketdb/sprocket/internal/invocation"
	"github.com/sprocketdb/sprocket/internal/model"
)

const existsQuery = `SELECT COUNT(*) AS n FROM INFORMATION_SCHEMA.ROUTINES
	WHERE ROUTINE_TYPE = 'PROCEDURE' AND ROUTINE_NAME = ?`

// Outcome is the result of executing a procedure. Statement is always the
// generated invocation text; Rows is set only when the procedure returned a
// row set.
type Outcome struct {
	Statement      string
	ParameterOrder []string
	Rows           []map[string]interface{}
}

// Manager drives the lifecycle of stored procedures on one database. It holds
// no mutable state between calls and is safe for concurrent use.
type Manager struct {
	exec    executor.Executor
	reader  *catalog.Reader
	builder definition.Builder
	logger  *slog.Logger
}

// NewManager creates a Manager over the given executor and definition builder.
func NewManager(exec executor.Executor, builder definition.Builder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		exec:    exec,
		reader:  catalog.NewReader(exec),
		builder: builder,
		logger:  logger,
	}
}

// Reader returns the catalog reader the manager fetches metadata through.
func (m *Manager) Reader() *catalog.Reader {
	return m.reader
}

// Create validates the declared parameter types, generates the creation
// script, and installs the procedure. With dryRun the script is returned
// without touching the database. A failed installation is wrapped as
// *RegistrationError with the procedure name and original cause.
func (m *Manager) Create(ctx context.Context, name string, src definition.Source, inputs, outputs map[string]string, dryRun bool) (string, error) {
	if err := model.ValidateTypes(inputs); err != nil {
		return "", err
	}
	if err := model.ValidateTypes(outputs); err != nil {
		return "", err
	}

	script, err := m.builder.Build(name, src, inputs, outputs)
	if err != nil {
		return "", err
	}
	if dryRun {
		return script, nil
	}

	if _, err := m.exec.Run(ctx, script); err != nil {
		return script, &RegistrationError{Procedure: name, Err: err}
	}

	m.logger.Info("registered procedure", "procedure", name)
	return script, nil
}

// Exists reports whether a procedure with the given name is present. Absence
// is a normal boolean result, never an error. With dryRun the existence query
// is returned unexecuted and the boolean is meaningless.
func (m *Manager) Exists(ctx context.Context, name string, dryRun bool) (bool, string, error) {
	if dryRun {
		return false, existsQuery, nil
	}

	res, err := m.exec.Run(ctx, existsQuery, name)
	if err != nil {
		return false, existsQuery, fmt.Errorf("check procedure %q: %w", name, err)
	}
	n, ok := res.Scalar()
	if !ok {
		return false, existsQuery, fmt.Errorf("check procedure %q: unexpected result shape", name)
	}
	return asCount(n) > 0, existsQuery, nil
}

// Drop removes a procedure if it exists. The name cannot be bound as a query
// parameter in a DROP statement, so it is vetted as a plain identifier and
// the existence check runs first; the DROP is only issued on a confirmed hit.
// The check-then-drop sequence is not transactional: a concurrent re-creation
// between the two statements is a known race. Returns whether a DROP was
// issued.
func (m *Manager) Drop(ctx context.Context, name string, dryRun bool) (bool, string, error) {
	if err := model.ValidateIdentifier(name); err != nil {
		return false, "", &NotAProcedureNameError{Name: name, Err: err}
	}

	stmt := "DROP PROCEDURE " + name
	if dryRun {
		return false, stmt, nil
	}

	exists, _, err := m.Exists(ctx, name, false)
	if err != nil {
		return false, stmt, err
	}
	if !exists {
		m.logger.Info("procedure does not exist, nothing to drop", "procedure", name)
		return false, stmt, nil
	}

	if _, err := m.exec.Run(ctx, stmt); err != nil {
		return false, stmt, fmt.Errorf("drop procedure %q: %w", name, err)
	}

	m.logger.Info("dropped procedure", "procedure", name)
	return true, stmt, nil
}

// Execute invokes a procedure by name with keyword arguments. Metadata is
// fetched fresh from the catalog, the invocation statement is built against
// it, and the supplied values are reordered to the declared parameter order
// before binding. A row-set result is returned unchanged; an empty result is
// an empty success; a textual result is an execution failure carrying the
// message.
func (m *Manager) Execute(ctx context.Context, name string, args map[string]interface{}, dryRun bool) (*Outcome, error) {
	if err := model.ValidateIdentifier(name); err != nil {
		return nil, &NotAProcedureNameError{Name: name, Err: err}
	}

	md, err := m.reader.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	q, err := invocation.Build(md, args)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Statement: q.Text, ParameterOrder: q.ParameterOrder}
	if dryRun {
		return out, nil
	}

	res, err := m.exec.Run(ctx, q.Text, q.OrderArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("execute procedure %q: %w", name, err)
	}

	switch {
	case res.Tabular():
		out.Rows = res.Rows
	case res.Empty():
		// No result set: an empty success.
	default:
		return nil, &ExecutionError{Procedure: name, Detail: res.Message}
	}
	return out, nil
}

// asCount normalizes a COUNT(*) scalar across driver integer types.
func asCount(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
