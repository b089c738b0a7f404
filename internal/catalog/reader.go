// Package catalog recovers stored procedure metadata from the SQL Server
// system catalog: the ordered input parameter list, the output parameter set,
// and the table-valued input binding embedded in the procedure source.
package catalog

import (
	"context"
	"fmt"

	"github.com/sprocketdb/sprocket/internal/executor"
)

// Param is one declared parameter as stored in the catalog. Name keeps the
// stored spelling (leading @ sigil and positional suffix included).
type Param struct {
	Name     string
	TypeName string
	IsOutput bool
}

// Metadata describes a procedure as declared in the database. InputParams
// preserves catalog declaration order, which is authoritative for invocation.
// Metadata is fetched fresh on every invocation and never cached, so external
// schema changes are picked up immediately.
type Metadata struct {
	Name            string
	InputParams     []Param
	OutputParams    []Param
	TableInputName  string
	TableInputState TableInputState
}

// NotFoundError reports a name that does not resolve to a catalog object.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("procedure %q not found in database", e.Name)
}

// Reader queries the system catalog through an Executor. It holds no state
// between calls and is safe for concurrent use.
type Reader struct {
	exec executor.Executor
}

// NewReader creates a Reader backed by the given executor.
func NewReader(exec executor.Executor) *Reader {
	return &Reader{exec: exec}
}

const (
	objectIDQuery = `SELECT OBJECT_ID(?) AS object_id`

	paramQuery = `SELECT p.name, t.name AS type_name, p.is_output
	FROM sys.parameters p
	JOIN sys.types t ON p.user_type_id = t.user_type_id
	WHERE p.object_id = ?
	ORDER BY p.parameter_id`

	definitionQuery = `SELECT definition FROM sys.sql_modules WHERE object_id = ?`

	listQuery = `SELECT ROUTINE_NAME FROM INFORMATION_SCHEMA.ROUTINES
	WHERE ROUTINE_TYPE = 'PROCEDURE' ORDER BY ROUTINE_NAME`
)

// Fetch resolves a procedure name and returns its declared metadata. Returns
// *NotFoundError when the name does not resolve to an object identifier.
func (r *Reader) Fetch(ctx context.Context, name string) (*Metadata, error) {
	res, err := r.exec.Run(ctx, objectIDQuery, name)
	if err != nil {
		return nil, fmt.Errorf("resolve object id for %q: %w", name, err)
	}
	objectID, ok := res.Scalar()
	if !ok || objectID == nil {
		return nil, &NotFoundError{Name: name}
	}

	res, err = r.exec.Run(ctx, paramQuery, objectID)
	if err != nil {
		return nil, fmt.Errorf("read parameters for %q: %w", name, err)
	}

	md := &Metadata{Name: name}
	for _, row := range res.Rows {
		p := Param{
			Name:     asString(row["name"]),
			TypeName: asString(row["type_name"]),
			IsOutput: asBool(row["is_output"]),
		}
		if p.IsOutput {
			md.OutputParams = append(md.OutputParams, p)
		} else {
			md.InputParams = append(md.InputParams, p)
		}
	}

	res, err = r.exec.Run(ctx, definitionQuery, objectID)
	if err != nil {
		return nil, fmt.Errorf("read definition for %q: %w", name, err)
	}
	if def, ok := res.Scalar(); ok && def != nil {
		md.TableInputName, md.TableInputState = ExtractTableInputName(asString(def))
	}

	return md, nil
}

// List returns the names of all stored procedures visible to the connection.
func (r *Reader) List(ctx context.Context) ([]string, error) {
	res, err := r.exec.Run(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		names = append(names, asString(row["ROUTINE_NAME"]))
	}
	return names, nil
}

// asString normalizes a scanned value to a string. Drivers return text
// columns as either string or []byte depending on the column type.
func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asBool normalizes a scanned flag value. SQL Server bit columns scan as
// bool; some drivers surface them as integers.
func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}
