// Package definition generates the T-SQL creation script that turns an
// external script into a server-side stored procedure. The generated
// procedure wraps sp_execute_external_script: scalar parameters are declared
// with the positional suffix convention and forwarded into the script
// runtime, and a single dataframe input binds through the input dataset.
package definition

import (
	"fmt"
	"strings"

	"github.com/sprocketdb/sprocket/internal/invocation"
	"github.com/sprocketdb/sprocket/internal/model"
)

// Source is the script to be installed as a procedure.
type Source struct {
	Language string // external-script language, e.g. "R"
	Body     string // script body, executed server-side
}

// ArgumentMismatchError reports a declared input parameter the script body
// never references. Creation is refused rather than installing a procedure
// whose arguments would be silently ignored.
type ArgumentMismatchError struct {
	Procedure string
	Param     string
}

func (e *ArgumentMismatchError) Error() string {
	return fmt.Sprintf("declared input %q is not referenced by the script for procedure %q", e.Param, e.Procedure)
}

// Builder produces a procedure-creation script from a source and its
// parameter declarations.
type Builder interface {
	Build(name string, src Source, inputs, outputs map[string]string) (string, error)
}

// ScriptBuilder is the standard Builder for external-script sources.
type ScriptBuilder struct{}

// Build generates the CREATE PROCEDURE statement. Scalar inputs become
// procedure parameters named <name>_outer and are forwarded to the script
// under their bare names; at most one dataframe input is allowed and binds
// as the input dataset. A dataframe output forwards the script's output
// dataset to the caller as a result set.
func (b ScriptBuilder) Build(name string, src Source, inputs, outputs map[string]string) (string, error) {
	if err := model.ValidateIdentifier(name); err != nil {
		return "", err
	}

	inDecls, err := model.Declarations(inputs, model.DirectionInput)
	if err != nil {
		return "", err
	}
	if _, err := model.Declarations(outputs, model.DirectionOutput); err != nil {
		return "", err
	}

	language := src.Language
	if language == "" {
		language = "R"
	}

	var scalars []model.Declaration
	tableInput := ""
	for _, d := range inDecls {
		if d.Type == model.TypeDataFrame {
			if tableInput != "" {
				return "", fmt.Errorf("procedure %q declares more than one dataframe input (%q and %q)", name, tableInput, d.Name)
			}
			tableInput = d.Name
			continue
		}
		if !strings.Contains(src.Body, d.Name) {
			return "", &ArgumentMismatchError{Procedure: name, Param: d.Name}
		}
		scalars = append(scalars, d)
	}

	var sb strings.Builder
	sb.WriteString("CREATE PROCEDURE [")
	sb.WriteString(name)
	sb.WriteString("]")

	for i, d := range scalars {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" @")
		sb.WriteString(d.Name)
		sb.WriteString(invocation.PositionalSuffix)
		sb.WriteString(" ")
		sb.WriteString(d.Type.SQLType())
	}
	if tableInput != "" {
		if len(scalars) > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(" @")
		sb.WriteString(tableInput)
		sb.WriteString(invocation.PositionalSuffix)
		sb.WriteString(" nvarchar(max)")
	}

	sb.WriteString("\nAS\nSET NOCOUNT ON;\nEXEC sp_execute_external_script\n@language = N'")
	sb.WriteString(language)
	sb.WriteString("',\n@script = N'")
	sb.WriteString(escapeLiteral(src.Body))
	sb.WriteString("'")

	if tableInput != "" {
		// The dataframe input binds through the input dataset under its
		// declared name. The _outer parameter carries the source query.
		sb.WriteString(",\n@input_data_1 = @")
		sb.WriteString(tableInput)
		sb.WriteString(invocation.PositionalSuffix)
		sb.WriteString(",\n@input_data_1_name = N'")
		sb.WriteString(tableInput)
		sb.WriteString("'")
	}

	if len(scalars) > 0 {
		sb.WriteString(",\n@params = N'")
		for i, d := range scalars {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("@")
			sb.WriteString(d.Name)
			sb.WriteString(" ")
			sb.WriteString(d.Type.SQLType())
		}
		sb.WriteString("'")
		for _, d := range scalars {
			sb.WriteString(",\n@")
			sb.WriteString(d.Name)
			sb.WriteString(" = @")
			sb.WriteString(d.Name)
			sb.WriteString(invocation.PositionalSuffix)
		}
	}

	if hasDataFrame(outputs) {
		sb.WriteString("\nWITH RESULT SETS UNDEFINED")
	}
	sb.WriteString(";")

	return sb.String(), nil
}

// escapeLiteral doubles single quotes so the script body survives embedding
// in an N'...' literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func hasDataFrame(decls map[string]string) bool {
	for _, t := range decls {
		if strings.EqualFold(t, string(model.TypeDataFrame)) {
			return true
		}
	}
	return false
}
