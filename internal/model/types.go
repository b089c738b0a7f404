// Package model defines the value objects shared by the catalog, invocation,
// and lifecycle layers: parameter type vocabulary, parameter declarations, and
// the response envelopes used by the HTTP facade.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// ParamType is the declared type of a procedure parameter. The vocabulary is
// fixed to the seven kinds the external-script runtime can marshal.
type ParamType string

const (
	TypePosixct   ParamType = "posixct"
	TypeNumeric   ParamType = "numeric"
	TypeCharacter ParamType = "character"
	TypeInteger   ParamType = "integer"
	TypeLogical   ParamType = "logical"
	TypeRaw       ParamType = "raw"
	TypeDataFrame ParamType = "dataframe"
)

// Direction distinguishes input parameters from output parameters.
type Direction string

const (
	DirectionInput  Direction = "in"
	DirectionOutput Direction = "out"
)

// Declaration describes a single declared parameter of a procedure.
type Declaration struct {
	Name      string    `json:"name"`
	Type      ParamType `json:"type"`
	Direction Direction `json:"direction"`
}

// InvalidTypeError reports a declared parameter type outside the allowed
// vocabulary. It is raised at construction/creation time, never at runtime.
type InvalidTypeError struct {
	Param string
	Type  string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("parameter %q has unsupported type %q (allowed: posixct, numeric, character, integer, logical, raw, dataframe)", e.Param, e.Type)
}

// ParseParamType normalizes a type string case-insensitively and validates it
// against the allowed vocabulary.
func ParseParamType(param, typeName string) (ParamType, error) {
	switch pt := ParamType(strings.ToLower(typeName)); pt {
	case TypePosixct, TypeNumeric, TypeCharacter, TypeInteger, TypeLogical, TypeRaw, TypeDataFrame:
		return pt, nil
	default:
		return "", &InvalidTypeError{Param: param, Type: typeName}
	}
}

// ValidateTypes checks every declared type in a name→type map against the
// allowed vocabulary. It is applied independently to input and output
// declaration sets before a procedure is created.
func ValidateTypes(decls map[string]string) error {
	for name, typeName := range decls {
		if _, err := ParseParamType(name, typeName); err != nil {
			return err
		}
	}
	return nil
}

// Declarations converts a name→type map into Declaration values with the
// given direction, sorted by name for deterministic output. Returns an error
// if any type is outside the vocabulary.
func Declarations(decls map[string]string, dir Direction) ([]Declaration, error) {
	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Declaration, 0, len(names))
	for _, name := range names {
		pt, err := ParseParamType(name, decls[name])
		if err != nil {
			return nil, err
		}
		out = append(out, Declaration{Name: name, Type: pt, Direction: dir})
	}
	return out, nil
}

// SQLType maps a parameter type to the SQL Server column/parameter type used
// in generated procedure definitions. Dataframe parameters are not scalar;
// they bind through the input dataset instead and have no SQL type here.
func (t ParamType) SQLType() string {
	switch t {
	case TypePosixct:
		return "datetime"
	case TypeNumeric:
		return "float"
	case TypeCharacter:
		return "nvarchar(max)"
	case TypeInteger:
		return "int"
	case TypeLogical:
		return "bit"
	case TypeRaw:
		return "varbinary(max)"
	default:
		return ""
	}
}
