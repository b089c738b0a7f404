package model

import (
	"errors"
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// ParseParamType tests
// ---------------------------------------------------------------------------

func TestParseParamType(t *testing.T) {
	tests := []struct {
		typeName string
		want     ParamType
		wantErr  bool
	}{
		{"posixct", TypePosixct, false},
		{"numeric", TypeNumeric, false},
		{"character", TypeCharacter, false},
		{"integer", TypeInteger, false},
		{"logical", TypeLogical, false},
		{"raw", TypeRaw, false},
		{"dataframe", TypeDataFrame, false},
		{"POSIXct", TypePosixct, false},
		{"DataFrame", TypeDataFrame, false},
		{"CHARACTER", TypeCharacter, false},
		{"float", "", true},
		{"data.frame", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseParamType("p", tt.typeName)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseParamType(%q): expected error, got %q", tt.typeName, got)
				continue
			}
			var invalid *InvalidTypeError
			if !errors.As(err, &invalid) {
				t.Errorf("ParseParamType(%q): expected *InvalidTypeError, got %T", tt.typeName, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseParamType(%q): unexpected error: %v", tt.typeName, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseParamType(%q) = %q, want %q", tt.typeName, got, tt.want)
		}
	}
}

func TestValidateTypes(t *testing.T) {
	if err := ValidateTypes(map[string]string{"a": "integer", "b": "Character"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateTypes(nil); err != nil {
		t.Errorf("unexpected error for empty map: %v", err)
	}

	err := ValidateTypes(map[string]string{"a": "integer", "b": "varchar"})
	var invalid *InvalidTypeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidTypeError, got %T: %v", err, err)
	}
	if invalid.Param != "b" || invalid.Type != "varchar" {
		t.Errorf("error detail = %+v, want Param=b Type=varchar", invalid)
	}
}

func TestDeclarations(t *testing.T) {
	got, err := Declarations(map[string]string{"zeta": "integer", "alpha": "Logical"}, DirectionInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Declaration{
		{Name: "alpha", Type: TypeLogical, Direction: DirectionInput},
		{Name: "zeta", Type: TypeInteger, Direction: DirectionInput},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("declarations mismatch\n  got:  %+v\n  want: %+v", got, want)
	}

	if _, err := Declarations(map[string]string{"x": "blob"}, DirectionOutput); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestSQLType(t *testing.T) {
	tests := []struct {
		pt   ParamType
		want string
	}{
		{TypePosixct, "datetime"},
		{TypeNumeric, "float"},
		{TypeCharacter, "nvarchar(max)"},
		{TypeInteger, "int"},
		{TypeLogical, "bit"},
		{TypeRaw, "varbinary(max)"},
		{TypeDataFrame, ""},
	}

	for _, tt := range tests {
		if got := tt.pt.SQLType(); got != tt.want {
			t.Errorf("SQLType(%s) = %q, want %q", tt.pt, got, tt.want)
		}
	}
}
