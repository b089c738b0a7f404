package definition

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildScalarInputs(t *testing.T) {
	src := Source{Language: "R", Body: "result <- n * scale"}
	script, err := ScriptBuilder{}.Build("scaleIt", src,
		map[string]string{"n": "integer", "scale": "numeric"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wants := []string{
		"CREATE PROCEDURE [scaleIt]",
		"@n_outer int",
		"@scale_outer float",
		"EXEC sp_execute_external_script",
		"@language = N'R'",
		"@params = N'@n int, @scale float'",
		"@n = @n_outer",
		"@scale = @scale_outer",
	}
	for _, want := range wants {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\n%s", want, script)
		}
	}
	if strings.Contains(script, "@input_data_1") {
		t.Errorf("unexpected dataframe binding in scalar-only script\n%s", script)
	}
}

func TestBuildDataFrameInput(t *testing.T) {
	src := Source{Body: "out_df <- in_df"}
	script, err := ScriptBuilder{}.Build("passThrough", src,
		map[string]string{"in_df": "dataframe"},
		map[string]string{"out_df": "dataframe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wants := []string{
		"@in_df_outer nvarchar(max)",
		"@input_data_1 = @in_df_outer",
		"@input_data_1_name = N'in_df'",
		"WITH RESULT SETS UNDEFINED",
	}
	for _, want := range wants {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\n%s", want, script)
		}
	}
}

func TestBuildEscapesScriptBody(t *testing.T) {
	src := Source{Body: `print('it''s fine')`}
	script, err := ScriptBuilder{}.Build("quoted", src, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(script, "print(''it''''s fine'')") {
		t.Errorf("script body not escaped\n%s", script)
	}
}

func TestBuildRejectsUnreferencedInput(t *testing.T) {
	src := Source{Body: "result <- 1"}
	_, err := ScriptBuilder{}.Build("ignores", src,
		map[string]string{"unused": "integer"}, nil)

	var mismatch *ArgumentMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *ArgumentMismatchError, got %T: %v", err, err)
	}
	if mismatch.Param != "unused" {
		t.Errorf("Param = %q, want unused", mismatch.Param)
	}
}

func TestBuildRejectsSecondDataFrameInput(t *testing.T) {
	src := Source{Body: "x"}
	_, err := ScriptBuilder{}.Build("twoFrames", src,
		map[string]string{"a_df": "dataframe", "b_df": "dataframe"}, nil)
	if err == nil {
		t.Fatal("expected error for two dataframe inputs")
	}
}

func TestBuildRejectsBadName(t *testing.T) {
	if _, err := (ScriptBuilder{}).Build("no good", Source{Body: "x"}, nil, nil); err == nil {
		t.Error("expected error for invalid procedure name")
	}
	if _, err := (ScriptBuilder{}).Build("proc", Source{Body: "x"},
		map[string]string{"a": "varchar"}, nil); err == nil {
		t.Error("expected error for unsupported input type")
	}
}

func TestBuildDefaultsLanguage(t *testing.T) {
	script, err := ScriptBuilder{}.Build("plain", Source{Body: "x"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(script, "@language = N'R'") {
		t.Errorf("expected default language R\n%s", script)
	}
}
