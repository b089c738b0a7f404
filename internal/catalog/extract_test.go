package catalog

import "testing"

func TestExtractTableInputName(t *testing.T) {
	tests := []struct {
		name      string
		def       string
		wantName  string
		wantState TableInputState
	}{
		{
			name:      "single binding",
			def:       "EXEC sp_execute_external_script @language = N'R', @script = N'...', @input_data_1 = @in_df_outer, @input_data_1_name = N'in_df'",
			wantName:  "in_df",
			wantState: TableInputFound,
		},
		{
			name:      "whitespace around assignment",
			def:       "@input_data_1_name   =   N'frame1'",
			wantName:  "frame1",
			wantState: TableInputFound,
		},
		{
			name:      "no binding",
			def:       "CREATE PROCEDURE p AS SELECT 1",
			wantName:  "",
			wantState: TableInputAbsent,
		},
		{
			name:      "empty definition",
			def:       "",
			wantName:  "",
			wantState: TableInputAbsent,
		},
		{
			name:      "multiple bindings are ambiguous",
			def:       "@input_data_1_name = N'one' ... @input_data_1_name = N'two'",
			wantName:  "",
			wantState: TableInputAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotState := ExtractTableInputName(tt.def)
			if gotName != tt.wantName || gotState != tt.wantState {
				t.Errorf("ExtractTableInputName() = (%q, %v), want (%q, %v)",
					gotName, gotState, tt.wantName, tt.wantState)
			}
		})
	}
}
