package model

import "testing"

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "spPredict", false},
		{"with underscore", "score_model", false},
		{"leading underscore", "_tmp", false},
		{"with digits", "proc2", false},
		{"empty", "", true},
		{"leading digit", "1proc", true},
		{"embedded space", "my proc", true},
		{"semicolon injection", "p; DROP TABLE users", true},
		{"bracketed", "[dbo].[p]", true},
		{"reserved word", "SELECT", true},
		{"reserved word lowercase", "drop", true},
		{"too long", longName(129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdentifiers(t *testing.T) {
	if err := ValidateIdentifiers([]string{"a", "b_c", "d2"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateIdentifiers([]string{"ok", "not ok"}); err == nil {
		t.Error("expected error for invalid member")
	}
}

func longName(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
