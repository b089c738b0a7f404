package executor

import "testing"

// ---------- Result classification ----------

func TestResultTabular(t *testing.T) {
	tests := []struct {
		name string
		res  *Result
		want bool
	}{
		{"nil result", nil, false},
		{"empty result", &Result{}, false},
		{"columns no rows", &Result{Columns: []string{"a"}}, true},
		{"columns and rows", &Result{
			Columns: []string{"a"},
			Rows:    []map[string]interface{}{{"a": 1}},
		}, true},
		{"message only", &Result{Message: "boom"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Tabular(); got != tt.want {
				t.Errorf("Tabular() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultScalar(t *testing.T) {
	res := &Result{
		Columns: []string{"n"},
		Rows:    []map[string]interface{}{{"n": int64(7)}},
	}
	v, ok := res.Scalar()
	if !ok {
		t.Fatal("Scalar() ok = false, want true")
	}
	if v != int64(7) {
		t.Errorf("Scalar() = %v, want 7", v)
	}

	// A NULL scalar is present but nil.
	res = &Result{
		Columns: []string{"object_id"},
		Rows:    []map[string]interface{}{{"object_id": nil}},
	}
	v, ok = res.Scalar()
	if !ok {
		t.Fatal("Scalar() ok = false for NULL value, want true")
	}
	if v != nil {
		t.Errorf("Scalar() = %v, want nil", v)
	}

	// Wrong shapes are not scalars.
	for _, res := range []*Result{
		nil,
		{},
		{Columns: []string{"a", "b"}, Rows: []map[string]interface{}{{"a": 1, "b": 2}}},
		{Columns: []string{"a"}, Rows: []map[string]interface{}{{"a": 1}, {"a": 2}}},
	} {
		if _, ok := res.Scalar(); ok {
			t.Errorf("Scalar() ok = true for %+v, want false", res)
		}
	}
}

func TestResultEmpty(t *testing.T) {
	if !(*Result)(nil).Empty() {
		t.Error("nil result should be empty")
	}
	if !(&Result{}).Empty() {
		t.Error("zero result should be empty")
	}
	if (&Result{Columns: []string{"a"}}).Empty() {
		t.Error("tabular result should not be empty")
	}
	if (&Result{Message: "boom"}).Empty() {
		t.Error("message result should not be empty")
	}
}

// ---------- Registry ----------

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unknown target")
	}
}

func TestRegistryLanguageDefault(t *testing.T) {
	r := NewRegistry()
	if lang := r.Language("nope"); lang != "R" {
		t.Errorf("Language() = %q, want R", lang)
	}
}

func TestRegistryListTargetsEmpty(t *testing.T) {
	r := NewRegistry()
	if names := r.ListTargets(); len(names) != 0 {
		t.Errorf("ListTargets() = %v, want empty", names)
	}
}

func TestRegistryDisconnectUnknown(t *testing.T) {
	r := NewRegistry()
	if err := r.Disconnect("nope"); err == nil {
		t.Fatal("expected error disconnecting unknown target")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	c := &Client{}
	tests := []struct {
		in   string
		want string
	}{
		{"myProc", "[myProc]"},
		{"weird]name", "[weird]]name]"},
	}
	for _, tt := range tests {
		if got := c.QuoteIdentifier(tt.in); got != tt.want {
			t.Errorf("QuoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
