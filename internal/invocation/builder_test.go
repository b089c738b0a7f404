package invocation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sprocketdb/sprocket/internal/catalog"
)

// md builds procedure metadata with the given stored input parameter names,
// in catalog declaration order.
func md(name string, stored ...string) *catalog.Metadata {
	m := &catalog.Metadata{Name: name}
	for _, s := range stored {
		m.InputParams = append(m.InputParams, catalog.Param{Name: s, TypeName: "nvarchar"})
	}
	return m
}

// ---------------------------------------------------------------------------
// PublicName tests
// ---------------------------------------------------------------------------

func TestPublicName(t *testing.T) {
	tests := []struct {
		stored string
		want   string
	}{
		{"@arg1_outer", "arg1"},
		{"@input_df_outer", "input_df"},
		{"@x_outer", "x"},
		{"@plain", "plain"},
		{"bare_outer", "bare"},
	}

	for _, tt := range tests {
		if got := PublicName(tt.stored); got != tt.want {
			t.Errorf("PublicName(%q) = %q, want %q", tt.stored, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Build tests
// ---------------------------------------------------------------------------

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		md        *catalog.Metadata
		args      map[string]interface{}
		wantText  string
		wantOrder []string
		wantErr   bool
	}{
		{
			name:      "single character argument",
			md:        md("fun", "@arg1_outer"),
			args:      map[string]interface{}{"arg1": "WORLD"},
			wantText:  "exec fun @arg1_outer = ?",
			wantOrder: []string{"arg1"},
		},
		{
			name:      "no parameters no arguments",
			md:        md("nop"),
			args:      nil,
			wantText:  "exec nop",
			wantOrder: []string{},
		},
		{
			name:      "single nil argument is the zero-argument pattern",
			md:        md("nop"),
			args:      map[string]interface{}{"anything": nil},
			wantText:  "exec nop",
			wantOrder: []string{},
		},
		{
			name:      "three parameters in declaration order",
			md:        md("calc", "@a_outer", "@b_outer", "@c_outer"),
			args:      map[string]interface{}{"c": 3, "a": 1, "b": 2},
			wantText:  "exec calc @a_outer = ?, @b_outer = ?, @c_outer = ?",
			wantOrder: []string{"a", "b", "c"},
		},
		{
			name:    "undeclared argument name fails",
			md:      md("fun", "@arg1_outer"),
			args:    map[string]interface{}{"arg1": 1, "bogus": 2},
			wantErr: true,
		},
		{
			name:    "missing argument fails",
			md:      md("calc", "@a_outer", "@b_outer"),
			args:    map[string]interface{}{"a": 1},
			wantErr: true,
		},
		{
			name:    "arguments for a zero-parameter procedure fail",
			md:      md("nop"),
			args:    map[string]interface{}{"a": 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Build(tt.md, tt.args)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				var mismatch *MismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("expected *MismatchError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Text != tt.wantText {
				t.Errorf("text mismatch\n  got:  %s\n  want: %s", q.Text, tt.wantText)
			}
			if !reflect.DeepEqual(q.ParameterOrder, tt.wantOrder) {
				t.Errorf("order mismatch\n  got:  %v\n  want: %v", q.ParameterOrder, tt.wantOrder)
			}
		})
	}
}

// TestBuildOrderIndependent verifies that the declared catalog order wins for
// every permutation of supplied argument order.
func TestBuildOrderIndependent(t *testing.T) {
	m := md("perm", "@a_outer", "@b_outer", "@c_outer")
	permutations := [][]string{
		{"a", "b", "c"}, {"a", "c", "b"}, {"b", "a", "c"},
		{"b", "c", "a"}, {"c", "a", "b"}, {"c", "b", "a"},
	}

	for _, perm := range permutations {
		args := make(map[string]interface{})
		for i, name := range perm {
			args[name] = i
		}

		q, err := Build(m, args)
		if err != nil {
			t.Fatalf("unexpected error for permutation %v: %v", perm, err)
		}
		if !reflect.DeepEqual(q.ParameterOrder, []string{"a", "b", "c"}) {
			t.Errorf("permutation %v: order = %v, want [a b c]", perm, q.ParameterOrder)
		}
		if got := countPlaceholders(q.Text); got != 3 {
			t.Errorf("permutation %v: %d placeholders in %q, want 3", perm, got, q.Text)
		}
	}
}

func TestOrderArgs(t *testing.T) {
	m := md("calc", "@a_outer", "@b_outer", "@c_outer")
	q, err := Build(m, map[string]interface{}{"c": "three", "a": "one", "b": "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := q.OrderArgs(map[string]interface{}{"c": "three", "a": "one", "b": "two"})
	want := []interface{}{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderArgs = %v, want %v", got, want)
	}
}

func TestMismatchErrorDetail(t *testing.T) {
	m := md("fun", "@a_outer", "@b_outer")
	_, err := Build(m, map[string]interface{}{"a": 1, "zz": 2})

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if !reflect.DeepEqual(mismatch.Missing, []string{"b"}) {
		t.Errorf("Missing = %v, want [b]", mismatch.Missing)
	}
	if !reflect.DeepEqual(mismatch.Unexpected, []string{"zz"}) {
		t.Errorf("Unexpected = %v, want [zz]", mismatch.Unexpected)
	}
}

func countPlaceholders(s string) int {
	n := 0
	for _, r := range s {
		if r == '?' {
			n++
		}
	}
	return n
}
