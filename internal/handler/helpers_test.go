package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sprocketdb/sprocket/internal/catalog"
	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/invocation"
	"github.com/sprocketdb/sprocket/internal/model"
	"github.com/sprocketdb/sprocket/internal/procedure"
)

func TestClassifyProcError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &catalog.NotFoundError{Name: "x"}, http.StatusNotFound},
		{"argument mismatch", &invocation.MismatchError{Procedure: "x"}, http.StatusBadRequest},
		{"invalid type", &model.InvalidTypeError{Param: "p", Type: "blob"}, http.StatusBadRequest},
		{"unreferenced input", &definition.ArgumentMismatchError{Procedure: "x", Param: "p"}, http.StatusBadRequest},
		{"bad name", &procedure.NotAProcedureNameError{Name: "a b"}, http.StatusBadRequest},
		{"execution failure", &procedure.ExecutionError{Procedure: "x", Detail: "boom"}, http.StatusUnprocessableEntity},
		{"registration failure", &procedure.RegistrationError{Procedure: "x", Err: errors.New("denied")}, http.StatusBadGateway},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := classifyProcError(tt.err)
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
			if msg == "" {
				t.Error("expected non-empty message")
			}
		})
	}
}

func TestClassifyProcErrorWrapped(t *testing.T) {
	// Wrapped taxonomy errors still classify by their underlying type.
	err := &procedure.RegistrationError{Procedure: "x", Err: errors.New("denied")}
	status, _ := classifyProcError(err)
	if status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", status)
	}
}

func TestCleanMapValues(t *testing.T) {
	m := map[string]interface{}{
		"text":  []byte("hello"),
		"num":   int64(3),
		"plain": "world",
	}
	cleanMapValues(m)

	if m["text"] != "hello" {
		t.Errorf("text = %v, want hello", m["text"])
	}
	if m["num"] != int64(3) {
		t.Errorf("num = %v, want 3", m["num"])
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, "nope", map[string]interface{}{"field": "name"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestQueryBool(t *testing.T) {
	for _, val := range []string{"true", "1"} {
		r := httptest.NewRequest("GET", "/x?dry_run="+val, nil)
		if !queryBool(r, "dry_run") {
			t.Errorf("queryBool(%q) = false, want true", val)
		}
	}
	r := httptest.NewRequest("GET", "/x?dry_run=yes", nil)
	if queryBool(r, "dry_run") {
		t.Error("queryBool(yes) = true, want false")
	}
	r = httptest.NewRequest("GET", "/x", nil)
	if queryBool(r, "dry_run") {
		t.Error("queryBool(missing) = true, want false")
	}
}
