package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sprocketdb/sprocket/internal/catalog"
	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/executor"
	"github.com/sprocketdb/sprocket/internal/invocation"
	"github.com/sprocketdb/sprocket/internal/model"
	"github.com/sprocketdb/sprocket/internal/procedure"
)

// ProcHandler handles stored procedure lifecycle requests: list, describe,
// create, execute, and drop.
type ProcHandler struct {
	registry *executor.Registry
	logger   *slog.Logger
}

// NewProcHandler creates a new ProcHandler.
func NewProcHandler(registry *executor.Registry, logger *slog.Logger) *ProcHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcHandler{registry: registry, logger: logger}
}

// manager resolves a target name to its lifecycle manager. The second return
// is false when the target is unknown and an error response was written.
func (h *ProcHandler) manager(w http.ResponseWriter, r *http.Request) (*procedure.Manager, string, bool) {
	targetName := chi.URLParam(r, "targetName")
	client, err := h.registry.Get(targetName)
	if err != nil {
		writeError(w, http.StatusNotFound, "Target not found: "+targetName)
		return nil, "", false
	}
	return procedure.NewManager(client, definition.ScriptBuilder{}, h.logger), targetName, true
}

// ListProcedures returns the names of all stored procedures on a target.
// GET /api/v1/{targetName}/proc
func (h *ProcHandler) ListProcedures(w http.ResponseWriter, r *http.Request) {
	mgr, _, ok := h.manager(w, r)
	if !ok {
		return
	}

	names, err := mgr.Reader().List(r.Context())
	if err != nil {
		status, msg := classifyProcError(err)
		writeError(w, status, msg)
		return
	}

	resources := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		resources = append(resources, map[string]interface{}{"name": name})
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta:     &model.ResponseMeta{Count: len(resources)},
	})
}

// DescribeProcedure returns a procedure's declared parameters as recorded in
// the target's catalog.
// GET /api/v1/{targetName}/proc/{procName}
func (h *ProcHandler) DescribeProcedure(w http.ResponseWriter, r *http.Request) {
	mgr, _, ok := h.manager(w, r)
	if !ok {
		return
	}
	procName := chi.URLParam(r, "procName")

	md, err := mgr.Reader().Fetch(r.Context(), procName)
	if err != nil {
		status, msg := classifyProcError(err)
		writeError(w, status, msg)
		return
	}

	inputs := make([]map[string]interface{}, 0, len(md.InputParams))
	for _, p := range md.InputParams {
		inputs = append(inputs, map[string]interface{}{
			"name":        invocation.PublicName(p.Name),
			"stored_name": p.Name,
			"type":        p.TypeName,
		})
	}
	outputs := make([]map[string]interface{}, 0, len(md.OutputParams))
	for _, p := range md.OutputParams {
		outputs = append(outputs, map[string]interface{}{
			"name":        invocation.PublicName(p.Name),
			"stored_name": p.Name,
			"type":        p.TypeName,
		})
	}

	body := map[string]interface{}{
		"name":    md.Name,
		"inputs":  inputs,
		"outputs": outputs,
	}
	if md.TableInputState == catalog.TableInputFound {
		body["table_input"] = md.TableInputName
	}

	writeJSON(w, http.StatusOK, body)
}

// createRequest is the body of a procedure creation call.
type createRequest struct {
	Name    string            `json:"name"`
	Script  string            `json:"script"`
	Inputs  map[string]string `json:"inputs"`
	Outputs map[string]string `json:"outputs"`
}

// CreateProcedure registers a script as a stored procedure on the target.
// With ?dry_run=true the generated script is returned without installing.
// POST /api/v1/{targetName}/proc
func (h *ProcHandler) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	mgr, targetName, ok := h.manager(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.Script == "" {
		writeError(w, http.StatusBadRequest, "Fields 'name' and 'script' are required")
		return
	}

	dryRun := queryBool(r, "dry_run")
	src := definition.Source{Language: h.registry.Language(targetName), Body: req.Script}

	script, err := mgr.Create(r.Context(), req.Name, src, req.Inputs, req.Outputs, dryRun)
	if err != nil {
		status, msg := classifyProcError(err)
		writeError(w, status, msg)
		return
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]interface{}{
		"name":    req.Name,
		"script":  script,
		"dry_run": dryRun,
	})
}

// ExecuteProcedure invokes a stored procedure with keyword arguments from the
// request body and returns the result rows. An empty body is acceptable for
// procedures with no parameters.
// POST /api/v1/{targetName}/proc/{procName}
func (h *ProcHandler) ExecuteProcedure(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	mgr, _, ok := h.manager(w, r)
	if !ok {
		return
	}
	procName := chi.URLParam(r, "procName")

	var args map[string]interface{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := readJSON(r, &args); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	dryRun := queryBool(r, "dry_run")
	out, err := mgr.Execute(r.Context(), procName, args, dryRun)
	if err != nil {
		status, msg := classifyProcError(err)
		writeError(w, status, msg)
		return
	}

	if dryRun {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"statement":       out.Statement,
			"parameter_order": out.ParameterOrder,
			"dry_run":         true,
		})
		return
	}

	for _, row := range out.Rows {
		cleanMapValues(row)
	}

	took := time.Since(start)
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: out.Rows,
		Meta: &model.ResponseMeta{
			Count:  len(out.Rows),
			TookMs: float64(took.Microseconds()) / 1000.0,
		},
	})
}

// DropProcedure removes a stored procedure if it exists. Dropping an absent
// procedure is a success with dropped=false, not an error.
// DELETE /api/v1/{targetName}/proc/{procName}
func (h *ProcHandler) DropProcedure(w http.ResponseWriter, r *http.Request) {
	mgr, _, ok := h.manager(w, r)
	if !ok {
		return
	}
	procName := chi.URLParam(r, "procName")

	dropped, stmt, err := mgr.Drop(r.Context(), procName, queryBool(r, "dry_run"))
	if err != nil {
		status, msg := classifyProcError(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      procName,
		"dropped":   dropped,
		"statement": stmt,
	})
}
