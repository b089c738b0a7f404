package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/invocation"
)

// registerTools registers all sprocket MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Discovery tools -----

	srv.AddTool(
		mcp.NewTool("sprocket_list_targets",
			mcp.WithDescription(
				"List all SQL Server targets registered in sprocket. Returns each "+
					"target's name, schema, external-script language, and connection "+
					"status. Use this first to discover available databases.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListTargets,
	)

	srv.AddTool(
		mcp.NewTool("sprocket_list_procedures",
			mcp.WithDescription(
				"List all stored procedures on a target database. Use this to see "+
					"what is already deployed before creating or executing procedures.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Name of the registered target"),
			),
		),
		s.handleListProcedures,
	)

	srv.AddTool(
		mcp.NewTool("sprocket_describe_procedure",
			mcp.WithDescription(
				"Get a stored procedure's declared parameters: input and output "+
					"names and SQL types, and the dataframe input binding if the "+
					"procedure takes one. Use this to learn what arguments an "+
					"execution call needs.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Name of the registered target"),
			),
			mcp.WithString("procedure",
				mcp.Required(),
				mcp.Description("Name of the stored procedure"),
			),
		),
		s.handleDescribeProcedure,
	)

	// ----- Lifecycle tools -----

	srv.AddTool(
		mcp.NewTool("sprocket_create_procedure",
			mcp.WithDescription(
				"Register a script as a stored procedure on a target database. "+
					"Scalar inputs are declared as a name-to-type object; allowed "+
					"types are posixct, numeric, character, integer, logical, raw, "+
					"and dataframe (at most one dataframe input). Set dry_run to "+
					"preview the generated SQL without installing.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Name of the registered target"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name for the new stored procedure"),
			),
			mcp.WithString("script",
				mcp.Required(),
				mcp.Description("Script body to run server-side"),
			),
			mcp.WithObject("inputs",
				mcp.Description("Input parameter declarations, e.g. {\"n\": \"integer\"}"),
			),
			mcp.WithObject("outputs",
				mcp.Description("Output parameter declarations, e.g. {\"out_df\": \"dataframe\"}"),
			),
			mcp.WithBoolean("dry_run",
				mcp.Description("Return the generated SQL without installing"),
			),
		),
		s.handleCreateProcedure,
	)

	srv.AddTool(
		mcp.NewTool("sprocket_exec_procedure",
			mcp.WithDescription(
				"Execute a stored procedure with keyword arguments. Argument names "+
					"must exactly match the procedure's declared parameters (use "+
					"sprocket_describe_procedure to see them). Returns the result "+
					"rows as JSON.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Name of the registered target"),
			),
			mcp.WithString("procedure",
				mcp.Required(),
				mcp.Description("Name of the stored procedure to execute"),
			),
			mcp.WithObject("args",
				mcp.Description("Keyword arguments, e.g. {\"arg1\": \"WORLD\"}. Omit for zero-parameter procedures."),
			),
		),
		s.handleExecProcedure,
	)

	srv.AddTool(
		mcp.NewTool("sprocket_drop_procedure",
			mcp.WithDescription(
				"Drop a stored procedure from a target database. Dropping a "+
					"procedure that does not exist is a no-op, not an error.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("target",
				mcp.Required(),
				mcp.Description("Name of the registered target"),
			),
			mcp.WithString("procedure",
				mcp.Required(),
				mcp.Description("Name of the stored procedure to drop"),
			),
		),
		s.handleDropProcedure,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

// handleListTargets returns all registered targets with connection status.
func (s *MCPServer) handleListTargets(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	targets, err := s.store.ListTargets(ctx)
	if err != nil {
		return toolError("Failed to list targets: %v", err)
	}

	type targetInfo struct {
		Name      string `json:"name"`
		Label     string `json:"label,omitempty"`
		Schema    string `json:"schema"`
		Language  string `json:"language"`
		IsActive  bool   `json:"is_active"`
		Connected bool   `json:"connected"`
	}

	items := make([]targetInfo, len(targets))
	for i, tgt := range targets {
		_, connErr := s.registry.Get(tgt.Name)
		items[i] = targetInfo{
			Name:      tgt.Name,
			Label:     tgt.Label,
			Schema:    tgt.Schema,
			Language:  tgt.Language,
			IsActive:  tgt.IsActive,
			Connected: connErr == nil,
		}
	}

	return successJSON(items)
}

// handleListProcedures returns the stored procedure names on a target.
func (s *MCPServer) handleListProcedures(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	targetName, err := requireString(request, "target")
	if err != nil {
		return toolError("%v. Available targets: %v", err, s.registry.ListTargets())
	}

	mgr, err := s.manager(targetName)
	if err != nil {
		return toolError("Target %q not connected. Available targets: %v",
			targetName, s.registry.ListTargets())
	}

	names, err := mgr.Reader().List(ctx)
	if err != nil {
		return toolError("Failed to list procedures on %q: %v", targetName, err)
	}

	return successJSON(map[string]interface{}{
		"target":     targetName,
		"procedures": names,
		"count":      len(names),
	})
}

// handleDescribeProcedure returns a procedure's declared parameter metadata.
func (s *MCPServer) handleDescribeProcedure(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	targetName, err := requireString(request, "target")
	if err != nil {
		return toolError("%v. Available targets: %v", err, s.registry.ListTargets())
	}
	procName, err := requireString(request, "procedure")
	if err != nil {
		return toolError("%v", err)
	}

	mgr, err := s.manager(targetName)
	if err != nil {
		return toolError("Target %q not connected. Available targets: %v",
			targetName, s.registry.ListTargets())
	}

	md, err := mgr.Reader().Fetch(ctx, procName)
	if err != nil {
		// Provide available procedure names to help the LLM self-correct.
		names, _ := mgr.Reader().List(ctx)
		return toolError("Procedure %q not found on %q: %v\n\nAvailable procedures: %v",
			procName, targetName, err, names)
	}

	type paramInfo struct {
		Name       string `json:"name"`
		StoredName string `json:"stored_name"`
		Type       string `json:"type"`
	}

	inputs := make([]paramInfo, len(md.InputParams))
	for i, p := range md.InputParams {
		inputs[i] = paramInfo{Name: invocation.PublicName(p.Name), StoredName: p.Name, Type: p.TypeName}
	}
	outputs := make([]paramInfo, len(md.OutputParams))
	for i, p := range md.OutputParams {
		outputs[i] = paramInfo{Name: invocation.PublicName(p.Name), StoredName: p.Name, Type: p.TypeName}
	}

	result := map[string]interface{}{
		"name":    md.Name,
		"inputs":  inputs,
		"outputs": outputs,
	}
	if md.TableInputName != "" {
		result["table_input"] = md.TableInputName
	}

	return successJSON(result)
}

// handleCreateProcedure registers a script as a stored procedure.
func (s *MCPServer) handleCreateProcedure(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	targetName, err := requireString(request, "target")
	if err != nil {
		return toolError("%v. Available targets: %v", err, s.registry.ListTargets())
	}
	name, err := requireString(request, "name")
	if err != nil {
		return toolError("%v", err)
	}
	script, err := requireString(request, "script")
	if err != nil {
		return toolError("%v", err)
	}

	inputs := getStringMapArg(request, "inputs")
	outputs := getStringMapArg(request, "outputs")
	dryRun := request.GetBool("dry_run", false)

	mgr, err := s.manager(targetName)
	if err != nil {
		return toolError("Target %q not connected. Available targets: %v",
			targetName, s.registry.ListTargets())
	}

	src := definition.Source{Language: s.registry.Language(targetName), Body: script}
	generated, err := mgr.Create(ctx, name, src, inputs, outputs, dryRun)
	if err != nil {
		return toolError("Failed to create procedure %q: %v\n\n"+
			"Allowed parameter types: posixct, numeric, character, integer, logical, raw, dataframe",
			name, err)
	}

	return successJSON(map[string]interface{}{
		"name":    name,
		"script":  generated,
		"dry_run": dryRun,
	})
}

// handleExecProcedure invokes a procedure with keyword arguments.
func (s *MCPServer) handleExecProcedure(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	targetName, err := requireString(request, "target")
	if err != nil {
		return toolError("%v. Available targets: %v", err, s.registry.ListTargets())
	}
	procName, err := requireString(request, "procedure")
	if err != nil {
		return toolError("%v", err)
	}

	args := getObjectArg(request, "args")

	mgr, err := s.manager(targetName)
	if err != nil {
		return toolError("Target %q not connected. Available targets: %v",
			targetName, s.registry.ListTargets())
	}

	out, err := mgr.Execute(ctx, procName, args, false)
	if err != nil {
		return toolError("Execution of %q failed: %v\n\n"+
			"Use sprocket_describe_procedure to check the declared parameters.",
			procName, err)
	}

	for _, row := range out.Rows {
		cleanMapValues(row)
	}

	return successJSON(map[string]interface{}{
		"procedure": procName,
		"statement": out.Statement,
		"rows":      out.Rows,
		"count":     len(out.Rows),
	})
}

// handleDropProcedure drops a procedure if it exists.
func (s *MCPServer) handleDropProcedure(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	targetName, err := requireString(request, "target")
	if err != nil {
		return toolError("%v. Available targets: %v", err, s.registry.ListTargets())
	}
	procName, err := requireString(request, "procedure")
	if err != nil {
		return toolError("%v", err)
	}

	mgr, err := s.manager(targetName)
	if err != nil {
		return toolError("Target %q not connected. Available targets: %v",
			targetName, s.registry.ListTargets())
	}

	dropped, _, err := mgr.Drop(ctx, procName, false)
	if err != nil {
		return toolError("Failed to drop procedure %q: %v", procName, err)
	}

	return successJSON(map[string]interface{}{
		"procedure": procName,
		"dropped":   dropped,
	})
}

// cleanMapValues converts []byte values from database scans into strings
// for clean JSON serialization.
func cleanMapValues(m map[string]interface{}) {
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
}
