package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sprocketdb/sprocket/internal/invocation"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// sprocket://targets: list of all registered targets
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			"sprocket://targets",
			"Registered SQL Server Targets",
			mcp.WithResourceDescription(
				"List of all SQL Server targets registered in sprocket, "+
					"including their schema, external-script language, and status.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleTargetsResource,
	)

	// -------------------------------------------------------------------
	// sprocket://procedures/{target}: deployed procedures (template)
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"sprocket://procedures/{target}",
			"Deployed Procedures",
			mcp.WithTemplateDescription(
				"The stored procedures deployed on a target, with their "+
					"declared input and output parameters.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleProceduresResource,
	)
}

// handleTargetsResource returns a JSON list of all registered targets.
func (s *MCPServer) handleTargetsResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	targets, err := s.store.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	type targetInfo struct {
		Name     string `json:"name"`
		Label    string `json:"label,omitempty"`
		Schema   string `json:"schema"`
		Language string `json:"language"`
		IsActive bool   `json:"is_active"`
	}

	items := make([]targetInfo, len(targets))
	for i, tgt := range targets {
		items[i] = targetInfo{
			Name:     tgt.Name,
			Label:    tgt.Label,
			Schema:   tgt.Schema,
			Language: tgt.Language,
			IsActive: tgt.IsActive,
		}
	}

	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal targets: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sprocket://targets",
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// handleProceduresResource returns the deployed procedures on a target with
// their declared parameters.
func (s *MCPServer) handleProceduresResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	// Extract target name from URI: "sprocket://procedures/{target}"
	uri := request.Params.URI
	targetName := strings.TrimPrefix(uri, "sprocket://procedures/")
	if targetName == "" || targetName == uri {
		return nil, fmt.Errorf("invalid procedures URI %q: expected sprocket://procedures/{target}", uri)
	}

	mgr, err := s.manager(targetName)
	if err != nil {
		return nil, fmt.Errorf("target %q not connected: %w (available: %v)",
			targetName, err, s.registry.ListTargets())
	}

	names, err := mgr.Reader().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list procedures for %q: %w", targetName, err)
	}

	type procInfo struct {
		Name    string   `json:"name"`
		Inputs  []string `json:"inputs"`
		Outputs []string `json:"outputs"`
	}

	items := make([]procInfo, 0, len(names))
	for _, name := range names {
		md, err := mgr.Reader().Fetch(ctx, name)
		if err != nil {
			// Procedure dropped between list and fetch; skip it.
			continue
		}
		info := procInfo{Name: name, Inputs: []string{}, Outputs: []string{}}
		for _, p := range md.InputParams {
			info.Inputs = append(info.Inputs, invocation.PublicName(p.Name))
		}
		for _, p := range md.OutputParams {
			info.Outputs = append(info.Outputs, invocation.PublicName(p.Name))
		}
		items = append(items, info)
	}

	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal procedures: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
