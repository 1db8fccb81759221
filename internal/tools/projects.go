package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/session"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

// ProjectTools holds references needed by project and workflow template
// tool handlers.
type ProjectTools struct {
	Store   *storage.Store
	Session *session.Session
}

// --- Input types ---

type ListProjectsInput struct {
	Status string `json:"status" jsonschema:"Filter projects by status: active, archived, or all"`
}

type CreateProjectInput struct {
	Name        string `json:"name" jsonschema:"Unique project name (1-100 characters)"`
	Description string `json:"description,omitempty" jsonschema:"Optional project description"`
}

type ProjectNameInput struct {
	Name string `json:"name" jsonschema:"Project name"`
}

type CreateTemplateInput struct {
	Name        string         `json:"name" jsonschema:"Template name"`
	Description string         `json:"description,omitempty" jsonschema:"Optional description"`
	Config      map[string]any `json:"config,omitempty" jsonschema:"Pipeline configuration object"`
}

type TemplateIDInput struct {
	TemplateID string `json:"template_id" jsonschema:"Workflow template id"`
}

// --- Handlers ---

func (t *ProjectTools) ListProjects(_ context.Context, _ *mcp.CallToolRequest, input ListProjectsInput) (*mcp.CallToolResult, any, error) {
	status := input.Status
	if status == "" {
		status = "active"
	}

	projects, err := t.Store.ListProjects(status)
	if err != nil {
		return toolError("Failed to list projects: %v", err), nil, nil
	}

	return toolJSON(projects)
}

func (t *ProjectTools) CreateProject(_ context.Context, _ *mcp.CallToolRequest, input CreateProjectInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Project name is required"), nil, nil
	}

	proj, err := t.Store.CreateProject(input.Name, input.Description)
	if err != nil {
		return toolError("Failed to create project: %v", err), nil, nil
	}

	// Auto-switch to the new project
	_, err = t.Session.SwitchProject(t.Store, proj.Name)
	if err != nil {
		return toolError("Project created but failed to switch: %v", err), nil, nil
	}

	return toolJSON(proj)
}

func (t *ProjectTools) SwitchProject(_ context.Context, _ *mcp.CallToolRequest, input ProjectNameInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Project name is required"), nil, nil
	}

	proj, err := t.Session.SwitchProject(t.Store, input.Name)
	if err != nil {
		return toolError("Failed to switch project: %v", err), nil, nil
	}

	return toolJSON(proj)
}

func (t *ProjectTools) GetCurrentProject(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	id, name, ok := t.Session.GetCurrent()
	if !ok {
		return toolText("No project is currently active. Use switch_project to select one."), nil, nil
	}

	proj, err := t.Store.GetProject(id)
	if err != nil {
		return toolText(fmt.Sprintf("Active project: %s (details unavailable)", name)), nil, nil
	}

	return toolJSON(proj)
}

func (t *ProjectTools) ArchiveProject(_ context.Context, _ *mcp.CallToolRequest, input ProjectNameInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Project name is required"), nil, nil
	}
	proj, err := t.Store.GetProjectByName(input.Name)
	if err != nil {
		return toolError("Failed to archive project: %v", err), nil, nil
	}

	// If archiving the current project, clear the session
	if id, _, ok := t.Session.GetCurrent(); ok && id == proj.ID {
		t.Session.Clear()
	}

	proj, err = t.Store.ArchiveProject(proj.ID)
	if err != nil {
		return toolError("Failed to archive project: %v", err), nil, nil
	}

	return toolJSON(proj)
}

func (t *ProjectTools) RestoreProject(_ context.Context, _ *mcp.CallToolRequest, input ProjectNameInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Project name is required"), nil, nil
	}
	proj, err := t.Store.GetProjectByName(input.Name)
	if err != nil {
		return toolError("Failed to restore project: %v", err), nil, nil
	}

	proj, err = t.Store.RestoreProject(proj.ID)
	if err != nil {
		return toolError("Failed to restore project: %v", err), nil, nil
	}

	return toolJSON(proj)
}

func (t *ProjectTools) requireProject() (string, *mcp.CallToolResult) {
	id, _, ok := t.Session.GetCurrent()
	if !ok {
		return "", toolError("No active project. Use switch_project to select one.")
	}
	return id, nil
}

func (t *ProjectTools) ListTemplates(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	projectID, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	templates, err := t.Store.ListTemplates(projectID)
	if err != nil {
		return toolError("Failed to list workflow templates: %v", err), nil, nil
	}

	return toolJSON(templates)
}

func (t *ProjectTools) CreateTemplate(_ context.Context, _ *mcp.CallToolRequest, input CreateTemplateInput) (*mcp.CallToolResult, any, error) {
	projectID, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}

	tmpl, err := t.Store.CreateTemplate(storage.TemplateInput{
		Name:        input.Name,
		Description: input.Description,
		Config:      input.Config,
		ProjectID:   projectID,
	})
	if err != nil {
		return toolError("Failed to create workflow template: %v", err), nil, nil
	}

	return toolJSON(tmpl)
}

func (t *ProjectTools) RunTemplate(_ context.Context, _ *mcp.CallToolRequest, input TemplateIDInput) (*mcp.CallToolResult, any, error) {
	projectID, errResult := t.requireProject()
	if errResult != nil {
		return errResult, nil, nil
	}
	if input.TemplateID == "" {
		return toolError("template_id is required"), nil, nil
	}

	tmpl, err := t.Store.GetTemplate(input.TemplateID)
	if err != nil {
		return toolError("Failed to run workflow template: %v", err), nil, nil
	}
	if tmpl.ProjectID != projectID {
		err := fmt.Errorf("%w: workflow template %q belongs to another project", storage.ErrInvalid, tmpl.Name)
		return toolError("Failed to run workflow template: %v", err), nil, nil
	}

	wf, err := t.Store.RunTemplate(tmpl.ID)
	if err != nil {
		return toolError("Failed to run workflow template: %v", err), nil, nil
	}

	return toolJSON(wf)
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
