package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/session"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/tools"
)

// New creates a fully configured MCP server with all tools registered.
func New(store *storage.Store) *mcp.Server {
	sess := session.New()

	pt := &tools.ProjectTools{Store: store, Session: sess}
	vt := &tools.ProvenanceTools{Store: store}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "provenance-viewer",
		Version: "0.1.0",
	}, nil)

	// Provenance read tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "provenance_graph",
		Description: "Read every entity, activity, agent and relationship in the provenance graph",
	}, vt.Graph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "entity_provenance",
		Description: "Show how an entity was generated, what used it, and what it derives from",
	}, vt.EntityProvenance)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "activity_provenance",
		Description: "Show an activity's inputs, outputs, upstream and downstream activities, agents and configuration",
	}, vt.ActivityProvenance)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_provenance",
		Description: "Find entities, activities and agents whose name contains the query (case-insensitive)",
	}, vt.Search)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "provenance_timeline",
		Description: "List entity generation and activity start/end events in time order",
	}, vt.Timeline)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "entity_lineage",
		Description: "Build the upstream lineage DAG of an entity with topological levels",
	}, vt.EntityLineage)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "activity_workflow",
		Description: "Build the upstream workflow DAG of an activity with topological levels",
	}, vt.ActivityWorkflow)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "graph_summary",
		Description: "Count nodes and relationships and report timestamp coverage",
	}, vt.Summary)

	// Provenance recording tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_entity",
		Description: "Register a data artifact",
	}, vt.CreateEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_agent",
		Description: "Register a person, organization or software agent",
	}, vt.CreateAgent)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "record_activity",
		Description: "Start an activity, linking the activities it depends on and the entities it reads",
	}, vt.RecordActivity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "complete_activity",
		Description: "Finish an activity, recording its outputs and their derivation from its inputs",
	}, vt.CompleteActivity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_relationship",
		Description: "Add a typed provenance relationship between two existing nodes",
	}, vt.CreateRelationship)

	// Project management tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with optional status filter (active, archived, all)",
	}, pt.ListProjects)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_project",
		Description: "Create a new project and make it current",
	}, pt.CreateProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "switch_project",
		Description: "Switch the active project context for the current session",
	}, pt.SwitchProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_current_project",
		Description: "Get information about the currently active project",
	}, pt.GetCurrentProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "archive_project",
		Description: "Archive a project (preserves data, makes it inactive)",
	}, pt.ArchiveProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "restore_project",
		Description: "Restore an archived project back to active status",
	}, pt.RestoreProject)

	// Workflow template tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_workflow_templates",
		Description: "List the workflow templates of the current project (requires active project)",
	}, pt.ListTemplates)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_workflow_template",
		Description: "Store a pipeline configuration under the current project (requires active project)",
	}, pt.CreateTemplate)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "run_workflow_template",
		Description: "Create a pending workflow run from a template",
	}, pt.RunTemplate)

	return srv
}
