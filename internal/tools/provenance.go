package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/lineage"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

// ProvenanceTools holds references needed by provenance graph tool handlers.
type ProvenanceTools struct {
	Store *storage.Store
}

// --- Input types ---

type EntityIDInput struct {
	EntityID string `json:"entity_id" jsonschema:"Entity id"`
}

type ActivityIDInput struct {
	ActivityID string `json:"activity_id" jsonschema:"Activity id"`
}

type SearchProvenanceInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive substring of the node name"`
	Type  string `json:"type,omitempty" jsonschema:"Restrict to one node kind: entity, activity or agent"`
}

type CreateEntityInput struct {
	Name            string `json:"name" jsonschema:"Entity name"`
	Location        string `json:"location,omitempty" jsonschema:"Where the data lives (path or URL)"`
	GeneratedAtTime string `json:"generated_at_time,omitempty" jsonschema:"RFC 3339 generation time"`
	Comment         string `json:"comment,omitempty" jsonschema:"Free-form note"`
}

type CreateAgentInput struct {
	Name        string `json:"name" jsonschema:"Agent name"`
	AgentType   string `json:"agent_type,omitempty" jsonschema:"person, organization or software (default person)"`
	Role        string `json:"role,omitempty" jsonschema:"Role of the agent"`
	Email       string `json:"email,omitempty" jsonschema:"Contact email"`
	Affiliation string `json:"affiliation,omitempty" jsonschema:"Organisation the agent belongs to"`
}

type RecordActivityInput struct {
	Name      string   `json:"name" jsonschema:"Activity name"`
	Informers []string `json:"informers,omitempty" jsonschema:"Ids of activities this one depends on"`
	Inputs    []string `json:"inputs,omitempty" jsonschema:"Ids of entities this activity reads"`
	StartTime string   `json:"start_time,omitempty" jsonschema:"RFC 3339 start time (default now)"`
	Comment   string   `json:"comment,omitempty" jsonschema:"Free-form note"`
}

type CompleteActivityInput struct {
	ActivityID string   `json:"activity_id" jsonschema:"Activity to complete"`
	Outputs    []string `json:"outputs" jsonschema:"Ids of entities the activity generated"`
}

type CreateRelationshipInput struct {
	Type   string `json:"type" jsonschema:"used, was_generated_by, was_derived_from, was_informed_by, was_associated_with or was_attributed_to"`
	Source string `json:"source" jsonschema:"Source node id"`
	Target string `json:"target" jsonschema:"Target node id"`
	Role   string `json:"role,omitempty" jsonschema:"Role of the relation"`
	Time   string `json:"time,omitempty" jsonschema:"RFC 3339 time of the relation"`
}

// --- Handlers ---

func (t *ProvenanceTools) Graph(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	graph, err := t.Store.Graph()
	if err != nil {
		return toolError("Failed to read graph: %v", err), nil, nil
	}
	return toolJSON(graph)
}

func (t *ProvenanceTools) EntityProvenance(_ context.Context, _ *mcp.CallToolRequest, input EntityIDInput) (*mcp.CallToolResult, any, error) {
	if input.EntityID == "" {
		return toolError("entity_id is required"), nil, nil
	}
	prov, err := t.Store.EntityProvenance(input.EntityID)
	if err != nil {
		return toolError("Failed to load entity provenance: %v", err), nil, nil
	}
	return toolJSON(prov)
}

func (t *ProvenanceTools) ActivityProvenance(_ context.Context, _ *mcp.CallToolRequest, input ActivityIDInput) (*mcp.CallToolResult, any, error) {
	if input.ActivityID == "" {
		return toolError("activity_id is required"), nil, nil
	}
	prov, err := t.Store.ActivityProvenance(input.ActivityID)
	if err != nil {
		return toolError("Failed to load activity provenance: %v", err), nil, nil
	}
	return toolJSON(prov)
}

func (t *ProvenanceTools) Search(_ context.Context, _ *mcp.CallToolRequest, input SearchProvenanceInput) (*mcp.CallToolResult, any, error) {
	result, err := t.Store.Search(input.Query, input.Type)
	if err != nil {
		return toolError("Search failed: %v", err), nil, nil
	}
	return toolJSON(result)
}

func (t *ProvenanceTools) Timeline(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	events, err := t.Store.Timeline()
	if err != nil {
		return toolError("Failed to build timeline: %v", err), nil, nil
	}
	return toolJSON(models.Timeline{Timeline: events})
}

func (t *ProvenanceTools) EntityLineage(_ context.Context, _ *mcp.CallToolRequest, input EntityIDInput) (*mcp.CallToolResult, any, error) {
	if input.EntityID == "" {
		return toolError("entity_id is required"), nil, nil
	}
	graph, err := lineage.NewBuilder(t.Store).EntityLineage(input.EntityID)
	if err != nil {
		return toolError("Failed to build lineage: %v", err), nil, nil
	}
	return toolJSON(graph)
}

func (t *ProvenanceTools) ActivityWorkflow(_ context.Context, _ *mcp.CallToolRequest, input ActivityIDInput) (*mcp.CallToolResult, any, error) {
	if input.ActivityID == "" {
		return toolError("activity_id is required"), nil, nil
	}
	graph, err := lineage.NewBuilder(t.Store).ActivityWorkflow(input.ActivityID)
	if err != nil {
		return toolError("Failed to build workflow graph: %v", err), nil, nil
	}
	return toolJSON(graph)
}

func (t *ProvenanceTools) Summary(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	summary, err := t.Store.Summary()
	if err != nil {
		return toolError("Failed to summarise graph: %v", err), nil, nil
	}
	return toolJSON(summary)
}

func (t *ProvenanceTools) CreateEntity(_ context.Context, _ *mcp.CallToolRequest, input CreateEntityInput) (*mcp.CallToolResult, any, error) {
	entity, err := t.Store.CreateEntity(storage.NewEntity{
		Name:            input.Name,
		Location:        input.Location,
		GeneratedAtTime: input.GeneratedAtTime,
		Comment:         input.Comment,
	})
	if err != nil {
		return toolError("Failed to create entity: %v", err), nil, nil
	}
	return toolJSON(entity)
}

func (t *ProvenanceTools) CreateAgent(_ context.Context, _ *mcp.CallToolRequest, input CreateAgentInput) (*mcp.CallToolResult, any, error) {
	agent, err := t.Store.CreateAgent(storage.NewAgent{
		Name:        input.Name,
		AgentType:   input.AgentType,
		Role:        input.Role,
		Email:       input.Email,
		Affiliation: input.Affiliation,
	})
	if err != nil {
		return toolError("Failed to create agent: %v", err), nil, nil
	}
	return toolJSON(agent)
}

func (t *ProvenanceTools) RecordActivity(_ context.Context, _ *mcp.CallToolRequest, input RecordActivityInput) (*mcp.CallToolResult, any, error) {
	activity, err := t.Store.RecordActivity(storage.RecordActivityInput{
		Name:      input.Name,
		Informers: input.Informers,
		Inputs:    input.Inputs,
		StartTime: input.StartTime,
		Comment:   input.Comment,
	})
	if err != nil {
		return toolError("Failed to record activity: %v", err), nil, nil
	}
	return toolJSON(activity)
}

func (t *ProvenanceTools) CompleteActivity(_ context.Context, _ *mcp.CallToolRequest, input CompleteActivityInput) (*mcp.CallToolResult, any, error) {
	if input.ActivityID == "" {
		return toolError("activity_id is required"), nil, nil
	}
	activity, err := t.Store.CompleteActivity(input.ActivityID, input.Outputs)
	if err != nil {
		return toolError("Failed to complete activity: %v", err), nil, nil
	}
	return toolJSON(activity)
}

func (t *ProvenanceTools) CreateRelationship(_ context.Context, _ *mcp.CallToolRequest, input CreateRelationshipInput) (*mcp.CallToolResult, any, error) {
	rel, err := t.Store.CreateRelationship(storage.NewRelationship{
		Type:   models.RelationType(input.Type),
		Source: input.Source,
		Target: input.Target,
		Role:   input.Role,
		Time:   input.Time,
	})
	if err != nil {
		return toolError("Failed to create relationship: %v", err), nil, nil
	}
	return toolJSON(rel)
}
