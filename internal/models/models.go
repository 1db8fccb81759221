package models

// Node kinds as they appear in the "type" field of graph DTOs.
const (
	KindEntity   = "entity"
	KindActivity = "activity"
	KindAgent    = "agent"
)

// RelationType names a directed provenance edge.
type RelationType string

const (
	Used              RelationType = "used"
	WasGeneratedBy    RelationType = "was_generated_by"
	WasDerivedFrom    RelationType = "was_derived_from"
	WasInformedBy     RelationType = "was_informed_by"
	WasAssociatedWith RelationType = "was_associated_with"
	WasAttributedTo   RelationType = "was_attributed_to"
)

// RelationTypes lists every supported relation in display order.
var RelationTypes = []RelationType{
	Used, WasGeneratedBy, WasDerivedFrom, WasInformedBy, WasAssociatedWith, WasAttributedTo,
}

// Endpoints returns the node kinds of the source and target of the relation.
func (r RelationType) Endpoints() (source, target string, ok bool) {
	switch r {
	case Used, WasGeneratedBy:
		return KindActivity, KindEntity, true
	case WasDerivedFrom:
		return KindEntity, KindEntity, true
	case WasInformedBy:
		return KindActivity, KindActivity, true
	case WasAssociatedWith:
		return KindActivity, KindAgent, true
	case WasAttributedTo:
		return KindEntity, KindAgent, true
	}
	return "", "", false
}

// Valid reports whether r is part of the relation vocabulary.
func (r RelationType) Valid() bool {
	_, _, ok := r.Endpoints()
	return ok
}

// Entity is a data artifact node.
type Entity struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Location        string `json:"location,omitempty"`
	GeneratedAtTime string `json:"generated_at_time,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

// Activity is a process node.
type Activity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// Agent is a responsible party: a person, organization or piece of software.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	AgentType   string `json:"agent_type"`
	Role        string `json:"role,omitempty"`
	Email       string `json:"email,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

// Relationship is a directed typed edge between two nodes.
type Relationship struct {
	ID     string       `json:"id"`
	Type   RelationType `json:"type"`
	Source string       `json:"source"`
	Target string       `json:"target"`
	Role   string       `json:"role,omitempty"`
	Time   string       `json:"time,omitempty"`
}

// ProvenanceGraph is every node and edge in the store.
type ProvenanceGraph struct {
	Entities      []Entity       `json:"entities"`
	Activities    []Activity     `json:"activities"`
	Agents        []Agent        `json:"agents"`
	Relationships []Relationship `json:"relationships"`
}

// GeneratedBy names the activity that produced an entity, if any.
type GeneratedBy struct {
	Activity *Activity `json:"activity,omitempty"`
	Role     string    `json:"role,omitempty"`
}

// ActivityRef is an activity seen from an entity.
type ActivityRef struct {
	Activity Activity `json:"activity"`
	Role     string   `json:"role,omitempty"`
	Time     string   `json:"time,omitempty"`
}

// EntityRef is an entity seen from another node.
type EntityRef struct {
	Entity Entity `json:"entity"`
	Role   string `json:"role,omitempty"`
	Time   string `json:"time,omitempty"`
}

// AgentRef is an agent seen from an entity or activity.
type AgentRef struct {
	Agent Agent  `json:"agent"`
	Role  string `json:"role,omitempty"`
}

// EntityProvenance is the pre-joined neighbourhood of one entity.
type EntityProvenance struct {
	Entity          Entity        `json:"entity"`
	GeneratedBy     GeneratedBy   `json:"generated_by"`
	UsedBy          []ActivityRef `json:"used_by"`
	DerivedFrom     []EntityRef   `json:"derived_from"`
	DerivedEntities []EntityRef   `json:"derived_entities"`
	AttributedTo    []AgentRef    `json:"attributed_to"`
}

// Configuration is a parameter or config file an activity was configured by.
type Configuration struct {
	ID         string `json:"-"`
	ActivityID string `json:"-"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Value      string `json:"value,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Configuration kinds.
const (
	ConfigParameter = "parameter"
	ConfigFile      = "config_file"
)

// ActivityProvenance is the pre-joined neighbourhood of one activity.
type ActivityProvenance struct {
	Activity         Activity        `json:"activity"`
	Inputs           []EntityRef     `json:"inputs"`
	Outputs          []EntityRef     `json:"outputs"`
	Dependencies     []Activity      `json:"dependencies"`
	Dependents       []Activity      `json:"dependents"`
	AssociatedAgents []AgentRef      `json:"associated_agents"`
	Configurations   []Configuration `json:"configurations"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SearchResult groups name matches by node kind.
type SearchResult struct {
	Entities   []Entity   `json:"entities"`
	Activities []Activity `json:"activities"`
	Agents     []Agent    `json:"agents"`
}

// Timeline event types.
const (
	EventEntityGenerated = "entity_generated"
	EventActivityStarted = "activity_started"
	EventActivityEnded   = "activity_ended"
)

// TimelineEvent is one dated occurrence in the provenance record.
type TimelineEvent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Time        string `json:"time"`
	Description string `json:"description"`
}

// Timeline wraps the ordered event list.
type Timeline struct {
	Timeline []TimelineEvent `json:"timeline"`
}

// Project groups workflow templates.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// WorkflowTemplate is a stored pipeline configuration.
type WorkflowTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	ProjectID   string         `json:"project_id"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

// Workflow statuses.
const (
	WorkflowPending    = "pending"
	WorkflowRunning    = "running"
	WorkflowCompleted  = "completed"
	WorkflowFailed     = "failed"
	WorkflowTerminated = "terminated"
)

// Workflow is one run of a template.
type Workflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	TemplateID  string `json:"template_id"`
	ProjectID   string `json:"project_id"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
