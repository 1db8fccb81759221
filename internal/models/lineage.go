package models

// LineageNode is one node of a lineage DAG.
type LineageNode struct {
	GraphID string            `json:"graph_id"`
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Type    string            `json:"type"`
	Level   int               `json:"level"`
	Details map[string]string `json:"details"`
}

// LineageEdge connects two lineage nodes by graph id.
type LineageEdge struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Type   RelationType `json:"type"`
	Role   string       `json:"role,omitempty"`
}

// GraphMetadata describes how a lineage or summary was produced.
type GraphMetadata struct {
	GeneratedAt string `json:"generated_at"`
	GraphType   string `json:"graph_type,omitempty"`
	Algorithm   string `json:"algorithm,omitempty"`
}

// Lineage graph types.
const (
	GraphTypeProvenance = "provenance_dag"
	GraphTypeWorkflow   = "activity_workflow_dag"
	LineageAlgorithm    = "depth_first_traversal_with_topological_sort"
)

// Lineage is the upstream DAG of a root entity or activity. Exactly one of
// RootEntity and RootActivity is set.
type Lineage struct {
	RootEntity    *Entity               `json:"root_entity,omitempty"`
	RootActivity  *Activity             `json:"root_activity,omitempty"`
	Nodes         []LineageNode         `json:"nodes"`
	Edges         []LineageEdge         `json:"edges"`
	NodesByLevel  map[int][]LineageNode `json:"nodes_by_level"`
	TotalNodes    int                   `json:"total_nodes"`
	TotalEdges    int                   `json:"total_edges"`
	GraphMetadata GraphMetadata         `json:"graph_metadata"`
}

// EntityStats counts entities and how many carry a generation time.
type EntityStats struct {
	Total              int     `json:"total"`
	WithGenerationTime int     `json:"with_generation_time"`
	PercentageWithTime float64 `json:"percentage_with_time"`
}

// ActivityStats counts activities and their timestamps.
type ActivityStats struct {
	Total                   int     `json:"total"`
	WithStartTime           int     `json:"with_start_time"`
	WithEndTime             int     `json:"with_end_time"`
	PercentageWithStartTime float64 `json:"percentage_with_start_time"`
	PercentageWithEndTime   float64 `json:"percentage_with_end_time"`
}

// AgentStats counts agents.
type AgentStats struct {
	Total int `json:"total"`
}

// GraphSummary is the statistics view of the whole store.
type GraphSummary struct {
	Entities      EntityStats          `json:"entities"`
	Activities    ActivityStats        `json:"activities"`
	Agents        AgentStats           `json:"agents"`
	Relationships map[RelationType]int `json:"relationships"`
	Total         int                  `json:"total_relationships"`
	GraphMetadata GraphMetadata        `json:"graph_metadata"`
}
