// Package lineage builds the upstream provenance DAG of an entity or an
// activity and assigns each node a topological level.
package lineage

import (
	"fmt"
	"time"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

// Source is the read access the builder needs.
type Source interface {
	GetEntity(id string) (*models.Entity, error)
	GetActivity(id string) (*models.Activity, error)
	RelationshipsTo(t models.RelationType, targetID string) ([]models.Relationship, error)
	RelationshipsFrom(t models.RelationType, sourceID string) ([]models.Relationship, error)
}

// GraphID returns the namespaced id of a node. Entity and activity ids live
// in separate tables and may collide, graph ids never do.
func GraphID(kind, id string) string {
	return kind + ":" + id
}

type node struct {
	graphID  string
	kind     string
	entity   *models.Entity
	activity *models.Activity
}

func (n *node) id() string {
	if n.entity != nil {
		return n.entity.ID
	}
	return n.activity.ID
}

func (n *node) name() string {
	switch {
	case n.entity != nil && n.entity.Name != "":
		return n.entity.Name
	case n.entity != nil:
		return "Entity_" + n.entity.ID
	case n.activity.Name != "":
		return n.activity.Name
	default:
		return "Activity_" + n.activity.ID
	}
}

type edgeKey struct {
	source, target string
	typ            models.RelationType
}

// Builder walks a Source. A Builder is not safe for concurrent use; create
// one per request.
type Builder struct {
	src   Source
	now   func() time.Time
	nodes map[string]*node
	order []string
	edges []models.LineageEdge
	seen  map[edgeKey]bool
}

// NewBuilder returns a builder reading from src.
func NewBuilder(src Source) *Builder {
	return &Builder{src: src, now: time.Now}
}

func (b *Builder) reset() {
	b.nodes = map[string]*node{}
	b.order = nil
	b.edges = nil
	b.seen = map[edgeKey]bool{}
}

// EntityLineage returns the DAG of everything the entity was generated or
// derived from, transitively.
func (b *Builder) EntityLineage(entityID string) (*models.Lineage, error) {
	root, err := b.src.GetEntity(entityID)
	if err != nil {
		return nil, err
	}
	b.reset()
	if b.addEntity(root) {
		if err := b.walkEntity(root); err != nil {
			return nil, err
		}
	}
	out := b.finish(models.GraphTypeProvenance)
	out.RootEntity = root
	return out, nil
}

// ActivityWorkflow returns the DAG of the inputs and informing activities
// the activity depends on, transitively.
func (b *Builder) ActivityWorkflow(activityID string) (*models.Lineage, error) {
	root, err := b.src.GetActivity(activityID)
	if err != nil {
		return nil, err
	}
	b.reset()
	if b.addActivity(root) {
		if err := b.walkActivity(root); err != nil {
			return nil, err
		}
	}
	out := b.finish(models.GraphTypeWorkflow)
	out.RootActivity = root
	return out, nil
}

// addEntity registers the node and reports whether it was new.
func (b *Builder) addEntity(e *models.Entity) bool {
	gid := GraphID(models.KindEntity, e.ID)
	if _, ok := b.nodes[gid]; ok {
		return false
	}
	b.nodes[gid] = &node{graphID: gid, kind: models.KindEntity, entity: e}
	b.order = append(b.order, gid)
	return true
}

func (b *Builder) addActivity(a *models.Activity) bool {
	gid := GraphID(models.KindActivity, a.ID)
	if _, ok := b.nodes[gid]; ok {
		return false
	}
	b.nodes[gid] = &node{graphID: gid, kind: models.KindActivity, activity: a}
	b.order = append(b.order, gid)
	return true
}

func (b *Builder) addEdge(source, target string, t models.RelationType, role string) {
	key := edgeKey{source: source, target: target, typ: t}
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.edges = append(b.edges, models.LineageEdge{Source: source, Target: target, Type: t, Role: role})
}

func (b *Builder) walkEntity(e *models.Entity) error {
	target := GraphID(models.KindEntity, e.ID)

	generators, err := b.src.RelationshipsTo(models.WasGeneratedBy, e.ID)
	if err != nil {
		return fmt.Errorf("generators of %s: %w", e.ID, err)
	}
	for _, rel := range generators {
		a, err := b.src.GetActivity(rel.Source)
		if err != nil {
			return err
		}
		isNew := b.addActivity(a)
		b.addEdge(GraphID(models.KindActivity, a.ID), target, models.WasGeneratedBy, rel.Role)
		if isNew {
			if err := b.walkActivity(a); err != nil {
				return err
			}
		}
	}

	sources, err := b.src.RelationshipsTo(models.WasDerivedFrom, e.ID)
	if err != nil {
		return fmt.Errorf("derivation sources of %s: %w", e.ID, err)
	}
	for _, rel := range sources {
		src, err := b.src.GetEntity(rel.Source)
		if err != nil {
			return err
		}
		isNew := b.addEntity(src)
		b.addEdge(GraphID(models.KindEntity, src.ID), target, models.WasDerivedFrom, rel.Role)
		if isNew {
			if err := b.walkEntity(src); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) walkActivity(a *models.Activity) error {
	target := GraphID(models.KindActivity, a.ID)

	inputs, err := b.src.RelationshipsFrom(models.Used, a.ID)
	if err != nil {
		return fmt.Errorf("inputs of %s: %w", a.ID, err)
	}
	for _, rel := range inputs {
		e, err := b.src.GetEntity(rel.Target)
		if err != nil {
			return err
		}
		isNew := b.addEntity(e)
		b.addEdge(GraphID(models.KindEntity, e.ID), target, models.Used, rel.Role)
		if isNew {
			if err := b.walkEntity(e); err != nil {
				return err
			}
		}
	}

	informants, err := b.src.RelationshipsTo(models.WasInformedBy, a.ID)
	if err != nil {
		return fmt.Errorf("informants of %s: %w", a.ID, err)
	}
	for _, rel := range informants {
		informant, err := b.src.GetActivity(rel.Source)
		if err != nil {
			return err
		}
		isNew := b.addActivity(informant)
		b.addEdge(GraphID(models.KindActivity, informant.ID), target, models.WasInformedBy, rel.Role)
		if isNew {
			if err := b.walkActivity(informant); err != nil {
				return err
			}
		}
	}
	return nil
}

// Levels assigns each node its Kahn layer: nodes with no incoming edges are
// level 0, and a node is placed one layer after the last of its
// predecessors is removed. Nodes on a cycle are never released and get 0.
func Levels(nodes []string, edges []models.LineageEdge) map[string]int {
	adjacency := map[string][]string{}
	inDegree := map[string]int{}
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		inDegree[e.Target]++
	}

	levels := make(map[string]int, len(nodes))
	var queue []string
	for _, n := range nodes {
		levels[n] = 0
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	for level := 0; len(queue) > 0; level++ {
		var next []string
		for _, n := range queue {
			levels[n] = level
			for _, m := range adjacency[n] {
				inDegree[m]--
				if inDegree[m] == 0 {
					next = append(next, m)
				}
			}
		}
		queue = next
	}
	return levels
}

func (b *Builder) finish(graphType string) *models.Lineage {
	levels := Levels(b.order, b.edges)

	out := &models.Lineage{
		Nodes:        make([]models.LineageNode, 0, len(b.order)),
		Edges:        b.edges,
		NodesByLevel: map[int][]models.LineageNode{},
		TotalNodes:   len(b.order),
		TotalEdges:   len(b.edges),
		GraphMetadata: models.GraphMetadata{
			GeneratedAt: b.now().UTC().Format(time.RFC3339),
			GraphType:   graphType,
			Algorithm:   models.LineageAlgorithm,
		},
	}
	if out.Edges == nil {
		out.Edges = []models.LineageEdge{}
	}

	for _, gid := range b.order {
		n := b.nodes[gid]
		ln := models.LineageNode{
			GraphID: gid,
			ID:      n.id(),
			Name:    n.name(),
			Type:    n.kind,
			Level:   levels[gid],
			Details: details(n),
		}
		out.Nodes = append(out.Nodes, ln)
		out.NodesByLevel[ln.Level] = append(out.NodesByLevel[ln.Level], ln)
	}
	return out
}

func details(n *node) map[string]string {
	d := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			d[k] = v
		}
	}
	if n.entity != nil {
		set("location", n.entity.Location)
		set("generated_at_time", n.entity.GeneratedAtTime)
		set("comment", n.entity.Comment)
		return d
	}
	set("start_time", n.activity.StartTime)
	set("end_time", n.activity.EndTime)
	set("comment", n.activity.Comment)
	return d
}
