package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

const (
	entityColumns   = `e.id, e.name, e.location, e.generated_at_time, e.comment`
	activityColumns = `a.id, a.name, a.start_time, a.end_time, a.comment`
	agentColumns    = `g.id, g.name, g.agent_type, g.role, g.email, g.affiliation`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner, extra ...any) (models.Entity, error) {
	e := models.Entity{Type: models.KindEntity}
	dest := append([]any{&e.ID, &e.Name, &e.Location, &e.GeneratedAtTime, &e.Comment}, extra...)
	err := row.Scan(dest...)
	return e, err
}

func scanActivity(row scanner, extra ...any) (models.Activity, error) {
	a := models.Activity{Type: models.KindActivity}
	dest := append([]any{&a.ID, &a.Name, &a.StartTime, &a.EndTime, &a.Comment}, extra...)
	err := row.Scan(dest...)
	return a, err
}

func scanAgent(row scanner, extra ...any) (models.Agent, error) {
	g := models.Agent{Type: models.KindAgent}
	dest := append([]any{&g.ID, &g.Name, &g.AgentType, &g.Role, &g.Email, &g.Affiliation}, extra...)
	err := row.Scan(dest...)
	return g, err
}

// GetEntity looks up one entity by id.
func (s *Store) GetEntity(id string) (*models.Entity, error) {
	return getEntity(s.db, id)
}

// GetActivity looks up one activity by id.
func (s *Store) GetActivity(id string) (*models.Activity, error) {
	return getActivity(s.db, id)
}

// GetAgent looks up one agent by id.
func (s *Store) GetAgent(id string) (*models.Agent, error) {
	g, err := scanAgent(s.db.QueryRow(`SELECT `+agentColumns+` FROM agents g WHERE g.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("agent %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	return &g, nil
}

func getEntity(q queryer, id string) (*models.Entity, error) {
	e, err := scanEntity(q.QueryRow(`SELECT `+entityColumns+` FROM entities e WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entity %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan entity: %w", err)
	}
	return &e, nil
}

func getActivity(q queryer, id string) (*models.Activity, error) {
	a, err := scanActivity(q.QueryRow(`SELECT `+activityColumns+` FROM activities a WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return &a, nil
}

// Graph returns every node and relationship in insertion order.
func (s *Store) Graph() (*models.ProvenanceGraph, error) {
	entities, err := s.queryEntities(`SELECT `+entityColumns+` FROM entities e ORDER BY e.rowid`)
	if err != nil {
		return nil, err
	}
	activities, err := s.queryActivities(`SELECT `+activityColumns+` FROM activities a ORDER BY a.rowid`)
	if err != nil {
		return nil, err
	}
	agents, err := s.queryAgents(`SELECT `+agentColumns+` FROM agents g ORDER BY g.rowid`)
	if err != nil {
		return nil, err
	}
	relationships, err := queryRelationships(s.db, `SELECT id, type, source_id, target_id, role, time FROM relationships ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	return &models.ProvenanceGraph{
		Entities:      entities,
		Activities:    activities,
		Agents:        agents,
		Relationships: relationships,
	}, nil
}

// RelationshipsTo returns edges of type t whose target is targetID.
func (s *Store) RelationshipsTo(t models.RelationType, targetID string) ([]models.Relationship, error) {
	return queryRelationships(s.db,
		`SELECT id, type, source_id, target_id, role, time FROM relationships WHERE type = ? AND target_id = ? ORDER BY rowid`,
		string(t), targetID,
	)
}

// RelationshipsFrom returns edges of type t whose source is sourceID.
func (s *Store) RelationshipsFrom(t models.RelationType, sourceID string) ([]models.Relationship, error) {
	return relationshipsFrom(s.db, t, sourceID)
}

func relationshipsFrom(q queryer, t models.RelationType, sourceID string) ([]models.Relationship, error) {
	return queryRelationships(q,
		`SELECT id, type, source_id, target_id, role, time FROM relationships WHERE type = ? AND source_id = ? ORDER BY rowid`,
		string(t), sourceID,
	)
}

// EntityProvenance joins an entity with its generator, consumers,
// derivations and attributed agents.
func (s *Store) EntityProvenance(id string) (*models.EntityProvenance, error) {
	entity, err := s.GetEntity(id)
	if err != nil {
		return nil, err
	}
	out := &models.EntityProvenance{
		Entity:          *entity,
		UsedBy:          []models.ActivityRef{},
		DerivedFrom:     []models.EntityRef{},
		DerivedEntities: []models.EntityRef{},
		AttributedTo:    []models.AgentRef{},
	}

	var role string
	gen, err := scanActivity(s.db.QueryRow(
		`SELECT `+activityColumns+`, r.role FROM relationships r
		 JOIN activities a ON a.id = r.source_id
		 WHERE r.type = 'was_generated_by' AND r.target_id = ?
		 ORDER BY r.rowid LIMIT 1`, id), &role)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("query generator: %w", err)
	default:
		out.GeneratedBy = models.GeneratedBy{Activity: &gen, Role: role}
	}

	rows, err := s.db.Query(
		`SELECT `+activityColumns+`, r.role, r.time FROM relationships r
		 JOIN activities a ON a.id = r.source_id
		 WHERE r.type = 'used' AND r.target_id = ?
		 ORDER BY r.rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("query consumers: %w", err)
	}
	for rows.Next() {
		var ref models.ActivityRef
		ref.Activity, err = scanActivity(rows, &ref.Role, &ref.Time)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan consumer: %w", err)
		}
		out.UsedBy = append(out.UsedBy, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if out.DerivedFrom, err = s.entityRefs(
		`SELECT `+entityColumns+`, r.role, r.time FROM relationships r
		 JOIN entities e ON e.id = r.source_id
		 WHERE r.type = 'was_derived_from' AND r.target_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.DerivedEntities, err = s.entityRefs(
		`SELECT `+entityColumns+`, r.role, r.time FROM relationships r
		 JOIN entities e ON e.id = r.target_id
		 WHERE r.type = 'was_derived_from' AND r.source_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.AttributedTo, err = s.agentRefs(
		`SELECT `+agentColumns+`, r.role FROM relationships r
		 JOIN agents g ON g.id = r.target_id
		 WHERE r.type = 'was_attributed_to' AND r.source_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}

	return out, nil
}

// ActivityProvenance joins an activity with its inputs, outputs, upstream
// and downstream activities, associated agents and configurations.
func (s *Store) ActivityProvenance(id string) (*models.ActivityProvenance, error) {
	activity, err := s.GetActivity(id)
	if err != nil {
		return nil, err
	}
	out := &models.ActivityProvenance{Activity: *activity}

	if out.Inputs, err = s.entityRefs(
		`SELECT `+entityColumns+`, r.role, r.time FROM relationships r
		 JOIN entities e ON e.id = r.target_id
		 WHERE r.type = 'used' AND r.source_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.Outputs, err = s.entityRefs(
		`SELECT `+entityColumns+`, r.role, '' FROM relationships r
		 JOIN entities e ON e.id = r.target_id
		 WHERE r.type = 'was_generated_by' AND r.source_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.Dependencies, err = s.queryActivities(
		`SELECT `+activityColumns+` FROM relationships r
		 JOIN activities a ON a.id = r.source_id
		 WHERE r.type = 'was_informed_by' AND r.target_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.Dependents, err = s.queryActivities(
		`SELECT `+activityColumns+` FROM relationships r
		 JOIN activities a ON a.id = r.target_id
		 WHERE r.type = 'was_informed_by' AND r.source_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.AssociatedAgents, err = s.agentRefs(
		`SELECT `+agentColumns+`, r.role FROM relationships r
		 JOIN agents g ON g.id = r.target_id
		 WHERE r.type = 'was_associated_with' AND r.source_id = ?
		 ORDER BY r.rowid`, id); err != nil {
		return nil, err
	}
	if out.Configurations, err = s.configurations(id); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Store) queryEntities(query string, args ...any) ([]models.Entity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	entities := []models.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *Store) queryActivities(query string, args ...any) ([]models.Activity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) queryAgents(query string, args ...any) ([]models.Agent, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		g, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, g)
	}
	return agents, rows.Err()
}

func (s *Store) entityRefs(query string, args ...any) ([]models.EntityRef, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entity refs: %w", err)
	}
	defer rows.Close()

	refs := []models.EntityRef{}
	for rows.Next() {
		var ref models.EntityRef
		ref.Entity, err = scanEntity(rows, &ref.Role, &ref.Time)
		if err != nil {
			return nil, fmt.Errorf("scan entity ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) agentRefs(query string, args ...any) ([]models.AgentRef, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agent refs: %w", err)
	}
	defer rows.Close()

	refs := []models.AgentRef{}
	for rows.Next() {
		var ref models.AgentRef
		ref.Agent, err = scanAgent(rows, &ref.Role)
		if err != nil {
			return nil, fmt.Errorf("scan agent ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) configurations(activityID string) ([]models.Configuration, error) {
	rows, err := s.db.Query(
		`SELECT id, activity_id, kind, name, value, location FROM configurations WHERE activity_id = ? ORDER BY rowid`,
		activityID,
	)
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}
	defer rows.Close()

	configs := []models.Configuration{}
	for rows.Next() {
		var c models.Configuration
		if err := rows.Scan(&c.ID, &c.ActivityID, &c.Type, &c.Name, &c.Value, &c.Location); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

func queryRelationships(q queryer, query string, args ...any) ([]models.Relationship, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()

	rels := []models.Relationship{}
	for rows.Next() {
		var r models.Relationship
		var t string
		if err := rows.Scan(&r.ID, &t, &r.Source, &r.Target, &r.Role, &r.Time); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.Type = models.RelationType(t)
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
