package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewEntity is the input for CreateEntity. A blank ID is generated.
type NewEntity struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Location        string `json:"location,omitempty"`
	GeneratedAtTime string `json:"generated_at_time,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

// NewActivity is the input for CreateActivity. A blank ID is generated.
type NewActivity struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// NewAgent is the input for CreateAgent. AgentType defaults to "person".
type NewAgent struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	AgentType   string `json:"agent_type,omitempty"`
	Role        string `json:"role,omitempty"`
	Email       string `json:"email,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
}

// NewRelationship is the input for CreateRelationship.
type NewRelationship struct {
	ID     string              `json:"id,omitempty"`
	Type   models.RelationType `json:"type"`
	Source string              `json:"source"`
	Target string              `json:"target"`
	Role   string              `json:"role,omitempty"`
	Time   string              `json:"time,omitempty"`
}

var agentTypes = map[string]bool{"person": true, "organization": true, "software": true}

// CreateEntity inserts a new entity.
func (s *Store) CreateEntity(in NewEntity) (*models.Entity, error) {
	generated, err := normalizeTime("generated_at_time", in.GeneratedAtTime)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	e, err := insertEntity(tx, NewEntity{
		ID:              in.ID,
		Name:            strings.TrimSpace(in.Name),
		Location:        in.Location,
		GeneratedAtTime: generated,
		Comment:         in.Comment,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

// CreateActivity inserts a new activity. Times are optional.
func (s *Store) CreateActivity(in NewActivity) (*models.Activity, error) {
	start, err := normalizeTime("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := normalizeTime("end_time", in.EndTime)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	a, err := insertActivity(tx, NewActivity{
		ID:        in.ID,
		Name:      strings.TrimSpace(in.Name),
		StartTime: start,
		EndTime:   end,
		Comment:   in.Comment,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// CreateAgent inserts a new agent.
func (s *Store) CreateAgent(in NewAgent) (*models.Agent, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: agent name is required", ErrInvalid)
	}
	agentType := in.AgentType
	if agentType == "" {
		agentType = "person"
	}
	if !agentTypes[agentType] {
		return nil, fmt.Errorf("%w: agent_type %q must be person, organization or software", ErrInvalid, agentType)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := newID(in.ID)
	if err := requireAbsent(tx, models.KindAgent, id); err != nil {
		return nil, err
	}
	_, err = tx.Exec(
		`INSERT INTO agents (id, name, agent_type, role, email, affiliation) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, agentType, in.Role, in.Email, in.Affiliation,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agent %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &models.Agent{
		ID:          id,
		Name:        name,
		Type:        models.KindAgent,
		AgentType:   agentType,
		Role:        in.Role,
		Email:       in.Email,
		Affiliation: in.Affiliation,
	}, nil
}

// CreateRelationship inserts a typed edge after checking that both endpoints
// exist and are of the kind the relation type requires.
func (s *Store) CreateRelationship(in NewRelationship) (*models.Relationship, error) {
	when, err := normalizeTime("time", in.Time)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	in.Time = when
	rel, err := insertRelationship(tx, in)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rel, nil
}

// AddConfiguration records a parameter or config file used by an activity.
func (s *Store) AddConfiguration(activityID string, c models.Configuration) (*models.Configuration, error) {
	if c.Type != models.ConfigParameter && c.Type != models.ConfigFile {
		return nil, fmt.Errorf("%w: configuration type %q must be parameter or config_file", ErrInvalid, c.Type)
	}
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: configuration name is required", ErrInvalid)
	}
	ok, err := exists(s.db, models.KindActivity, activityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("activity %q: %w", activityID, ErrNotFound)
	}

	c.ID = newID(c.ID)
	c.ActivityID = activityID
	_, err = s.db.Exec(
		`INSERT INTO configurations (id, activity_id, kind, name, value, location) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, activityID, c.Type, c.Name, c.Value, c.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("insert configuration: %w", err)
	}
	return &c, nil
}

func insertEntity(q queryer, in NewEntity) (*models.Entity, error) {
	id := newID(in.ID)
	if err := requireAbsent(q, models.KindEntity, id); err != nil {
		return nil, err
	}
	_, err := q.Exec(
		`INSERT INTO entities (id, name, location, generated_at_time, comment) VALUES (?, ?, ?, ?, ?)`,
		id, in.Name, in.Location, in.GeneratedAtTime, in.Comment,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entity %q: %w", in.Name, err)
	}
	return &models.Entity{
		ID:              id,
		Name:            in.Name,
		Type:            models.KindEntity,
		Location:        in.Location,
		GeneratedAtTime: in.GeneratedAtTime,
		Comment:         in.Comment,
	}, nil
}

func insertActivity(q queryer, in NewActivity) (*models.Activity, error) {
	id := newID(in.ID)
	if err := requireAbsent(q, models.KindActivity, id); err != nil {
		return nil, err
	}
	_, err := q.Exec(
		`INSERT INTO activities (id, name, start_time, end_time, comment) VALUES (?, ?, ?, ?, ?)`,
		id, in.Name, in.StartTime, in.EndTime, in.Comment,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity %q: %w", in.Name, err)
	}
	return &models.Activity{
		ID:        id,
		Name:      in.Name,
		Type:      models.KindActivity,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Comment:   in.Comment,
	}, nil
}

// insertRelationship validates and inserts an edge. Time must already be
// normalized.
func insertRelationship(q queryer, in NewRelationship) (*models.Relationship, error) {
	sourceKind, targetKind, ok := in.Type.Endpoints()
	if !ok {
		return nil, fmt.Errorf("%w: unknown relationship type %q", ErrInvalid, in.Type)
	}
	if err := requirePresent(q, sourceKind, in.Source); err != nil {
		return nil, fmt.Errorf("%s source: %w", in.Type, err)
	}
	if err := requirePresent(q, targetKind, in.Target); err != nil {
		return nil, fmt.Errorf("%s target: %w", in.Type, err)
	}

	var taken int
	if in.ID != "" {
		if err := q.QueryRow(`SELECT COUNT(*) FROM relationships WHERE id = ?`, in.ID).Scan(&taken); err != nil {
			return nil, fmt.Errorf("lookup relationship: %w", err)
		}
		if taken > 0 {
			return nil, fmt.Errorf("%w: relationship %q already exists", ErrInvalid, in.ID)
		}
	}

	id := newID(in.ID)
	_, err := q.Exec(
		`INSERT INTO relationships (id, type, source_id, target_id, role, time) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(in.Type), in.Source, in.Target, in.Role, in.Time,
	)
	if err != nil {
		return nil, fmt.Errorf("insert relationship: %w", err)
	}
	return &models.Relationship{
		ID:     id,
		Type:   in.Type,
		Source: in.Source,
		Target: in.Target,
		Role:   in.Role,
		Time:   in.Time,
	}, nil
}

var kindTables = map[string]string{
	models.KindEntity:   "entities",
	models.KindActivity: "activities",
	models.KindAgent:    "agents",
}

func exists(q queryer, kind, id string) (bool, error) {
	table, ok := kindTables[kind]
	if !ok {
		return false, fmt.Errorf("%w: unknown node kind %q", ErrInvalid, kind)
	}
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup %s %q: %w", kind, id, err)
	}
	return n > 0, nil
}

func requirePresent(q queryer, kind, id string) error {
	ok, err := exists(q, kind, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %q does not exist", ErrInvalid, kind, id)
	}
	return nil
}

func requireAbsent(q queryer, kind, id string) error {
	ok, err := exists(q, kind, id)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s %q already exists", ErrInvalid, kind, id)
	}
	return nil
}
