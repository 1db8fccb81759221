package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
)

const (
	projectColumns  = `id, name, description, status, created_at, updated_at`
	templateColumns = `id, name, description, config, project_id, created_at, updated_at`
	workflowColumns = `id, name, status, template_id, project_id, started_at, completed_at, created_at, updated_at`
)

// CreateProject registers a new project. Names are unique.
func (s *Store) CreateProject(name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: project name must be 1-100 characters", ErrInvalid)
	}
	if _, err := s.GetProjectByName(name); err == nil {
		return nil, fmt.Errorf("%w: project %q already exists", ErrInvalid, name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := newID("")
	now := formatTime(s.now())
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, description, status, created_at, updated_at) VALUES (?, ?, ?, 'active', ?, ?)`,
		id, name, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(id)
}

// GetProject looks up a project by id.
func (s *Store) GetProject(id string) (*models.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row, id)
}

// GetProjectByName looks up a project by its unique name.
func (s *Store) GetProjectByName(name string) (*models.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE name = ?`, name)
	return scanProject(row, name)
}

// ListProjects returns projects filtered by status. Use "all" or "" for no filter.
func (s *Store) ListProjects(status string) ([]models.Project, error) {
	var rows *sql.Rows
	var err error

	if status == "all" || status == "" {
		rows, err = s.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY name`)
	} else {
		rows, err = s.db.Query(`SELECT `+projectColumns+` FROM projects WHERE status = ? ORDER BY name`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ArchiveProject marks an active project archived.
func (s *Store) ArchiveProject(id string) (*models.Project, error) {
	return s.setProjectStatus(id, "active", "archived")
}

// RestoreProject returns an archived project to active status.
func (s *Store) RestoreProject(id string) (*models.Project, error) {
	return s.setProjectStatus(id, "archived", "active")
}

func (s *Store) setProjectStatus(id, from, to string) (*models.Project, error) {
	proj, err := s.GetProject(id)
	if err != nil {
		return nil, err
	}
	if proj.Status != from {
		return nil, fmt.Errorf("%w: project %q is %s", ErrInvalid, proj.Name, proj.Status)
	}
	_, err = s.db.Exec(
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		to, formatTime(s.now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project status: %w", err)
	}
	return s.GetProject(id)
}

func scanProject(row *sql.Row, key string) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

// TemplateInput is the writable part of a workflow template.
type TemplateInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	ProjectID   string         `json:"project_id"`
}

func (in TemplateInput) validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return fmt.Errorf("%w: template name must be 1-100 characters", ErrInvalid)
	}
	if in.ProjectID == "" {
		return fmt.Errorf("%w: project_id is required", ErrInvalid)
	}
	return nil
}

// ListTemplates returns workflow templates, restricted to one project when
// projectID is not blank.
func (s *Store) ListTemplates(projectID string) ([]models.WorkflowTemplate, error) {
	var rows *sql.Rows
	var err error
	if projectID == "" {
		rows, err = s.db.Query(`SELECT ` + templateColumns + ` FROM workflow_templates ORDER BY rowid`)
	} else {
		rows, err = s.db.Query(`SELECT `+templateColumns+` FROM workflow_templates WHERE project_id = ? ORDER BY rowid`, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []models.WorkflowTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// GetTemplate looks up a workflow template by id.
func (s *Store) GetTemplate(id string) (*models.WorkflowTemplate, error) {
	t, err := scanTemplate(s.db.QueryRow(`SELECT `+templateColumns+` FROM workflow_templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workflow template %q: %w", id, ErrNotFound)
	}
	return t, err
}

// CreateTemplate stores a new workflow template under an existing project.
func (s *Store) CreateTemplate(in TemplateInput) (*models.WorkflowTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetProject(in.ProjectID); err != nil {
		return nil, err
	}
	config, err := encodeConfig(in.Config)
	if err != nil {
		return nil, err
	}

	id := newID("")
	now := formatTime(s.now())
	_, err = s.db.Exec(
		`INSERT INTO workflow_templates (id, name, description, config, project_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(in.Name), in.Description, config, in.ProjectID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return s.GetTemplate(id)
}

// UpdateTemplate replaces the writable fields of a template.
func (s *Store) UpdateTemplate(id string, in TemplateInput) (*models.WorkflowTemplate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetProject(in.ProjectID); err != nil {
		return nil, err
	}
	config, err := encodeConfig(in.Config)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`UPDATE workflow_templates SET name = ?, description = ?, config = ?, project_id = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(in.Name), in.Description, config, in.ProjectID, formatTime(s.now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("workflow template %q: %w", id, ErrNotFound)
	}
	return s.GetTemplate(id)
}

// DeleteTemplate removes a template and its workflow runs.
func (s *Store) DeleteTemplate(id string) error {
	result, err := s.db.Exec(`DELETE FROM workflow_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("workflow template %q: %w", id, ErrNotFound)
	}
	return nil
}

// RunTemplate creates a pending workflow instance of a template, named
// "<template>_instance_<YYYYMMDD_HHMMSS>".
func (s *Store) RunTemplate(templateID string) (*models.Workflow, error) {
	tmpl, err := s.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}

	id := newID("")
	now := s.now()
	name := tmpl.Name + "_instance_" + now.UTC().Format("20060102_150405")
	_, err = s.db.Exec(
		`INSERT INTO workflows (id, name, status, template_id, project_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, models.WorkflowPending, tmpl.ID, tmpl.ProjectID, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}
	return s.GetWorkflow(id)
}

// GetWorkflow looks up a workflow run by id.
func (s *Store) GetWorkflow(id string) (*models.Workflow, error) {
	var w models.Workflow
	err := s.db.QueryRow(`SELECT `+workflowColumns+` FROM workflows WHERE id = ?`, id).Scan(
		&w.ID, &w.Name, &w.Status, &w.TemplateID, &w.ProjectID, &w.StartedAt, &w.CompletedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workflow %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}
	return &w, nil
}

func scanTemplate(row scanner) (*models.WorkflowTemplate, error) {
	var t models.WorkflowTemplate
	var config string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &config, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	t.Config = decodeConfig(config)
	return &t, nil
}

func encodeConfig(config map[string]any) (string, error) {
	if config == nil {
		return "{}", nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("%w: config is not serializable: %v", ErrInvalid, err)
	}
	return string(data), nil
}

// decodeConfig treats unparseable stored config as empty.
func decodeConfig(raw string) map[string]any {
	config := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &config); err != nil || config == nil {
		return map[string]any{}
	}
	return config
}
