package session

import (
	"fmt"
	"sync"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

// Projects is the project lookup a session needs.
type Projects interface {
	GetProjectByName(name string) (*models.Project, error)
}

// Session holds the current project context for an MCP session. Workflow
// template tools operate on the current project.
type Session struct {
	mu                 sync.Mutex
	currentProjectID   string
	currentProjectName string
}

// New creates a new empty session with no active project.
func New() *Session {
	return &Session{}
}

// SwitchProject makes the named project current. Archived projects must be
// restored first.
func (s *Session) SwitchProject(projects Projects, name string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proj, err := projects.GetProjectByName(name)
	if err != nil {
		return nil, err
	}
	if proj.Status == "archived" {
		return nil, fmt.Errorf("%w: project %q is archived, restore it first", storage.ErrInvalid, name)
	}

	s.currentProjectID = proj.ID
	s.currentProjectName = proj.Name
	return proj, nil
}

// GetCurrent returns info about the current project, or ok=false if none is active.
func (s *Session) GetCurrent() (id, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProjectID == "" {
		return "", "", false
	}
	return s.currentProjectID, s.currentProjectName, true
}

// Clear resets session state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentProjectID = ""
	s.currentProjectName = ""
}
