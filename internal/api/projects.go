package api

import (
	"net/http"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	proj, err := s.store.CreateProject(req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Infow("Project created", "id", proj.ID, "name", proj.Name)
	writeData(w, http.StatusCreated, proj)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.store.GetProject(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, proj)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.URL.Query().Get("project_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.store.GetTemplate(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tmpl)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in storage.TemplateInput
	if !s.decode(w, r, &in) {
		return
	}
	tmpl, err := s.store.CreateTemplate(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, tmpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var in storage.TemplateInput
	if !s.decode(w, r, &in) {
		return
	}
	tmpl, err := s.store.UpdateTemplate(r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, tmpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTemplate(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "workflow template deleted"})
}

func (s *Server) handleRunTemplate(w http.ResponseWriter, r *http.Request) {
	wf, err := s.store.RunTemplate(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Infow("Workflow started", "id", wf.ID, "name", wf.Name, "template", wf.TemplateID)
	writeData(w, http.StatusCreated, wf)
}
