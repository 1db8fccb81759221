package api

import (
	"net/http"
	"strings"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.store.Graph()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, graph)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	prov, err := s.store.EntityProvenance(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, prov)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	prov, err := s.store.ActivityProvenance(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, prov)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	result, err := s.store.Search(q, r.URL.Query().Get("type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Timeline()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.Timeline{Timeline: events})
}

func (s *Server) handleEntityLineage(w http.ResponseWriter, r *http.Request) {
	graph, err := s.lineage().EntityLineage(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, graph)
}

func (s *Server) handleActivityWorkflow(w http.ResponseWriter, r *http.Request) {
	graph, err := s.lineage().ActivityWorkflow(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, graph)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var in storage.NewEntity
	if !s.decode(w, r, &in) {
		return
	}
	entity, err := s.store.CreateEntity(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, entity)
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var in storage.RecordActivityInput
	if !s.decode(w, r, &in) {
		return
	}
	activity, err := s.store.RecordActivity(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, activity)
}

type completeRequest struct {
	Outputs []string `json:"outputs"`
}

func (s *Server) handleCompleteActivity(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !s.decode(w, r, &req) {
		return
	}
	activity, err := s.store.CompleteActivity(r.PathValue("id"), req.Outputs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, activity)
}

func (s *Server) handleAddConfiguration(w http.ResponseWriter, r *http.Request) {
	var c models.Configuration
	if !s.decode(w, r, &c) {
		return
	}
	config, err := s.store.AddConfiguration(r.PathValue("id"), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, config)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var in storage.NewAgent
	if !s.decode(w, r, &in) {
		return
	}
	agent, err := s.store.CreateAgent(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, agent)
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var in storage.NewRelationship
	if !s.decode(w, r, &in) {
		return
	}
	rel, err := s.store.CreateRelationship(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, rel)
}
