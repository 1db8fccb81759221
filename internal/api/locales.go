package api

import (
	"fmt"
	"net/http"
)

type localesResponse struct {
	Default   string   `json:"default"`
	Fallback  string   `json:"fallback"`
	Locales   []string `json:"locales"`
	Preferred string   `json:"preferred"`
}

func (s *Server) handleLocales(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, localesResponse{
		Default:   s.locales.Default(),
		Fallback:  s.locales.Fallback(),
		Locales:   s.locales.Locales(),
		Preferred: s.locales.Match(r.Header.Get("Accept-Language")),
	})
}

func (s *Server) handleLocaleMessages(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	messages, ok := s.locales.Messages(lang)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorEnvelope(fmt.Sprintf("locale %q not found", lang)))
		return
	}
	writeData(w, http.StatusOK, messages)
}
