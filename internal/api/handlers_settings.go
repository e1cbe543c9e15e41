package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGetQuadrantSettings(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, s.settings.Quadrant())
}

func (s *Server) handlePutQuadrantSettings(w http.ResponseWriter, r *http.Request) {
	// Decode over the current values so partial documents only change the
	// fields they name.
	q := s.settings.Quadrant()
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetQuadrant(q); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	JSONResponse(w, q)
}

func (s *Server) handleGetAppSettings(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, s.settings.App())
}

func (s *Server) handlePutAppSettings(w http.ResponseWriter, r *http.Request) {
	a := s.settings.App()
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetApp(a); err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, a)
}
