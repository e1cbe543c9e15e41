package api

import (
	"encoding/json"
	"net/http"

	"github.com/quadjournal/quad/internal/journal"
)

type entryRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, s.journal.List())
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var title, content string
	var tags []string
	if req.Title != nil {
		title = *req.Title
	}
	if req.Content != nil {
		content = *req.Content
	}
	if req.Tags != nil {
		tags = *req.Tags
	}

	e, err := s.journal.Add(title, content, tags)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, e, http.StatusCreated)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.journal.Get(r.PathValue("id"))
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	e, err := s.journal.Update(r.PathValue("id"), journal.EntryUpdate{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ok, err := s.journal.Delete(r.PathValue("id"))
	if err != nil {
		HandleError(w, err)
		return
	}
	if !ok {
		JSONError(w, "entry not found", http.StatusNotFound)
		return
	}
	NoContent(w)
}
