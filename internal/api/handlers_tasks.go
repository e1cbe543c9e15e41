package api

import (
	"encoding/json"
	"net/http"

	"github.com/quadjournal/quad/internal/reminder"
	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

// taskResponse annotates a task with its owning quadrant.
type taskResponse struct {
	*task.Task
	Quadrant task.Quadrant `json:"quadrant"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("quadrant"); q != "" {
		quadrant := task.Quadrant(q)
		if !task.IsValidQuadrant(quadrant) {
			JSONError(w, "invalid quadrant: "+q, http.StatusBadRequest)
			return
		}
		list := s.store.Tasks(quadrant)
		if method := r.URL.Query().Get("sort"); method != "" {
			if !store.IsValidSortMethod(store.SortMethod(method)) {
				JSONError(w, "invalid sort method: "+method, http.StatusBadRequest)
				return
			}
			store.SortTasks(list, store.SortMethod(method))
		}
		JSONResponse(w, list)
		return
	}
	JSONResponse(w, s.store.AllTasksFlat())
}

type createTaskRequest struct {
	Quadrant       task.Quadrant `json:"quadrant"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Deadline       string        `json:"deadline"`
	AlertThreshold *int          `json:"alertThreshold"`
	Priority       task.Priority `json:"priority"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	threshold := task.DefaultAlertDays
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}
	t, err := s.store.AddTask(req.Quadrant, req.Title, req.Description, req.Deadline, threshold, req.Priority)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, taskResponse{Task: t, Quadrant: req.Quadrant}, http.StatusCreated)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, q, ok := s.store.FindTask(r.PathValue("id"))
	if !ok {
		JSONError(w, "task not found", http.StatusNotFound)
		return
	}
	JSONResponse(w, taskResponse{Task: t, Quadrant: q})
}

type updateTaskRequest struct {
	Title          *string        `json:"title"`
	Description    *string        `json:"description"`
	Deadline       *string        `json:"deadline"`
	AlertThreshold *int           `json:"alertThreshold"`
	Priority       *task.Priority `json:"priority"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, q, ok := s.store.FindTask(id)
	if !ok {
		JSONError(w, "task not found", http.StatusNotFound)
		return
	}

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	t, schedulingChanged, err := s.store.UpdateTask(q, id, store.TaskUpdate{
		Title:          req.Title,
		Description:    req.Description,
		Deadline:       req.Deadline,
		AlertThreshold: req.AlertThreshold,
		Priority:       req.Priority,
	})
	if err != nil {
		HandleError(w, err)
		return
	}
	if schedulingChanged {
		// The edited task re-enters the alert cycle.
		s.engine.ClearAlertMemory(id)
	}
	JSONResponse(w, taskResponse{Task: t, Quadrant: q})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, q, ok := s.store.FindTask(id)
	if !ok {
		JSONError(w, "task not found", http.StatusNotFound)
		return
	}
	if _, err := s.store.DeleteTask(q, id); err != nil {
		HandleError(w, err)
		return
	}
	s.engine.ClearAlertMemory(id)
	NoContent(w)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, q, ok := s.store.FindTask(id)
	if !ok {
		JSONError(w, "task not found", http.StatusNotFound)
		return
	}
	t, err := s.store.ToggleCompleted(q, id)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, taskResponse{Task: t, Quadrant: q})
}

type moveTaskRequest struct {
	To task.Quadrant `json:"to"`
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, from, ok := s.store.FindTask(id)
	if !ok {
		JSONError(w, "task not found", http.StatusNotFound)
		return
	}

	var req moveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !task.IsValidQuadrant(req.To) {
		JSONError(w, "invalid quadrant: "+string(req.To), http.StatusBadRequest)
		return
	}

	moved, err := s.store.MoveTask(from, req.To, id)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, map[string]any{"moved": moved, "from": from, "to": req.To})
}

func (s *Server) handleCleanCompleted(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.CleanCompleted()
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, map[string]any{"removed": removed})
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	counts := reminder.EvaluateAll(s.store.AllTasksFlat(), s.now())
	JSONResponse(w, counts)
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	target := reminder.SelectNextCountdownTarget(s.store.AllTasksFlat(), now)
	if target == nil {
		JSONResponse(w, map[string]any{"target": nil})
		return
	}
	JSONResponse(w, map[string]any{
		"target": target,
		"label":  target.Label(now),
	})
}

func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	batch := s.engine.CheckNow(s.store.AllTasksFlat(), s.now())
	JSONResponse(w, map[string]any{"notified": batch})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var payload store.ImportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := s.store.ApplyImport(payload)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Export()
	if err != nil {
		HandleError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="quadrant-tasks.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListBackups()
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, map[string]any{"backups": keys})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	backupKey, err := s.store.Reset()
	if err != nil {
		HandleError(w, err)
		return
	}
	s.engine.ClearAllAlertMemory()
	JSONResponse(w, map[string]any{"backup": backupKey})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Restore(r.PathValue("key")); err != nil {
		HandleError(w, err)
		return
	}
	s.engine.ClearAllAlertMemory()
	NoContent(w)
}
