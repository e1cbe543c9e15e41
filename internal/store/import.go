package store

import (
	"strings"

	"github.com/quadjournal/quad/internal/task"
)

// ImportTask is a proposed task from an external analysis payload.
// Optional fields follow the store's defaulting rules.
type ImportTask struct {
	Title          string        `json:"title"`
	Description    string        `json:"description,omitempty"`
	Deadline       string        `json:"deadline,omitempty"`
	AlertThreshold *int          `json:"alertThreshold,omitempty"`
	Priority       task.Priority `json:"priority,omitempty"`
}

// MoveOp relocates an existing task between quadrants.
type MoveOp struct {
	From   task.Quadrant `json:"from"`
	To     task.Quadrant `json:"to"`
	TaskID string        `json:"taskId"`
}

// TaskPatch is a partial edit addressed by task id. Nil fields are left
// unchanged.
type TaskPatch struct {
	ID             string         `json:"id"`
	Title          *string        `json:"title,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Deadline       *string        `json:"deadline,omitempty"`
	AlertThreshold *int           `json:"alertThreshold,omitempty"`
	Priority       *task.Priority `json:"priority,omitempty"`
}

// Delta is an incremental import: add, remove, move, then update, in that
// order.
type Delta struct {
	Add    map[task.Quadrant][]ImportTask `json:"add,omitempty"`
	Remove map[task.Quadrant][]string     `json:"remove,omitempty"`
	Move   []MoveOp                       `json:"move,omitempty"`
	Update map[task.Quadrant][]TaskPatch  `json:"update,omitempty"`
}

// ImportPayload is a bulk import submitted by the AI analysis collaborator.
// Quadrants appends proposed tasks per quadrant; Delta applies incremental
// operations. Unknown quadrant keys are skipped, not errors.
type ImportPayload struct {
	Quadrants map[task.Quadrant][]ImportTask `json:"quadrants,omitempty"`
	Delta     *Delta                         `json:"delta,omitempty"`
}

// ImportResult summarizes what an import changed.
type ImportResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Moved   int `json:"moved"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ApplyImport ingests an analysis payload. AddTask is the sole ingestion
// point: imported records get fresh ids and store-side defaulting, never
// the payload's own. Individual bad entries are skipped; the rest proceed.
func (s *Store) ApplyImport(p ImportPayload) (ImportResult, error) {
	var res ImportResult

	for q, list := range p.Quadrants {
		if !task.IsValidQuadrant(q) {
			res.Skipped += len(list)
			continue
		}
		for _, it := range list {
			if err := s.importOne(q, it, &res); err != nil {
				return res, err
			}
		}
	}

	if p.Delta == nil {
		return res, nil
	}

	for q, list := range p.Delta.Add {
		if !task.IsValidQuadrant(q) {
			res.Skipped += len(list)
			continue
		}
		for _, it := range list {
			if err := s.importOne(q, it, &res); err != nil {
				return res, err
			}
		}
	}

	for q, ids := range p.Delta.Remove {
		for _, id := range ids {
			removed, err := s.DeleteTask(q, id)
			if err != nil {
				return res, err
			}
			if removed {
				res.Removed++
			} else {
				res.Skipped++
			}
		}
	}

	for _, mv := range p.Delta.Move {
		moved, err := s.MoveTask(mv.From, mv.To, mv.TaskID)
		if err != nil {
			return res, err
		}
		if moved {
			res.Moved++
		} else {
			res.Skipped++
		}
	}

	for q, patches := range p.Delta.Update {
		for _, patch := range patches {
			t, _, err := s.UpdateTask(q, patch.ID, TaskUpdate{
				Title:          patch.Title,
				Description:    patch.Description,
				Deadline:       patch.Deadline,
				AlertThreshold: patch.AlertThreshold,
				Priority:       patch.Priority,
			})
			if err != nil {
				return res, err
			}
			if t != nil {
				res.Updated++
			} else {
				res.Skipped++
			}
		}
	}

	return res, nil
}

func (s *Store) importOne(q task.Quadrant, it ImportTask, res *ImportResult) error {
	if strings.TrimSpace(it.Title) == "" {
		res.Skipped++
		return nil
	}
	threshold := task.DefaultAlertDays
	if it.AlertThreshold != nil && *it.AlertThreshold >= 0 {
		threshold = *it.AlertThreshold
	}
	priority := it.Priority
	if !task.IsValidPriority(priority) {
		priority = task.PriorityMedium
	}
	if _, err := s.AddTask(q, it.Title, it.Description, it.Deadline, threshold, priority); err != nil {
		return err
	}
	res.Added++
	return nil
}
