package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

const analyzeSystemPrompt = `You are a task triage assistant. Classify the
action items found in the user's journal text into the four Eisenhower
quadrants and reply with ONLY a JSON object of this shape:

{
  "quadrants": {
    "urgent-important": [{"title": "...", "description": "...", "deadline": "YYYY-MM-DD", "priority": "high"}],
    "important-not-urgent": [],
    "urgent-not-important": [],
    "not-urgent-not-important": []
  }
}

Omit deadline when the text names none. Priority is one of high, medium,
low. Do not add commentary outside the JSON object.`

// AnalyzeTasks asks the model to classify free-form journal text into
// quadrant tasks and parses the reply into an import payload. The model's
// reply may wrap the JSON in prose or a code fence; anything outside the
// outermost object is discarded.
func (c *Client) AnalyzeTasks(ctx context.Context, text string) (store.ImportPayload, error) {
	var payload store.ImportPayload

	reply, err := c.Chat(ctx, analyzeSystemPrompt, text)
	if err != nil {
		return payload, fmt.Errorf("analyze tasks: %w", err)
	}

	raw, ok := extractJSONObject(reply)
	if !ok {
		return payload, fmt.Errorf("analyze tasks: no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, fmt.Errorf("analyze tasks: parse reply: %w", err)
	}

	// Drop proposals the store would reject anyway so callers can report
	// a clean preview.
	for q, list := range payload.Quadrants {
		if !task.IsValidQuadrant(q) {
			delete(payload.Quadrants, q)
			continue
		}
		kept := list[:0]
		for _, it := range list {
			if strings.TrimSpace(it.Title) != "" {
				kept = append(kept, it)
			}
		}
		payload.Quadrants[q] = kept
	}
	return payload, nil
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
