package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadjournal/quad/internal/settings"
	"github.com/quadjournal/quad/internal/task"
)

func TestConfigFromApp(t *testing.T) {
	a := settings.DefaultApp()
	cfg := ConfigFromApp(a)
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.URL)
	assert.Equal(t, "llama2", cfg.Model)

	a.AIProvider = "openai"
	a.OpenAIKey = "sk-test"
	cfg = ConfigFromApp(a)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.APIKey)

	// Custom falls back to the openai fields when blank.
	a.AIProvider = "custom"
	cfg = ConfigFromApp(a)
	assert.Equal(t, ProviderCustom, cfg.Provider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.URL)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Model)

	// Unknown providers fall back to ollama.
	a.AIProvider = "whatever"
	assert.Equal(t, ProviderOllama, ConfigFromApp(a).Provider)
}

func TestChat_Ollama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama2", body["model"])
		assert.Equal(t, false, body["stream"])

		json.NewEncoder(w).Encode(map[string]any{"response": "pong"})
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOllama, URL: srv.URL, Model: "llama2"}, nil)
	reply, err := c.Chat(context.Background(), "system", "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
}

func TestChat_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello back"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOpenAI, URL: srv.URL, APIKey: "sk-test", Model: "gpt-3.5-turbo"}, nil)
	reply, err := c.Chat(context.Background(), "system", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello back", reply)
}

func TestChat_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOpenAI, URL: srv.URL, Model: "m"}, nil)
	_, err := c.Chat(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestChatStream_OllamaNDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		lines := []string{
			`{"message":{"content":"Hel"},"done":false}`,
			`not json at all`,
			`{"message":{"content":"lo"},"done":false}`,
			`{"done":true}`,
		}
		for _, l := range lines {
			w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOllama, URL: srv.URL, Model: "llama2"}, nil)
	var got strings.Builder
	err := c.ChatStream(context.Background(), "s", "u", func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.String())
}

func TestChatStream_OpenAISSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []string{
			`data: {"choices":[{"delta":{"content":"a"}}]}`,
			``,
			`data: {"choices":[{"delta":{"content":"b"}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"never"}}]}`,
		}
		for _, l := range lines {
			w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOpenAI, URL: srv.URL, Model: "m"}, nil)
	var got strings.Builder
	err := c.ChatStream(context.Background(), "s", "u", func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", got.String())
}

func TestChatStream_CallbackErrorAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			w.Write([]byte(`{"message":{"content":"x"}}` + "\n"))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOllama, URL: srv.URL, Model: "m"}, nil)
	calls := 0
	err := c.ChatStream(context.Background(), "s", "u", func(string) error {
		calls++
		return context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestAnalyzeTasks(t *testing.T) {
	reply := "Here is the triage:\n```json\n" + `{
  "quadrants": {
    "urgent-important": [
      {"title": "file taxes", "deadline": "2026-09-01", "priority": "high"},
      {"title": "   ", "description": "blank title dropped"}
    ],
    "someday-maybe": [{"title": "invalid quadrant dropped"}]
  }
}` + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": reply})
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOllama, URL: srv.URL, Model: "llama2"}, nil)
	payload, err := c.AnalyzeTasks(context.Background(), "I must file taxes by Sept 1")
	require.NoError(t, err)

	require.Contains(t, payload.Quadrants, task.QuadrantUrgentImportant)
	list := payload.Quadrants[task.QuadrantUrgentImportant]
	require.Len(t, list, 1)
	assert.Equal(t, "file taxes", list[0].Title)
	assert.Equal(t, "2026-09-01", list[0].Deadline)
	assert.Equal(t, task.PriorityHigh, list[0].Priority)
	assert.NotContains(t, payload.Quadrants, task.Quadrant("someday-maybe"))
}

func TestAnalyzeTasks_NoJSONInReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": "sorry, I cannot help with that"})
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOllama, URL: srv.URL, Model: "llama2"}, nil)
	_, err := c.AnalyzeTasks(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}
