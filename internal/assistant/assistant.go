// Package assistant talks to an LLM backend over HTTP. Ollama speaks its
// native generate/chat API; openai and custom providers speak the
// OpenAI-compatible chat completions API.
package assistant

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/quadjournal/quad/internal/settings"
)

// Provider identifies the backing AI service.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderCustom Provider = "custom"
)

// IsValidProvider checks if the given provider is valid.
func IsValidProvider(p Provider) bool {
	switch p {
	case ProviderOllama, ProviderOpenAI, ProviderCustom:
		return true
	}
	return false
}

// Config holds the resolved connection details for one provider.
type Config struct {
	Provider Provider
	URL      string
	APIKey   string
	Model    string
}

// ConfigFromApp resolves a Config from the app settings. Custom provider
// fields fall back to the openai fields when blank; an unknown provider
// falls back to ollama.
func ConfigFromApp(a settings.App) Config {
	switch Provider(a.AIProvider) {
	case ProviderOpenAI:
		return Config{Provider: ProviderOpenAI, URL: a.OpenAIURL, APIKey: a.OpenAIKey, Model: a.OpenAIModel}
	case ProviderCustom:
		cfg := Config{Provider: ProviderCustom, URL: a.CustomURL, APIKey: a.CustomKey, Model: a.CustomModel}
		if cfg.URL == "" {
			cfg.URL = a.OpenAIURL
		}
		if cfg.APIKey == "" {
			cfg.APIKey = a.OpenAIKey
		}
		if cfg.Model == "" {
			cfg.Model = a.OpenAIModel
		}
		return cfg
	default:
		return Config{Provider: ProviderOllama, URL: a.OllamaURL, Model: a.OllamaModel}
	}
}

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client issues chat requests against one resolved provider config.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the given config.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 5 * time.Minute},
		logger: logger,
	}
}

// Chat sends a system prompt and user message and returns the full reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	if c.cfg.Provider == ProviderOllama {
		return c.ollamaGenerate(ctx, system, user)
	}
	return c.openaiChat(ctx, system, user)
}

func (c *Client) ollamaGenerate(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model":  c.cfg.Model,
		"prompt": system + "\n\n" + user,
		"stream": false,
	}
	resp, err := c.post(ctx, c.cfg.URL+"/api/generate", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	return gjson.GetBytes(data, "response").String(), nil
}

func (c *Client) openaiChat(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		"temperature": 0.7,
		"max_tokens":  2000,
	}
	resp, err := c.post(ctx, c.cfg.URL+"/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	return gjson.GetBytes(data, "choices.0.message.content").String(), nil
}

// ChatStream sends a chat request with streaming enabled and invokes fn
// with each content delta as it arrives. Malformed chunks are skipped.
// Returning an error from fn aborts the stream.
func (c *Client) ChatStream(ctx context.Context, system, user string, fn func(chunk string) error) error {
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}

	var url string
	body := map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
		"stream":   true,
	}
	if c.cfg.Provider == ProviderOllama {
		url = c.cfg.URL + "/api/chat"
	} else {
		url = c.cfg.URL + "/chat/completions"
	}

	resp, err := c.post(ctx, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk string
		if c.cfg.Provider == ProviderOllama {
			// NDJSON: one JSON object per line.
			chunk = gjson.Get(line, "message.content").String()
		} else {
			// SSE: content lines are prefixed "data: ".
			data, ok := strings.CutPrefix(line, "data: ")
			if !ok {
				continue
			}
			if data == "[DONE]" {
				break
			}
			chunk = gjson.Get(data, "choices.0.delta.content").String()
		}
		if chunk == "" {
			continue
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Provider != ProviderOllama && c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.cfg.Provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s request failed: status %d", c.cfg.Provider, resp.StatusCode)
	}
	return resp, nil
}
