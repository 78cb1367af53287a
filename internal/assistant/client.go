package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mentorbotdev/mentorbot/internal/config"
	"github.com/mentorbotdev/mentorbot/internal/core"
	"github.com/mentorbotdev/mentorbot/pkg/retry"
)

// Client talks to a thread/run assistant API (OpenAI Assistants v2 wire
// format). One thread holds one chat's whole dialogue; a run is a single
// request/response turn against that thread.
type Client struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	assistantID string

	// retrier covers read-only polling calls. Mutating calls are never
	// auto-retried so a turn starts at most one run.
	retrier *retry.Retrier
}

func NewClient(cfg *config.AssistantConfig) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		assistantID: cfg.AssistantID,
		retrier:     retry.NewDefaultRetrier(),
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// CreateThread opens a fresh dialogue thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/v1/threads", struct{}{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	var thread struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &thread); err != nil {
		return "", fmt.Errorf("decode thread: %w", err)
	}
	return thread.ID, nil
}

// AddUserMessage appends a user turn to the thread.
func (c *Client) AddUserMessage(ctx context.Context, threadID, text string) error {
	body := map[string]string{
		"role":    "user",
		"content": text,
	}
	if _, err := c.doRequest(ctx, http.MethodPost, "/v1/threads/"+threadID+"/messages", body); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// StartRun kicks off one run of the assistant over the thread.
func (c *Client) StartRun(ctx context.Context, threadID string) (string, error) {
	body := map[string]string{
		"assistant_id": c.assistantID,
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/v1/threads/"+threadID+"/runs", body)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}

	var run struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &run); err != nil {
		return "", fmt.Errorf("decode run: %w", err)
	}
	return run.ID, nil
}

// RunStatus fetches the current run state.
func (c *Client) RunStatus(ctx context.Context, threadID, runID string) (core.RunStatus, error) {
	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.doRequest(ctx, http.MethodGet, "/v1/threads/"+threadID+"/runs/"+runID, nil)
		return reqErr
	})
	if err != nil {
		return "", fmt.Errorf("poll run: %w", err)
	}

	var run struct {
		Status core.RunStatus `json:"status"`
	}
	if err := json.Unmarshal(data, &run); err != nil {
		return "", fmt.Errorf("decode run status: %w", err)
	}
	return run.Status, nil
}

// LatestAssistantText returns the text of the newest assistant message
// on the thread, or "" when the thread holds no assistant output yet.
func (c *Client) LatestAssistantText(ctx context.Context, threadID string) (string, error) {
	q := url.Values{}
	q.Set("order", "desc")
	q.Set("limit", "1")

	var data []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		data, reqErr = c.doRequest(ctx, http.MethodGet, "/v1/threads/"+threadID+"/messages?"+q.Encode(), nil)
		return reqErr
	})
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	var list struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return "", fmt.Errorf("decode messages: %w", err)
	}

	for _, msg := range list.Data {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Type == "text" {
				return part.Text.Value, nil
			}
		}
	}
	return "", nil
}
