// Package suno wraps the external music generation provider. The client
// is a fail-fast I/O adapter: one bounded-timeout HTTP call per method,
// no retries. Retry policy belongs to the caller (the sweep simply
// leaves unresolved tasks in_progress for the next pass).
package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MsgAllGenerated is the provider's sentinel for a fully finished task.
const MsgAllGenerated = "All generated successfully."

// TransportError means the HTTP call itself failed (unreachable host,
// timeout, malformed response body).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("suno: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx application-level rejection from the provider.
// It carries the structured payload instead of being collapsed into a
// transport failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("suno: api error: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL     string
	token       string
	callbackURL string
	httpc       *http.Client
}

func NewClient(baseURL, token, callbackURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		token:       token,
		callbackURL: callbackURL,
		httpc:       &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Prompt       string `json:"prompt"`
	Title        string `json:"title"`
	Custom       bool   `json:"custom"`
	Instrumental bool   `json:"instrumental"`
	Style        string `json:"style"`
	CallbackURL  string `json:"callback_url"`
}

type GenerateResponse struct {
	TaskID string `json:"task_id"`
}

type TrackVariant struct {
	Title    string `json:"title"`
	AudioURL string `json:"audio_url"`
	ImageURL string `json:"image_url"`
}

type OutputData struct {
	Msg  string         `json:"msg"`
	Data []TrackVariant `json:"data"`
}

type TaskStatus struct {
	OutputData OutputData `json:"output_data"`
}

// Succeeded reports whether the provider marked the task fully done.
func (t *TaskStatus) Succeeded() bool {
	return t.OutputData.Msg == MsgAllGenerated
}

// Generate submits a new instrumental generation job and returns the
// provider task id. The prompt comes from the genre catalog; style is
// the genre name. The callback URL is supplied because the API requires
// it, but completion is observed by polling, not by webhook.
func (c *Client) Generate(ctx context.Context, prompt, style string) (*GenerateResponse, error) {
	payload := generateRequest{
		Prompt:       prompt,
		Title:        "My Song",
		Custom:       true,
		Instrumental: true,
		Style:        style,
		CallbackURL:  c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("suno: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/music/suno/generate2", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("suno: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out GenerateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.TaskID == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Body: string(respBody)}
	}
	return &out, nil
}

// FetchTask polls the status of a previously submitted task. Idempotent
// and side-effect free.
func (c *Client) FetchTask(ctx context.Context, taskID string) (*TaskStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/music/suno/task?task_id="+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("suno: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out TaskStatus
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
