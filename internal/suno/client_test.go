package suno

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSubmitsTask(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/music/suno/generate2", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"task_id": "task-123"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token", "http://cb.local", 5*time.Second)
	resp, err := client.Generate(context.Background(), "dark drill instrumental", "drill")
	require.NoError(t, err)

	assert.Equal(t, "task-123", resp.TaskID)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "dark drill instrumental", gotBody["prompt"])
	assert.Equal(t, "drill", gotBody["style"])
	assert.Equal(t, true, gotBody["instrumental"])
	assert.Equal(t, true, gotBody["custom"])
	assert.Equal(t, "http://cb.local", gotBody["callback_url"])
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient credits"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", "http://cb.local", 5*time.Second)
	_, err := client.Generate(context.Background(), "p", "trap")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "insufficient credits")
}

func TestGenerateMissingTaskID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"msg":"queued"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", "http://cb.local", 5*time.Second)
	_, err := client.Generate(context.Background(), "p", "trap")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "t", "http://cb.local", time.Second)
	_, err := client.Generate(context.Background(), "p", "trap")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
}

func TestFetchTaskParsesVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/music/suno/task", r.URL.Path)
		require.Equal(t, "task-42", r.URL.Query().Get("task_id"))
		_, _ = w.Write([]byte(`{"output_data":{"msg":"All generated successfully.","data":[
			{"title":"Night Drive","audio_url":"https://cdn/a0.mp3","image_url":"https://cdn/i0.png"},
			{"title":"Night Drive","audio_url":"https://cdn/a1.mp3","image_url":"https://cdn/i1.png"}
		]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", "http://cb.local", 5*time.Second)
	status, err := client.FetchTask(context.Background(), "task-42")
	require.NoError(t, err)

	assert.True(t, status.Succeeded())
	require.Len(t, status.OutputData.Data, 2)
	assert.Equal(t, "https://cdn/a0.mp3", status.OutputData.Data[0].AudioURL)
	assert.Equal(t, "https://cdn/i1.png", status.OutputData.Data[1].ImageURL)
}

func TestFetchTaskInProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output_data":{"msg":"Generating.","data":[]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "t", "http://cb.local", 5*time.Second)
	status, err := client.FetchTask(context.Background(), "task-42")
	require.NoError(t, err)
	assert.False(t, status.Succeeded())
}
