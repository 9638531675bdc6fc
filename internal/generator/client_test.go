package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelReply(text string) string {
	reply := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(reply)
	return string(b)
}

func TestClient_Generate_Success(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		gotPrompt = req.Contents[0].Parts[0].Text

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modelReply(`{"social_posts": []}`)))
	}))
	defer srv.Close()

	client := NewClient("test-key", "gemini-test", srv.URL, 5*time.Second, 2)
	raw, err := client.Generate(context.Background(), "the prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"social_posts": []}`, raw)
	assert.Equal(t, "the prompt", gotPrompt)
}

func TestClient_Generate_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(modelReply("recovered")))
	}))
	defer srv.Close()

	client := NewClient("test-key", "gemini-test", srv.URL, 5*time.Second, 3)
	raw, err := client.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "recovered", raw)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Generate_ExhaustedRetriesReturnUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("test-key", "gemini-test", srv.URL, 5*time.Second, 2)
	_, err := client.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Generate_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "prompt blocked", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "gemini-test", srv.URL, 5*time.Second, 3)
	_, err := client.Generate(context.Background(), "prompt")

	require.Error(t, err)
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, http.StatusBadRequest, modelErr.StatusCode)
	assert.Equal(t, "prompt blocked", modelErr.Reason)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Generate_EmptyCandidatesNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", "gemini-test", srv.URL, 5*time.Second, 3)
	_, err := client.Generate(context.Background(), "prompt")

	require.Error(t, err)
	var modelErr *ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", "gemini-test", srv.URL, 50*time.Millisecond, 0)
	_, err := client.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelTimeout)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("key", "model", "", 0, -5)

	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", client.apiURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, uint64(0), client.maxRetries)
}
