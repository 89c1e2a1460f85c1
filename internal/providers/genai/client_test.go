package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartVideoGenerationPostsPredictLongRunning(t *testing.T) {
	var gotPath, gotKey string
	var gotBody veoPredictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"name":"models/veo/operations/abc"}`)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k-123", BaseURL: srv.URL, Model: "veo-2.0-generate-001"})
	op, err := c.StartVideoGeneration(context.Background(), "a fox", 10)
	require.NoError(t, err)
	assert.Equal(t, "models/veo/operations/abc", op.Name)
	assert.Equal(t, "/models/veo-2.0-generate-001:predictLongRunning", gotPath)
	assert.Equal(t, "k-123", gotKey)
	require.Len(t, gotBody.Instances, 1)
	assert.Equal(t, "a fox", gotBody.Instances[0].Prompt)
	assert.Equal(t, 10, gotBody.Parameters.DurationSeconds)
}

func TestInvokeDecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
	_, err := c.StartVideoGeneration(context.Background(), "a fox", 4)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGetOperationResolvesRelativeAndAbsoluteHandles(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"name":"x","done":true,"response":{"videoUri":"https://cdn/v.mp4"}}`)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", BaseURL: srv.URL + "/v1beta"})
	op, err := c.GetOperation(context.Background(), "models/veo/operations/abc")
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.JSONEq(t, `{"videoUri":"https://cdn/v.mp4"}`, string(op.Response))

	_, err = c.GetOperation(context.Background(), srv.URL+"/custom/op")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/v1beta/models/veo/operations/abc", "/custom/op"}, paths)
}

func TestSyntheticOperationCompletesAfterDelay(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewClient(Options{SyntheticDelay: 20 * time.Second, Now: func() time.Time { return now }})
	require.True(t, c.Synthetic())

	op, err := c.StartVideoGeneration(context.Background(), "a fox", 4)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(op.Name, syntheticPrefix))

	polled, err := c.GetOperation(context.Background(), op.Name)
	require.NoError(t, err)
	assert.False(t, polled.Done)

	now = now.Add(21 * time.Second)
	polled, err = c.GetOperation(context.Background(), op.Name)
	require.NoError(t, err)
	assert.True(t, polled.Done)
	assert.Contains(t, string(polled.Response), ".mp4")
}

func TestSyntheticClientRejectsRealHandles(t *testing.T) {
	c := NewClient(Options{})
	_, err := c.GetOperation(context.Background(), "models/veo/operations/abc")
	assert.Error(t, err)
	_, err = c.GetOperation(context.Background(), syntheticPrefix+"garbage")
	assert.Error(t, err)
}
