package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// SyntheticDelay is how long a synthetic operation stays in progress.
	SyntheticDelay time.Duration
	// Now is used by synthetic operations; defaults to time.Now.
	Now func() time.Time
}

// Client talks to the Gemini long-running video API. Without an API key it
// serves synthetic operations that complete after SyntheticDelay, which keeps
// local and CI environments fully operational.
type Client struct {
	apiKey         string
	baseURL        string
	model          string
	httpClient     *http.Client
	logger         zerolog.Logger
	syntheticDelay time.Duration
	now            func() time.Time
}

// Operation is the subset of a google.longrunning.Operation the gateway
// needs. Response is kept raw because its shape differs between models.
type Operation struct {
	Name        string          `json:"name,omitempty"`
	OperationID string          `json:"operationId,omitempty"`
	JobID       string          `json:"jobId,omitempty"`
	Done        bool            `json:"done,omitempty"`
	Error       *OperationError `json:"error,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
}

// OperationError is the status carried by a failed operation.
type OperationError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoParameters struct {
	DurationSeconds int `json:"durationSeconds,omitempty"`
	SampleCount     int `json:"sampleCount,omitempty"`
}

type veoPredictRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

const syntheticPrefix = "synthetic/operations/"

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "veo-2.0-generate-001"
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		apiKey:         strings.TrimSpace(opts.APIKey),
		baseURL:        baseURL,
		model:          model,
		httpClient:     client,
		logger:         opts.Logger,
		syntheticDelay: opts.SyntheticDelay,
		now:            now,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Synthetic reports whether the client runs without a real API key.
func (c *Client) Synthetic() bool {
	return c.apiKey == ""
}

// StartVideoGeneration submits a predictLongRunning request.
func (c *Client) StartVideoGeneration(ctx context.Context, prompt string, durationSeconds int) (*Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Synthetic() {
		return c.startSynthetic(prompt, durationSeconds), nil
	}

	payload := veoPredictRequest{
		Instances:  []veoInstance{{Prompt: prompt}},
		Parameters: veoParameters{DurationSeconds: durationSeconds, SampleCount: 1},
	}
	var op Operation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.model))
	if err := c.invokeGemini(ctx, http.MethodPost, c.baseURL+path, payload, &op); err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("operation", firstNonEmpty(op.Name, op.OperationID, op.JobID)).
		Msg("genai: video generation submitted")
	return &op, nil
}

// GetOperation fetches the operation identified by handle, which is either an
// operation name relative to the API base or an absolute URL.
func (c *Client) GetOperation(ctx context.Context, handle string) (*Operation, error) {
	if strings.HasPrefix(handle, syntheticPrefix) {
		return c.pollSynthetic(handle)
	}
	if c.Synthetic() {
		return nil, fmt.Errorf("operation %q requires an API key", handle)
	}

	endpoint := handle
	if !strings.HasPrefix(handle, "http://") && !strings.HasPrefix(handle, "https://") {
		endpoint = c.baseURL + "/" + strings.TrimLeft(handle, "/")
	}
	var op Operation
	if err := c.invokeGemini(ctx, http.MethodGet, endpoint, nil, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (c *Client) invokeGemini(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
}

// Synthetic operations carry their start time in the handle so that polling
// needs no server-side state.
func (c *Client) startSynthetic(prompt string, durationSeconds int) *Operation {
	started := c.now()
	seed := deterministicSeed(c.model, prompt, durationSeconds, started.UnixNano())
	name := fmt.Sprintf("%s%s-%d", syntheticPrefix, seed, started.UnixMilli())
	c.logger.Debug().Str("model", c.model).Str("operation", name).Msg("genai: synthetic video generation submitted")
	return &Operation{Name: name}
}

func (c *Client) pollSynthetic(handle string) (*Operation, error) {
	rest := strings.TrimPrefix(handle, syntheticPrefix)
	idx := strings.LastIndex(rest, "-")
	if idx <= 0 {
		return nil, fmt.Errorf("malformed synthetic operation %q", handle)
	}
	seed := rest[:idx]
	startedMilli, err := strconv.ParseInt(rest[idx+1:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed synthetic operation %q: %w", handle, err)
	}
	op := &Operation{Name: handle}
	if c.now().Sub(time.UnixMilli(startedMilli)) < c.syntheticDelay {
		return op, nil
	}
	response, err := json.Marshal(map[string]any{
		"generateVideoResponse": map[string]any{
			"generatedSamples": []any{
				map[string]any{"video": map[string]string{"uri": c.syntheticURL(seed)}},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	op.Done = true
	op.Response = response
	return op, nil
}

func (c *Client) syntheticURL(seed string) string {
	return fmt.Sprintf("%s/files/synthetic/%s/%s.mp4", c.baseURL, url.PathEscape(c.model), seed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
