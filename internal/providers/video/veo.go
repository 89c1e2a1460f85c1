// Package video adapts the Gemini Veo API to domain.VideoGateway.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vydio/internal/domain"
	"vydio/internal/providers/genai"
)

// Client is the subset of genai.Client used by the gateway.
type Client interface {
	StartVideoGeneration(ctx context.Context, prompt string, durationSeconds int) (*genai.Operation, error)
	GetOperation(ctx context.Context, handle string) (*genai.Operation, error)
}

// VeoGateway implements domain.VideoGateway on top of Gemini long-running
// operations.
type VeoGateway struct {
	client Client
}

func NewVeoGateway(client Client) *VeoGateway {
	return &VeoGateway{client: client}
}

// ErrNoHandle is returned when the provider accepted a request but named no operation.
var ErrNoHandle = errors.New("veo: response carried no operation handle")

func (g *VeoGateway) StartGeneration(ctx context.Context, prompt string, durationSeconds int) (string, error) {
	op, err := g.client.StartVideoGeneration(ctx, prompt, durationSeconds)
	if err != nil {
		return "", fmt.Errorf("veo: start generation: %w", err)
	}
	if op.Error != nil && op.Error.Message != "" {
		return "", fmt.Errorf("veo: start generation: %s", op.Error.Message)
	}
	handle := firstNonEmpty(op.Name, op.OperationID, op.JobID)
	if handle == "" {
		return "", ErrNoHandle
	}
	return handle, nil
}

func (g *VeoGateway) PollGeneration(ctx context.Context, handle string) (domain.GenerationPoll, error) {
	op, err := g.client.GetOperation(ctx, handle)
	if err != nil {
		return domain.GenerationPoll{}, fmt.Errorf("veo: poll operation: %w", err)
	}
	if !op.Done {
		return domain.GenerationPoll{}, nil
	}
	if op.Error != nil {
		msg := strings.TrimSpace(op.Error.Message)
		if msg == "" {
			msg = fmt.Sprintf("generation failed with code %d", op.Error.Code)
		}
		return domain.GenerationPoll{Done: true, ErrorMessage: msg}, nil
	}
	return domain.GenerationPoll{Done: true, ResultLocation: ResultLocation(op.Response)}, nil
}

type sampleVideo struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

type operationResponse struct {
	GenerateVideoResponse struct {
		GeneratedSamples []sampleVideo `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
	GeneratedVideos []sampleVideo `json:"generatedVideos"`
	VideoURI        string        `json:"videoUri"`
	URI             string        `json:"uri"`
	OutputURL       string        `json:"outputUrl"`
}

// ResultLocation extracts the video location from an operation response. The
// field has moved between API revisions, so the first non-empty candidate wins.
func ResultLocation(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var resp operationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ""
	}
	candidates := make([]string, 0, 5)
	for _, s := range resp.GenerateVideoResponse.GeneratedSamples {
		candidates = append(candidates, s.Video.URI)
	}
	for _, s := range resp.GeneratedVideos {
		candidates = append(candidates, s.Video.URI)
	}
	candidates = append(candidates, resp.VideoURI, resp.URI, resp.OutputURL)
	return firstNonEmpty(candidates...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ domain.VideoGateway = (*VeoGateway)(nil)
