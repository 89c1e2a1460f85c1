package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vydio/internal/domain"
)

const recentLimit = 10

type jobCreateRequest struct {
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds"`
	DurationCamel   *int   `json:"durationSeconds"` // spelling used by older web clients
}

func (r jobCreateRequest) duration() int {
	if r.DurationSeconds == 0 && r.DurationCamel != nil {
		return *r.DurationCamel
	}
	return r.DurationSeconds
}

type jobResponse struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	Prompt          string    `json:"prompt"`
	DurationSeconds int       `json:"duration_seconds"`
	CreditCost      int       `json:"credit_cost"`
	VideoURL        string    `json:"video_url,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toJobResponse(j *domain.Job) jobResponse {
	return jobResponse{
		ID:              j.ID,
		Status:          string(j.Status),
		Prompt:          j.Prompt,
		DurationSeconds: j.DurationSeconds,
		CreditCost:      j.CreditCost,
		VideoURL:        j.VideoURL,
		Error:           j.Error,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func (a *App) JobsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req jobCreateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "invalid payload")
		return
	}
	job, err := a.Submitter.Submit(r.Context(), userID, req.Prompt, req.duration())
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "status": job.Status})
}

// JobStatus returns the job snapshot, reconciling it with the provider first.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "job_id required")
		return
	}
	job, err := a.Status.Poll(r.Context(), userID, jobID)
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobs, err := a.Store.Jobs().ListRecentForUser(r.Context(), userID, recentLimit)
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobResponse(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
