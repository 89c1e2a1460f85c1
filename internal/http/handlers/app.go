package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"vydio/internal/domain"
	"vydio/internal/middleware"
	"vydio/internal/service"
)

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Store     domain.Store
	Submitter *service.Submitter
	Status    *service.StatusReconciler
	Checkout  *service.Checkout
	Webhooks  *service.WebhookProcessor
	Logger    zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": errCode, "message": msg},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

var statusByCode = map[string]int{
	"invalid_input":        http.StatusBadRequest,
	"rate_limited":         http.StatusTooManyRequests,
	"insufficient_credits": http.StatusPaymentRequired,
	"provider_unavailable": http.StatusBadGateway,
	"not_found":            http.StatusNotFound,
	"unauthorized":         http.StatusUnauthorized,
	"internal":             http.StatusInternalServerError,
}

// serviceError writes the error envelope for err. Internal errors are logged
// and hidden from the client.
func (a *App) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	var refunded *domain.RefundedError
	if errors.As(err, &refunded) {
		a.json(w, status, map[string]any{
			"error": map[string]any{
				"code":     code,
				"message":  "generation could not be started, your credits were refunded",
				"job_id":   refunded.JobID,
				"refunded": refunded.Credits,
			},
		})
		return
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		msg = "internal error"
	}
	a.error(w, status, code, msg)
}
