package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"vydio/internal/middleware"
	"vydio/internal/providers/snippe"
)

const maxWebhookBody = 64 << 10

type checkoutRequest struct {
	PackageID string `json:"package_id"`
}

type paymentResponse struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	CreditsBought int       `json:"credits_bought"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *App) PaymentsCheckout(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "invalid payload")
		return
	}
	res, err := a.Checkout.Create(r.Context(), userID, middleware.EmailFromContext(r.Context()), req.PackageID)
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"payment_id":   res.Payment.ID,
		"checkout_url": res.CheckoutURL,
	})
}

func (a *App) PaymentsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	payments, err := a.Store.Payments().ListRecentForUser(r.Context(), userID, recentLimit)
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	items := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, paymentResponse{
			ID:            p.ID,
			Status:        string(p.Status),
			Amount:        p.Amount,
			Currency:      p.Currency,
			CreditsBought: p.CreditsBought,
			CreatedAt:     p.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// SnippeWebhook applies a signed payment notification. Replays answer 200 so
// the provider stops retrying.
func (a *App) SnippeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusBadRequest, "invalid_input", "payload too large")
			return
		}
		a.error(w, http.StatusBadRequest, "invalid_input", "unreadable payload")
		return
	}
	outcome, err := a.Webhooks.Handle(r.Context(), body, r.Header.Get(snippe.SignatureHeader))
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"outcome": outcome})
}
