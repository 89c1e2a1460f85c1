package handlers

import (
	"net/http"

	"vydio/internal/middleware"
)

// Me returns the caller's balance. First contact creates the ledger row with
// a zero balance.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Store.Ledger().Upsert(r.Context(), userID, middleware.EmailFromContext(r.Context()))
	if err != nil {
		a.serviceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"credits": user.Credits,
	})
}
