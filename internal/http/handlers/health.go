package handlers

import (
	"net/http"

	"vydio/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type packageResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Credits  int    `json:"credits"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Popular  bool   `json:"popular"`
}

type durationCost struct {
	DurationSeconds int `json:"duration_seconds"`
	Credits         int `json:"credits"`
}

// Packages lists the purchasable credit packages and the per-duration price.
func (a *App) Packages(w http.ResponseWriter, r *http.Request) {
	pkgs := domain.Packages()
	items := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		items = append(items, packageResponse(p))
	}
	costs := make([]durationCost, 0, len(domain.Durations()))
	for _, d := range domain.Durations() {
		cost, _ := domain.CreditCost(d)
		costs = append(costs, durationCost{DurationSeconds: d, Credits: cost})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "durations": costs})
}
