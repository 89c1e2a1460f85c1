package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"vydio/internal/adapter/memory"
	"vydio/internal/domain"
	"vydio/internal/middleware"
	"vydio/internal/mocks"
	"vydio/internal/providers/snippe"
	"vydio/internal/service"
)

const webhookSecret = "whsec_test"

type testEnv struct {
	app      *App
	store    *memory.Store
	video    *mocks.MockVideoGateway
	checkout *mocks.MockCheckoutGateway
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := memory.NewStore()
	video := mocks.NewMockVideoGateway(ctrl)
	checkout := mocks.NewMockCheckoutGateway(ctrl)
	opts := service.Options{ProviderTimeout: time.Second, StaleQueuedAfter: time.Minute}
	logger := zerolog.Nop()

	app := &App{
		Store:     store,
		Submitter: service.NewSubmitter(store, video, logger, opts),
		Status:    service.NewStatusReconciler(store, video, logger, opts),
		Checkout: service.NewCheckout(store, checkout, service.CheckoutURLs{
			Webhook: "http://api.test/v1/payments/snippe/webhook",
			Success: "http://app.test/payment/success",
			Cancel:  "http://app.test/payment/cancel",
		}, logger, opts),
		Webhooks: service.NewWebhookProcessor(store, snippe.NewWebhookDecoder(webhookSecret), logger, opts),
		Logger:   logger,
	}

	r := chi.NewRouter()
	r.Get("/v1/packages", app.Packages)
	r.Post("/v1/payments/snippe/webhook", app.SnippeWebhook)
	r.Group(func(r chi.Router) {
		r.Use(withUser)
		r.Get("/v1/me", app.Me)
		r.Post("/v1/jobs", app.JobsCreate)
		r.Get("/v1/jobs", app.JobsList)
		r.Get("/v1/jobs/{job_id}", app.JobStatus)
		r.Get("/v1/payments", app.PaymentsList)
		r.Post("/v1/payments/checkout", app.PaymentsCheckout)
	})
	return &testEnv{app: app, store: store, video: video, checkout: checkout, router: r}
}

// withUser reads the caller from X-Test-User instead of a signed token.
func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.ContextWithUserID(r.Context(), r.Header.Get("X-Test-User"))))
	})
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	envelope, ok := decode(t, rec)["error"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return envelope["code"].(string)
}

func TestJobsCreateAndPoll(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 5)
	env.video.EXPECT().StartGeneration(gomock.Any(), "a cat surfing", 10).Return("operations/op-1", nil)

	rec := env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "  a cat surfing ", "duration_seconds": 10})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	created := decode(t, rec)
	jobID := created["job_id"].(string)
	assert.Equal(t, "running", created["status"])

	balance, err := env.store.Ledger().Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, balance)

	env.video.EXPECT().PollGeneration(gomock.Any(), "operations/op-1").
		Return(domain.GenerationPoll{Done: true, ResultLocation: "https://cdn.test/v.mp4"}, nil)
	rec = env.do(t, http.MethodGet, "/v1/jobs/"+jobID, "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode(t, rec)
	assert.Equal(t, "succeeded", snap["status"])
	assert.Equal(t, "https://cdn.test/v.mp4", snap["video_url"])

	rec = env.do(t, http.MethodGet, "/v1/jobs/"+jobID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, "/v1/jobs", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)
}

func TestJobsCreateAcceptsCamelCaseDuration(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 5)
	env.video.EXPECT().StartGeneration(gomock.Any(), "sunset", 30).Return("operations/op-2", nil)

	rec := env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "sunset", "durationSeconds": 30})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	balance, err := env.store.Ledger().Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestJobsCreateErrorStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 1)

	rec := env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "x", "duration_seconds": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "x", "duration_seconds": 60})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient_credits", errorCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader("{"))
	req.Header.Set("X-Test-User", "u1")
	raw := httptest.NewRecorder()
	env.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	rec = env.do(t, http.MethodPost, "/v1/jobs", "", map[string]any{"prompt": "x", "duration_seconds": 4})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobsCreateProviderFailureReportsRefund(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 2)
	env.video.EXPECT().StartGeneration(gomock.Any(), gomock.Any(), 4).Return("", errors.New("quota exceeded"))

	rec := env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "x", "duration_seconds": 4})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	envelope := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, "provider_unavailable", envelope["code"])
	assert.NotEmpty(t, envelope["job_id"])
	assert.EqualValues(t, 1, envelope["refunded"])

	balance, err := env.store.Ledger().Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, balance)
}

func TestJobsCreateRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 10)
	env.video.EXPECT().StartGeneration(gomock.Any(), gomock.Any(), 4).Return("operations/x", nil).Times(3)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "x", "duration_seconds": 4})
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/v1/jobs", "u1", map[string]any{"prompt": "x", "duration_seconds": 4})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(t, rec))
}

func TestMeCreatesLedgerRow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/me", "u-new", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "u-new", body["user_id"])
	assert.EqualValues(t, 0, body["credits"])
}

func TestPackages(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/packages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["items"], 3)
	assert.Len(t, body["durations"], 4)
}

func TestCheckoutAndWebhook(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 0)
	env.checkout.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
			assert.Equal(t, int64(12000), req.Amount)
			assert.Equal(t, "http://api.test/v1/payments/snippe/webhook", req.WebhookURL)
			return &domain.CheckoutSession{SessionID: "sn_1", CheckoutURL: "https://pay.test/1"}, nil
		})

	rec := env.do(t, http.MethodPost, "/v1/payments/checkout", "u1", map[string]any{"package_id": "pkg_60"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	paymentID := created["payment_id"].(string)
	assert.Equal(t, "https://pay.test/1", created["checkout_url"])

	payload := []byte(`{"id":"evt_1","type":"payment.succeeded","data":{"reference":"` + paymentID + `","id":"sn_1"}}`)
	send := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments/snippe/webhook", bytes.NewReader(payload))
		req.Header.Set(snippe.SignatureHeader, sig)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec = send("deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sig := snippe.Sign([]byte(webhookSecret), payload)
	rec = send(sig)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "applied", decode(t, rec)["outcome"])

	rec = send(sig)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "duplicate", decode(t, rec)["outcome"])

	balance, err := env.store.Ledger().Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, balance)

	rec = env.do(t, http.MethodGet, "/v1/payments", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "paid", items[0].(map[string]any)["status"])
}

func TestCheckoutErrors(t *testing.T) {
	env := newTestEnv(t)
	env.store.SeedUser("u1", 0)

	rec := env.do(t, http.MethodPost, "/v1/payments/checkout", "u1", map[string]any{"package_id": "pkg_999"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.checkout.EXPECT().CreateCheckoutSession(gomock.Any(), gomock.Any()).Return(nil, errors.New("snippe down"))
	rec = env.do(t, http.MethodPost, "/v1/payments/checkout", "u1", map[string]any{"package_id": "pkg_20"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWebhookRejectsOversizedBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/snippe/webhook", bytes.NewReader(make([]byte, maxWebhookBody+1)))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
