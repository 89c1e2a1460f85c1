package snippe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vydio/internal/domain"
)

type captured struct {
	auth        string
	idempotency string
	body        createPaymentRequest
}

func TestCreateCheckoutSession(t *testing.T) {
	got := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments", r.URL.Path)
		var c captured
		c.auth = r.Header.Get("Authorization")
		c.idempotency = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		got <- c
		_, _ = io.WriteString(w, `{"id":"sn_1","payment_url":"https://pay.snippe.sh/p/1"}`)
	}))
	defer srv.Close()

	client := NewClient(Options{APIKey: "sk_test", BaseURL: srv.URL})
	session, err := client.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		Amount: 5000, Currency: "TZS", Reference: "pay-1", IdempotencyKey: "idem-1",
		CustomerEmail: "a@example.com", WebhookURL: "https://api/webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, "sn_1", session.SessionID)
	assert.Equal(t, "https://pay.snippe.sh/p/1", session.CheckoutURL)

	c := <-got
	assert.Equal(t, "Bearer sk_test", c.auth)
	assert.Equal(t, "idem-1", c.idempotency)
	assert.Equal(t, "pay-1", c.body.Reference)
	assert.Equal(t, int64(5000), c.body.Amount)
	assert.Equal(t, "a@example.com", c.body.Customer.Email)
}

func TestCreateCheckoutSessionErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewClient(Options{APIKey: "sk", BaseURL: srv.URL}).CreateCheckoutSession(context.Background(), domain.CheckoutRequest{})
	assert.ErrorContains(t, err, "422")

	_, err = NewClient(Options{}).CreateCheckoutSession(context.Background(), domain.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
