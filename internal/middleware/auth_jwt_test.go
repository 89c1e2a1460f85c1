package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyJWT(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{Sub: "u1", Email: "a@example.com", Exp: time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)

	claims, err := VerifyJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Sub)
	assert.Equal(t, "a@example.com", claims.Email)

	_, err = VerifyJWT("other", token)
	assert.ErrorIs(t, err, errInvalidSignature)

	expired, err := SignJWT("secret", TokenClaims{Sub: "u1", Exp: time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	_, err = VerifyJWT("secret", expired)
	assert.ErrorIs(t, err, errTokenExpired)

	noSub, err := SignJWT("secret", TokenClaims{Email: "a@example.com"})
	require.NoError(t, err)
	_, err = VerifyJWT("secret", noSub)
	assert.ErrorIs(t, err, errInvalidToken)

	_, err = VerifyJWT("secret", "a.b")
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestAuthJWTMiddleware(t *testing.T) {
	var gotUser, gotEmail string
	h := AuthJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotEmail = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := SignJWT("secret", TokenClaims{Sub: "u1", Email: "a@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "a@example.com", gotEmail)

	for _, header := range []string{"", "Basic abc", "Bearer not.a.token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), `"unauthorized"`)
	}
}
