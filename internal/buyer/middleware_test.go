package buyer

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, userID, companyID, issuer string, exp time.Time) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject(userID).
		Issuer(issuer).
		IssuedAt(exp.Add(-time.Hour)).
		Expiration(exp)
	if companyID != "" {
		builder = builder.Claim("companyId", companyID)
	}
	tok, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	require.NoError(t, err)
	return string(signed)
}

func resolveRequest(t *testing.T, mw Middleware, mutate func(*http.Request)) (*httptest.ResponseRecorder, Identity, bool) {
	t.Helper()
	var got Identity
	var ok bool
	handler := mw.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got, ok
}

func TestResolveBearerToken(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mw := Middleware{Secret: testSecret, Issuer: "backend-cart", Now: func() time.Time { return now }}
	token := signToken(t, "u1", "", "backend-cart", now.Add(time.Hour))

	rec, id, ok := resolveRequest(t, mw, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	assert.Equal(t, "user:u1", id.Key())
	assert.False(t, id.IsCompany())
}

func TestResolveCompanyClaim(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mw := Middleware{Secret: testSecret, Issuer: "backend-cart", Now: func() time.Time { return now }}
	token := signToken(t, "u1", "c9", "backend-cart", now.Add(time.Hour))

	rec, id, ok := resolveRequest(t, mw, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	assert.True(t, id.IsCompany())
	assert.Equal(t, "company:c9:user:u1", id.Key())
}

func TestResolveExpiredTokenRejected(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mw := Middleware{Secret: testSecret, Now: func() time.Time { return now }}
	token := signToken(t, "u1", "", "", now.Add(-time.Minute))

	rec, _, ok := resolveRequest(t, mw, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, ok)
}

func TestResolveWrongIssuerRejected(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mw := Middleware{Secret: testSecret, Issuer: "backend-cart", Now: func() time.Time { return now }}
	token := signToken(t, "u1", "", "someone-else", now.Add(time.Hour))

	rec, _, _ := resolveRequest(t, mw, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResolveGuestKeepsAnonID(t *testing.T) {
	mw := Middleware{Secret: testSecret}

	rec, id, ok := resolveRequest(t, mw, func(r *http.Request) {
		r.Header.Set(AnonHeader, "guest-42")
	})
	require.True(t, ok)
	assert.Equal(t, "anon:guest-42", id.Key())
	assert.Equal(t, "guest-42", rec.Header().Get(AnonHeader))
}

func TestResolveGuestMintsAnonID(t *testing.T) {
	mw := Middleware{Secret: testSecret}

	rec, id, ok := resolveRequest(t, mw, nil)
	require.True(t, ok)
	assert.NotEmpty(t, id.AnonID)
	assert.Equal(t, id.AnonID, rec.Header().Get(AnonHeader))
}
