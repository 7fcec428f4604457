package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	v, err := NewVerifier("jwt-secret", log)
	require.NoError(t, err)
	return v
}

func TestIssueAndParse(t *testing.T) {
	v := newVerifier(t)
	tok, err := v.Issue(42, "a@example.com", time.Hour)
	require.NoError(t, err)

	id, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseLegacyAndSubjectClaims(t *testing.T) {
	v := newVerifier(t)

	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 7, "email": "x@example.com"}).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	id, err := v.Parse(legacy)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	sub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "9"}).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	id, err = v.Parse(sub)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestParseRejects(t *testing.T) {
	v := newVerifier(t)

	expired, err := v.Issue(1, "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(expired)
	assert.Error(t, err)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 1}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = v.Parse(other)
	assert.Error(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x"}).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)
	_, err = v.Parse(noSubject)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v := newVerifier(t)
	var seen int64
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tok, _ := v.Issue(5, "", time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, int64(5), seen)
}

func TestOptional(t *testing.T) {
	v := newVerifier(t)
	var seen int64
	var authed bool
	h := v.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, authed = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, authed)

	tok, _ := v.Issue(9, "", time.Hour)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, authed)
	assert.Equal(t, int64(9), seen)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin([]int64{1, 2})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	cases := []struct {
		name string
		ctx  func(r *http.Request) *http.Request
		code int
	}{
		{"anonymous", func(r *http.Request) *http.Request { return r }, http.StatusUnauthorized},
		{"regular user", func(r *http.Request) *http.Request { return r.WithContext(WithUserID(r.Context(), 7)) }, http.StatusForbidden},
		{"admin", func(r *http.Request) *http.Request { return r.WithContext(WithUserID(r.Context(), 2)) }, http.StatusNoContent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, c.ctx(httptest.NewRequest(http.MethodGet, "/", nil)))
			assert.Equal(t, c.code, rr.Code)
		})
	}
}
