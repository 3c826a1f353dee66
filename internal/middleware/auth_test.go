package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type countingVerifier struct {
	calls   int
	expires time.Time
}

func (v *countingVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	v.calls++
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{
		UID:     "u1",
		Expires: v.expires.Unix(),
		Claims:  map[string]any{"email": "a@b.test", "name": "Ari", "admin": true},
	}, nil
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		au, ok := GetAuthUser(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(au.UID + "|" + au.Email + "|" + au.DisplayName))
	})
}

func TestWithAuth(t *testing.T) {
	v := &countingVerifier{expires: time.Now().Add(time.Hour)}
	h := WithAuth(v, time.Minute)(echoUser())

	rec := serve(h, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, gjson.Get(rec.Body.String(), "message").String(), "Bearer")

	rec = serve(h, "forged")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid token", gjson.Get(rec.Body.String(), "message").String())

	rec = serve(h, "good")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1|a@b.test|Ari", rec.Body.String())

	calls := v.calls
	rec = serve(h, "good")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, calls, v.calls, "verified token should be served from cache")
}

func TestWithAuth_NoCacheForExpiredTokens(t *testing.T) {
	v := &countingVerifier{expires: time.Now().Add(-time.Second)}
	h := WithAuth(v, time.Minute)(echoUser())

	serve(h, "good")
	serve(h, "good")
	require.Equal(t, 2, v.calls)
}

func TestWithAuth_ZeroTTLDisablesCache(t *testing.T) {
	v := &countingVerifier{expires: time.Now().Add(time.Hour)}
	h := WithAuth(v, 0)(echoUser())

	serve(h, "good")
	serve(h, "good")
	require.Equal(t, 2, v.calls)
}

func TestCacheFor(t *testing.T) {
	require.Equal(t, time.Minute, cacheFor(time.Minute, time.Now().Add(time.Hour).Unix()))
	require.Less(t, cacheFor(time.Minute, time.Now().Add(10*time.Second).Unix()), 11*time.Second)
}

func TestIsAdmin(t *testing.T) {
	require.True(t, IsAdmin(map[string]any{"admin": true}))
	require.True(t, IsAdmin(map[string]any{"role": "admin"}))
	require.False(t, IsAdmin(map[string]any{"coach": true}))
	require.False(t, IsAdmin(nil))
}
