package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/log"
)

type ctxKey string

const authUserKey ctxKey = "authUser"

type AuthUser struct {
	UID         string
	Email       string
	DisplayName string
	Claims      map[string]any
}

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// WithAuth verifies the Bearer ID token of every request. Verified tokens
// are reused for at most ttl and never past their own expiry; ttl <= 0
// verifies every request.
func WithAuth(verifier TokenVerifier, ttl time.Duration) func(http.Handler) http.Handler {
	var cache *gocache.Cache
	if ttl > 0 {
		cache = gocache.New(ttl, 2*ttl)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
				unauthorized(w, "missing Authorization: Bearer <token>")
				return
			}
			idToken := strings.TrimSpace(h[len("Bearer "):])
			if idToken == "" {
				unauthorized(w, "missing Authorization: Bearer <token>")
				return
			}

			key := cacheKey(idToken)
			var au *AuthUser
			if cache != nil {
				if v, ok := cache.Get(key); ok {
					au = v.(*AuthUser)
				}
			}
			if au == nil {
				tok, err := verifier.VerifyIDToken(r.Context(), idToken)
				if err != nil {
					log.GetLogger(r.Context()).WithError(err).Debug("id token rejected")
					unauthorized(w, "invalid token")
					return
				}
				au = fromToken(tok)
				if cache != nil {
					if d := cacheFor(ttl, tok.Expires); d > 0 {
						cache.Set(key, au, d)
					}
				}
			}

			ctx := context.WithValue(r.Context(), authUserKey, au)
			ctx = log.WithFields(ctx, logrus.Fields{"uid": au.UID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAuthUser(ctx context.Context) (*AuthUser, bool) {
	v := ctx.Value(authUserKey)
	if v == nil {
		return nil, false
	}
	au, ok := v.(*AuthUser)
	return au, ok
}

// IsAdmin checks the admin custom claim.
func IsAdmin(claims map[string]any) bool {
	if claims == nil {
		return false
	}
	if admin, ok := claims["admin"].(bool); ok && admin {
		return true
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}

func fromToken(tok *auth.Token) *AuthUser {
	au := &AuthUser{UID: tok.UID, Claims: tok.Claims}
	if v, ok := tok.Claims["email"].(string); ok {
		au.Email = v
	}
	if v, ok := tok.Claims["name"].(string); ok {
		au.DisplayName = v
	}
	return au
}

func cacheFor(ttl time.Duration, expires int64) time.Duration {
	left := time.Until(time.Unix(expires, 0))
	if left < ttl {
		return left
	}
	return ttl
}

func cacheKey(idToken string) string {
	sum := sha256.Sum256([]byte(idToken))
	return hex.EncodeToString(sum[:])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
