package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/archipelago/notes-api/internal/auth"
	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/id"
	"github.com/archipelago/notes-api/internal/logger"
)

const (
	// accessTokenCookie carries the token for browser clients.
	accessTokenCookie = "access_token"
	// userIDHeader is set by an authenticating gateway in front of the API.
	userIDHeader = "X-User-Id"
)

// TokenVerifier validates access tokens. *service.AuthService and
// *auth.TokenService both satisfy it.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.AccessClaims, error)
}

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const userIDKey ctxKey = "userID"

// GetUserID returns the authenticated user ID from context.
// Returns a 401 error if the request carried no usable identity.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", domainerrors.Unauthorized("authentication required")
	}
	return userID, nil
}

func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// identityMiddleware resolves the caller and stores the user ID in context.
// Sources are tried in order: bearer token, access_token cookie, then the
// gateway header when trustHeader is set. A request without a usable
// identity continues anonymously and handlers reject it via GetUserID.
func identityMiddleware(verifier TokenVerifier, trustHeader bool, fallback *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context(), fallback)

			if userID := resolveIdentity(r, verifier, trustHeader, log); userID != "" {
				r = r.WithContext(setUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveIdentity(r *http.Request, verifier TokenVerifier, trustHeader bool, log *logger.Logger) string {
	if token, ok := bearerToken(r); ok {
		if userID := verify(verifier, token); userID != "" {
			return userID
		}
		log.Debug("rejected bearer token")
	}

	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		if userID := verify(verifier, cookie.Value); userID != "" {
			return userID
		}
		log.Debug("rejected access token cookie")
	}

	if trustHeader {
		if raw := strings.TrimSpace(r.Header.Get(userIDHeader)); raw != "" {
			userID, err := id.Canonical(raw)
			if err == nil {
				return userID
			}
			log.Debug("ignored malformed user header", "value", raw)
		}
	}

	return ""
}

func verify(verifier TokenVerifier, token string) string {
	if verifier == nil {
		return ""
	}
	claims, err := verifier.VerifyAccessToken(token)
	if err != nil {
		return ""
	}
	return claims.UserID
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
