package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
	"blogapi/pkg/token"
)

const (
	TokenCookieName = "token"

	msgTokenMissing = "Authentication token missing. Please login."
	msgTokenInvalid = "Invalid or expired token. Please login again."
)

type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFrom returns the verified token claims stored by Authenticator.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*token.Claims)
	return c, ok
}

// IdentityFrom returns the verified caller of the request.
func IdentityFrom(ctx context.Context) domain.Identity {
	c, ok := ClaimsFrom(ctx)
	if !ok {
		return domain.Identity{}
	}
	return domain.Identity{ID: c.UserID, Role: c.Role}
}

// Authenticator guards routes with the session cookie. A nil denylist
// accepts any token whose signature and window are valid.
type Authenticator struct {
	verifier TokenVerifier
	denylist token.Denylist
	logger   logger.Logger
}

func NewAuthenticator(verifier TokenVerifier, denylist token.Denylist, logger logger.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, denylist: denylist, logger: logger}
}

func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil || cookie.Value == "" {
			metrics.RecordAuthFailure("missing")
			writeFailure(w, http.StatusUnauthorized, msgTokenMissing)
			return
		}

		claims, err := a.verifier.Verify(cookie.Value)
		if err != nil {
			metrics.RecordAuthFailure(verifyFailureReason(err))
			a.logger.DebugContext(r.Context(), "Rejected token", map[string]interface{}{"error": err.Error()})
			writeFailure(w, http.StatusForbidden, msgTokenInvalid)
			return
		}

		if a.denylist != nil {
			revoked, err := a.denylist.IsRevoked(r.Context(), claims.TokenID())
			if err != nil {
				a.logger.ErrorContext(r.Context(), "Denylist lookup failed", map[string]interface{}{"error": err.Error()})
				writeFailure(w, http.StatusInternalServerError, "Server Error")
				return
			}
			if revoked {
				metrics.RecordAuthFailure("revoked")
				writeFailure(w, http.StatusForbidden, msgTokenInvalid)
				return
			}
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

func verifyFailureReason(err error) string {
	if errors.Is(err, token.ErrExpiredToken) {
		return "expired"
	}
	return "invalid"
}

// sessionCookie builds the token cookie. A negative maxAge expires it
// immediately.
func sessionCookie(value string, maxAge time.Duration, secure bool) *http.Cookie {
	age := int(maxAge / time.Second)
	if maxAge < 0 {
		age = -1
	}
	return &http.Cookie{
		Name:     TokenCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   age,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
