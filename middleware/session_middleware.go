package middleware

import (
	"context"
	"net/http"

	"github.com/chatterbox/chatterbox-backend/models"
	"github.com/chatterbox/chatterbox-backend/responses"
	"github.com/chatterbox/chatterbox-backend/session"
	"github.com/chatterbox/chatterbox-backend/utils"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFrom returns the claims stored by RequireSession or RequireAdmin,
// or nil when the request carried no valid session.
func SessionFrom(ctx context.Context) *models.SessionClaims {
	claims, _ := ctx.Value(sessionKey).(*models.SessionClaims)
	return claims
}

// RequireSession redirects unauthenticated page requests to /login and
// stores the session claims in the request context.
func RequireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.FromRequest(r)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose session role is not admin.
func RequireAdmin(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.FromRequest(r)
			if err != nil || !claims.IsAdmin() {
				utils.HandleError(w, responses.ForbiddenError{Msg: "Forbidden"})
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
