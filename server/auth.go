package server

import (
	"net/http"
	"strings"

	"github.com/GoCodeAlone/dayplan/auth"
	"github.com/GoCodeAlone/dayplan/server/api"
)

// eventsPath accepts the token as a query parameter because EventSource
// cannot set headers.
const eventsPath = "/api/events"

// bearerToken extracts the session token from r.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if r.Method == http.MethodGet && r.URL.Path == eventsPath {
		return r.URL.Query().Get("token")
	}
	return ""
}

// authMiddleware resolves the session token into an auth.Principal.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			api.WriteErr(w, s.logger, auth.ErrMissingToken)
			return
		}
		p, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			api.WriteErr(w, s.logger, err)
			return
		}
		if rec, ok := w.(*statusRecorder); ok {
			rec.userID = p.UserID
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}
