package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authdomain "userdir/backend/internal/domain/auth"
	authusecase "userdir/backend/internal/usecase/auth"
)

type ctxKeyPrincipal struct{}

// authenticate rejects requests without a valid, unexpired bearer token
// and stores the token's principal in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.authService.Authenticate(extractBearerToken(r.Header.Get("Authorization")))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="userdir"`)
			switch {
			case errors.Is(err, authdomain.ErrTokenMissing):
				writeError(w, http.StatusUnauthorized, authdomain.ErrTokenMissing.Error())
			case errors.Is(err, authdomain.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, authdomain.ErrTokenExpired.Error())
			default:
				writeError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyPrincipal{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles admits principals holding any of roles. It must run after
// authenticate.
func (s *Server) requireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := principalFromContext(r.Context())
			if err := authusecase.Authorize(principal, roles...); err != nil {
				if errors.Is(err, authdomain.ErrForbidden) {
					writeError(w, http.StatusForbidden, "role not permitted")
					return
				}
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func principalFromContext(ctx context.Context) (*authdomain.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal{}).(*authdomain.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
