package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shandysiswandi/gonotify/internal/pkg/auth"
	"github.com/shandysiswandi/gonotify/internal/pkg/jwt"
)

const (
	// AuthModeHeader trusts a user id header set by the upstream gateway.
	AuthModeHeader = "header"
	// AuthModeJWT verifies a bearer token signed by the upstream gateway.
	AuthModeJWT = "jwt"

	// HeaderUserID is the default identity header in header mode.
	HeaderUserID = "X-User-Id"
)

// identityResolver extracts the caller's user id. ok=false means no usable identity was sent.
type identityResolver func(r *http.Request) (userID int64, ok bool)

func headerIdentity(header string) identityResolver {
	if header == "" {
		header = HeaderUserID
	}
	return func(r *http.Request) (int64, bool) {
		id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(header)), 10, 64)
		if err != nil || id <= 0 {
			return 0, false
		}
		return id, true
	}
}

func bearerIdentity(verifier jwt.JWT) identityResolver {
	return func(r *http.Request) (int64, bool) {
		p := strings.Fields(r.Header.Get("Authorization"))
		if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
			return 0, false
		}

		claims, err := verifier.Verify(p[1])
		if err != nil {
			return 0, false
		}
		id, err := claims.CallerID()
		return id, err == nil
	}
}

func middlewareAuthentication(resolve identityResolver, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			userID, ok := resolve(r)
			if !ok {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			ctx := auth.SetCaller(r.Context(), auth.Caller{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
