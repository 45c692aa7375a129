package rest

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/transport/rest/response"
)

func AuthMiddleware(verifier security.AccessTokenVerifier) func(next http.Handler) http.Handler {
	if verifier == nil {
		panic("AuthMiddleware: nil verifier")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
				return
			}

			p, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, security.ErrTokenExpired) {
					msg = "token expired"
				}
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized", msg, nil)
				return
			}

			ctx := withAuth(r.Context(), AuthContext{
				UserID: p.UserID,
				Role:   p.Role,
				Ver:    p.Ver,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := GetAuth(r.Context())
		if !ok {
			response.Fail(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized", nil)
			return
		}
		if a.Role != security.RoleAdmin {
			response.Fail(w, r, http.StatusForbidden, "forbidden", "admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the RemoteAddr host; chi's RealIP runs first when the service is
// deployed behind a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		next.ServeHTTP(w, r)
	})
}
