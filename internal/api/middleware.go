package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
)

type contextKey string

const actorContextKey contextKey = "actor"

// actorFrom extracts the actor from the request context. Requests that
// never passed withActor, and requests with no usable credential, both
// read as the anonymous actor.
func actorFrom(ctx context.Context) access.Actor {
	actor, _ := ctx.Value(actorContextKey).(access.Actor)
	return actor
}

// withActor resolves the Authorization header into an actor on the
// request context. A missing or invalid credential leaves the actor
// anonymous rather than failing the request; route guards and handlers
// decide whether anonymity is acceptable.
func (s *Server) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := s.services.Auth.VerifyAccessToken(token)
		if err != nil {
			s.logger.Debug("Invalid access token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth rejects requests whose actor is anonymous.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r.Context()).Anonymous() {
			response.Unauthorized(w, "authentication required", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimited throttles the wrapped handler per client IP.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authLimiter.Allow(clientIP(r)) {
			response.TooManyRequests(w, "too many requests, please try again later", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from a Bearer authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// clientIP extracts the client IP, preferring proxy headers when
// present.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
