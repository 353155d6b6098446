package server

import (
	"net/http"

	"github.com/evalia-ai/evalia/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	h := s.handlers
	p := s.config.PathPrefix

	route := func(method, path string, fn http.HandlerFunc) {
		mux.HandleFunc(method+" "+p+path, fn)
	}

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health endpoints
	mux.HandleFunc("GET /health", h.HandleHealth)
	route("GET", "/health", h.HandleHealth)
	route("GET", "/ready", h.HandleReady)
	if s.config.MetricsEnabled {
		route("GET", "/metrics", h.HandleMetrics)
	}

	// Accounts
	route("POST", "/auth/register", h.HandleRegister)
	route("POST", "/auth/login", h.HandleLogin)
	route("POST", "/auth/logout", h.HandleLogout)
	route("GET", "/auth/me", h.HandleMe)
	route("PATCH", "/auth/me", h.HandleUpdateMe)

	// Events
	route("GET", "/events", h.HandleListEvents)
	route("POST", "/events", h.HandleCreateEvent)
	route("GET", "/events/{id}", h.HandleGetEvent)
	route("DELETE", "/events/{id}", h.HandleDeleteEvent)
	route("PATCH", "/events/{id}/status", h.HandleUpdateEventStatus)
	route("PATCH", "/events/{id}/featured", h.HandleSetFeatured)
	route("POST", "/events/{id}/join", h.HandleJoinEvent)
	route("POST", "/events/{id}/leave", h.HandleLeaveEvent)
	route("GET", "/events/{id}/participants", h.HandleListParticipants)
	route("DELETE", "/events/{id}/participants/{userID}", h.HandleExcludeParticipant)
	route("GET", "/events/{id}/leaderboard", h.HandleEventLeaderboard)
	route("GET", "/events/{id}/submissions", h.HandleListEventSubmissions)
	route("POST", "/events/{id}/submissions", h.HandleSubmit)

	// Current user
	route("GET", "/me/events", h.HandleMyEvents)
	route("GET", "/me/submissions", h.HandleMySubmissions)

	// Submissions
	route("GET", "/submissions/{id}", h.HandleGetSubmission)
	route("DELETE", "/submissions/{id}", h.HandleDeleteSubmission)

	// Leaderboards
	route("GET", "/leaderboard", h.HandleGlobalLeaderboard)

	// Administration
	route("GET", "/admin/users", h.HandleListUsers)
	route("PATCH", "/admin/users/{id}/status", h.HandleSetUserStatus)
	route("PATCH", "/admin/users/{id}/role", h.HandleSetUserRole)
	route("GET", "/admin/stats", h.HandlePlatformStats)

	// Real-time endpoints
	route("GET", "/updates/ws", h.HandleWebSocket)
	route("GET", "/updates/stream", h.HandleSSE)
}

// applyMiddleware wraps handler with middleware chain. Recovery is the
// outermost layer; authentication runs last so rate limiting applies to
// requests with bad tokens too.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}

	chain = append(chain, middleware.Auth(s.client, s.logger))

	return middleware.Chain(chain...)(handler)
}
