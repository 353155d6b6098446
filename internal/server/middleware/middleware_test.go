package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/logging"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// TestChain tests middleware composition order.
func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("m1"), mark("m2"), mark("m3"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"m1", "m2", "m3", "handler"}, order)
}

func TestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	var scoped *zerolog.Logger
	h := Logger(tl.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/404", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	require.NotNil(t, scoped)
	assert.True(t, tl.Contains(`"request_id":"req-1"`))
	assert.True(t, tl.Contains(`"status":404`))
	assert.True(t, tl.Contains(`"level":"warn"`))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader), "request ID generated")
}

func TestRecovery(t *testing.T) {
	h := Recovery(logging.NewNopLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"].(map[string]any)["code"])
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		config     CORSConfig
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{name: "allow all", config: CORSConfig{AllowAll: true}, origin: "https://evalia.fr", method: http.MethodGet, wantOrigin: "*", wantStatus: http.StatusOK},
		{name: "listed origin", config: CORSConfig{AllowedOrigins: []string{"https://evalia.fr"}}, origin: "https://evalia.fr", method: http.MethodGet, wantOrigin: "https://evalia.fr", wantStatus: http.StatusOK},
		{name: "unlisted origin", config: CORSConfig{AllowedOrigins: []string{"https://evalia.fr"}}, origin: "https://evil.example", method: http.MethodGet, wantOrigin: "", wantStatus: http.StatusOK},
		{name: "preflight", config: DefaultCORSConfig(), origin: "https://evalia.fr", method: http.MethodOptions, wantOrigin: "https://evalia.fr", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/events", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			CORS(tt.config)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

type stubAuthenticator map[string]*competitions.User

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*competitions.User, *auth.Claims, error) {
	u, found := s[token]
	if !found {
		return nil, nil, errors.NewAuthenticationError("token", "invalid or expired token", nil)
	}
	if u.Suspended() {
		return nil, nil, errors.NewForbiddenError("use", "account", "account suspended")
	}
	return u, &auth.Claims{Role: u.Role}, nil
}

func TestAuth(t *testing.T) {
	authn := stubAuthenticator{
		"good":      {ID: "1", Role: competitions.RoleParticipant, Status: competitions.UserActive},
		"suspended": {ID: "2", Role: competitions.RoleParticipant, Status: competitions.UserSuspended},
	}

	var seen *competitions.User
	h := Auth(authn, logging.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantUser   string
	}{
		{name: "anonymous", wantStatus: http.StatusOK},
		{name: "bearer", header: "Bearer good", wantStatus: http.StatusOK, wantUser: "1"},
		{name: "query token", query: "?token=good", wantStatus: http.StatusOK, wantUser: "1"},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "suspended", header: "Bearer suspended", wantStatus: http.StatusForbidden},
		{name: "other scheme", header: "Basic Zm9vOmJhcg==", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantUser == "" {
				assert.Nil(t, seen)
			} else {
				require.NotNil(t, seen)
				assert.Equal(t, tt.wantUser, seen.ID)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(3, logging.NewNopLogger())
	h := RateLimit(rl)(ok)

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	for range 3 {
		assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"), "limits are per IP")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	assert.Equal(t, 2, rl.Visitors())
	rl.Cleanup(time.Now().Add(time.Hour))
	assert.Equal(t, 0, rl.Visitors())
}

func TestWebSocketUpgradeThroughChain(t *testing.T) {
	authn := stubAuthenticator{
		"good": {ID: "1", Role: competitions.RoleParticipant, Status: competitions.UserActive},
	}
	tl := logging.NewTestLogger(t)
	upgrader := websocket.Upgrader{}

	var seen *competitions.User
	h := Chain(Recovery(tl.Logger), Logger(tl.Logger), Auth(authn, tl.Logger))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFrom(r.Context())
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	}))
	ts := httptest.NewServer(h)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/updates/ws?token=good"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))
	require.NotNil(t, seen)
	assert.Equal(t, "1", seen.ID)
}
