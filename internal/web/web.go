package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkcal/internal/auth"
	"inkcal/internal/config"
	appLog "inkcal/internal/log"
	"inkcal/internal/model"
)

//go:embed templates/setup.html
var templateFS embed.FS

var setupTmpl = template.Must(template.ParseFS(templateFS, "templates/setup.html"))

// PayloadBuilder produces the display payload. *pipeline.Builder implements it.
type PayloadBuilder interface {
	Build(ctx context.Context) (*model.Payload, error)
	NeedsGoogle() bool
}

// Authenticator drives the Google consent flow. *auth.Provider implements it.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
	Authenticated(ctx context.Context) bool
	Disconnect(ctx context.Context) error
}

// Server serves the setup pages, the OAuth callback and the display API.
type Server struct {
	cfg     *config.Config
	builder PayloadBuilder
	auth    Authenticator
	mux     *http.ServeMux

	// state is the single pending OAuth state token.
	state auth.PendingState
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, builder PayloadBuilder, authn Authenticator) *Server {
	s := &Server{
		cfg:     cfg,
		builder: builder,
		auth:    authn,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler wrapped with request logging and,
// when configured, HTTP Basic Auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestLogger(h)
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("http shutdown", err)
		}
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/setup", s.handleSetup)
	s.mux.HandleFunc("/oauth/callback", s.handleCallback)
	s.mux.HandleFunc("/disconnect", s.handleDisconnect)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards the setup pages. /health and the display API
// (which has its own Bearer check) stay reachable without it.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="inkcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with an X-Request-ID and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start).String(),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/setup", http.StatusFound)
}

type setupData struct {
	Success       bool
	Error         string
	NeedsGoogle   bool
	Authenticated bool
	AuthURL       string
	Calendars     []string
	Timezone      string
	APIProtected  bool
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	data := setupData{
		Success:      q.Get("success") != "",
		Error:        q.Get("error"),
		NeedsGoogle:  s.builder.NeedsGoogle(),
		Calendars:    s.calendarLabels(),
		Timezone:     s.cfg.Timezone,
		APIProtected: s.cfg.APISecret != "",
	}

	if data.NeedsGoogle && s.auth != nil {
		data.Authenticated = s.auth.Authenticated(ctx)
		if !data.Authenticated {
			state, err := s.state.Generate()
			if err != nil {
				appLog.Error("oauth state generation failed", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			data.AuthURL = s.auth.AuthCodeURL(state)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := setupTmpl.Execute(w, data); err != nil {
		appLog.Error("render setup page", err)
	}
}

func (s *Server) calendarLabels() []string {
	out := make([]string, 0, len(s.cfg.Calendars.Google)+len(s.cfg.Calendars.ICS))
	out = append(out, s.cfg.Calendars.Google...)
	for _, c := range s.cfg.Calendars.ICS {
		if c.Name != "" {
			out = append(out, c.Name+" (ics)")
		} else {
			out = append(out, c.ID+" (ics)")
		}
	}
	return out
}

func setupRedirect(w http.ResponseWriter, r *http.Request, errMsg string) {
	target := "/setup"
	if errMsg != "" {
		target += "?error=" + url.QueryEscape(errMsg)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		setupRedirect(w, r, e)
		return
	}
	code := q.Get("code")
	if code == "" {
		setupRedirect(w, r, "No authorization code received")
		return
	}
	if !s.state.Validate(q.Get("state")) {
		setupRedirect(w, r, "Invalid state parameter")
		return
	}
	if s.auth == nil {
		setupRedirect(w, r, "Google Calendar is not configured")
		return
	}

	if err := s.auth.Exchange(r.Context(), code); err != nil {
		appLog.Error("oauth code exchange failed", err)
		setupRedirect(w, r, err.Error())
		return
	}
	s.state.Clear()
	http.Redirect(w, r, "/setup?success=1", http.StatusFound)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		if err := s.auth.Disconnect(r.Context()); err != nil {
			appLog.Error("disconnect failed", err)
			setupRedirect(w, r, "Failed to remove stored credential")
			return
		}
	}
	setupRedirect(w, r, "")
}

// handleEvents returns the display payload. When api_secret is set the
// request must carry "Authorization: Bearer <api_secret>".
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.cfg.APISecret != "" {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}
		if !secureCompare(token, s.cfg.APISecret) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			return
		}
	}

	if s.builder.NeedsGoogle() && (s.auth == nil || !s.auth.Authenticated(ctx)) {
		writeNotAuthenticated(w)
		return
	}

	payload, err := s.builder.Build(ctx)
	if err != nil {
		var authErr *auth.Error
		switch {
		case errors.Is(err, auth.ErrNoCredential):
			writeNotAuthenticated(w)
		case errors.As(err, &authErr):
			appLog.Error("api events: google authorization rejected", err)
			writeError(w, http.StatusUnauthorized, "token_expired",
				fmt.Sprintf("Google authorization expired: %v. Visit /setup to reconnect.", authErr))
		default:
			appLog.Error("api events: build failed", err)
			writeError(w, http.StatusInternalServerError, "calendar_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func writeNotAuthenticated(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "not_authenticated", "Please visit /setup to connect Google Calendar")
}
