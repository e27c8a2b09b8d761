// Package http serves the browser dashboard: form-based pages for adding,
// viewing, analyzing and managing expenses, plus the AI-assisted entry
// form. It renders server-side templates only; there is no JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"outlay/internal/ai"
	"outlay/internal/cache"
	"outlay/internal/core"
	appweb "outlay/web"
)

// Store is the slice of the storage gateway the dashboard needs.
type Store interface {
	Add(ctx context.Context, e core.Expense) (int64, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	Update(ctx context.Context, e core.Expense) error
	Delete(ctx context.Context, id int64) error
}

// ReportGenerator produces the aggregate report; report.ErrNoData signals
// an empty table.
type ReportGenerator interface {
	Generate(ctx context.Context) (core.Report, error)
}

type Server struct {
	http.Server
	templates   *template.Template
	store       Store
	reporter    ReportGenerator
	extractor   *ai.Extractor
	rateLimiter *rateLimiter

	// Report is recomputed on demand; the cache just keeps repeated page
	// loads cheap and is dropped on every write.
	reportCache      *cache.LRUCache[core.Report]
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

const reportCacheKey = "report"

// NewServer configures routes and templates, returning a ready-to-run server.
// extractor may carry a nil generator; the AI form then reports that the
// service is not configured instead of failing at startup.
func NewServer(addr string, store Store, reporter ReportGenerator, extractor *ai.Extractor) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		reporter:         reporter,
		extractor:        extractor,
		rateLimiter:      newRateLimiter(),
		reportCache:      cache.NewLRUCache[core.Report](1, time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.New("").Funcs(template.FuncMap{
		"money": formatMoney,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withMiddleware(s.handleIndex))
	mux.HandleFunc("/analytics", s.withMiddleware(s.handleAnalytics))
	mux.HandleFunc("/manage", s.withMiddleware(s.handleManage))
	mux.HandleFunc("/expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("/expenses/update", s.withMiddleware(s.handleUpdateExpense))
	mux.HandleFunc("/expenses/delete", s.withMiddleware(s.handleDeleteExpense))
	mux.HandleFunc("/ai/extract", s.withMiddleware(s.handleAIExtract))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	return s
}

// withMiddleware adds security headers, rate limiting on writes, and
// request logging with a per-request id.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := r.Context()

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.reportCache.CleanExpired(); n > 0 {
				slog.Debug("Report cache cleanup", "entries_removed", n)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops background cleanup goroutines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) invalidateReport() {
	s.reportCache.Delete(reportCacheKey)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
