// Package http is the JSON API surface. Handlers translate requests into
// service calls and domain errors into status codes; no business rules live
// here.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// householdHeader carries the caller's household id. Authentication happens
// upstream; an absent header is rejected with 401.
const householdHeader = "X-Household-ID"

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyHousehold ctxKey = "household"
)

type Server struct {
	http.Server
	repo        *storage.Repository
	propagator  *services.Propagator
	ledger      *services.Ledger
	importer    *services.Importer
	backup      *services.Backup
	rateLimiter *rateLimiter

	// snapshots caches a household's yearly snapshot for dashboard reads.
	// Every mutating handler invalidates its household+year entry.
	snapshots        *cache.LRU[core.Snapshot]
	stopCacheCleanup chan struct{}

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter, per client IP.
type rateLimiter struct {
	mu           sync.Mutex
	perMinute    int
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMinute:   perMinute,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter after a quiet minute.
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.perMinute
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, repo *storage.Repository, propagator *services.Propagator, ledger *services.Ledger, importer *services.Importer, backup *services.Backup, rateLimitPerMinute int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:             repo,
		propagator:       propagator,
		ledger:           ledger,
		importer:         importer,
		backup:           backup,
		rateLimiter:      newRateLimiter(rateLimitPerMinute),
		snapshots:        cache.NewLRU[core.Snapshot](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/categories", s.protect(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.protect(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.protect(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.protect(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/budget-lines", s.protect(s.handleListLines))
	mux.HandleFunc("POST /api/budget-lines", s.protect(s.handleCreateLine))
	mux.HandleFunc("POST /api/budget-lines/rename", s.protect(s.handleRenameLines))
	mux.HandleFunc("GET /api/budget-lines/{id}/transactions", s.protect(s.handleLineTransactions))
	mux.HandleFunc("PATCH /api/budget-lines/{id}", s.protect(s.handleRetargetLine))
	mux.HandleFunc("DELETE /api/budget-lines/{id}", s.protect(s.handleDeleteLine))

	mux.HandleFunc("GET /api/transactions", s.protect(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.protect(s.handleAddTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protect(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/rules", s.protect(s.handleListRules))
	mux.HandleFunc("DELETE /api/rules/{id}", s.protect(s.handleDeleteRule))

	mux.HandleFunc("GET /api/dashboard/month", s.protect(s.handleMonthDashboard))
	mux.HandleFunc("GET /api/dashboard/year", s.protect(s.handleYearDashboard))

	mux.HandleFunc("POST /api/import/prepare", s.protect(s.handlePrepareImport))
	mux.HandleFunc("POST /api/import/commit", s.protect(s.handleCommitImport))

	mux.HandleFunc("GET /api/backup", s.protect(s.handleExportBackup))
	mux.HandleFunc("POST /api/backup/restore", s.protect(s.handleRestoreBackup))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.snapshots.CleanExpired(); cleaned > 0 {
				slog.Debug("Snapshot cache cleanup", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines alongside the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func snapshotKey(household string, year int) string {
	return household + "|" + strconv.Itoa(year)
}

// loadSnapshot reads through the cache.
func (s *Server) loadSnapshot(r *http.Request, year int) (core.Snapshot, error) {
	key := snapshotKey(householdFrom(r), year)
	if snap, ok := s.snapshots.Get(key); ok {
		return snap, nil
	}
	snap, err := s.repo.Queries().LoadSnapshot(r.Context(), householdFrom(r), year)
	if err != nil {
		return core.Snapshot{}, err
	}
	s.snapshots.Set(key, snap)
	return snap, nil
}

func (s *Server) invalidateSnapshot(household string, year int) {
	s.snapshots.Delete(snapshotKey(household, year))
}

// protect adds security headers, rate limiting, request tracing and the
// household scope to an API handler.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)

		household := r.Header.Get(householdHeader)
		if household == "" {
			slog.WarnContext(ctx, "Missing household header",
				"request_id", requestID, "url", r.URL.Path, "client_ip", clientIP)
			respondMessage(w, http.StatusUnauthorized, "missing "+householdHeader+" header")
			return
		}
		ctx = context.WithValue(ctx, ctxKeyHousehold, household)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func householdFrom(r *http.Request) string {
	h, _ := r.Context().Value(ctxKeyHousehold).(string)
	return h
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
