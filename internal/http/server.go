package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cofre/internal/core"
	"cofre/internal/goals"
	applog "cofre/internal/log"
	"cofre/internal/report"
)

// TransactionStore is the persistence surface the transaction and category
// handlers need. The SQLite repository satisfies it.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) error
	TransactionsInRange(ctx context.Context, f report.Filter) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	KnownCategories(ctx context.Context, kind core.Direction) ([]string, error)
	EnqueueExport(ctx context.Context, recordType, recordID, operation string) error
}

// Reports builds the dashboard panels.
type Reports interface {
	Categories(ctx context.Context, start, end string) (report.CategoryReport, error)
	Cashflow(ctx context.Context, start, end string) (report.CashflowReport, error)
}

// Goals is the goal operation surface.
type Goals interface {
	Create(ctx context.Context, name string, target core.Money, deadline string) (core.Goal, error)
	Get(ctx context.Context, id uuid.UUID) (goals.View, error)
	List(ctx context.Context) ([]goals.View, error)
	Contribute(ctx context.Context, id uuid.UUID, amount core.Money, occurredAt string) (core.Goal, error)
	Withdraw(ctx context.Context, id uuid.UUID, amount core.Money, occurredAt string) (core.Goal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Publisher emits record-change events after transaction writes.
type Publisher interface {
	PublishRecordChange(ctx context.Context, recordType, recordID, operation string) error
}

type Server struct {
	http.Server

	store     TransactionStore
	reports   Reports
	goals     Goals
	publisher Publisher
	logger    *applog.Logger

	limiter      *writeLimiter
	metrics      securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store TransactionStore, reports Reports, goalSvc Goals, publisher Publisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		store:     store,
		reports:   reports,
		goals:     goalSvc,
		publisher: publisher,
		logger:    applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP),
		limiter:   newWriteLimiter(writeLimit, writeWindow),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /categories", s.withSecurityHeaders(s.handleListCategories))

	mux.HandleFunc("GET /reports/categories", s.withSecurityHeaders(s.handleCategoryReport))
	mux.HandleFunc("GET /reports/cashflow", s.withSecurityHeaders(s.handleCashflowReport))

	mux.HandleFunc("POST /goals", s.withSecurityHeaders(s.handleCreateGoal))
	mux.HandleFunc("GET /goals", s.withSecurityHeaders(s.handleListGoals))
	mux.HandleFunc("GET /goals/{id}", s.withSecurityHeaders(s.handleGetGoal))
	mux.HandleFunc("DELETE /goals/{id}", s.withSecurityHeaders(s.handleDeleteGoal))
	mux.HandleFunc("POST /goals/{id}/contribute", s.withSecurityHeaders(s.handleContribute))
	mux.HandleFunc("POST /goals/{id}/withdraw", s.withSecurityHeaders(s.handleWithdraw))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request pattern",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.String())
		}

		// Rate limiting applies to mutating methods only
		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.limiter.allow(clientIP, &s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
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

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}
