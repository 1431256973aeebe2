package adminserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/yndnr/bankmesh-go/internal/infra/buildinfo"
)

// LedgerStats is the read-only ledger view the admin endpoint reports.
type LedgerStats interface {
	Len() int
	Total(ctx context.Context) decimal.Decimal
}

// SessionCounter reports live bank connections.
type SessionCounter interface {
	ActiveSessions() int
}

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	Metrics  http.Handler
	Ledger   LedgerStats
	Sessions SessionCounter
	Logger   *slog.Logger
}

// NewRouter builds the admin routes. Middleware wraps the whole router so
// it also covers 404 and 405 replies.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		body := map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
			"build":  buildinfo.Get(),
		}
		if cfg.Sessions != nil {
			body["active_sessions"] = cfg.Sessions.ActiveSessions()
		}
		writeJSON(w, http.StatusOK, body)
	}).Methods(http.MethodGet)

	if cfg.Ledger != nil {
		r.HandleFunc("/v1/ledger/summary", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"accounts": cfg.Ledger.Len(),
				"total":    cfg.Ledger.Total(req.Context()).String(),
			})
		}).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "BANK-HTTP-4040", "message": "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"code": "BANK-HTTP-4050", "message": "method not allowed"})
	})
	return Chain(r, requestID, recoverer(logger))
}

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h http.Handler, middlewares ...mux.MiddlewareFunc) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestID echoes X-Request-ID or assigns a ULID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func recoverer(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"request_id", w.Header().Get("X-Request-ID"),
						"error", err,
						"path", r.URL.Path,
					)
					writeJSON(w, http.StatusInternalServerError, map[string]string{
						"code":    "BANK-SYS-5000",
						"message": "internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
