package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/reconciler"
	"github.com/specialistvlad/branchtalk/internal/session"
)

// newMux builds the HTTP surface: health, metrics, the current graph and the
// lock and confirm operations on nodes.
func (a *App) newMux(ctx context.Context, sess session.Session) *http.ServeMux {
	logger := ctxlog.FromContext(ctx)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle("GET /metrics", a.metrics.Handler())

	mux.HandleFunc("GET /graph", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sess.Graph().View(r.Context()))
	})

	mux.HandleFunc("POST /nodes/{id}/lock", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		locked, err := sess.Reconciler().ToggleLock(ctxlog.WithLogger(r.Context(), logger), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "locked": locked})
	})

	mux.HandleFunc("POST /nodes/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		removed, err := sess.Reconciler().Confirm(ctxlog.WithLogger(r.Context(), logger), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if removed == nil {
			removed = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "removed": removed})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, reconciler.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// startServer runs the HTTP server in the background. It returns nil when
// the server is disabled.
func (a *App) startServer(ctx context.Context, sess session.Session) *http.Server {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring health check server.")
	if a.config.HealthcheckPort <= 0 {
		logger.Warn("Health check server not started: disabled")
		return nil
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.newMux(ctx, sess),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return srv
}

func (a *App) stopServer(ctx context.Context, srv *http.Server) {
	logger := ctxlog.FromContext(ctx)
	if srv == nil {
		logger.Debug("Health check server was not running.")
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return
	}
	logger.Debug("Health check server shut down gracefully.")
}
