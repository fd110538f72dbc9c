package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/distrobmj-cmd/julianarbitraje/internal/service"
)

// StateProvider exposes the read-only view the status surface renders.
// The server must never mutate core state.
type StateProvider interface {
	Snapshot() service.Snapshot
}

// Server is the keep-alive and diagnostics endpoint.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New builds the status server.
func New(addr string, state StateProvider, logger zerolog.Logger) *Server {
	log := logger.With().Str("component", "server").Logger()

	r := chi.NewRouter()
	r.Get("/", home(state))
	r.Get("/status", status(state))
	r.Get("/healthz", health())
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("status server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func status(state StateProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := state.Snapshot()

		payload := map[string]any{
			"status":                         "active",
			"alertas_instantaneas":           snap.InstantAlerts,
			"alertas_periodicas":             snap.Digests,
			"ciclos":                         snap.Cycles,
			"proxima_actualizacion_trm_min":  int(snap.NextRefreshIn.Minutes()),
			"proxima_alerta_periodica_min":   int(snap.NextDigestIn.Minutes()),
			"ultima_revision":                snap.LastCycleAt.Format(time.RFC3339),
		}
		if snap.HasRate {
			payload["trm_actual"] = snap.Rate.Value.String()
			payload["fecha_trm"] = snap.Rate.EffectiveDate
			payload["umbral_alerta"] = snap.Threshold.String()
		} else {
			payload["trm_actual"] = nil
			payload["umbral_alerta"] = nil
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func home(state StateProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := state.Snapshot()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<h1>🤖 Bot TRM Alerts - ACTIVO ✅</h1>\n<h2>📊 Estado Actual:</h2>\n<ul>\n")
		if snap.HasRate {
			fmt.Fprintf(w, "<li><strong>💰 TRM Oficial:</strong> %s COP (%s)</li>\n", snap.Rate.Value.StringFixed(2), snap.Rate.EffectiveDate)
			fmt.Fprintf(w, "<li><strong>🎯 Umbral de Alerta:</strong> %s COP</li>\n", snap.Threshold.StringFixed(2))
		} else {
			fmt.Fprint(w, "<li><strong>💰 TRM Oficial:</strong> sin datos</li>\n")
		}
		fmt.Fprintf(w, "<li><strong>🚨 Alertas Instantáneas:</strong> %d</li>\n", snap.InstantAlerts)
		fmt.Fprintf(w, "<li><strong>⏰ Alertas Periódicas:</strong> %d</li>\n", snap.Digests)
		fmt.Fprintf(w, "<li><strong>🔄 Próxima Actualización TRM:</strong> %d minutos</li>\n", int(snap.NextRefreshIn.Minutes()))
		fmt.Fprintf(w, "<li><strong>📢 Próxima Alerta Periódica:</strong> %d minutos</li>\n", int(snap.NextDigestIn.Minutes()))
		fmt.Fprint(w, "</ul>\n")
	}
}
