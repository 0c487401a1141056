package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/farm-advisor/internal/config"
	"github.com/sells-group/farm-advisor/internal/engine"
	"github.com/sells-group/farm-advisor/internal/normalize"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP decision API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(engine.New(cfg.Engine), cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		done := make(chan error, 1)
		go func() {
			<-ctx.Done()
			zap.L().Info("serve: shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutS)*time.Second)
			defer cancel()
			done <- srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("serve: starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve: listen")
		}

		if err := <-done; err != nil {
			return eris.Wrap(err, "serve: shutdown")
		}
		return nil
	},
}

type validateResponse struct {
	Valid    bool     `json:"valid"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings"`
}

// buildRouter wires the decision API routes and middleware.
func buildRouter(eng *engine.Engine, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if sc.RequestsPerSec > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(sc.RequestsPerSec), max(sc.Burst, 1))))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/decisions", func(w http.ResponseWriter, r *http.Request) {
			raw, ok := decodeBody(w, r, sc.MaxBodyBytes)
			if !ok {
				return
			}
			if valid, msg := engine.ValidateInputs(raw); !valid {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": msg})
				return
			}

			res := eng.Run(r.Context(), raw)
			zap.L().Debug("serve: decision complete",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("decision", string(res.FinalDecision)),
				zap.String("status", res.TechnicalDetails.SystemStatus),
			)
			writeJSON(w, http.StatusOK, res)
		})

		r.Post("/validate", func(w http.ResponseWriter, r *http.Request) {
			raw, ok := decodeBody(w, r, sc.MaxBodyBytes)
			if !ok {
				return
			}
			valid, msg := engine.ValidateInputs(raw)
			_, warnings := normalize.Normalize(raw, eng.Config())
			if warnings == nil {
				warnings = []string{}
			}
			writeJSON(w, http.StatusOK, validateResponse{Valid: valid, Message: msg, Warnings: warnings})
		})
	})

	return r
}

// rateLimit rejects requests once the shared limiter is exhausted.
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, bool) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	raw := map[string]any{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return nil, false
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
