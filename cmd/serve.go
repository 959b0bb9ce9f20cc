package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fullstackslife/guild-scout-reports/internal/config"
	"github.com/fullstackslife/guild-scout-reports/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		router := newRouter(env, cfg.Server)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("server listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

func newRouter(env *env, serverCfg config.ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	limit := serverCfg.RatePerSecond
	if limit <= 0 {
		limit = 20
	}
	burst := serverCfg.RateBurst
	if burst <= 0 {
		burst = 40
	}
	r.Use(rateLimit(rate.NewLimiter(rate.Limit(limit), burst)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/reconcile", handleReconcile(env))
	r.Get("/profiles/{contributorID}", handleGetProfile(env))
	r.Get("/reconciliations/{id}", handleGetReconciliation(env))

	return r
}

func handleReconcile(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pair model.ReportPair
		if err := json.NewDecoder(r.Body).Decode(&pair); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if pair.ContributorID == "" {
			writeError(w, http.StatusBadRequest, "contributor_id is required")
			return
		}
		if pair.Manual == nil {
			writeError(w, http.StatusBadRequest, "manual report is required")
			return
		}
		if pair.ReportID == "" {
			pair.ReportID = uuid.New().String()
		}

		result := env.Engine.Reconcile(pair.Manual, pair.Parsed)

		rec := &model.ReconciliationRecord{
			ID:            uuid.New().String(),
			ReportID:      pair.ReportID,
			ContributorID: pair.ContributorID,
			Guild:         pair.Guild,
			Result:        result,
			CreatedAt:     time.Now().UTC(),
		}
		if err := env.Store.SaveReconciliation(r.Context(), rec); err != nil {
			zap.L().Error("save reconciliation failed",
				zap.String("report_id", pair.ReportID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "failed to save reconciliation")
			return
		}

		// Profile update is fire-and-forget relative to this request.
		env.Accumulator.RecordAsync(pair.ContributorID, pair.Guild, result)

		writeJSON(w, http.StatusOK, rec)
	}
}

func handleGetProfile(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contributorID := chi.URLParam(r, "contributorID")
		guild := r.URL.Query().Get("guild")

		profile, err := env.Store.GetProfile(r.Context(), contributorID, guild)
		if err != nil {
			zap.L().Error("get profile failed",
				zap.String("contributor_id", contributorID),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}
		if profile == nil {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

func handleGetReconciliation(env *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := env.Store.GetReconciliation(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "reconciliation not found")
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
