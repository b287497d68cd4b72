package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vittorisantiago/beefvalue-sub000/internal/catalog"
	"github.com/vittorisantiago/beefvalue-sub000/internal/config"
	"github.com/vittorisantiago/beefvalue-sub000/internal/db"
	"github.com/vittorisantiago/beefvalue-sub000/internal/logging"
	"github.com/vittorisantiago/beefvalue-sub000/internal/metrics"
	"github.com/vittorisantiago/beefvalue-sub000/internal/migrations"
	"github.com/vittorisantiago/beefvalue-sub000/internal/rates"
	"github.com/vittorisantiago/beefvalue-sub000/internal/seed"
)

type server struct {
	db        *sql.DB
	catalog   *catalog.Catalog
	costItems []catalog.CostItem
	rates     rates.Provider
}

func main() {
	logging.Setup()
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			slog.Error("failed to run database migrations", "error", err)
			return
		}
	}

	stats, err := seed.Run(database)
	if err != nil {
		slog.Error("failed to seed catalogs", "error", err)
		return
	}
	if stats.Inserts > 0 {
		slog.Info("seeded catalogs", "inserts", stats.Inserts)
	}

	cat, err := loadCatalog(database)
	if err != nil {
		slog.Error("failed to load cut catalog", "error", err)
		return
	}
	items, err := loadCostItems(database)
	if err != nil {
		slog.Error("failed to load cost items", "error", err)
		return
	}

	srv := &server{
		db:        database,
		catalog:   cat,
		costItems: items,
		rates:     rates.NewHTTPProvider(cfg.RateURL),
	}

	addr := ":" + cfg.Port
	slog.Info("listening", "address", addr)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		slog.Error("server stopped", "error", err)
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(metrics.Middleware)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/cuts", s.handleListCuts)
		r.Get("/cost-items", s.handleListCostItems)
		r.Get("/rate", s.handleGetRate)

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", s.handleListBusinesses)
			r.Post("/", s.handleCreateBusiness)
			r.Put("/{id}", s.handleUpdateBusiness)
			r.Delete("/{id}", s.handleDeleteBusiness)
			r.Get("/{id}/display-cuts", s.handleDisplayCuts)
		})

		r.Route("/quotations", func(r chi.Router) {
			r.Get("/", s.handleListQuotations)
			r.Post("/preview", s.handlePreviewQuotation)
			r.Post("/", s.handleCreateQuotation)
			r.Get("/{id}", s.handleGetQuotation)
			r.Put("/{id}", s.handleUpdateQuotation)
			r.Delete("/{id}", s.handleDeleteQuotation)
		})
	})

	return r
}

// requestLogger logs every request with its duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rate, err := s.rates.Latest(ctx)
	if err != nil {
		// Degraded but valid: the engine works with a zero rate and the
		// client can retry later.
		slog.Warn("exchange rate unavailable", "error", err)
		respondJSON(w, http.StatusOK, map[string]any{"available": false, "value": 0})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"available":  true,
		"value":      rate.Value,
		"fetched_at": rate.FetchedAt,
	})
}
