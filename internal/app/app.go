package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/drillscope/panel-api/external/drillhq"
	"github.com/drillscope/panel-api/internal/config"
	"github.com/drillscope/panel-api/internal/domain/assignment"
	"github.com/drillscope/panel-api/internal/infrastructure/overlay"
	"github.com/drillscope/panel-api/internal/interfaces/httpapi"
	"github.com/drillscope/panel-api/internal/platform/cache"
	"github.com/drillscope/panel-api/internal/platform/logging"
	"github.com/drillscope/panel-api/internal/platform/resilience"
	"github.com/drillscope/panel-api/internal/usecase"
)

// NewHTTPServer wires the whole service: upstream client, overlay store,
// reconciler and HTTP router. The returned cleanup releases resources the
// wiring opened (currently the database handle, if any).
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := drillhq.NewClient(drillhq.ClientConfig{
		BaseURL: cfg.DrillHQBaseURL,
		Token:   cfg.DrillHQToken,
		Timeout: cfg.DrillHQTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.DrillHQCircuitEnabled,
			FailureThreshold: cfg.DrillHQCircuitFailureCount,
			OpenTimeout:      cfg.DrillHQCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.DrillHQCircuitHalfOpenMaxReq,
		},
	})

	overlayStore, cleanup, err := newOverlayStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	reconciler := usecase.NewReconcileService(
		client,
		overlayStore,
		usecase.NewAssignmentStore(),
		cache.NewStore(cfg.CacheTTL),
		logger,
		cfg.RefreshMaxWorkers,
	)

	handler := httpapi.NewHandler(reconciler, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.PanelToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}

func newOverlayStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (assignment.OverlayStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.OverlayBackend {
	case config.OverlayBackendMemory:
		return overlay.NewMemoryStore(), noop, nil
	case config.OverlayBackendPostgres:
		db, err := overlay.OpenPostgres(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		return overlay.NewPostgresStore(db), db.Close, nil
	case config.OverlayBackendFile:
		store, err := overlay.NewFileStore(cfg.OverlayFilePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown overlay backend %q", cfg.OverlayBackend)
	}
}
