package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/oafilter/entity"
)

// FilterService is the filter functionality the API exposes.
type FilterService interface {
	Queryables(collection string) ([]entity.Queryable, error)
	Parse(collection, text string) ([]entity.FilterGroup, error)
	Serialize(collection string, groups []entity.FilterGroup) (string, error)
	Save(ctx context.Context, collection string, groups []entity.FilterGroup) (entity.SavedFilter, error)
	Load(ctx context.Context, id uuid.UUID) (entity.SavedFilter, []entity.FilterGroup, error)
	List(ctx context.Context, collection string, limit int) ([]entity.SavedFilter, error)
}

type server struct {
	cfg     Config
	logger  *slog.Logger
	filters FilterService
	origins map[string]struct{}
	started time.Time
}

func NewServer(cfg Config, logger *slog.Logger, filters FilterService) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()

	origins := make(map[string]struct{}, len(cfg.CORS.TrustedOrigins))
	for _, o := range cfg.CORS.TrustedOrigins {
		origins[o] = struct{}{}
	}

	return &server{
		cfg:     cfg,
		logger:  logger,
		filters: filters,
		origins: origins,
		started: time.Now(),
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)

	mux.HandleFunc("GET /api/collections/{collection}/queryables", s.queryablesHandler)
	mux.HandleFunc("GET /api/collections/{collection}/operators", s.operatorsHandler)
	mux.HandleFunc("POST /api/collections/{collection}/filters/parse", s.parseFilterHandler)
	mux.HandleFunc("POST /api/collections/{collection}/filters/serialize", s.serializeFilterHandler)
	mux.HandleFunc("POST /api/collections/{collection}/filters", s.saveFilterHandler)
	mux.HandleFunc("GET /api/collections/{collection}/filters", s.listFiltersHandler)

	mux.HandleFunc("GET /api/filters/{id}", s.getFilterHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux)))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && !errors.Is(serverErr, http.ErrServerClosed) {
		return serverErr
	}

	return nil
}
