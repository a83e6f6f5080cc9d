package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/employeeform"
	"hrconsole/internal/domain/formsession"
	"hrconsole/internal/domain/refdata"
	"hrconsole/internal/hrapi"
	"hrconsole/internal/platform/cache"
	"hrconsole/internal/platform/config"
	"hrconsole/internal/platform/crypto"
	"hrconsole/internal/platform/jobs"
	"hrconsole/internal/platform/metrics"
	"hrconsole/internal/transport/http/api"
	documentshandler "hrconsole/internal/transport/http/handlers/documents"
	formshandler "hrconsole/internal/transport/http/handlers/forms"
	"hrconsole/internal/transport/http/middleware"
)

const idempotencyTTL = 24 * time.Hour

type App struct {
	Config  config.Config
	Client  *hrapi.Client
	Cache   cache.Cache
	Forms   *formsession.Registry[*employeeform.Form]
	Metrics *metrics.Collector
	Jobs    *jobs.Service
	Router  http.Handler
}

// New wires the console from cfg. The cache falls back to process memory when
// no redis address is configured and is sealed when an encryption key is set.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	sealer, err := crypto.New(cfg.CacheEncryptionKey)
	if err != nil {
		return nil, err
	}
	if sealer.Configured() {
		store = cache.NewSealed(store, sealer)
	}

	collector := metrics.New()
	app := &App{
		Config:  cfg,
		Client:  hrapi.New(cfg.HRAPIBaseURL, cfg.HRAPITimeout),
		Cache:   store,
		Forms:   formsession.NewRegistry[*employeeform.Form](cfg.FormIdleTimeout, collector.FormClosed),
		Metrics: collector,
		Jobs:    jobs.New(0),
	}
	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	auditSvc := audit.New(slog.Default())

	forms := formshandler.NewHandler(
		a.Client,
		refdata.NewResolver(nil, a.Cache, cfg.RefCacheTTL),
		a.Forms,
		a.Metrics,
		employeeform.Options{
			DupCheckDebounce:      cfg.DupCheckDebounce,
			DupCheckRatePerSecond: cfg.DupCheckRatePerSecond,
			RemoteTimeout:         cfg.HRAPITimeout,
			MaxUploadBytes:        cfg.MaxUploadBytes,
		},
	)
	forms.Audit = auditSvc
	forms.Idempotency = middleware.NewIdempotencyStore(a.Cache, idempotencyTTL)
	documents := documentshandler.NewHandler(a.Client, auditSvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Client.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "err", err)
			http.Error(w, "hr api not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		forms.RegisterRoutes(r)
		documents.RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

// Start runs the idle-form sweeper until ctx is done.
func (a *App) Start(ctx context.Context) {
	a.Jobs.Start(ctx)
	a.Jobs.Every(ctx, jobs.JobFormSweep, a.Config.FormSweepInterval, func(context.Context) error {
		a.Forms.Sweep()
		return nil
	})
}

// Shutdown closes every open form so all staged previews are released.
func (a *App) Shutdown(ctx context.Context) {
	_ = a.Jobs.RunNow(ctx, jobs.JobFormClose, func(context.Context) error {
		a.Forms.CloseAll()
		return nil
	})
}

func Run() {
	cfg := config.Load()
	configureLogging(cfg)

	app, err := New(cfg)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HR console listening", "addr", cfg.Addr, "hrApi", cfg.HRAPIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown incomplete", "err", err)
	}
	app.Shutdown(shutdownCtx)
	slog.Info("HR console stopped")
}

func configureLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
