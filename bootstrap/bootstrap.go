// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/artpar/scoreapi/adapters/clock"
	"github.com/artpar/scoreapi/adapters/hasher"
	apihttp "github.com/artpar/scoreapi/adapters/http"
	"github.com/artpar/scoreapi/adapters/idgen"
	"github.com/artpar/scoreapi/adapters/metrics"
	"github.com/artpar/scoreapi/app"
	"github.com/artpar/scoreapi/config"
	"github.com/artpar/scoreapi/domain/auth"
	"github.com/artpar/scoreapi/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Options are the command-line overrides applied on top of the loaded
// configuration.
type Options struct {
	ConfigPath string // optional YAML file; SCOREAPI_* env vars are used when absent
	Port       int    // overrides server.port when > 0
	LogFile    string // overrides logging.file when set
	Version    string
	WatchFile  bool // reload the config file when it changes

	// Output receives logs when no log file is configured (default: stderr).
	Output io.Writer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	HTTPServer *http.Server
	Handler    http.Handler
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry

	// Services
	Store   *app.StoreService
	Scoring *app.ScoringService
	Methods *app.MethodService

	// Adapters (for cleanup)
	backend     ports.KeyValueBackend
	closeStore  func() error
	holder      *config.Holder
	logFile     *os.File
	stopCleanup context.CancelFunc
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.LogFile != "" {
		cfg.Logging.File = opts.LogFile
	}

	a := &App{Config: cfg}

	logger, logFile, err := setupLogger(cfg.Logging, opts.Output)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	a.Logger = logger
	a.logFile = logFile

	logger.Info().
		Str("backend", cfg.Store.Backend).
		Str("digest", cfg.Auth.Digest).
		Msg("initializing scoreapi")

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewWithRegistry(a.Registry)

	if err := a.initStore(context.Background()); err != nil {
		a.closeLog()
		return nil, fmt.Errorf("init store: %w", err)
	}

	if err := a.initServices(); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("init services: %w", err)
	}

	a.initHTTPServer(opts.Version)

	if err := a.initReload(opts); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("init config reload: %w", err)
	}

	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	backend, closeFn, err := OpenBackend(ctx, a.Config.Store, clock.Real{}, a.Logger)
	if err != nil {
		return err
	}
	a.backend = backend
	a.closeStore = closeFn

	if hc, ok := backend.(ports.HealthChecker); ok {
		if err := hc.Ping(ctx); err != nil {
			// The store facade absorbs outages; start anyway.
			a.Logger.Warn().Err(err).Str("backend", a.Config.Store.Backend).Msg("store backend not reachable")
		}
	}
	return nil
}

func (a *App) initServices() error {
	digest, err := hasher.New(a.Config.Auth.Digest)
	if err != nil {
		return err
	}

	a.Store = app.NewStoreService(app.StoreDeps{
		Backend:  a.backend,
		Sleeper:  clock.Real{},
		Observer: a.Metrics,
	}, retryPolicy(a.Config.Store), a.Logger)

	a.Scoring = app.NewScoringService(a.Store, a.Config.Scoring.ScoreTTL, a.Logger)

	a.Methods = app.NewMethodService(app.MethodDeps{
		Clock:  clock.Real{},
		Digest: digest,
		Scorer: a.Scoring,
	}, app.MethodConfig{
		Secrets: auth.Secrets{
			Salt:       a.Config.Auth.Salt,
			AdminLogin: a.Config.Auth.AdminLogin,
			AdminSalt:  a.Config.Auth.AdminSalt,
		},
	}, a.Logger)

	return nil
}

func (a *App) initHTTPServer(version string) {
	cfg := a.Config

	methodHandler := apihttp.NewMethodHandler(a.Methods, a.Logger).
		WithMetrics(a.Metrics).
		WithMaxBodyBytes(cfg.Server.MaxBodyBytes)

	var health *apihttp.HealthHandler
	if hc, ok := a.backend.(ports.HealthChecker); ok {
		health = apihttp.NewHealthHandler(hc)
	} else {
		health = apihttp.NewHealthHandler(nil)
	}

	routerCfg := apihttp.RouterConfig{
		IDs:     idgen.Hex{},
		Version: version,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsPath = cfg.Metrics.Path
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
		a.Logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}
	if cfg.Server.RateLimit.Enabled {
		limiter := apihttp.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst, clock.Real{}, a.Logger)
		ctx, cancel := context.WithCancel(context.Background())
		limiter.StartCleanup(ctx, time.Minute)
		a.stopCleanup = cancel
		routerCfg.RateLimiter = limiter
		a.Logger.Info().
			Float64("rps", cfg.Server.RateLimit.RPS).
			Int("burst", cfg.Server.RateLimit.Burst).
			Msg("rate limiting enabled")
	}

	a.Handler = apihttp.NewRouterWithConfig(methodHandler, health, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// initReload watches the config file when one was loaded.
func (a *App) initReload(opts Options) error {
	if opts.ConfigPath == "" {
		return nil
	}
	if _, err := os.Stat(opts.ConfigPath); err != nil {
		return nil
	}

	holder, err := config.NewHolder(opts.ConfigPath, a.Logger)
	if err != nil {
		return err
	}
	a.holder = holder

	holder.OnChange(a.Apply)
	holder.OnReloadError(func(error) {
		a.Metrics.ConfigReloadErrors.Inc()
	})
	holder.WatchSignals()

	if opts.WatchFile {
		if err := holder.WatchFile(); err != nil {
			return err
		}
	}
	return nil
}

// Apply applies the reloadable fields of cfg to the running application.
func (a *App) Apply(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.Store.UpdatePolicy(retryPolicy(cfg.Store))

	a.Metrics.ConfigReloads.Inc()
	a.Metrics.ConfigLastReload.SetToCurrentTime()
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error

	if a.holder != nil {
		a.holder.Stop()
		a.holder = nil
	}

	if a.stopCleanup != nil {
		a.stopCleanup()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.Logger.Error().Err(err).Msg("store close error")
			errs = append(errs, err)
		}
		a.closeStore = nil
	}

	a.Logger.Info().Msg("shutdown complete")
	a.closeLog()

	return errors.Join(errs...)
}

func (a *App) closeLog() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func retryPolicy(cfg config.StoreConfig) app.RetryPolicy {
	return app.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.Backoff}
}

// setupLogger builds the process logger. A configured file is opened for
// appending and returned so it can be closed on shutdown.
func setupLogger(cfg config.LoggingConfig, out io.Writer) (zerolog.Logger, *os.File, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var file *os.File
	if cfg.File != "" {
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
	}
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: file != nil}
	}

	return zerolog.New(out).With().Timestamp().Logger(), file, nil
}
