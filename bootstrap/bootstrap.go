// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Point72/chatom/adapters/clock"
	apihttp "github.com/Point72/chatom/adapters/http"
	"github.com/Point72/chatom/adapters/idgen"
	"github.com/Point72/chatom/adapters/metrics"
	"github.com/Point72/chatom/app"
	"github.com/Point72/chatom/backends/builtin"
	"github.com/Point72/chatom/config"
	"github.com/Point72/chatom/core/backend"
	"github.com/Point72/chatom/core/catalog"
	"github.com/Point72/chatom/core/conversion"
	"github.com/Point72/chatom/core/provider"
	"github.com/Point72/chatom/core/registry"
	"github.com/Point72/chatom/core/schema"
	"github.com/Point72/chatom/domain/canonical"
)

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath enables hot reload of the reloadable settings when it
	// names an existing file.
	ConfigPath string

	// Version is reported by the /version endpoint.
	Version string

	// LogOutput receives log output. Default: stdout.
	LogOutput io.Writer
}

// App represents the running application.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	Catalog   *catalog.Catalog
	Registry  *registry.Registry
	Provider  *provider.Provider
	Converter *conversion.Converter

	Convert *app.ConvertService
	Types   *app.TypeService

	Metrics         *metrics.Collector
	MetricsRegistry *prometheus.Registry

	HTTPServer *http.Server

	holder *config.Holder
}

// New creates and initializes the application from cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}
	logger := NewLogger(cfg.Logging, opts.LogOutput)
	logger.Info().Msg("initializing chatom")

	a := &App{Config: cfg, Logger: logger}

	if err := a.initEngine(); err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.MetricsRegistry = prometheus.NewRegistry()
		a.MetricsRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.MetricsRegistry)
		logger.Info().Msg("prometheus metrics enabled")
	}

	a.initServices()

	if cfg.Registry.Mode == config.RegistryEager {
		if err := a.Registry.RequireEntries(); err != nil {
			return nil, fmt.Errorf("populate registry: %w", err)
		}
		n := len(a.Registry.Entries())
		logger.Info().Int("variants", n).Msg("registry populated")
		if a.Metrics != nil {
			a.Metrics.RegisteredVariants.Set(float64(n))
		}
	}

	a.initHTTPServer(opts.Version)

	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			if err := a.initHolder(opts.ConfigPath); err != nil {
				logger.Warn().Err(err).Msg("config hot reload disabled")
			}
		}
	}

	return a, nil
}

// initEngine builds the catalog, the registry, and the converter.
func (a *App) initEngine() error {
	modules, err := builtin.Modules(a.Config.Backends...)
	if err != nil {
		return err
	}

	a.Catalog = catalog.New()
	types, err := canonical.Types()
	if err != nil {
		return fmt.Errorf("load canonical types: %w", err)
	}
	if err := a.Catalog.AddAll(types); err != nil {
		return err
	}
	if err := backend.Install(a.Catalog, modules...); err != nil {
		return err
	}

	if dir := a.Config.Types.Dir; dir != "" {
		extra, err := schema.ParseDir(dir)
		if err != nil {
			return fmt.Errorf("load types from %s: %w", dir, err)
		}
		if err := a.Catalog.AddAll(extra); err != nil {
			return err
		}
		a.Logger.Info().Str("dir", dir).Int("types", len(extra)).Msg("loaded user types")
	}

	if err := a.Catalog.Check(); err != nil {
		return err
	}

	a.Registry = registry.New(
		registry.WithPopulator(backend.Populator(modules...)),
		registry.WithLogger(a.Logger),
	)
	a.Provider = provider.New(a.Catalog)

	a.Logger.Info().
		Strs("backends", backend.IDs(modules)).
		Int("types", a.Catalog.Len()).
		Str("registry_mode", a.Config.Registry.Mode).
		Msg("engine initialized")
	return nil
}

func (a *App) initServices() {
	opts := []conversion.Option{
		conversion.WithClock(clock.Real{}),
		conversion.WithLogger(a.Logger),
	}
	if a.Metrics != nil {
		opts = append(opts, conversion.WithObserver(a.Metrics))
	}
	a.Converter = conversion.New(a.Registry, a.Catalog, a.Provider, opts...)
	a.Convert = app.NewConvertService(a.Converter, a.Provider, a.Logger)
	a.Types = app.NewTypeService(a.Catalog, a.Registry)
}

func (a *App) initHTTPServer(version string) {
	cfg := a.Config
	routerCfg := apihttp.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
		IDs:         idgen.UUID{},
		Version:     version,
	}
	if a.MetricsRegistry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.MetricsRegistry, promhttp.HandlerOpts{})
	}

	router := apihttp.NewRouter(a.Convert, a.Types, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
}

// initHolder enables hot reload of the log level.
func (a *App) initHolder(path string) error {
	h, err := config.NewHolder(path, a.Logger)
	if err != nil {
		return err
	}
	h.OnChange(func(c *config.Config) {
		if level, err := zerolog.ParseLevel(c.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})
	a.holder = h
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a.holder != nil {
		if err := a.holder.Watch(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file not watched; SIGHUP still reloads")
		}
	}

	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", ln.Addr().String()).Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
		a.holder = nil
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			return err
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// NewLogger builds the process logger and sets the global level.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(w).With().Timestamp().Logger()
}
