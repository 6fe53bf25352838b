// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file with BLOGAPI_* environment overrides.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/blogapi/adapters/clock"
	"github.com/artpar/blogapi/adapters/hasher"
	apihttp "github.com/artpar/blogapi/adapters/http"
	"github.com/artpar/blogapi/adapters/idgen"
	"github.com/artpar/blogapi/adapters/memory"
	"github.com/artpar/blogapi/adapters/metrics"
	"github.com/artpar/blogapi/adapters/sqlite"
	"github.com/artpar/blogapi/app"
	"github.com/artpar/blogapi/config"
	"github.com/artpar/blogapi/core/serializer"
	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Options controls how the application is assembled.
type Options struct {
	// ConfigPath is the YAML config file. When it does not exist the
	// configuration comes from defaults and environment variables.
	ConfigPath string

	// Config, when set, is used as is and ConfigPath is ignored.
	Config *config.Config

	// Override adjusts the loaded configuration before anything is built
	// (command line flags). It must leave the config valid.
	Override func(*config.Config)

	// Watch enables config hot reload (file watch and SIGHUP).
	Watch bool

	// Registry receives the Prometheus metrics. Nil means the default
	// registerer and gatherer.
	Registry *prometheus.Registry

	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder
	DB         *sqlite.DB
	Store      ports.RecordStore
	Catalog    *app.Catalog
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	hasher ports.Hasher
	clock  ports.Clock
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	a := &App{
		hasher: hasher.NewBcrypt(bcrypt.DefaultCost),
		clock:  clock.Real{},
	}

	if err := a.initConfig(opts); err != nil {
		return nil, err
	}
	if opts.Override != nil {
		cfg := *a.Config
		opts.Override(&cfg)
		a.Config = &cfg
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	a.Logger = SetupLogger(a.Config.Logging, out)
	a.Logger.Info().Msg("initializing blogapi")

	if a.Config.Metrics.Enabled {
		if opts.Registry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.Registry)
		} else {
			a.Metrics = metrics.New()
		}
		a.Logger.Info().Msg("prometheus metrics enabled")
	}

	if a.Holder != nil {
		a.watchConfig(opts.Watch)
	}

	if err := a.initStore(); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("init store: %w", err)
	}

	if err := a.initCatalog(); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("init catalog: %w", err)
	}

	a.initHTTPServer(opts.Registry)

	return a, nil
}

func (a *App) initConfig(opts Options) error {
	if opts.Config != nil {
		a.Config = opts.Config
		return nil
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}
		a.Config = cfg
		return nil
	}

	// The holder logs through a bootstrap logger until the configured one
	// exists; only reload messages go through it.
	holder, err := config.NewHolder(path, zerolog.New(os.Stderr).With().Timestamp().Logger())
	if err != nil {
		return err
	}
	a.Holder = holder
	a.Config = holder.Get()
	return nil
}

// watchConfig applies reloadable fields and records reload outcomes.
func (a *App) watchConfig(watch bool) {
	a.Holder.OnChange(func(cfg *config.Config) {
		level, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return
		}
		zerolog.SetGlobalLevel(level)
		a.Logger.Info().Str("level", level.String()).Msg("log level applied")
	})
	if a.Metrics != nil {
		a.Holder.OnReload(a.Metrics.RecordReload)
	}

	if !watch {
		return
	}
	if err := a.Holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled")
	}
	a.Holder.WatchSignals()
}

func (a *App) initStore() error {
	schema := blog.Default()

	if a.Config.IsMemory() {
		a.Store = memory.NewRecordStore(schema)
		a.Logger.Info().Msg("using in-memory record store")
		return nil
	}

	db, err := sqlite.Open(a.Config.Database.DSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Store = sqlite.NewRecordStore(db, schema)
	a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("database initialized")
	return nil
}

func (a *App) initCatalog() error {
	var observer serializer.Observer
	if a.Metrics != nil {
		observer = a.Metrics
	}

	catalog, err := app.NewCatalog(a.Store, app.CatalogConfig{
		Namespace:      a.Config.API.Namespace,
		IncludePrimary: a.Config.API.IncludePrimary,
		Concurrency:    a.Config.API.Concurrency,
		SelfLinks:      a.Config.API.SelfLinks,
		DefinitionsDir: a.Config.API.DefinitionsDir,
	}, a.Logger, observer)
	if err != nil {
		return err
	}

	a.Catalog = catalog
	return nil
}

func (a *App) initHTTPServer(reg *prometheus.Registry) {
	cfg := a.Config

	routerCfg := apihttp.RouterConfig{
		Namespace: cfg.API.Namespace,
		BaseURL:   cfg.Server.BaseURL,
		IDs:       idgen.UUID{},
		Timeout:   cfg.Server.WriteTimeout,
	}
	if a.Metrics != nil {
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsPath = cfg.Metrics.Path
		if reg != nil {
			routerCfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		}
	}

	a.HTTPServer = &http.Server{
		Handler:      apihttp.NewRouter(a.Catalog, a.Logger, routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}

// Seed inserts the demo fixture.
func (a *App) Seed(ctx context.Context) (app.Fixture, error) {
	return app.NewSeeder(a.Store, a.hasher, a.clock).Seed(ctx)
}

// Run starts the HTTP server and blocks until ctx is done, SIGINT or
// SIGTERM arrives, or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := Listen(a.Config.Server.Host, a.Config.Server.Port)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
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

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
		a.DB = nil
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}
