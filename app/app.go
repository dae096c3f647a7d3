package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/geobot/app/adapters/airports"
	"github.com/m3rciful/geobot/app/adapters/flights"
	"github.com/m3rciful/geobot/app/adapters/geocoder"
	"github.com/m3rciful/geobot/app/adapters/news"
	"github.com/m3rciful/geobot/app/adapters/speech"
	"github.com/m3rciful/geobot/app/adapters/weather"
	"github.com/m3rciful/geobot/app/dialog"
	"github.com/m3rciful/geobot/app/metrics"
	"github.com/m3rciful/geobot/app/session"
	"github.com/m3rciful/geobot/app/transport"
	"github.com/m3rciful/geobot/core/bootstrap"
	"github.com/m3rciful/geobot/core/logger"
	"github.com/m3rciful/geobot/core/netutil"
	tg "github.com/m3rciful/geobot/core/telegram"
	"github.com/m3rciful/geobot/core/telegram/router"
)

// App owns the long-lived components of the bot.
type App struct {
	cfg *Config

	db       *sqlx.DB
	redis    *session.Redis
	sessions *session.Manager
	engine   *dialog.Engine
	bridge   *transport.Bridge
	metrics  *metrics.Metrics
	checks   []metrics.Check

	stopOps func()
	opsDone sync.WaitGroup
}

// Bootstrap initializes logging and storage and wires the dialog engine.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{cfg: cfg}

	var seeders []bootstrap.Seeder
	if cfg.Database.Configured() {
		seeders = append(seeders, airports.SeedFile(cfg.Airports.SeedFile))
	}
	res, err := bootstrap.Run(context.Background(), bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Seeders:  seeders,
	})
	if err != nil {
		return nil, err
	}
	a.db = res.DB

	adapters, err := a.buildAdapters()
	if err != nil {
		a.close()
		return nil, err
	}

	a.sessions = session.NewManager(a.buildBackend())
	a.metrics = metrics.New(a.sessions.Count)

	a.engine, err = dialog.New(dialog.Options{
		Store:          a.sessions,
		Adapters:       adapters,
		AdapterTimeout: cfg.Adapters.Timeout,
		Recorder:       a.metrics,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app: %w", err)
	}

	a.bridge, err = transport.New(transport.Options{
		Engine:   a.engine,
		Sessions: a.sessions,
		AdminID:  cfg.Telegram.AdminID,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app: %w", err)
	}
	return a, nil
}

func (a *App) buildAdapters() (dialog.Adapters, error) {
	cfg := a.cfg.Adapters
	client := netutil.NewClient(netutil.ClientOptions{
		Timeout:   cfg.HTTP.Timeout,
		Retries:   cfg.HTTP.Retries,
		Backoff:   cfg.HTTP.Backoff,
		UserAgent: cfg.HTTP.UserAgent,
	})

	var directory dialog.AirportDirectory
	if a.db != nil {
		directory = airports.New(a.db)
		a.checks = append(a.checks, metrics.Check{Name: "postgres", Probe: a.db.PingContext})
	} else {
		entries, err := airports.LoadFile(a.cfg.Airports.SeedFile)
		if err != nil {
			return dialog.Adapters{}, fmt.Errorf("app: %w", err)
		}
		directory = airports.NewStatic(entries)
		logger.Info(context.Background(), "app", "airports.static",
			slog.String("status", "ok"),
			slog.Int("count", len(entries)),
		)
	}

	out := dialog.Adapters{
		Geocoder: geocoder.New(client, cfg.Geocoder),
		Maps:     cfg.StaticMap,
		News:     news.New(client, cfg.News),
		Weather:  weather.New(client, cfg.Weather),
		Airports: directory,
		Flights:  flights.New(client, cfg.Flights),
	}
	if cfg.Speech.APIKey != "" {
		out.Transcriber = speech.New(client, cfg.Speech)
	}
	return out, nil
}

func (a *App) buildBackend() session.Backend {
	cfg := a.cfg
	if cfg.Sessions.Backend != SessionsRedis {
		return session.NewMemory(session.WithMemoryTTL(cfg.Sessions.TTL))
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.redis = session.NewRedis(client,
		session.WithTTL(cfg.Sessions.TTL),
		session.WithPrefix(cfg.Redis.Prefix),
	)
	a.checks = append(a.checks, metrics.Check{Name: "redis", Probe: a.redis.Ping})
	return a.redis
}

// TelegramRunOptions builds the registry, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.bridge.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}
	reg.SetCallbackNotFound(a.bridge.UnknownCallback())

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.bridge, reg, router.TextOptions{
		UnknownText:  a.bridge.UnknownText(),
		UnknownVoice: a.bridge.UnknownVoice(),
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.bridge.Attach(rt.Bot)

	if a.cfg.Metrics.Listen == "" {
		return nil
	}
	opsCtx, cancel := context.WithCancel(ctx)
	a.stopOps = cancel
	srv := metrics.NewServer(a.cfg.Metrics.Listen, metrics.NewRouter(a.metrics, a.checks))
	a.opsDone.Add(1)
	go func() {
		defer a.opsDone.Done()
		_ = srv.Run(opsCtx)
	}()
	return nil
}

func (a *App) onStop(context.Context, tg.Runtime) error {
	if a.stopOps != nil {
		a.stopOps()
		a.opsDone.Wait()
	}
	return a.close()
}

func (a *App) close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
