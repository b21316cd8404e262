package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/engine"
	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/lockfile"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/notification/backends"
	"github.com/dmitrymomot/notifykit/pkg/notification/pgstore"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/queue"
	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/telemetry"
)

var errNoTemplates = errors.New("NOTIFICATION_TEMPLATES_DIR is required")

const telemetryFlushTimeout = 5 * time.Second

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
}

// settings gathers every configuration struct the command reads.
type settings struct {
	app          appConfig
	engine       engine.Config
	notification notification.Config
	queue        queue.Config
	pg           pg.Config
	redis        redis.Config
	email        email.Config
	telemetry    telemetry.Config
}

func loadSettings() (settings, error) {
	var s settings
	err := errors.Join(
		config.Load(&s.app),
		config.Load(&s.engine),
		config.Load(&s.notification),
		config.Load(&s.queue),
		config.Load(&s.pg),
		config.Load(&s.redis),
		config.Load(&s.email),
		config.Load(&s.telemetry),
	)
	return s, err
}

func newLogger(cfg appConfig, out io.Writer) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.Env, "emit-notices"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithOutput(out),
		logger.WithContextExtractors(engine.LogBatchID),
	)
}

// deps are the long-lived collaborators shared by the parent and chunk modes.
type deps struct {
	db         pgstore.DBTX
	store      *pgstore.Store
	dispatcher *notification.Dispatcher
	mailer     email.EmailSender
	health     healthCheck
	close      func()
}

// healthCheck reports whether a dependency is reachable.
type healthCheck func(context.Context) error

// repository is the batch storage together with its cleanup. health is nil
// when the storage shares the Postgres pool.
type repository struct {
	queue.Repository
	health healthCheck
	close  func()
}

func run(ctx context.Context, opts options) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	// stdout carries the counts back to the parent in chunk mode.
	l := newLogger(s.app, os.Stderr)
	logger.SetAsDefault(l)

	// Installed before the dispatcher so the delivery counter and the engine
	// span bind to the exporting providers.
	shutdown, err := telemetry.Setup(ctx, s.telemetry)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			l.WarnContext(flushCtx, "failed to flush telemetry", logger.Error(err))
		}
	}()

	d, err := build(ctx, s, l, !opts.chunk)
	if err != nil {
		return err
	}
	defer d.close()

	runner := engine.NewPartSender(d.store, d.dispatcher, l)
	if opts.chunk {
		return engine.ServeChunk(ctx, os.Stdin, os.Stdout, runner)
	}

	pool, err := newPool(opts, runner)
	if err != nil {
		return err
	}

	repo, err := newRepository(ctx, s, d)
	if err != nil {
		return err
	}
	defer repo.close()

	engineOpts := []engine.Option{engine.WithLogger(l)}
	if len(s.engine.Admins) > 0 {
		engineOpts = append(engineOpts, engine.WithAlerter(engine.NewEmailAlerter(d.mailer, s.engine.Admins, l)))
	}
	eng, err := engine.New(s.engine, lockfile.New(s.engine.LockDir, engine.LockName), repo, d.store, pool, engineOpts...)
	if err != nil {
		return err
	}

	if !opts.daemon {
		eng.SendAll(ctx)
		return nil
	}
	return runDaemon(ctx, opts.schedule, eng, l, d.health, repo.health)
}

func build(ctx context.Context, s settings, l *slog.Logger, migrate bool) (deps, error) {
	loc, err := s.notification.Location()
	if err != nil {
		return deps{}, err
	}
	if s.notification.TemplatesDir == "" {
		return deps{}, errNoTemplates
	}
	defs := backends.DefaultDefinitions()
	if s.notification.BackendsFile != "" {
		if defs, err = backends.LoadDefinitions(s.notification.BackendsFile); err != nil {
			return deps{}, err
		}
	}

	mailer, err := email.NewSender(s.email)
	if err != nil {
		return deps{}, err
	}

	pool, err := pg.Connect(ctx, s.pg)
	if err != nil {
		return deps{}, err
	}
	if migrate {
		if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, s.pg, l); err != nil {
			pool.Close()
			return deps{}, err
		}
	}

	store := pgstore.New(pool)
	registry, _, err := backends.Build(defs, backends.Deps{
		Settings: store,
		Renderer: backends.NewTemplateRenderer(os.DirFS(s.notification.TemplatesDir)),
		Inbox:    inbox.NewManager(pgstore.NewInbox(pool), inbox.WithManagerLogger(l)),
		Mailer:   mailer,
		SiteURL:  s.notification.SiteURL,
	})
	if err != nil {
		pool.Close()
		return deps{}, err
	}

	counter, err := telemetry.NewDeliveryCounter()
	if err != nil {
		pool.Close()
		return deps{}, err
	}
	hooks := notification.NewHooks(l)
	hooks.Register(counter)

	dispatcher, err := notification.NewDispatcher(registry, store, store,
		notification.WithHooks(hooks),
		notification.WithDefaults(s.notification.DefaultLanguage, loc),
		notification.WithDispatcherLogger(l),
	)
	if err != nil {
		pool.Close()
		return deps{}, err
	}

	return deps{
		db:         pool,
		store:      store,
		dispatcher: dispatcher,
		mailer:     mailer,
		health:     pg.Healthcheck(pool),
		close:      pool.Close,
	}, nil
}

// newPool picks the pool for opts. A single worker always runs serially,
// even with -processes.
func newPool(opts options, runner engine.Runner) (engine.Pool, error) {
	switch {
	case opts.workers <= 1:
		return engine.Serial{Runner: runner}, nil
	case opts.processes:
		cmd, err := engine.SelfCommand(chunkFlag)
		if err != nil {
			return nil, err
		}
		return engine.NewProcessPool(cmd, opts.workers)
	default:
		return engine.NewThreadPool(runner, opts.workers)
	}
}

// newRepository opens the batch storage selected by NOTIFICATION_QUEUE_BACKEND.
func newRepository(ctx context.Context, s settings, d deps) (repository, error) {
	switch s.queue.Backend {
	case queue.BackendPostgres:
		return repository{Repository: pgstore.NewQueue(d.db), close: func() {}}, nil
	case queue.BackendRedis:
		client, err := redis.Connect(ctx, s.redis)
		if err != nil {
			return repository{}, err
		}
		return repository{
			Repository: queue.NewRedisStorage(client, s.queue.RedisKeyPrefix),
			health:     redis.Healthcheck(client),
			close:      func() { _ = client.Close() },
		}, nil
	default:
		return repository{}, fmt.Errorf("unsupported queue backend %q", s.queue.Backend)
	}
}

// runDaemon drains on schedule until ctx is done. A tick whose checks fail is
// skipped rather than run against an unreachable store.
func runDaemon(ctx context.Context, schedule string, eng *engine.Engine, l *slog.Logger, checks ...healthCheck) error {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(l.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	tick := func() {
		for _, p := range checks {
			if p == nil {
				continue
			}
			if err := p(ctx); err != nil {
				l.WarnContext(ctx, "dependency unavailable, skipping pass", logger.Error(err))
				return
			}
		}
		eng.SendAll(ctx)
	}
	if _, err := c.AddFunc(schedule, tick); err != nil {
		return err
	}

	l.InfoContext(ctx, "daemon started", slog.String("schedule", schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	l.InfoContext(ctx, "daemon stopped")
	return nil
}
