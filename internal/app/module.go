// Package app composes the client core with fx: archive, transport,
// conversation store, search, selector, actions and realtime sync.
package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/actions"
	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/config"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/lock"
	"github.com/matheus3301/dmchat/internal/logging"
	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/search"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/session"
	"github.com/matheus3301/dmchat/internal/status"
	"github.com/matheus3301/dmchat/internal/store"
	intsync "github.com/matheus3301/dmchat/internal/sync"
	"github.com/matheus3301/dmchat/internal/transport"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	Config  *config.Config
	Binary  string // log file name, e.g. "dmtui"
	Console bool   // also log to stderr

	// Optional overrides for testing; empty = profile defaults.
	Dir         string
	ArchivePath string
	LogPath     string

	// Notifier receives action feedback. Nil discards it.
	Notifier actions.Notifier
	// PollInterval of the archive watcher. Zero uses the default.
	PollInterval time.Duration
}

func (p Params) dir() string {
	if p.Dir != "" {
		return p.Dir
	}
	return session.Dir(p.Profile)
}

func (p Params) archivePath() string {
	if p.ArchivePath != "" {
		return p.ArchivePath
	}
	return session.ArchivePath(p.Profile)
}

func (p Params) logPath() string {
	if p.LogPath != "" {
		return p.LogPath
	}
	binary := p.Binary
	if binary == "" {
		binary = "dmchat"
	}
	return session.LogPath(p.Profile, binary)
}

// Core is the wired client core handed to the presentation layer.
type Core struct {
	Config     *config.Config
	Logger     *zap.Logger
	Bus        *bus.Bus
	DB         *store.DB
	Store      *convstore.Store
	Search     *search.Engine
	Selector   *selector.Selector
	Actions    *actions.Controller
	Machine    *status.Machine
	Sync       *intsync.Engine
	Reconciler *intsync.Reconciler
}

// Module returns the fx module for the client core, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("dmchat",
		fx.Supply(p, p.Config),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideTransport,
			provideConversations,
			provideSearch,
			provideBuilder,
			provideStateMachine,
			provideSelector,
			provideActions,
			provideSyncEngine,
			provideReconciler,
			provideWatcher,
			provideCore,
		),
		fx.Invoke(registerLifecycle),
	)
}

// Options returns Module plus the fx event logger, routed through zap.
func Options(p Params) fx.Option {
	return fx.Options(
		Module(p),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
	)
}

// New builds the application and populates the core handed to the
// presentation layer. The core is nil when construction failed; check
// app.Err().
func New(p Params, extra ...fx.Option) (*fx.App, *Core) {
	var core *Core
	opts := append([]fx.Option{Options(p), fx.Populate(&core)}, extra...)
	return fx.New(opts...), core
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(p.logPath(), p.Profile, cfg.LogLevel, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(p.dir())
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so the archive is only opened by its
// holder.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	path := p.archivePath()
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("archive opened", zap.String("path", path))
	return db, nil
}

func provideTransport(db *store.DB, cfg *config.Config, logger *zap.Logger) (*transport.Local, transport.Capabilities) {
	local := transport.NewLocal(db, cfg.UserID, logger.Named("transport"))
	return local, transport.All(local)
}

func provideConversations(b *bus.Bus) *convstore.Store {
	return convstore.New(b)
}

func provideSearch(st *convstore.Store, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *search.Engine {
	return search.NewEngine(st, search.Options{
		SelfID:   cfg.UserID,
		PerLoad:  cfg.MessagesPerLoad,
		Debounce: cfg.SearchDebounce(),
		Logger:   logger.Named("search"),
		Bus:      b,
	})
}

func provideBuilder(cfg *config.Config) *msgview.Builder {
	return msgview.NewBuilder(cfg.UserID)
}

func provideSelector(st *convstore.Store, engine *search.Engine, caps transport.Capabilities, builder *msgview.Builder, m *status.Machine, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *selector.Selector {
	return selector.New(st, engine, caps, builder, m, selector.Options{
		SelfID:          cfg.UserID,
		PageSize:        cfg.PageSize,
		BulkLimit:       cfg.BulkFetchLimit,
		StackedMaxWidth: cfg.StackedMaxWidth,
		Logger:          logger.Named("selector"),
		Bus:             b,
	})
}

func provideActions(p Params, st *convstore.Store, caps transport.Capabilities, sel *selector.Selector, engine *search.Engine, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *actions.Controller {
	return actions.New(st, caps, sel, engine, p.Notifier, actions.Options{
		SelfID: cfg.UserID,
		Logger: logger.Named("actions"),
		Bus:    b,
	})
}

func provideSyncEngine(st *convstore.Store, b *bus.Bus, sel *selector.Selector, engine *search.Engine, cfg *config.Config, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(st, b, intsync.Options{
		SelfID:    cfg.UserID,
		Logger:    logger.Named("sync"),
		Renderer:  sel,
		Refresher: engine,
	})
}

func provideReconciler(st *convstore.Store, caps transport.Capabilities, cfg *config.Config, logger *zap.Logger) *intsync.Reconciler {
	return intsync.NewReconciler(st, caps.Lister, cfg.UserID, logger.Named("reconcile"))
}

func provideWatcher(p Params, db *store.DB, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *intsync.Watcher {
	return intsync.NewWatcher(db, b, cfg.UserID, p.PollInterval, logger.Named("watcher"))
}

func provideCore(cfg *config.Config, logger *zap.Logger, b *bus.Bus, db *store.DB, st *convstore.Store, engine *search.Engine, sel *selector.Selector, ctl *actions.Controller, m *status.Machine, se *intsync.Engine, rec *intsync.Reconciler) *Core {
	return &Core{
		Config:     cfg,
		Logger:     logger,
		Bus:        b,
		DB:         db,
		Store:      st,
		Search:     engine,
		Selector:   sel,
		Actions:    ctl,
		Machine:    m,
		Sync:       se,
		Reconciler: rec,
	}
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, engine *intsync.Engine, watcher *intsync.Watcher, rec *intsync.Reconciler, searchEngine *search.Engine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			engine.Start(context.Background())

			n, err := rec.Reconcile(ctx)
			if err != nil {
				engine.Stop()
				return err
			}
			logger.Info("conversations loaded", zap.Int("count", n))

			return watcher.Start(context.Background())
		},
		OnStop: func(_ context.Context) error {
			watcher.Stop()
			engine.Stop()
			searchEngine.Close()
			if err := db.Close(); err != nil {
				logger.Warn("error closing archive", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("client core stopped")
			return nil
		},
	})
}
