package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/gateway/router"
	"github.com/yungbote/founderflow-backend/internal/history"
	"github.com/yungbote/founderflow-backend/internal/observability"
	"github.com/yungbote/founderflow-backend/internal/pipeline"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/prompt"
	"github.com/yungbote/founderflow-backend/internal/realtime"
	"github.com/yungbote/founderflow-backend/internal/realtime/bus"
	"github.com/yungbote/founderflow-backend/internal/surface"
)

const snapshotChannel = "founderflow:snapshots"

// Core is everything behind the HTTP surface. The CLI uses it directly.
type Core struct {
	Templates *prompt.Registry
	Gateway   *gateway.Gateway
	Pipeline  *pipeline.Pipeline
	Tracker   *surface.Tracker
	Store     surface.Store
	Hub       *realtime.Hub
	Bus       bus.Bus
	DB        *gorm.DB
	History   history.Repo
	Recorder  *history.Recorder

	log    *logger.Logger
	redis  goredis.UniversalClient
	cancel context.CancelFunc
}

// Wire builds the pipeline and its surrounding services from cfg. m may be
// nil.
func Wire(ctx context.Context, cfg *config.Config, log *logger.Logger, m *observability.Metrics) (*Core, error) {
	if log == nil {
		log = logger.Nop()
	}
	log.Info("Wiring services...")

	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &Core{log: log, cancel: cancel, Templates: prompt.Default()}

	r, err := router.New(cfg.Gateway)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init gateway router: %w", err)
	}
	c.Gateway = gateway.New(r, log, gateway.WithCallObserver(m))

	strategy, err := extract.ParseStrategy(cfg.Extractor.Strategy)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Pipeline = pipeline.New(c.Templates, c.Gateway, extract.New(strategy),
		pipeline.WithLogger(log),
		pipeline.WithObserver(func(_ context.Context, tmpl string, s pipeline.State) {
			m.ObserveState(tmpl, string(s))
		}),
	)

	if err := c.wireHistory(cfg.History); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.wireSurfaces(ctx, bg, cfg.Surface, m); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Core) wireHistory(cfg config.HistoryConfig) error {
	if !cfg.Enabled {
		c.log.Info("history disabled")
		return nil
	}
	db, err := history.Open(cfg, c.log)
	if err != nil {
		return err
	}
	c.DB = db
	c.History = history.NewRepo(db, c.log)
	c.Recorder = history.NewRecorder(c.History, c.log)
	return nil
}

func (c *Core) wireSurfaces(ctx, bg context.Context, cfg config.SurfaceConfig, m *observability.Metrics) error {
	c.Hub = realtime.NewHub(c.log)

	switch cfg.Store {
	case config.StoreRedis:
		rs, err := surface.NewRedisStore(ctx, cfg)
		if err != nil {
			return err
		}
		c.Store = rs
		c.redis = rs.Client()
		m.StartRedisCollector(bg, c.log, c.redis, 15*time.Second)

		b, err := bus.NewRedisBus(c.log, cfg.Redis, snapshotChannel)
		if err != nil {
			return fmt.Errorf("init redis bus: %w", err)
		}
		c.Bus = b
	default:
		c.Store = surface.NewMemoryStore(cfg.TTL.Duration)
		c.Bus = bus.NewLocalBus()
	}
	if err := c.Bus.StartForwarder(bg, c.Hub.Broadcast); err != nil {
		return fmt.Errorf("start snapshot forwarder: %w", err)
	}

	opts := []surface.TrackerOption{
		surface.WithTrackerLogger(c.log),
		surface.WithPublisher(realtime.NewSnapshotPublisher(c.Bus.Publish, c.log)),
		surface.OnDone(c.onSurfaceDone(m)),
	}
	c.Tracker = surface.NewTracker(c.Store, c.Pipeline, opts...)
	return nil
}

func (c *Core) onSurfaceDone(m *observability.Metrics) func(context.Context, surface.Completion) {
	var record func(context.Context, surface.Completion)
	if c.Recorder != nil {
		record = c.Recorder.OnSurfaceDone(c.TemplateVersion)
	}
	return func(ctx context.Context, done surface.Completion) {
		if !done.Committed {
			m.IncStaleReply(done.Submission.Template)
		}
		if record != nil {
			record(ctx, done)
		}
	}
}

// TemplateVersion returns 0 for an unknown template.
func (c *Core) TemplateVersion(name string) int {
	if t, ok := c.Templates.Get(name); ok {
		return t.Version
	}
	return 0
}

// Ready checks the backends the service cannot run without.
func (c *Core) Ready(ctx context.Context) error {
	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("history db: %w", err)
		}
	}
	return nil
}

// Close waits for in-flight submissions, then releases the backends.
func (c *Core) Close() {
	if c == nil {
		return
	}
	if c.Tracker != nil {
		_ = c.Tracker.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.DB != nil {
		_ = history.Close(c.DB)
	}
}
