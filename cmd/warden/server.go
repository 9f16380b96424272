package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/haven-chat/warden/automod/cachestore"
	"github.com/haven-chat/warden/automod/countstore"
	"github.com/haven-chat/warden/automod/engine"
	"github.com/haven-chat/warden/automod/escalation"
	"github.com/haven-chat/warden/automod/flagstore"
	"github.com/haven-chat/warden/automod/ledger"
	"github.com/haven-chat/warden/automod/policy"
	"github.com/haven-chat/warden/automod/rules"
	"github.com/haven-chat/warden/automod/setstore"
	"github.com/haven-chat/warden/automod/window"
	"github.com/haven-chat/warden/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	gatewayHost string
	workers     int
	logger      *slog.Logger
	engine      *engine.Engine
	dispatcher  *engine.AsyncDispatcher
	flags       flagstore.FlagStore
	rdb         *redis.Client
	lastSeq     int64
}

type Config struct {
	GatewayHost       string
	APIHost           string
	APIToken          string
	RedisURL          string
	SetsFileJSON      string
	SlackWebhookURL   string
	DispatchRateLimit int
	GatewayWorkers    int
	Logger            *slog.Logger
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	gws := config.GatewayHost
	if !strings.HasPrefix(gws, "ws") {
		return nil, fmt.Errorf("specified gateway host must include 'ws://' or 'wss://'")
	}

	policies, err := policy.NewDBStore(db, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing policy store: %w", err)
	}
	violations, err := ledger.NewDBLedger(db)
	if err != nil {
		return nil, fmt.Errorf("initializing violation ledger: %w", err)
	}

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %v", err)
		} else {
			logger.Info("loaded set config from JSON", "path", config.SetsFileJSON)
		}
	}

	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		// generic client, for cursor state
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg
	} else {
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, 30*time.Minute)
		flags = flagstore.NewMemFlagStore()
	}

	var dispatcher *engine.AsyncDispatcher
	if config.APIToken != "" {
		transport := NewAPITransport(config.APIHost, config.APIToken)
		dispatcher = engine.NewAsyncDispatcher(logger, transport, config.DispatchRateLimit)
	} else {
		logger.Info("no API token configured, moderation actions will not be executed")
	}

	var notifier engine.Notifier
	if config.SlackWebhookURL != "" {
		notifier = &engine.SlackNotifier{
			SlackWebhookURL: config.SlackWebhookURL,
			Client:          util.RobustHTTPClient(),
		}
	}

	eng := engine.Engine{
		Logger:     logger,
		Policies:   policies,
		Rules:      rules.DefaultRules(),
		Activity:   window.NewTracker(window.DefaultIdleEviction),
		Ledger:     violations,
		Escalation: escalation.NewEngine(policies, violations),
		Counters:   counters,
		Sets:       sets,
		Cache:      cache,
		Flags:      flags,
		Notifier:   notifier,
	}
	if dispatcher != nil {
		eng.Dispatcher = dispatcher
	}

	workers := config.GatewayWorkers
	if workers <= 0 {
		workers = 8
	}

	s := &Server{
		gatewayHost: config.GatewayHost,
		workers:     workers,
		logger:      logger,
		engine:      &eng,
		dispatcher:  dispatcher,
		flags:       flags,
		rdb:         rdb,
	}

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// Runs the service: the action dispatcher, the activity window sweeper, the
// cursor persister, and the gateway consumer. Blocks until the consumer
// returns.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.dispatcher != nil {
		go s.dispatcher.Run(ctx)
	}
	go s.engine.Activity.RunSweeper(ctx.Done(), 30*time.Minute, func(evicted int) {
		if evicted > 0 {
			s.logger.Info("evicted idle activity windows", "count", evicted, "live", s.engine.Activity.Size())
		}
		engine.ObserveWindowEvictions(evicted)
	})
	go s.RunPersistCursor(ctx)

	return s.RunConsumer(ctx)
}

var cursorKey = "warden/seq"

func (s *Server) ReadLastCursor(ctx context.Context) (int64, error) {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		s.logger.Info("redis not configured, skipping cursor read")
		return 0, nil
	}

	val, err := s.rdb.Get(ctx, cursorKey).Int64()
	if err == redis.Nil {
		s.logger.Info("no pre-existing cursor in redis")
		return 0, nil
	}
	s.logger.Info("successfully found prior subscription cursor seq in redis", "seq", val)
	return val, err
}

func (s *Server) PersistCursor(ctx context.Context) error {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	seq := atomic.LoadInt64(&s.lastSeq)
	if seq <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, cursorKey, seq, 14*24*time.Hour).Err()
}

// this method runs in a loop, persisting the current cursor state every 5 seconds
func (s *Server) RunPersistCursor(ctx context.Context) error {

	// if redis isn't configured, just skip
	if s.rdb == nil {
		return nil
	}
	ticker := time.NewTicker(5 * time.Second)
	for {
		select {
		case <-ctx.Done():
			if seq := atomic.LoadInt64(&s.lastSeq); seq >= 1 {
				s.logger.Info("persisting final cursor seq value", "seq", seq)
				err := s.PersistCursor(ctx)
				if err != nil {
					s.logger.Error("failed to persist cursor", "err", err, "seq", seq)
				}
			}
			return nil
		case <-ticker.C:
			if seq := atomic.LoadInt64(&s.lastSeq); seq >= 1 {
				err := s.PersistCursor(ctx)
				if err != nil {
					s.logger.Error("failed to persist cursor", "err", err, "seq", seq)
				}
			}
		}
	}
}
