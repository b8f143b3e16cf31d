package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradebot/internal/broker"
	"tradebot/internal/config"
	"tradebot/internal/engine"
	"tradebot/internal/feed"
	"tradebot/internal/httpapi"
	"tradebot/internal/live"
	"tradebot/internal/plugin"
	"tradebot/internal/risk"
	"tradebot/internal/store"
	"tradebot/internal/strategy"
	"tradebot/internal/strategy/builtins"
	"tradebot/internal/util"
)

func main() {
	cfgPath := "config/tradebot.yaml"
	if p := os.Getenv("TRADEBOT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer sqlStore.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Market data read path.
	var dataFeed feed.Feed
	switch cfg.Feed.Mode {
	case "backtest":
		bt, err := feed.NewBacktestFeedFromStore(ctx, sqlStore, cfg.Trading.Symbol, time.Time{}, time.Now())
		if err != nil {
			log.Fatalf("failed to load backtest bars: %v", err)
		}
		logger.Info("backtest feed loaded", "symbol", cfg.Trading.Symbol, "bars", bt.Remaining())
		dataFeed = bt
	case "live":
		fetcher := feed.NewAlpacaFetcher(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
		dataFeed = feed.NewCascadeFeed(sqlStore, fetcher, cfg.Feed.CacheTTL, cfg.Feed.FetchTimeout)
	default:
		log.Fatalf("unknown feed mode %q", cfg.Feed.Mode)
	}

	// Broker.
	var b broker.Broker
	switch cfg.Trading.Broker {
	case "paper":
		b = broker.NewPaperBroker(cfg.Trading.InitialBalance)
	case "alpaca":
		ab := broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		if err := ab.Sync(); err != nil {
			log.Fatalf("failed to sync alpaca account: %v", err)
		}
		b = ab
	default:
		log.Fatalf("unknown broker %q", cfg.Trading.Broker)
	}

	riskManager, err := risk.New(cfg.Trading.RiskManager, cfg.Risk, b)
	if err != nil {
		log.Fatalf("failed to build risk manager: %v", err)
	}

	registry := strategy.NewRegistry()
	builtins.RegisterAll(registry)
	strat, err := registry.MustGet(cfg.Trading.Strategy)
	if err != nil {
		log.Fatalf("failed to resolve strategy: %v", err)
	}

	// Observers.
	plugins := []plugin.Plugin{plugin.NewLoggerPlugin(logger)}
	if cfg.Notify.WebhookURL != "" {
		plugins = append(plugins, plugin.NewWebhookPlugin(cfg.Notify.WebhookURL))
	}
	if cfg.Live.Enabled {
		hub := live.NewHub(logger)
		srv := live.NewServer(hub, cfg.Live.Addr, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("live server stopped", "error", err)
			}
		}()
		plugins = append(plugins, live.NewHubPlugin(hub))
	}
	dispatcher := plugin.NewDispatcher(plugins, 256)
	defer dispatcher.Close()

	if cfg.API.Enabled {
		api := httpapi.NewServer(b, sqlStore, sqlStore, logger)
		go func() {
			if err := api.Run(ctx, cfg.API.Addr); err != nil {
				logger.Error("api server stopped", "error", err)
			}
		}()
	}

	eng, err := engine.New(engine.Params{
		Feed:         dataFeed,
		Strategy:     strat,
		Risk:         riskManager,
		Broker:       b,
		Dispatcher:   dispatcher,
		TradeLog:     sqlStore,
		Symbol:       cfg.Trading.Symbol,
		Quantity:     cfg.Trading.OrderQuantity,
		TickInterval: cfg.Trading.TickInterval,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	if err := eng.Run(ctx); err != nil {
		log.Fatalf("engine error: %v", err)
	}
}
