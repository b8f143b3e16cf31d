package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradebot/internal/broker"
	"tradebot/internal/config"
	"tradebot/internal/engine"
	"tradebot/internal/feed"
	"tradebot/internal/plugin"
	"tradebot/internal/report"
	"tradebot/internal/risk"
	"tradebot/internal/store"
	"tradebot/internal/strategy"
	"tradebot/internal/strategy/builtins"
	"tradebot/internal/util"
)

func main() {
	symbolFlag := flag.String("symbol", "", "symbol to backtest (default: trading.symbol from config)")
	strategyFlag := flag.String("strategy", "", "strategy name (default: trading.strategy from config)")
	startFlag := flag.String("start", "", "start date, YYYY-MM-DD (default: all history)")
	endFlag := flag.String("end", "", "end date, YYYY-MM-DD (default: today)")
	flag.Parse()

	cfgPath := "config/tradebot.yaml"
	if p := os.Getenv("TRADEBOT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)

	symbol := cfg.Trading.Symbol
	if *symbolFlag != "" {
		symbol = *symbolFlag
	}
	if symbol == "" {
		log.Fatal("no symbol given (use -symbol or trading.symbol in config)")
	}

	stratName := cfg.Trading.Strategy
	if *strategyFlag != "" {
		stratName = *strategyFlag
	}

	var start time.Time
	if *startFlag != "" {
		start, err = time.Parse("2006-01-02", *startFlag)
		if err != nil {
			log.Fatalf("bad start date: %v", err)
		}
	}
	end := time.Now()
	if *endFlag != "" {
		end, err = time.Parse("2006-01-02", *endFlag)
		if err != nil {
			log.Fatalf("bad end date: %v", err)
		}
	}

	pqStore := store.NewParquetStore(cfg.Storage.DataDir)

	ctx := context.Background()
	bt, err := feed.NewBacktestFeedFromStore(ctx, pqStore, symbol, start, end)
	if err != nil {
		log.Fatalf("failed to load bars: %v", err)
	}
	total := bt.Remaining()
	if total == 0 {
		log.Fatalf("no bars for %s in the requested range", symbol)
	}

	b := broker.NewPaperBroker(cfg.Trading.InitialBalance)
	riskManager, err := risk.New(cfg.Trading.RiskManager, cfg.Risk, b)
	if err != nil {
		log.Fatalf("failed to build risk manager: %v", err)
	}

	registry := strategy.NewRegistry()
	builtins.RegisterAll(registry)
	strat, err := registry.MustGet(stratName)
	if err != nil {
		log.Fatalf("failed to resolve strategy: %v", err)
	}

	dispatcher := plugin.NewDispatcher(nil, 64)
	defer dispatcher.Close()

	eng, err := engine.New(engine.Params{
		Feed:       bt,
		Strategy:   strat,
		Risk:       riskManager,
		Broker:     b,
		Dispatcher: dispatcher,
		Symbol:     symbol,
		Quantity:   cfg.Trading.OrderQuantity,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	logger.Info("backtest starting",
		"symbol", symbol, "strategy", strat.Name(), "bars", total)

	// Drive the loop directly: one step per bar until the cursor runs out.
	for {
		err := eng.Step(ctx)
		if errors.Is(err, feed.ErrNoData) {
			break
		}
	}

	printSummary(cfg, b, total)
}

func printSummary(cfg *config.Config, b *broker.PaperBroker, totalBars int) {
	perf := report.Analyze(b.TradeHistory())
	balance := b.GetBalance()

	// Mark open positions at cost since the paper ledger carries no quote.
	equity := balance
	for _, pos := range b.GetPositions() {
		equity += pos.Exposure()
	}

	fmt.Println("=== backtest summary ===")
	fmt.Printf("bars replayed:    %d\n", totalBars)
	fmt.Printf("trades executed:  %d\n", perf.Trades)
	fmt.Printf("turnover:         %s\n", report.FormatMoney(perf.Turnover))
	fmt.Printf("realized pnl:     %+.2f\n", perf.RealizedPnL)
	fmt.Printf("win rate:         %s (%d wins, %d losses)\n",
		report.FormatPercent(perf.WinRate()), perf.Wins, perf.Losses)
	fmt.Printf("final cash:       %.2f\n", balance)
	fmt.Printf("final equity:     %.2f (open positions at cost)\n", equity)
	fmt.Printf("net result:       %+.2f\n", equity-cfg.Trading.InitialBalance)

	for _, s := range perf.Symbols {
		if s.OpenQty > 0 {
			fmt.Printf("open position:    %s %.2f @ %.2f\n", s.Symbol, s.OpenQty, s.AvgCost)
		}
	}
}
