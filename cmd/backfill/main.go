package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tradebot/internal/config"
	"tradebot/internal/gather"
	"tradebot/internal/store"
	"tradebot/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to backfill (e.g. AAPL,SPY)")
	startFlag := flag.String("start", "", "start date, YYYY-MM-DD")
	endFlag := flag.String("end", "", "end date, YYYY-MM-DD (default: today)")
	rateFlag := flag.Int("rate", 200, "max API requests per minute")
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

	if *symbolsFlag == "" {
		log.Fatal("no symbols given (use -symbols AAPL,SPY)")
	}
	symbols := strings.Split(*symbolsFlag, ",")
	for i := range symbols {
		symbols[i] = strings.TrimSpace(symbols[i])
	}

	if *startFlag == "" {
		log.Fatal("no start date given (use -start YYYY-MM-DD)")
	}
	start, err := time.Parse("2006-01-02", *startFlag)
	if err != nil {
		log.Fatalf("bad start date: %v", err)
	}
	end := time.Now()
	if *endFlag != "" {
		end, err = time.Parse("2006-01-02", *endFlag)
		if err != nil {
			log.Fatalf("bad end date: %v", err)
		}
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer sqlStore.Close()

	pqStore := store.NewParquetStore(cfg.Storage.DataDir)

	backfiller := gather.NewBarBackfiller(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		[]store.BarStore{sqlStore, pqStore},
		nil, // no live cascade to prime
		symbols,
		gather.DateRange{Start: start, End: end},
		*rateFlag,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting backfill",
		"symbols", symbols, "start", *startFlag, "end", end.Format("2006-01-02"))
	if err := backfiller.Run(ctx); err != nil {
		log.Fatalf("backfill error: %v", err)
	}
	logger.Info("backfill complete")
}
