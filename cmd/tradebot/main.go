package main

import (
	"context"
	"flag"
	"os"
	"time"

	"trading_bot/internal/audit"
	"trading_bot/internal/bot"
	"trading_bot/internal/config"
	"trading_bot/internal/core"
	"trading_bot/internal/exchange/binance"
	"trading_bot/internal/mock"
	"trading_bot/internal/rules"
	"trading_bot/pkg/logging"
	"trading_bot/pkg/telemetry"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	symbolFlag = flag.String("symbol", "", "Override trading symbol")
)

func main() {
	flag.Parse()

	// .env is optional, real deployments export the variables directly
	_ = godotenv.Load()

	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		*configFile = envConfig
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fallback, _ := logging.NewZapLogger("INFO")
		fallback.Fatal("Failed to load configuration", "config", *configFile, "error", err)
		return
	}
	if *symbolFlag != "" {
		cfg.Trading.Symbol = *symbolFlag
	}

	logger, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Telemetry.EnableMetrics {
		if err := telemetry.InitMetrics(); err != nil {
			logger.Warn("Failed to initialize metrics", "error", err)
		} else {
			metricsServer := telemetry.NewServer(cfg.Telemetry.MetricsPort, logger)
			metricsServer.Start()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsServer.Stop(ctx)
			}()
		}
	}

	client, err := buildExchangeClient(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize exchange client", "error", err)
		return
	}

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		logger.Fatal("Exchange is unreachable", "exchange", client.GetName(), "error", err)
		return
	}
	logger.Info("Connected to exchange",
		"exchange", client.GetName(),
		"testnet", cfg.Exchange.Testnet,
		"symbol", cfg.Trading.Symbol)

	sinks := []audit.Sink{audit.NewLogSink(logger)}
	store, err := audit.NewSQLiteStore(cfg.Audit.DatabasePath)
	if err != nil {
		logger.Warn("Audit database unavailable, falling back to log only",
			"path", cfg.Audit.DatabasePath, "error", err)
	} else {
		sinks = append(sinks, store)
	}

	dispatcher := audit.NewDispatcher(sinks, logger)
	cache := rules.NewCache(client, logger)
	trader := bot.New(client, cache, dispatcher, logger)

	if cfg.Trading.Leverage > 0 {
		if err := trader.SetLeverage(ctx, cfg.Trading.Symbol, cfg.Trading.Leverage); err != nil {
			logger.Warn("Failed to set initial leverage",
				"symbol", cfg.Trading.Symbol,
				"leverage", cfg.Trading.Leverage,
				"error", err)
		}
	}

	menu := newMenu(trader, cfg, logger, store)
	menu.run(ctx)

	if cfg.Trading.CancelOnExit {
		logger.Info("Cancelling open orders before exit", "symbol", cfg.Trading.Symbol)
		cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := trader.CancelAllOrders(cancelCtx, cfg.Trading.Symbol); err != nil {
			logger.Error("Failed to cancel open orders on exit", "error", err)
		}
		cancel()
	}

	if err := trader.Close(); err != nil {
		logger.Warn("Audit pipeline shutdown reported an error", "error", err)
	}
	logger.Info("Shutdown complete")
}

func buildExchangeClient(cfg *config.Config, logger core.ILogger) (core.ExchangeClient, error) {
	if cfg.App.Exchange == "mock" {
		exchange := mock.NewExchange("mock")
		exchange.SetRules(&core.SymbolRules{
			Symbol:      cfg.Trading.Symbol,
			TickSize:    decimal.RequireFromString("0.1"),
			StepSize:    decimal.RequireFromString("0.001"),
			MinQty:      decimal.RequireFromString("0.001"),
			MinNotional: decimal.NewFromInt(5),
			MaxLeverage: 125,
		})
		exchange.SetMarkPrice(cfg.Trading.Symbol, decimal.NewFromInt(40000))
		return exchange, nil
	}

	return binance.NewClient(binance.Config{
		APIKey:            cfg.Exchange.APIKey.Value(),
		SecretKey:         cfg.Exchange.SecretKey.Value(),
		Testnet:           cfg.Exchange.Testnet,
		RequestsPerSecond: cfg.Exchange.RequestsPerSecond,
		Burst:             cfg.Exchange.Burst,
	}, logger)
}
