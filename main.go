package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"marketbrief/analysis"
	"marketbrief/config"
	"marketbrief/insights"
	"marketbrief/observability"
	"marketbrief/report"
	"marketbrief/services"
)

func main() {
	once := flag.Bool("once", false, "run one report and exit")
	serve := flag.Bool("serve", false, "serve the report site and run on schedule")
	simulate := flag.Bool("simulate", false, "use the simulated LLM regardless of configuration")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("No .env file found, using environment variables")
	}

	observability.InitLogger(os.Getenv("ENV") == "production")
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("Invalid configuration", "error", err)
	}

	ctx := context.Background()

	screener := services.NewFinvizService(&cfg.Screener)

	var marketData services.MarketDataService
	if cfg.HasAlpaca() {
		marketData = services.NewAlpacaMarketData(&cfg.Alpaca)
	} else {
		observability.Warn("Alpaca credentials not set, all tickers will be skipped")
		marketData = services.NewDisabledMarketData()
	}

	var llm insights.LLMClient
	switch {
	case *simulate || cfg.Insights.Mode == "simulated":
		observability.Info("Using simulated LLM")
		llm = services.NewSimulatedLLM()
	case !cfg.HasGemini():
		observability.Warn("GEMINI_API_KEY not set, falling back to simulated LLM")
		llm = services.NewSimulatedLLM()
	default:
		gemini, err := services.NewGeminiService(ctx, &cfg.Gemini)
		if err != nil {
			observability.Fatal("Failed to initialize Gemini service", "error", err)
		}
		llm = gemini
	}

	archive, err := report.NewArchive(cfg.Report.OutputDir)
	if err != nil {
		observability.Fatal("Failed to prepare report directory", "error", err)
	}

	app := NewApp(cfg,
		screener,
		analysis.NewAssembler(marketData, &cfg.Analysis),
		insights.New(llm, &cfg.Insights),
		archive,
	)

	if *once || !*serve {
		if err := app.RunReport(ctx); err != nil {
			observability.Fatal("Report run failed", "error", err)
		}
		return
	}

	scheduler, err := NewScheduler(cfg.Schedule.CronSpec, func() {
		if err := app.RunReport(context.Background()); err != nil {
			observability.Error("Scheduled report run failed", "error", err)
		}
	})
	if err != nil {
		observability.Fatal("Failed to set up scheduler", "error", err)
	}
	scheduler.Start(cfg.Schedule.RunOnStart)
	defer scheduler.Stop()

	handler := NewAPIHandler(app, archive)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: NewRouter(handler),
	}

	go func() {
		observability.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("HTTP server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	observability.Info("Shutting down")
	if err := server.Shutdown(ctx); err != nil {
		observability.Error("HTTP server shutdown failed", "error", err)
	}
}
