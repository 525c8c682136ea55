package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	"PriceCast/internal/di"
	"PriceCast/pkg/config"
	applogger "PriceCast/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "serve", "run mode: train | predict | serve")
	days := flag.Int("days", 0, "forecast horizon in days for -mode predict; omit to use forecast.default_days")
	sentimentFlag := flag.String("sentiment", "", "sentiment score in [-1,1] for -mode predict; empty uses the news feed")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Only an explicit -days reaches the forecaster; -days 0 is rejected there.
	var horizon *int
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "days" {
			horizon = days
		}
	})

	var sentiment *float64
	if *sentimentFlag != "" {
		s, err := strconv.ParseFloat(*sentimentFlag, 64)
		if err != nil {
			log.Fatalf("invalid -sentiment %q: %v", *sentimentFlag, err)
		}
		sentiment = &s
	}

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	l := app.Logger()
	l.Info("starting",
		applogger.String("env", cfg.Environment),
		applogger.String("mode", *mode),
		applogger.String("estimator", cfg.Model.Estimator),
		applogger.String("recorder", cfg.Recorder.Backend),
	)

	code := 0
	ctx := context.Background()
	switch *mode {
	case "train":
		report, err := app.Train(ctx)
		if err != nil {
			l.Error("training failed", applogger.Error(err))
			code = 1
			break
		}
		l.Info("model saved",
			applogger.String("model", cfg.ModelPath()),
			applogger.String("scaler", cfg.ScalerPath()),
			applogger.String("report", cfg.ReportPath()),
			applogger.Float64("mse", report.MSE),
			applogger.Float64("r2", report.R2),
		)
	case "predict":
		payload, err := app.Predict(ctx, horizon, sentiment)
		if err != nil {
			l.Error("prediction failed", applogger.Error(err))
			code = 1
			break
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			l.Error("write payload", applogger.Error(err))
			code = 1
		}
	case "serve":
		if err := app.Serve(); err != nil {
			l.Error("app error", applogger.Error(err))
			code = 1
		}
	default:
		l.Error("unknown mode", applogger.String("mode", *mode))
		code = 2
	}

	if err := app.Close(); err != nil && code == 0 {
		code = 1
	}
	os.Exit(code)
}
