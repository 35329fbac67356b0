package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/alpenbrief/alpnews/internal/app"
	"github.com/alpenbrief/alpnews/internal/config"
	"github.com/alpenbrief/alpnews/internal/logger"
	"github.com/alpenbrief/alpnews/internal/metrics"
	"github.com/alpenbrief/alpnews/internal/sched"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and exit")
	configPath := flag.String("config", "", "path to the YAML profile (default from AGENT_CONFIG)")
	flag.Parse()

	// .env is optional, plain environment works too
	_ = godotenv.Load()
	logger.Init()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer agent.Close()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	report, err := agent.RunOnce(ctx, time.Now().In(cfg.Schedule.Location()))
	if err != nil {
		logger.Error("run failed", "error", err)
		if *once {
			os.Exit(1)
		}
	} else {
		fmt.Printf("Digest written to %s (%d articles)\n", report.DigestPath, report.Kept)
	}

	if *once {
		return
	}

	err = sched.Loop(ctx, cfg.Schedule.At, cfg.Schedule.Location(), func(ctx context.Context, now time.Time) error {
		_, err := agent.RunOnce(ctx, now)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)

	addr := ":" + port
	logger.Info("monitoring server listening", "addr", addr)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("monitoring server failed", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := metrics.Global.GetStats()
	w.Header().Set("Content-Type", "application/json")
	if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "ok",
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func metricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
