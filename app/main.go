package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/charity-comb/app/api"
	"github.com/lysyi3m/charity-comb/app/cfg"
	"github.com/lysyi3m/charity-comb/app/database"
	"github.com/lysyi3m/charity-comb/app/feed"
	"github.com/lysyi3m/charity-comb/app/tasks"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if appCfg == nil {
		return 0
	}

	closeLog := setupLogging(appCfg)
	defer closeLog()

	slog.Info("Starting Charity Comb", "version", appCfg.Version, "config", appCfg.ConfigPath, "backend", appCfg.StateBackend)

	config, err := feed.NewConfigLoader(appCfg.ConfigPath).Run()
	if err != nil {
		slog.Error("Failed to load configuration", "path", appCfg.ConfigPath, "error", err)
		return 1
	}

	classifier, err := feed.NewClassifier(config.Keywords)
	if err != nil {
		slog.Error("Failed to compile keyword patterns", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seenRepo, err := database.Open(ctx, database.Options{
		Backend:   database.Backend(appCfg.StateBackend),
		StatePath: appCfg.StatePath,
		DBPath:    appCfg.DBPath,
		RedisAddr: appCfg.RedisAddr,
		RedisKey:  appCfg.RedisKey,
	})
	if err != nil {
		slog.Error("Failed to open seen set", "backend", appCfg.StateBackend, "error", err)
		return 1
	}
	defer seenRepo.Close()

	httpClient := &http.Client{Timeout: appCfg.GetTimeout()}
	fetcher := feed.NewHTTPFetcher(httpClient, appCfg.UserAgent, appCfg.GetTimeout(), appCfg.GetRequestDelay())
	extractor := feed.NewExtractor(fetcher, feed.NewContentExtractor())

	newTask := func(trigger string) tasks.TaskInterface {
		return tasks.NewBuildFeedTask(trigger, config, fetcher, extractor, classifier, seenRepo, appCfg.FeedPath)
	}

	if !appCfg.IsDaemon() {
		task := newTask("once")
		task.Start()
		if err := task.Execute(ctx); err != nil {
			slog.Error("Run failed", "error", err)
			return 1
		}
		return 0
	}

	return serve(ctx, appCfg, seenRepo.Backend(), newTask)
}

func serve(ctx context.Context, appCfg *cfg.Cfg, backend database.Backend, newTask tasks.TaskFactory) int {
	scheduler, err := tasks.NewScheduler(appCfg.Schedule, newTask)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		return 1
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(appCfg.FeedPath, backend, appCfg.Version, scheduler)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "port", appCfg.Port, "schedule", appCfg.Schedule, "api", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Charity Comb stopped")
	return exitCode
}

// setupLogging installs the default slog logger. With --log-file the output
// is also written to a size-rotated file.
func setupLogging(appCfg *cfg.Cfg) func() {
	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	closer := func() {}

	if appCfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   appCfg.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		out = io.MultiWriter(os.Stderr, rotated)
		closer = func() { rotated.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	return closer
}
