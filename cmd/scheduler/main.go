package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"TechStocks/internal/app"
	"TechStocks/internal/pipeline"
	"TechStocks/internal/scheduler"
)

func main() {
	a, err := app.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	a.Log.Info("TechStocks scheduler starting...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.History != nil {
		for _, name := range []string{pipeline.NameFetch, pipeline.NameProcess} {
			last, err := a.History.LastRun(name)
			switch {
			case err != nil:
				a.Log.Warn("read last run", zap.String("pipeline", name), zap.Error(err))
			case last != nil:
				a.Log.Info("last run",
					zap.String("pipeline", name),
					zap.String("status", last.Status),
					zap.Time("finished_at", last.FinishedAt),
					zap.Int("rows", last.RowCount),
				)
			}
		}
	}

	sched := scheduler.NewScheduler(ctx, a.Runner,
		pipeline.FetchOptionsFrom(a.Config),
		pipeline.ProcessOptionsFrom(a.Config),
		a.Log,
	)
	cfg := a.Config.Schedule
	if err := sched.Register(cfg.FetchCron, cfg.ProcessCron); err != nil {
		a.Log.Error("register cron tasks", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		a.Log.Info("RUN_ON_START enabled, executing configured pipelines now")
		go func() {
			for _, job := range []struct{ name, expr string }{
				{pipeline.NameFetch, cfg.FetchCron},
				{pipeline.NameProcess, cfg.ProcessCron},
			} {
				if job.expr == "" {
					continue
				}
				if err := sched.RunNow(job.name); err != nil {
					a.Log.Error("run on start", zap.String("pipeline", job.name), zap.Error(err))
				}
			}
		}()
	}

	a.Log.Info("TechStocks scheduler is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.Log.Info("shutdown signal received, stopping...")
	cancel()
}
