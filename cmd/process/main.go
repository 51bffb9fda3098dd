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
)

func main() {
	a, err := app.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	res, err := a.Runner.Process(ctx, pipeline.ProcessOptionsFrom(a.Config))
	stop()
	if err != nil {
		a.Log.Error(app.Describe(err), zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("data processing complete", zap.String("output", res.Output), zap.Int("rows", res.Rows))
	a.Close()
}
