package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"TechStocks/internal/pipeline"
)

// ErrNoJobs is returned by Register when every cron expression is empty.
var ErrNoJobs = errors.New("no schedule configured")

// Scheduler runs the pipelines on cron expressions. A job whose previous run
// is still in progress is skipped, whether it was started by cron or RunNow.
type Scheduler struct {
	Cron    *cron.Cron
	Runner  *pipeline.Runner
	Fetch   pipeline.FetchOptions
	Process pipeline.ProcessOptions
	Log     *zap.Logger
	Ctx     context.Context

	jobs map[string]cron.Job
}

// NewScheduler creates a new Scheduler. Cron expressions include a seconds field.
func NewScheduler(ctx context.Context, r *pipeline.Runner, fetch pipeline.FetchOptions, process pipeline.ProcessOptions, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Runner:  r,
		Fetch:   fetch,
		Process: process,
		Log:     log,
		Ctx:     ctx,
	}
	chain := cron.NewChain(cron.SkipIfStillRunning(cronLogger{log.Sugar()}))
	s.jobs = map[string]cron.Job{
		pipeline.NameFetch:   chain.Then(cron.FuncJob(s.fetchTask)),
		pipeline.NameProcess: chain.Then(cron.FuncJob(s.processTask)),
	}
	return s
}

// Register adds a job for each non-empty expression.
func (s *Scheduler) Register(fetchCron, processCron string) error {
	if fetchCron == "" && processCron == "" {
		return ErrNoJobs
	}
	if fetchCron != "" {
		if _, err := s.Cron.AddJob(fetchCron, s.jobs[pipeline.NameFetch]); err != nil {
			return fmt.Errorf("register fetch task: %w", err)
		}
	}
	if processCron != "" {
		if _, err := s.Cron.AddJob(processCron, s.jobs[pipeline.NameProcess]); err != nil {
			return fmt.Errorf("register process task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunNow executes the named pipeline immediately (manual trigger / RUN_ON_START).
// It returns without running when the same pipeline is already in progress.
func (s *Scheduler) RunNow(name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown pipeline %q", name)
	}
	job.Run()
	return nil
}

func (s *Scheduler) fetchTask() {
	s.Log.Info("running scheduled fetch")
	res, err := s.Runner.Fetch(s.Ctx, s.Fetch)
	if err != nil {
		s.Log.Error("scheduled fetch failed", zap.Error(err))
		return
	}
	s.Log.Info("scheduled fetch done", zap.String("run_id", res.RunID), zap.Int("rows", res.Rows))
}

func (s *Scheduler) processTask() {
	s.Log.Info("running scheduled process")
	res, err := s.Runner.Process(s.Ctx, s.Process)
	if err != nil {
		s.Log.Error("scheduled process failed", zap.Error(err))
		return
	}
	s.Log.Info("scheduled process done", zap.String("run_id", res.RunID), zap.Int("rows", res.Rows))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Infow(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
