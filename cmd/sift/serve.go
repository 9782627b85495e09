package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fwojciec/sift"
	sifthttp "github.com/fwojciec/sift/http"
	"github.com/go-co-op/gocron/v2"
	slogctx "github.com/veqryn/slog-context"
)

// Run executes the serve command. Each topic is drained on its own
// schedule; when keywords are given, full runs are scheduled as well.
func (c *ServeCmd) Run(deps *Dependencies) error {
	ctx, stop := signal.NotifyContext(deps.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer func() { _ = scheduler.Shutdown() }()

	for _, topic := range c.Topics {
		if err := c.schedule(ctx, scheduler, deps.Crawler, topic); err != nil {
			return err
		}
	}

	server := sifthttp.NewServer()
	server.Addr = c.Addr
	if server.Addr == "" && deps.Config != nil {
		server.Addr = deps.Config.Server.Addr
	}
	server.Events = deps.Events
	server.Audit = deps.Audit
	server.Runs = deps.Runs
	server.Contents = deps.Contents
	if deps.Logger != nil {
		server.Logger = deps.Logger
	}
	if err := server.Open(); err != nil {
		return err
	}
	defer server.Close()

	scheduler.Start()
	fmt.Fprintf(deps.Stdout, "Listening on %s\n", server.URL())

	<-ctx.Done()
	return nil
}

func (c *ServeCmd) schedule(ctx context.Context, scheduler gocron.Scheduler, runner Runner, topic string) error {
	ctx = slogctx.Append(ctx, "topicId", topic)

	if _, err := scheduler.NewJob(gocron.DurationJob(c.Interval), gocron.NewTask(func() {
		summary, err := runner.Drain(ctx, topic)
		if err != nil {
			slogctx.Error(ctx, "drain failed", "err", err)
			return
		}
		if summary.Meta.ItemsSaved > 0 {
			slogctx.Info(ctx, "drain saved content", "runId", summary.RunID)
		}
	}), gocron.WithSingletonMode(gocron.LimitModeReschedule)); err != nil {
		return fmt.Errorf("failed to schedule drain for %s: %w", topic, err)
	}

	if len(c.Keywords) == 0 {
		return nil
	}
	raw := sift.RawInput{Keywords: c.Keywords, Notes: c.Notes}
	if _, err := scheduler.NewJob(gocron.DurationJob(c.RunInterval), gocron.NewTask(func() {
		if _, err := runner.Run(ctx, topic, raw); err != nil {
			slogctx.Error(ctx, "run failed", "err", err)
		}
	}), gocron.WithSingletonMode(gocron.LimitModeReschedule), gocron.WithStartAt(gocron.WithStartImmediately())); err != nil {
		return fmt.Errorf("failed to schedule runs for %s: %w", topic, err)
	}
	return nil
}
