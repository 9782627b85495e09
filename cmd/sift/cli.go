package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/sift"
)

// Runner executes discovery runs for a topic.
type Runner interface {
	Run(ctx context.Context, topicID string, raw sift.RawInput) (*sift.RunSummary, error)
	Drain(ctx context.Context, topicID string) (*sift.RunSummary, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   *Config
	Crawler  Runner
	Contents sift.ContentService
	Runs     sift.RunService
	Audit    sift.AuditStore
	Events   sift.EventSubscriber
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" type:"path" help:"Path to a YAML config file"`

	Run      RunCmd      `cmd:"" help:"Run discovery for a topic and print the run summary"`
	Runs     RunsCmd     `cmd:"" help:"List finished runs"`
	Events   EventsCmd   `cmd:"" help:"Replay the audit events of a run"`
	Contents ContentsCmd `cmd:"" help:"List saved content for a topic"`
	Serve    ServeCmd    `cmd:"" help:"Serve the audit stream and drain topics on a schedule"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Topic    string   `short:"t" required:"" help:"Topic ID"`
	Keywords []string `short:"k" name:"keyword" help:"Keyword to search for (repeatable)"`
	Notes    string   `short:"n" help:"Free-text notes used for query expansion"`
	Sites    []string `name:"site" help:"Restrict search to a site (repeatable)"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Topic  string `short:"t" help:"Only runs for this topic"`
	Status string `short:"s" help:"Only runs with this status (ok, fail)"`
	Limit  int    `short:"l" default:"20" help:"Maximum number of runs"`
}

// EventsCmd is the "events" subcommand.
type EventsCmd struct {
	RunID string `arg:"" help:"Run ID"`
	Step  string `help:"Only events of this step"`
	Limit int    `short:"l" default:"0" help:"Maximum number of events (0 for all)"`
}

// ContentsCmd is the "contents" subcommand.
type ContentsCmd struct {
	Topic  string `short:"t" required:"" help:"Topic ID"`
	Limit  int    `short:"l" default:"20" help:"Maximum number of items"`
	Export string `short:"e" type:"path" help:"Write items as markdown files under this directory"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr        string        `help:"Listen address (defaults to server.addr from config)"`
	Topics      []string      `name:"topic" short:"t" required:"" help:"Topic to drain (repeatable)"`
	Interval    time.Duration `default:"1m" help:"Delay between drains of each topic"`
	Keywords    []string      `short:"k" name:"keyword" help:"Keyword for scheduled full runs (repeatable)"`
	Notes       string        `short:"n" help:"Notes for scheduled full runs"`
	RunInterval time.Duration `default:"1h" help:"Delay between full runs when keywords are given"`
}
