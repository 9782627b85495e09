package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sift/audit"
	siftredis "github.com/fwojciec/sift/redis"
	"github.com/fwojciec/sift/sqlite"
	goredis "github.com/redis/go-redis/v9"
	slogctx "github.com/veqryn/slog-context"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Getenv reads environment overrides. Set before calling Run().
	Getenv func(string) string

	// Logger replaces the logger built from the config. When nil, the
	// built logger also becomes the process default.
	Logger *slog.Logger

	Config *Config

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Redis client backing shared dedup and frontier state. Nil when
	// REDIS_URL is not configured.
	Redis *goredis.Client

	// Bus fans audit events out to the audit store and SSE subscribers.
	Bus *audit.Bus
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv: os.Getenv,
	}
}

// Close gracefully stops the program. The bus is closed first so buffered
// audit events reach the database.
func (m *Main) Close() error {
	var firstErr error
	if m.Bus != nil {
		if err := m.Bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sift"),
		kong.Description("Discover, deduplicate and store topical web content."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sift --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	cfg, err := LoadConfig(cli.Config, m.Getenv)
	if err != nil {
		return err
	}
	m.Config = cfg
	deps.Config = cfg

	logger := m.Logger
	if logger == nil {
		logger = newLogger(stderr, cfg.Logging)
		slog.SetDefault(logger)
	}
	deps.Logger = logger

	m.DB = sqlite.NewDB(cfg.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set %s to use a different database path\n", dbPathEnv)
		return fmt.Errorf("failed to open database at %q: %w", cfg.DB, err)
	}
	defer m.Close()

	auditStore := sqlite.NewAuditStore(m.DB)
	deps.Contents = sqlite.NewContentService(m.DB)
	deps.Runs = sqlite.NewRunService(m.DB)
	deps.Audit = auditStore

	if cmd == "run" || cmd == "serve" {
		if cfg.RedisURL != "" {
			m.Redis, err = siftredis.Open(ctx, cfg.RedisURL)
			if err != nil {
				fmt.Fprintf(stderr, "Hint: Unset %s to keep dedup state in memory\n", redisURLEnv)
				return err
			}
		}

		m.Bus = audit.NewBus(auditStore, audit.WithLogger(logger))
		deps.Events = m.Bus

		var sites []string
		if cmd == "run" {
			sites = cli.Run.Sites
		}
		crawler, err := m.newCrawler(ctx, cfg, deps, sites)
		if err != nil {
			return err
		}
		deps.Crawler = crawler
	}

	return kongCtx.Run(deps)
}

// newLogger builds the process logger. Attributes appended to a context
// with slogctx are added to every record logged with that context.
func newLogger(w io.Writer, cfg Logging) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(slogctx.NewHandler(h, nil))
}
