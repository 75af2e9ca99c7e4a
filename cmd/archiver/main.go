package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/internal/archiver"
	"github.com/qzarchive/qzarchive/internal/cookies"
	"github.com/qzarchive/qzarchive/internal/db"
	"github.com/qzarchive/qzarchive/internal/models"
	"github.com/qzarchive/qzarchive/internal/qzone"
	"github.com/qzarchive/qzarchive/pkg/config"
	"github.com/qzarchive/qzarchive/pkg/logging"
	"github.com/qzarchive/qzarchive/pkg/telemetry"
)

const usage = `usage: archiver <command> [flags] <args>

commands:
  list <uin>          print the first page of a feed
  hydrate <uin> <tid> find a post in the feed, hydrate it and print it
  sync <uin>          archive a feed into the database
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	pages := fs.Int("pages", cfg.Archiver.Pages, "maximum number of feed pages to read")
	hydrate := fs.String("hydrate", cfg.Archiver.Hydrate, "hydration mode: none, unloaded or all")
	pageSize := fs.Int("page-size", cfg.Qzone.PageSize, "posts per feed page")
	fs.Parse(args)
	cfg.Archiver.Pages = *pages
	cfg.Archiver.Hydrate = *hydrate
	cfg.Qzone.PageSize = *pageSize
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()
	logger := logging.GetLogger()

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jar, err := cookies.Load(&cfg.Cookies)
	if err != nil {
		logger.Fatal("Failed to load session cookies", zap.Error(err))
	}
	client, err := qzone.New(&cfg.Qzone, jar)
	if err != nil {
		logger.Fatal("Failed to create qzone client", zap.Error(err))
	}

	switch command {
	case "list":
		err = runList(ctx, client, cfg, fs.Args())
	case "hydrate":
		err = runHydrate(ctx, client, cfg, fs.Args())
	case "sync":
		err = runSync(ctx, client, cfg, fs.Args())
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}

// targetUIN takes the uin argument, falling back to the configured target
func targetUIN(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Archiver.TargetUIN != "" {
		return cfg.Archiver.TargetUIN, nil
	}
	return "", fmt.Errorf("missing <uin> argument")
}

func runList(ctx context.Context, client *qzone.Client, cfg *config.Config, args []string) error {
	uin, err := targetUIN(cfg, args)
	if err != nil {
		return err
	}
	posts, err := client.ListPosts(ctx, uin, qzone.ListOptions{Num: cfg.Qzone.PageSize})
	if err != nil {
		return err
	}
	for _, post := range posts {
		fmt.Println(post.String())
	}
	return nil
}

func runHydrate(ctx context.Context, client *qzone.Client, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: archiver hydrate <uin> <tid>")
	}
	uin, tid := args[0], args[1]

	var found *models.Post
	for page := 0; page < cfg.Archiver.Pages && found == nil; page++ {
		opts := qzone.ListOptions{Num: cfg.Qzone.PageSize, Pos: page * cfg.Qzone.PageSize}
		posts, err := client.ListPosts(ctx, uin, opts)
		if err != nil {
			return err
		}
		for _, post := range posts {
			if post.ID == tid {
				found = post
				break
			}
		}
		if len(posts) < cfg.Qzone.PageSize {
			break
		}
	}
	if found == nil {
		return fmt.Errorf("post %s not found in the first %d pages of %s", tid, cfg.Archiver.Pages, uin)
	}

	if err := qzone.NewHydrator(client).Hydrate(ctx, found); err != nil {
		// print what was loaded before the failure
		fmt.Println(found.String())
		return err
	}
	fmt.Println(found.String())
	return nil
}

func runSync(ctx context.Context, client *qzone.Client, cfg *config.Config, args []string) error {
	uin, err := targetUIN(cfg, args)
	if err != nil {
		return err
	}
	logger := logging.GetLogger()

	sink := archiver.Sink(func(post *models.Post, hydrated bool) {
		logger.Debug("Archived post", zap.String("tid", post.ID), zap.Bool("hydrated", hydrated))
	})
	var opts []archiver.Option

	if cfg.Database.Enabled {
		database, err := db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		opts = append(opts, archiver.WithStore(db.NewArchiveStore(db.NewRepository(database.DB))))
	} else {
		logger.Warn("Database disabled, posts are printed and not stored")
		sink = func(post *models.Post, _ bool) {
			fmt.Println(post.String())
		}
	}
	opts = append(opts, archiver.WithSink(sink))

	a := archiver.New(client, qzone.NewHydrator(client), &cfg.Archiver, cfg.Qzone.PageSize, opts...)
	run, err := a.Run(ctx, uin)
	if run != nil {
		fmt.Printf("run %s: listed %d, hydrated %d, failed %d\n", run.ID, run.Listed, run.Hydrated, run.Failed)
	}
	return err
}
