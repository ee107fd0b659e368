package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mkravets/telescan/internal/config"
	"github.com/mkravets/telescan/internal/scheduler"
	"github.com/mkravets/telescan/internal/store"
	"github.com/mkravets/telescan/pkg/embed"
	"github.com/mkravets/telescan/pkg/ingest"
	"github.com/mkravets/telescan/pkg/server"
	"github.com/mkravets/telescan/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildFetchers(cfg *config.Config, logger *slog.Logger) []source.Fetcher {
	fetchers := []source.Fetcher{source.NewRSS()}

	if cfg.Telegram.APIID != 0 && cfg.Telegram.APIHash != "" {
		fetchers = append(fetchers, source.NewTelegram(
			cfg.Telegram.APIID,
			cfg.Telegram.APIHash,
			cfg.Telegram.SessionFile,
			cfg.Telegram.BotToken,
			logger,
		))
	} else {
		logger.Warn("telegram credentials not set, telegram sources disabled")
	}

	return fetchers
}

func buildRunner(cfg *config.Config, st store.Store, logger *slog.Logger) (*ingest.Runner, embed.Embedder, error) {
	embedder, err := embed.NewClient(
		cfg.Embedding.Host,
		cfg.Embedding.Model,
		cfg.Embedding.Prefix,
		cfg.Embedding.Dimension,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("build embedder: %w", err)
	}

	runner, err := ingest.New(st, embedder, buildFetchers(cfg, logger), ingest.Config{
		BatchLimit:   cfg.Ingest.BatchLimit,
		FetchTimeout: cfg.Ingest.ParseFetchTimeout(),
		EmbedTimeout: cfg.Ingest.ParseEmbedTimeout(),
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build runner: %w", err)
	}

	return runner, embedder, nil
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	logger := slog.Default()

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runner, embedder, err := buildRunner(cfg, st, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(runner, cfg.Schedule.ParseInterval(), logger)
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("scheduler exited", "err", err)
		}
	}()

	srv := server.New(st, runner, embedder, port, logger)
	return srv.Run(ctx)
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	logger := slog.Default()

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runner, embedder, err := buildRunner(cfg, st, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(st, runner, embedder, port, logger)
	return srv.Run(ctx)
}

func runIngest(sourceID string, all bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.Default()

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runner, _, err := buildRunner(cfg, st, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if all {
		runner.RunAllActive(ctx)
		return nil
	}

	report, err := runner.Run(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", sourceID, err)
	}

	fmt.Printf("source %s: fetched %d, inserted %d, skipped %d\n",
		report.SourceID, report.Fetched, report.Inserted, report.Skipped)
	if report.Checkpoint > 0 {
		fmt.Printf("checkpoint advanced to %d\n", report.Checkpoint)
	}
	return nil
}

func runSourcesAdd(id, kind, address string, active bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	src := &store.Source{
		ID:      id,
		Kind:    source.Kind(kind),
		Address: address,
		Active:  active,
	}
	if err := st.AddSource(context.Background(), src); err != nil {
		return err
	}

	fmt.Printf("added source %s (%s %s)\n", src.ID, src.Kind, src.Address)
	return nil
}

func runSourcesList() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	sources, err := st.ListSources(ctx)
	if err != nil {
		return err
	}
	counts, err := st.CountDocumentsBySource(ctx)
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Println("no sources configured (add one: telescan sources add --address @channel)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tADDRESS\tACTIVE\tDOCS\tCHECKPOINT\tCREATED")
	for _, src := range sources {
		cp, ok, err := st.Checkpoint(ctx, src.ID)
		if err != nil {
			return err
		}
		cpStr := "-"
		if ok {
			cpStr = fmt.Sprintf("%d", cp)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\t%s\n",
			src.ID, src.Kind, src.Address, src.Active, counts[src.ID], cpStr,
			src.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runSourcesSetActive(id string, active bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.SetSourceActive(context.Background(), id, active); err != nil {
		return err
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("source %s %s\n", id, state)
	return nil
}
