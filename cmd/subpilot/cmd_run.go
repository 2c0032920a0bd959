package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"subpilot/internal/browser"
	"subpilot/internal/config"
	"subpilot/internal/content"
	"subpilot/internal/generator"
	"subpilot/internal/journal"
	"subpilot/internal/pacing"
	"subpilot/internal/reddit"
	"subpilot/internal/routine"
	"subpilot/internal/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runRoutine executes one daily routine.
func runRoutine(cmd *cobra.Command, args []string) error {
	if !dryRun {
		if err := cfg.CheckCredentials(); err != nil {
			logger.Error("Cannot start", zap.Error(err))
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	catalog, err := content.Load(cfg.Community.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	rng := generator.NewRand()
	gen, err := generator.New(catalog, rng)
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	pacer := pacing.New(rng, nil)

	opts := routine.Options{
		Open:      sessionOpener(cfg, pacer),
		Store:     state.NewStore(cfg.Storage.StatePath),
		Catalog:   catalog,
		Generator: gen,
		Pacer:     pacer,
		Schedule:  cfg.RoutineSchedule(),
		Username:  cfg.Account.Username,
		Password:  cfg.Account.Password,
		DryRun:    dryRun,
		Logger:    logger,
	}

	if !dryRun && cfg.Storage.JournalPath != "" {
		j, err := journal.Open(cfg.Storage.JournalPath)
		if err != nil {
			logger.Warn("Activity journal unavailable", zap.Error(err))
		} else {
			defer j.Close()
			opts.Journal = j
		}
	}

	controller, err := routine.New(opts)
	if err != nil {
		return err
	}

	res, err := controller.Run(ctx)
	if err != nil {
		if errors.Is(err, reddit.ErrAuthentication) {
			return fmt.Errorf("login failed, nothing was posted: %w", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d posts, %d/%d replies (run %s)\n",
		res.Phase, res.PostsMade, res.RepliesMade, res.RepliesAttempted, res.RunID)
	return nil
}

// sessionOpener starts a browser and binds a site client to it.
func sessionOpener(cfg *config.Config, pacer *pacing.Pacer) routine.SessionOpener {
	return func(ctx context.Context) (routine.Community, io.Closer, error) {
		session, err := browser.Open(ctx, cfg.Browser, pacer, logger.Named("browser"))
		if err != nil {
			return nil, nil, err
		}
		client := reddit.NewClient(session, pacer, logger.Named("reddit"),
			cfg.Community.BaseURL, cfg.Community.Subreddit, reddit.DefaultTiming())
		return client, session, nil
	}
}
