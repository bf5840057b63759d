package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/scholar-impact/pkg/journal"
	"github.com/hazyhaar/scholar-impact/pkg/page"
	"github.com/hazyhaar/scholar-impact/pkg/rerun"
	"github.com/hazyhaar/scholar-impact/pkg/watch"
)

var watchOut string

var watchCmd = &cobra.Command{
	Use:   "watch <page.html>",
	Short: "Re-annotate a page snapshot every time it changes",
	Long: `Watch annotates the page snapshot once after the warm-up delay, then again
after every burst of changes to the snapshot (or to the table file), writing
the result to --out. SIGHUP reloads the reference table.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "annotated page path (required, must differ from the input)")
	_ = watchCmd.MarkFlagRequired("out")
}

func runWatch(cmd *cobra.Command, args []string) error {
	in, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	out, err := filepath.Abs(watchOut)
	if err != nil {
		return err
	}
	if in == out {
		return errors.New("--out must differ from the watched page")
	}

	lock := flock.New(out + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another watcher already writes %s", out)
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg)

	trigger := rerun.NewTrigger()

	pageWatcher, err := watch.NewWatcher(logger)
	if err != nil {
		return err
	}
	defer pageWatcher.Stop()
	if err := pageWatcher.Watch(in, trigger.Fire); err != nil {
		return err
	}

	reload := func() {
		if err := store.Reload(); err != nil && !errors.Is(err, journal.ErrEmptyTable) {
			logger.Error("reload failed", "error", err)
			return
		}
		trigger.Fire()
	}

	if cfg.TableFile != "" {
		tableWatcher, err := watch.NewWatcher(logger)
		if err != nil {
			return err
		}
		defer tableWatcher.Stop()
		if err := tableWatcher.Watch(cfg.TableFile, reload); err != nil {
			return err
		}
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				logger.Info("SIGHUP received, reloading table")
				reload()
			}
		}
	}()

	coord := rerun.New(func(_ context.Context, runID string) error {
		return annotateSnapshot(in, out, store, runID)
	}, rerun.Options{Warmup: cfg.Warmup, Debounce: cfg.Debounce, Logger: logger})

	logger.Info("watching page", "page", in, "out", out)
	if err := coord.Serve(ctx, trigger.C()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("watch stopped", "passes", coord.Passes())
	return nil
}

// annotateSnapshot runs one full pass over the snapshot at in. A missing
// snapshot (mid-replace) is left for the next change signal.
func annotateSnapshot(in, out string, store *journal.Store, runID string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	p, err := page.ParseString(string(data), cfg.Selectors)
	if err != nil {
		return err
	}
	report, runErr := p.Run(store.Matcher())
	offPage := errors.Is(runErr, page.ErrOffPage)
	if runErr != nil && !offPage {
		return runErr
	}
	doc, err := p.HTML()
	if err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	if err := writeFileAtomic(out, []byte(doc)); err != nil {
		return err
	}
	logger.Info("page annotated",
		"run", runID,
		"off_page", offPage,
		"matched", report.Summary.Matched,
		"total", report.Summary.Total,
	)
	return nil
}
