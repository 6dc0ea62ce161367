package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tasktalk/internal/checkpoint"
	"github.com/ShayCichocki/tasktalk/internal/config"
	"github.com/ShayCichocki/tasktalk/internal/dates"
	"github.com/ShayCichocki/tasktalk/internal/state"
	"github.com/ShayCichocki/tasktalk/internal/taskstore"
	"github.com/ShayCichocki/tasktalk/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task <id>",
	Short: "Show a stored task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		rt := &runtime{cfg: cfg}
		defer rt.Close()

		store, err := createStore(cmd.Context(), cfg, sqliteOpener(cfg, rt), rt)
		if err != nil {
			return err
		}
		task, err := store.Get(cmd.Context(), args[0])
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidID):
			return fmt.Errorf("no task with id %q", args[0])
		case err != nil:
			return err
		}
		printTask(cmd.OutOrStdout(), task, time.Now())
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the conversation on a thread",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		threadID := threadFlag
		if threadID == "" {
			threadID = cfg.Session.ThreadID
		}
		rt := &runtime{cfg: cfg}
		defer rt.Close()

		saver, err := createSaver(cfg, sqliteOpener(cfg, rt), rt)
		if err != nil {
			return err
		}
		if err := saver.Delete(cmd.Context(), threadID); err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
			return fmt.Errorf("reset thread %s: %w", threadID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Thread %s cleared.\n", threadID)
		return nil
	},
}

// sqliteOpener opens the configured SQLite database once and registers it
// for closing.
func sqliteOpener(cfg *config.Config, rt *runtime) func() (*state.DB, error) {
	var db *state.DB
	return func() (*state.DB, error) {
		if db != nil {
			return db, nil
		}
		path := cfg.Store.SQLitePath
		if path == "" {
			path = state.DefaultDBPath()
		}
		d, err := state.OpenWithDriver(path, cfg.Store.SQLiteDriver)
		if err != nil {
			return nil, err
		}
		if err := d.Migrate(); err != nil {
			d.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		db = d
		rt.closers = append(rt.closers, d.Close)
		return d, nil
	}
}

func printTask(out io.Writer, t *models.Task, now time.Time) {
	fmt.Fprintf(out, "%s\n", t.Title)
	fmt.Fprintf(out, "  id:       %s\n", t.ID)
	fmt.Fprintf(out, "  status:   %s\n", t.Status)
	fmt.Fprintf(out, "  priority: %s\n", t.Priority)
	fmt.Fprintf(out, "  due:      %s (%s)\n", dates.Human(t.DueDate), humanize.RelTime(t.DueDate, now, "ago", "from now"))
	if t.Description != "" {
		fmt.Fprintf(out, "  notes:    %s\n", t.Description)
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(out, "  created:  %s\n", humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(out, "  done:     %s\n", humanize.RelTime(*t.CompletedAt, now, "ago", "from now"))
	}
}

var _ taskstore.Store = (*state.DB)(nil)

