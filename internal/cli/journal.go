package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jlab-mis/rdmsync/internal/config"
	"github.com/jlab-mis/rdmsync/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Key      string
	Limit    int
}

// NewJournalCommand creates the journal inspection command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded upsert outcomes",
		Long: `List outcomes from the local sync journal, newest first. With --key,
show the full history of one natural key across runs.

Example:
  rdmsync journal --limit 20
  rdmsync journal --key 18231`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (default: journal_path from config)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "show history for one natural key")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum entries to list")

	return cmd
}

func runJournal(cmd *cobra.Command, opts *JournalOptions) error {
	path := opts.Database
	if path == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		path = cfg.JournalPath
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no journal database configured (--db or journal_path)")
	}

	jnl, err := journal.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jnl.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var entries []journal.Entry
	if opts.Key != "" {
		entries, err = jnl.ByKey(ctx, opts.Key)
	} else {
		entries, err = jnl.Recent(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no journal entries")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-12s %-10s %-14s", e.NotedAt.Format("2006-01-02 15:04:05"), e.Kind, e.NaturalKey, e.Outcome)
		if e.Stage != "" {
			line += " stage=" + e.Stage
		}
		if e.RecordID != "" {
			line += " record=" + e.RecordID
		}
		if e.Detail != "" {
			line += " detail=" + e.Detail
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
