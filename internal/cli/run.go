package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jlab-mis/rdmsync/internal/driver"
	"github.com/jlab-mis/rdmsync/internal/mis"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Date string
}

// NewRunCommand creates the daily-run command, the cron entrypoint. It
// executes the "new" batch and then the "modify" batch for both record
// kinds over yesterday's window.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily sync (new + modify, both kinds, yesterday's window)",
		Long: `Run the full daily reconciliation: create records for source entries
submitted yesterday, then version records for entries modified yesterday.
This is the command the scheduler invokes once a day.

Example:
  rdmsync run --config /etc/rdmsync.yaml
  rdmsync run --date 2026-08-15`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaily(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "window date, YYYY-MM-DD (default: yesterday)")

	return cmd
}

func runDaily(cmd *cobra.Command, opts *RunOptions) error {
	date := opts.Date
	if date == "" {
		date = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	}

	d, cleanup, err := buildDriver(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// The four batches are independent: one source being down must not
	// suppress the others. Aborts are collected and reported at the end.
	var results []kindSummary
	var aborted []error
	runBatch := func(kind string, sync func(context.Context, mis.Window, bool) (driver.Summary, error), w mis.Window, modify bool) {
		sum, err := sync(ctx, w, modify)
		if err != nil {
			aborted = append(aborted, fmt.Errorf("%s: %w", kind, err))
			return
		}
		results = append(results, kindSummary{Kind: kind, Summary: sum})
	}

	newWindow := mis.Window{SubmitDateAfter: date}
	modWindow := mis.Window{ModificationDate: date}

	runBatch(driver.KindProposal, d.SyncProposals, newWindow, false)
	runBatch(driver.KindPublication, d.SyncPublications, newWindow, false)
	runBatch(driver.KindProposal, d.SyncProposals, modWindow, true)
	runBatch(driver.KindPublication, d.SyncPublications, modWindow, true)

	reportErr := reportSummaries(cmd, opts.RootOptions, d.RunID(), results)
	if len(aborted) > 0 {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("%d of 4 batches aborted", len(aborted)), errors.Join(aborted...))
	}
	return reportErr
}
