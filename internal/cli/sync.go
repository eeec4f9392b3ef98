package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jlab-mis/rdmsync/internal/driver"
	"github.com/jlab-mis/rdmsync/internal/mis"
)

// Record-kind selectors for the sync commands.
var validKinds = []string{"proposals", "publications", "all"}

// SyncOptions holds flags shared by "sync new" and "sync modify".
type SyncOptions struct {
	*RootOptions
	Kind             string
	SubmitDateAfter  string
	SubmitDateBefore string
	ModificationDate string
	PACNumber        string
	PubYear          string
}

// NewSyncCommand creates the sync command group.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync batch over an explicit date window",
	}
	cmd.AddCommand(newSyncNewCommand(rootOpts))
	cmd.AddCommand(newSyncModifyCommand(rootOpts))
	return cmd
}

func newSyncNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create repository records for source entries submitted in the window",
		Long: `Fetch source entries submitted after the given date and create a
repository record for each. Entries whose natural key already exists in the
repository are left untouched.

Example:
  rdmsync sync new --submit-date-after 2026-08-29
  rdmsync sync new --submit-date-after 2026-01-01 --kind proposals --pac-number 52`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := mis.Window{
				SubmitDateAfter:  opts.SubmitDateAfter,
				SubmitDateBefore: opts.SubmitDateBefore,
				PACNumber:        opts.PACNumber,
				PubYear:          opts.PubYear,
			}
			return runSync(cmd, opts, w, false)
		},
	}

	cmd.Flags().StringVar(&opts.SubmitDateAfter, "submit-date-after", "", "window start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.SubmitDateBefore, "submit-date-before", "", "window end, YYYY-MM-DD")
	addSyncFilterFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("submit-date-after")

	return cmd
}

func newSyncModifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "modify",
		Short: "Version repository records for source entries modified in the window",
		Long: `Fetch source entries modified on the given date and publish a new
version of each corresponding repository record. Entries whose modification
timestamp equals their submission timestamp are unchanged since creation and
are skipped entirely.

Example:
  rdmsync sync modify --modification-date 2026-08-29`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := mis.Window{
				ModificationDate: opts.ModificationDate,
				PACNumber:        opts.PACNumber,
				PubYear:          opts.PubYear,
			}
			return runSync(cmd, opts, w, true)
		},
	}

	cmd.Flags().StringVar(&opts.ModificationDate, "modification-date", "", "modification date, YYYY-MM-DD (required)")
	addSyncFilterFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("modification-date")

	return cmd
}

func addSyncFilterFlags(cmd *cobra.Command, opts *SyncOptions) {
	cmd.Flags().StringVar(&opts.Kind, "kind", "all",
		"record kinds to sync ("+strings.Join(validKinds, "|")+")")
	cmd.Flags().StringVar(&opts.PACNumber, "pac-number", "", "restrict proposals to one PAC number")
	cmd.Flags().StringVar(&opts.PubYear, "pub-year", "", "restrict publications to one year")
}

// runSync executes one batch for the selected kinds and reports the summary.
func runSync(cmd *cobra.Command, opts *SyncOptions, w mis.Window, modify bool) error {
	doProposals, doPublications, err := selectKinds(opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --kind", err)
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

	var results []kindSummary
	if doProposals {
		sum, err := d.SyncProposals(ctx, w, modify)
		if err != nil {
			return WrapExitError(ExitFailure, "proposal batch aborted", err)
		}
		results = append(results, kindSummary{Kind: driver.KindProposal, Summary: sum})
	}
	if doPublications {
		sum, err := d.SyncPublications(ctx, w, modify)
		if err != nil {
			return WrapExitError(ExitFailure, "publication batch aborted", err)
		}
		results = append(results, kindSummary{Kind: driver.KindPublication, Summary: sum})
	}

	return reportSummaries(cmd, opts.RootOptions, d.RunID(), results)
}

// selectKinds parses the --kind flag.
func selectKinds(kind string) (proposals, publications bool, err error) {
	switch kind {
	case "proposals":
		return true, false, nil
	case "publications":
		return false, true, nil
	case "all":
		return true, true, nil
	}
	return false, false, fmt.Errorf("%q is not one of %v", kind, validKinds)
}

// kindSummary pairs a batch summary with its record kind for output.
type kindSummary struct {
	Kind string `json:"kind"`
	driver.Summary
}

func (k kindSummary) String() string {
	return fmt.Sprintf("%s: fetched=%d skipped=%d created=%d exists=%d versioned=%d failed=%d",
		k.Kind, k.Fetched, k.Skipped, k.Created, k.AlreadyExists, k.Versioned, k.Failed)
}

// reportSummaries prints the batch results and signals per-record failures
// through the exit code without aborting early.
func reportSummaries(cmd *cobra.Command, opts *RootOptions, runID string, results []kindSummary) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	failed := 0
	if opts.Format == "json" {
		if err := formatter.Success(map[string]any{"run_id": runID, "batches": results}); err != nil {
			return err
		}
		for _, r := range results {
			failed += r.Failed
		}
	} else {
		for _, r := range results {
			if err := formatter.Success(r); err != nil {
				return err
			}
			failed += r.Failed
		}
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d records failed", failed))
	}
	return nil
}
