package cli

import (
	"log/slog"

	"github.com/jlab-mis/rdmsync/internal/config"
	"github.com/jlab-mis/rdmsync/internal/driver"
	"github.com/jlab-mis/rdmsync/internal/journal"
	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/rdm"
	"github.com/jlab-mis/rdmsync/internal/sink"
)

// buildDriver constructs a fully wired batch driver from the loaded config.
// The returned cleanup closes the journal; it is safe to call when nil
// resources were never opened.
func buildDriver(opts *RootOptions) (*driver.Driver, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	source := mis.NewClient(cfg.Sources.ProposalURL, cfg.Sources.PublicationURL, cfg.HTTPTimeout.Std())
	repo := rdm.NewClient(cfg.Repository.Host, cfg.Repository.Token, cfg.HTTPTimeout.Std())
	snk := sink.New(cfg.ArtifactDir, slog.Default())

	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		jnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
	}
	cleanup := func() {
		if jnl != nil {
			if err := jnl.Close(); err != nil {
				slog.Error("error closing journal", "error", err)
			}
		}
	}

	d := driver.New(driver.Options{
		Source:               source,
		Repository:           repo,
		ProposalCommunity:    cfg.Repository.Communities.Proposals,
		PublicationCommunity: cfg.Repository.Communities.Publications,
		Sink:                 snk,
		Journal:              jnl,
		Logger:               slog.Default(),
	})
	return d, cleanup, nil
}
