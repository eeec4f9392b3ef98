// Package driver runs sync batches: fetch a date window from a source
// service, transform each record, and upsert it into the repository,
// strictly one record at a time. A bad record never aborts the batch; a
// failed source query always does.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jlab-mis/rdmsync/internal/journal"
	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/rdm"
	"github.com/jlab-mis/rdmsync/internal/record"
	"github.com/jlab-mis/rdmsync/internal/sink"
	"github.com/jlab-mis/rdmsync/internal/transform"
)

// Record kinds as they appear in journal rows and log lines.
const (
	KindProposal    = "proposal"
	KindPublication = "publication"
)

// Driver executes sync batches against one source client and one repository.
type Driver struct {
	source       *mis.Client
	proposals    *rdm.Upserter
	publications *rdm.Upserter
	sink         *sink.Sink
	journal      *journal.Journal // nil disables journaling
	logger       *slog.Logger

	proposalMapper    transform.ProposalMapper
	publicationMapper transform.PublicationMapper

	runID string
}

// Options wires a Driver. Journal may be nil.
type Options struct {
	Source               *mis.Client
	Repository           *rdm.Client
	ProposalCommunity    string
	PublicationCommunity string
	Sink                 *sink.Sink
	Journal              *journal.Journal
	Logger               *slog.Logger
}

// New creates a driver with a fresh run id.
func New(opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.Must(uuid.NewV7()).String()
	return &Driver{
		source:            opts.Source,
		proposals:         rdm.NewUpserter(opts.Repository, opts.ProposalCommunity, logger),
		publications:      rdm.NewUpserter(opts.Repository, opts.PublicationCommunity, logger),
		sink:              opts.Sink,
		journal:           opts.Journal,
		logger:            logger.With("run_id", runID),
		proposalMapper:    transform.ProposalMapper{CommunityID: opts.ProposalCommunity},
		publicationMapper: transform.PublicationMapper{CommunityID: opts.PublicationCommunity},
		runID:             runID,
	}
}

// RunID identifies this driver's batch run in logs, journal rows, and
// failure artifacts.
func (d *Driver) RunID() string { return d.runID }

// Summary counts the terminal states of one batch.
type Summary struct {
	Fetched       int
	Skipped       int
	Created       int
	AlreadyExists int
	Versioned     int
	Failed        int
}

// add folds one upsert outcome into the summary.
func (s *Summary) add(kind rdm.OutcomeKind) {
	switch kind {
	case rdm.Created:
		s.Created++
	case rdm.AlreadyExists:
		s.AlreadyExists++
	case rdm.Versioned:
		s.Versioned++
	case rdm.Failed:
		s.Failed++
	}
}

// SyncProposals fetches proposals for the window and upserts each one. In
// modify mode, records whose modification timestamp equals their submission
// timestamp are skipped before any transform runs.
func (d *Driver) SyncProposals(ctx context.Context, w mis.Window, modify bool) (Summary, error) {
	var sum Summary
	entries, err := d.source.Proposals(ctx, w)
	if err != nil {
		return sum, fmt.Errorf("proposal batch: %w", err)
	}
	sum.Fetched = len(entries)
	d.logger.Info("proposal batch fetched", "count", len(entries), "modify", modify)

	for i := range entries {
		p := &entries[i]
		if modify && mis.Unchanged(p.SubmittedDate, p.ModificationDate) {
			d.skip(ctx, KindProposal, p.ID.String(), &sum)
			continue
		}
		rec, rep := d.proposalMapper.Transform(p)
		d.process(ctx, KindProposal, transform.ProposalKeyField, rec, rep, modify, d.proposals, &sum)
	}
	return sum, nil
}

// SyncPublications fetches the publication search window, then each full
// record body, and upserts each one. Change detection runs on the summary,
// before the per-record fetch.
func (d *Driver) SyncPublications(ctx context.Context, w mis.Window, modify bool) (Summary, error) {
	var sum Summary
	summaries, err := d.source.PublicationSummaries(ctx, w)
	if err != nil {
		return sum, fmt.Errorf("publication batch: %w", err)
	}
	sum.Fetched = len(summaries)
	d.logger.Info("publication batch fetched", "count", len(summaries), "modify", modify)

	for _, s := range summaries {
		if modify && mis.Unchanged(s.SubmitDate, s.ModificationDate) {
			d.skip(ctx, KindPublication, s.PubID.String(), &sum)
			continue
		}
		recordURL := s.RecordURL()
		if recordURL == "" {
			d.logger.Error("publication summary carries no record URL", "key", s.PubID.String())
			sum.Failed++
			d.note(ctx, journal.Entry{
				Kind: KindPublication, NaturalKey: s.PubID.String(),
				Outcome: "failed", Stage: "fetch", Detail: "missing json_record_url",
			})
			continue
		}
		pub, err := d.source.Publication(ctx, recordURL)
		if err != nil {
			d.logger.Error("publication record fetch failed", "key", s.PubID.String(), "error", err)
			sum.Failed++
			d.note(ctx, journal.Entry{
				Kind: KindPublication, NaturalKey: s.PubID.String(),
				Outcome: "failed", Stage: "fetch", Detail: err.Error(),
			})
			continue
		}
		rec, rep := d.publicationMapper.Transform(pub)
		d.process(ctx, KindPublication, transform.PublicationKeyField, rec, rep, modify, d.publications, &sum)
	}
	return sum, nil
}

// process validates and upserts one transformed record, then journals the
// outcome and sinks the payload when the failure stage warrants it.
func (d *Driver) process(ctx context.Context, kind, keyField string, rec *record.Record,
	rep transform.Report, modify bool, upserter *rdm.Upserter, sum *Summary) {

	key := rec.CustomFields.String(keyField)
	for _, f := range rep.Fallbacks {
		d.logger.Warn("classification fell back",
			"kind", kind, "key", key, "field", f.Field, "code", f.Code, "reason", f.Reason)
	}

	if err := record.Validate(rec, keyField); err != nil {
		d.logger.Error("record failed validation", "kind", kind, "key", key, "error", err)
		sum.Failed++
		d.note(ctx, journal.Entry{
			Kind: kind, NaturalKey: key,
			Outcome: "failed", Stage: "validate", Detail: err.Error(),
		})
		return
	}

	outcome, err := upserter.Upsert(ctx, rec, keyField, modify)
	sum.add(outcome.Kind)
	if err != nil {
		d.logger.Error("upsert failed",
			"kind", kind, "key", key, "stage", string(outcome.Stage), "error", err)
		if outcome.SinkWorthy() && d.sink != nil {
			d.sink.Persist(rec, string(outcome.Stage), key, d.runID)
		}
	}

	entry := journal.Entry{
		Kind: kind, NaturalKey: key,
		Outcome: string(outcome.Kind), Stage: string(outcome.Stage),
		RecordID: outcome.RecordID,
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	d.note(ctx, entry)
}

// skip journals an unchanged record excluded from a modify batch.
func (d *Driver) skip(ctx context.Context, kind, key string, sum *Summary) {
	sum.Skipped++
	d.logger.Debug("unchanged since submission, skipping", "kind", kind, "key", key)
	d.note(ctx, journal.Entry{Kind: kind, NaturalKey: key, Outcome: "skipped"})
}

// note writes a journal entry; journaling problems are logged, never fatal.
func (d *Driver) note(ctx context.Context, e journal.Entry) {
	if d.journal == nil {
		return
	}
	e.RunID = d.runID
	if err := d.journal.Record(ctx, e); err != nil {
		d.logger.Error("journal write failed", "key", e.NaturalKey, "error", err)
	}
}
