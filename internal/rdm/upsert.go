package rdm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jlab-mis/rdmsync/internal/record"
)

// OutcomeKind is the terminal state of one upsert.
type OutcomeKind string

const (
	// Created: the record did not exist and the full
	// create/review/submit/accept lifecycle completed.
	Created OutcomeKind = "created"

	// AlreadyExists: a record with the natural key exists and the
	// requested mode was "new"; nothing was written.
	AlreadyExists OutcomeKind = "already_exists"

	// Versioned: the record existed and the version/update/publish
	// lifecycle completed.
	Versioned OutcomeKind = "versioned"

	// Failed: a protocol step returned an unexpected status; Outcome.Stage
	// names the step. Repository state applied by earlier steps is not
	// rolled back.
	Failed OutcomeKind = "failed"
)

// Outcome reports how an upsert terminated.
type Outcome struct {
	Kind     OutcomeKind
	RecordID string
	Stage    Stage
}

// SinkWorthy reports whether a failure at this outcome's stage warrants a
// recovery artifact. Only the initial create and the version-open steps are
// sinked; later steps leave a draft the operators can finish by hand.
func (o Outcome) SinkWorthy() bool {
	return o.Kind == Failed && (o.Stage == StageCreate || o.Stage == StageVersion)
}

// Upserter drives the repository through the deposit lifecycle, idempotent
// against the record's natural key. Lookup-through-create runs under a
// per-key mutex so two upserts for the same key inside one process cannot
// both pass the existence check; overlapping processes remain unguarded and
// rely on external scheduling.
type Upserter struct {
	client      *Client
	communityID string
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUpserter creates an upserter submitting records to the given community.
func NewUpserter(client *Client, communityID string, logger *slog.Logger) *Upserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Upserter{
		client:      client,
		communityID: communityID,
		logger:      logger,
		locks:       map[string]*sync.Mutex{},
	}
}

// keyLock returns the mutex serializing upserts for one natural key.
func (u *Upserter) keyLock(key string) *sync.Mutex {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.locks[key]
	if !ok {
		l = &sync.Mutex{}
		u.locks[key] = l
	}
	return l
}

// Upsert creates or versions the record identified by the natural key in
// custom field keyField.
//
// modify=false: zero lookup hits runs the new-record path to Created;
// nonzero hits is a no-op terminating in AlreadyExists.
//
// modify=true: nonzero hits runs the version path to Versioned; zero hits is
// an upstream inconsistency, logged, that falls through to the new-record
// path.
//
// A Failed outcome is always paired with a non-nil error describing the
// failing step; steps already applied are not reverted.
func (u *Upserter) Upsert(ctx context.Context, rec *record.Record, keyField string, modify bool) (Outcome, error) {
	key := rec.CustomFields.String(keyField)
	if key == "" {
		return Outcome{Kind: Failed, Stage: StageLookup},
			fmt.Errorf("record carries no natural key in %q", keyField)
	}

	lock := u.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	total, hit, err := u.client.Search(ctx, keyField, key)
	if err != nil {
		return Outcome{Kind: Failed, Stage: StageLookup}, err
	}

	if total == 0 {
		if modify {
			// Upstream drift: the source says modified, the repository has
			// never seen the key. Create instead; worth raising with the
			// data owners.
			u.logger.Warn("modify requested but record does not exist, creating",
				"key_field", keyField, "key", key)
		}
		return u.create(ctx, rec, key)
	}

	if !modify {
		u.logger.Info("record already exists", "key_field", keyField, "key", key, "record_id", hit.ID)
		return Outcome{Kind: AlreadyExists, RecordID: hit.ID}, nil
	}
	return u.version(ctx, rec, key, hit.ID)
}

// create runs the new-record path: draft, review, submit, accept.
func (u *Upserter) create(ctx context.Context, rec *record.Record, key string) (Outcome, error) {
	recordID, err := u.client.CreateDraft(ctx, rec)
	if err != nil {
		return Outcome{Kind: Failed, Stage: StageCreate}, err
	}
	u.logger.Debug("draft created", "key", key, "record_id", recordID)

	submitURL, err := u.client.Review(ctx, recordID, u.communityID)
	if err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StageReview}, err
	}
	acceptURL, err := u.client.SubmitReview(ctx, submitURL)
	if err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StageSubmit}, err
	}
	if err := u.client.Accept(ctx, acceptURL); err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StageAccept}, err
	}

	u.logger.Info("record created and accepted", "key", key, "record_id", recordID)
	return Outcome{Kind: Created, RecordID: recordID}, nil
}

// version runs the modify path: open a version, merge the transformed
// fields into the draft, update, publish.
func (u *Upserter) version(ctx context.Context, rec *record.Record, key, recordID string) (Outcome, error) {
	draft, err := u.client.NewVersion(ctx, recordID)
	if err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StageVersion}, err
	}
	if err := mergeDraft(draft, rec); err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StageUpdate}, err
	}
	publishURL, err := u.client.UpdateDraft(ctx, draft)
	if err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StageUpdate}, err
	}
	if err := u.client.Publish(ctx, publishURL); err != nil {
		return Outcome{Kind: Failed, RecordID: recordID, Stage: StagePublish}, err
	}

	u.logger.Info("new version published", "key", key, "record_id", recordID)
	return Outcome{Kind: Versioned, RecordID: recordID}, nil
}

// mergeDraft overwrites the draft's metadata and custom fields with the
// transformed record, leaving the repository-managed fields (id, pids,
// links, versions) untouched.
func mergeDraft(draft *VersionDraft, rec *record.Record) error {
	meta, err := roundTrip(rec.Metadata)
	if err != nil {
		return fmt.Errorf("merge draft metadata: %w", err)
	}
	draft.Body["metadata"] = meta
	if len(rec.CustomFields) > 0 {
		fields, err := roundTrip(rec.CustomFields)
		if err != nil {
			return fmt.Errorf("merge draft custom fields: %w", err)
		}
		draft.Body["custom_fields"] = fields
	}
	return nil
}

// roundTrip converts a typed value to its generic JSON shape.
func roundTrip(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
