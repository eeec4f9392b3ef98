// Package sink persists transformed records that failed terminally inside
// the upsert state machine, as recoverable JSON artifacts for manual
// reprocessing. This is a last-resort path: persisting never fails the
// caller, a write error is logged and swallowed.
package sink

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlab-mis/rdmsync/internal/record"
)

// Sink writes failure artifacts into a designated directory.
type Sink struct {
	dir    string
	logger *slog.Logger

	// now is overridable for tests.
	now func() time.Time
}

// New creates a sink writing into dir. The directory is created on first
// use.
func New(dir string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{dir: dir, logger: logger, now: time.Now}
}

// artifact is the persisted envelope around the failed record.
type artifact struct {
	Category   string         `json:"category"`
	NaturalKey string         `json:"natural_key"`
	RunID      string         `json:"run_id,omitempty"`
	FailedAt   time.Time      `json:"failed_at"`
	Record     *record.Record `json:"record"`
}

// Persist writes one artifact for a failed record, named by failure
// category, run date, and natural key. Never returns an error.
func (s *Sink) Persist(rec *record.Record, category, naturalKey, runID string) {
	a := artifact{
		Category:   category,
		NaturalKey: naturalKey,
		RunID:      runID,
		FailedAt:   s.now().UTC(),
		Record:     rec,
	}
	name := fmt.Sprintf("%s_%s_%s.json",
		sanitize(category), a.FailedAt.Format("2006-01-02"), sanitize(naturalKey))
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error("failure sink: cannot create artifact directory",
			"dir", s.dir, "error", err)
		return
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		s.logger.Error("failure sink: cannot encode artifact",
			"category", category, "key", naturalKey, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Error("failure sink: cannot write artifact",
			"path", path, "error", err)
		return
	}
	s.logger.Info("failure artifact written", "path", path, "category", category, "key", naturalKey)
}

// sanitize keeps filenames portable: anything outside [A-Za-z0-9._-]
// becomes "-".
func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		}
		return '-'
	}, s)
}
