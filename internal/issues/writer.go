// Package issues merges freshly generated issue streams with the published
// issues dataset, carrying operator-written maintenance notes across
// refreshes.
package issues

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"address-etl/internal/models"
)

// Store is the slice of the feature store the writer needs. Replace must be
// atomic: truncate and insert inside one session.
type Store interface {
	PriorMaintenance(ctx context.Context) (map[models.IssueKey]models.Maintenance, error)
	ReplaceIssues(ctx context.Context, issues []models.Issue) error
}

// Writer replaces the published issues dataset each run.
type Writer struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewWriter creates a writer. The clock is injectable for tests.
func NewWriter(store Store, log zerolog.Logger) *Writer {
	return &Writer{store: store, log: log, now: time.Now}
}

// Write enriches the issue stream with the operator-written maintenance
// columns from the previous run and replaces the published dataset.
//
// The maintenance columns are co-owned: an existing note for an unchanged
// (address_id, description) pair is carried verbatim, never overwritten.
// Issues with no prior entry are stamped with one timestamp captured at the
// start of the write, so a single run marks all of its new issues
// identically. If the prior table cannot be read the merge proceeds with an
// empty map; losing notes is preferable to blocking the refresh, but it is
// worth a warning.
func (w *Writer) Write(ctx context.Context, issues []models.Issue) error {
	prior, err := w.store.PriorMaintenance(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("issues: prior issues table unreadable, starting maintenance notes fresh")
		prior = map[models.IssueKey]models.Maintenance{}
	}

	now := w.now()
	enriched := make([]models.Issue, len(issues))
	for i, issue := range issues {
		if m, ok := prior[issue.Key()]; ok {
			issue.MaintNotes = m.Notes
			issue.MaintInitDate = m.InitDate
		} else {
			issue.MaintNotes = nil
			issue.MaintInitDate = now
		}
		enriched[i] = issue
	}

	if err := w.store.ReplaceIssues(ctx, enriched); err != nil {
		return fmt.Errorf("issues: replace issues dataset: %w", err)
	}
	w.log.Info().Int("issues", len(enriched)).Msg("issues: dataset replaced")
	return nil
}
