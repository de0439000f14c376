package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"address-etl/internal/geometry"
	"address-etl/internal/models"
)

// PriorMaintenance reads the operator-written maintenance columns of the
// published issues dataset, keyed by (address_id, description).
func (r *Repository) PriorMaintenance(ctx context.Context) (map[models.IssueKey]models.Maintenance, error) {
	rows, err := r.db.Query(ctx,
		`SELECT address_id, description, maint_notes, maint_init_date FROM site_address_issues`)
	if err != nil {
		return nil, fmt.Errorf("repository: query prior issues: %w", err)
	}
	defer rows.Close()

	prior := make(map[models.IssueKey]models.Maintenance)
	for rows.Next() {
		var key models.IssueKey
		var m models.Maintenance
		if err := rows.Scan(&key.AddressID, &key.Description, &m.Notes, &m.InitDate); err != nil {
			return nil, fmt.Errorf("repository: scan prior issue: %w", err)
		}
		prior[key] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate prior issues: %w", err)
	}
	return prior, nil
}

// ReplaceIssues truncates the published issues dataset and inserts the new
// stream inside one transaction, so readers see either the old or the new
// dataset, never a mix.
func (r *Repository) ReplaceIssues(ctx context.Context, issues []models.Issue) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: begin issue replacement: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE site_address_issues`); err != nil {
		return fmt.Errorf("repository: truncate issues: %w", wrapLock(err))
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"site_address_issues"},
		[]string{"address_id", "address", "postcomm", "description", "ok_to_publish", "maint_notes", "maint_init_date", "geom"},
		pgx.CopyFromSlice(len(issues), func(i int) ([]interface{}, error) {
			iss := issues[i]
			// COPY is binary; the geom payload must be EWKB, not EWKT text.
			geom := geometry.EWKBPoint(geometry.EPSGOregonNorth, iss.X, iss.Y)
			return []interface{}{iss.AddressID, iss.Address, iss.PostComm, iss.Description, iss.OKToPublish, iss.MaintNotes, iss.MaintInitDate, geom}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("repository: copy issues: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: commit issue replacement: %w", err)
	}
	return nil
}

// ListIssues reads the published issues, optionally filtered to one postal
// community or to publication-blocking issues only.
func (r *Repository) ListIssues(ctx context.Context, postComm string, blockingOnly bool) ([]models.Issue, error) {
	sql := `SELECT address_id, address, postcomm, description, ok_to_publish,
			maint_notes, maint_init_date, ST_X(geom), ST_Y(geom)
		FROM site_address_issues WHERE 1=1`
	var args []interface{}
	if postComm != "" {
		args = append(args, postComm)
		sql += fmt.Sprintf(` AND postcomm = $%d`, len(args))
	}
	if blockingOnly {
		sql += ` AND NOT ok_to_publish`
	}
	sql += ` ORDER BY address_id, description`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: query issues: %w", err)
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		var iss models.Issue
		err := rows.Scan(&iss.AddressID, &iss.Address, &iss.PostComm, &iss.Description,
			&iss.OKToPublish, &iss.MaintNotes, &iss.MaintInitDate, &iss.X, &iss.Y)
		if err != nil {
			return nil, fmt.Errorf("repository: scan issue: %w", err)
		}
		issues = append(issues, iss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate issues: %w", err)
	}
	return issues, nil
}

// SummarizeIssues counts published issues per rule description.
func (r *Repository) SummarizeIssues(ctx context.Context) ([]models.IssueCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT description, ok_to_publish, COUNT(*)
		FROM site_address_issues
		GROUP BY description, ok_to_publish
		ORDER BY COUNT(*) DESC, description`)
	if err != nil {
		return nil, fmt.Errorf("repository: query issue summary: %w", err)
	}
	defer rows.Close()

	counts := []models.IssueCount{}
	for rows.Next() {
		var c models.IssueCount
		if err := rows.Scan(&c.Description, &c.OKToPublish, &c.Count); err != nil {
			return nil, fmt.Errorf("repository: scan issue summary: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate issue summary: %w", err)
	}
	return counts, nil
}
