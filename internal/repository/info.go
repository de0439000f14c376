package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"address-etl/internal/resolver"
)

// The info table is a parallel record per address carrying the resolver's
// findings. Rows are upserted by the overlay step and column-updated after
// that, preserving the externally observable write order.

// DeleteMissingInfo garbage-collects info rows whose address no longer
// exists in the maintenance dataset.
func (r *Repository) DeleteMissingInfo(ctx context.Context, keep []int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM site_address_info WHERE NOT (geofeat_id = ANY($1))`, keep)
	if err != nil {
		return fmt.Errorf("repository: delete defunct info rows: %w", wrapLock(err))
	}
	return nil
}

// UpdateInfoOverlays upserts the tax-code overlay result plus the taxlot
// area and WGS-84 centroid enrichment.
func (r *Repository) UpdateInfoOverlays(ctx context.Context, overlays map[int64]resolver.Overlay) error {
	batch := &pgx.Batch{}
	for id, ov := range overlays {
		batch.Queue(
			`INSERT INTO site_address_info (geofeat_id, tax_code_overlay, lot_area, centroid_x, centroid_y)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (geofeat_id) DO UPDATE SET
				tax_code_overlay = EXCLUDED.tax_code_overlay,
				lot_area = EXCLUDED.lot_area,
				centroid_x = EXCLUDED.centroid_x,
				centroid_y = EXCLUDED.centroid_y`,
			id, ov.TaxCode, ov.LotArea, ov.CentroidX, ov.CentroidY)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range overlays {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("repository: upsert info overlay: %w", wrapLock(err))
		}
	}
	return nil
}

// UpdateInfoMaptaxlots writes resolved maptaxlots to the info table.
func (r *Repository) UpdateInfoMaptaxlots(ctx context.Context, values map[int64]*string) error {
	return r.batchUpdate(ctx, `UPDATE site_address_info SET maptaxlot = $1 WHERE geofeat_id = $2`, values)
}

// UpdateInfoAccounts writes resolved accounts to the info table.
func (r *Repository) UpdateInfoAccounts(ctx context.Context, values map[int64]*string) error {
	return r.batchUpdate(ctx, `UPDATE site_address_info SET account = $1 WHERE geofeat_id = $2`, values)
}
