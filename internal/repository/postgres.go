// Package repository is the feature store: snapshot reads of the
// maintenance address dataset, the reference tables, the issues and info
// datasets, and the PostGIS spatial operations, all over one Postgres
// warehouse. The A&T account views live in Oracle and have their own
// repository.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"address-etl/internal/models"
)

// ErrLocked marks a write that failed because the target dataset was locked.
// Pipeline steps may be configured to treat it as success.
var ErrLocked = errors.New("repository: target dataset locked")

// Repository implements the feature store over PostgreSQL/PostGIS.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const addressColumns = `
	geofeat_id, stnum, stnumsuf, predir, name, type, sufdir,
	unit_type, unit, postcomm, zip, county, valid, archived, confidence,
	init_date, mod_date, maptaxlot, account,
	ST_X(geom) AS x, ST_Y(geom) AS y`

// Addresses reads the unarchived address snapshot. An optional where-filter
// narrows the read further; it is combined with the archive filter.
func (r *Repository) Addresses(ctx context.Context, where string) ([]models.Address, error) {
	sql := `SELECT ` + addressColumns + ` FROM site_address WHERE archived = 'N'`
	if where != "" {
		sql += ` AND (` + where + `)`
	}
	sql += ` ORDER BY geofeat_id`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: query addresses: %w", err)
	}
	defer rows.Close()

	var addrs []models.Address
	for rows.Next() {
		var a models.Address
		err := rows.Scan(
			&a.ID, &a.StNum, &a.StNumSuf, &a.PreDir, &a.Name, &a.Type, &a.SufDir,
			&a.UnitType, &a.Unit, &a.PostComm, &a.Zip, &a.County, &a.Valid, &a.Archived, &a.Confidence,
			&a.InitDate, &a.ModDate, &a.Maptaxlot, &a.Account,
			&a.X, &a.Y,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: scan address: %w", err)
		}
		addrs = append(addrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate addresses: %w", err)
	}
	return addrs, nil
}

// UpdateAddressMaptaxlots writes resolved maptaxlots back to the
// authoritative address dataset.
func (r *Repository) UpdateAddressMaptaxlots(ctx context.Context, values map[int64]*string) error {
	return r.batchUpdate(ctx, `UPDATE site_address SET maptaxlot = $1 WHERE geofeat_id = $2`, values)
}

// UpdateAddressAccounts writes resolved accounts back to the authoritative
// address dataset.
func (r *Repository) UpdateAddressAccounts(ctx context.Context, values map[int64]*string) error {
	return r.batchUpdate(ctx, `UPDATE site_address SET account = $1 WHERE geofeat_id = $2`, values)
}

func (r *Repository) batchUpdate(ctx context.Context, sql string, values map[int64]*string) error {
	batch := &pgx.Batch{}
	for id, v := range values {
		batch.Queue(sql, v, id)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range values {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("repository: batch update: %w", wrapLock(err))
		}
	}
	return nil
}

// wrapLock folds Postgres lock failures into ErrLocked so pipeline steps
// can decide whether a lock counts as success.
func wrapLock(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return fmt.Errorf("%w: %s", ErrLocked, pgErr.Message)
	}
	return err
}
