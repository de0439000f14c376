package repository

import (
	"context"
	"fmt"

	"address-etl/internal/catalog"
)

// The reference tables are single-purpose legal-value lists maintained
// alongside the address dataset. Each method reads one of them; the catalog
// decides whether an empty result aborts the run.

func (r *Repository) Directions(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT code FROM valid_street_direction`)
}

func (r *Repository) NumberSuffixes(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT code FROM valid_number_suffix`)
}

func (r *Repository) StreetTypes(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT code FROM valid_street_type`)
}

func (r *Repository) UnitTypes(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT code FROM valid_unit_type`)
}

func (r *Repository) Units(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT unit FROM valid_unit`)
}

func (r *Repository) Counties(ctx context.Context) ([]string, error) {
	return r.column(ctx, `SELECT county FROM valid_county`)
}

func (r *Repository) column(ctx context.Context, sql string) ([]string, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: query reference table: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("repository: scan reference value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate reference table: %w", err)
	}
	return values, nil
}

// PostalCommunities reads the postal community table with its zip codes.
func (r *Repository) PostalCommunities(ctx context.Context) ([]catalog.PostalCommunity, error) {
	rows, err := r.db.Query(ctx, `SELECT postcomm, zip FROM postal_community`)
	if err != nil {
		return nil, fmt.Errorf("repository: query postal communities: %w", err)
	}
	defer rows.Close()

	var comms []catalog.PostalCommunity
	for rows.Next() {
		var pc catalog.PostalCommunity
		if err := rows.Scan(&pc.PostComm, &pc.Zip); err != nil {
			return nil, fmt.Errorf("repository: scan postal community: %w", err)
		}
		comms = append(comms, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate postal communities: %w", err)
	}
	return comms, nil
}

// RoadTuples reads the road centerline name parts, expanding each segment
// into one tuple per side so a segment straddling two postal communities
// legitimizes both.
func (r *Repository) RoadTuples(ctx context.Context) ([]catalog.RoadTuple, error) {
	rows, err := r.db.Query(ctx,
		`SELECT predir, name, type, sufdir, postcomm_l, postcomm_r FROM road_centerline`)
	if err != nil {
		return nil, fmt.Errorf("repository: query road centerlines: %w", err)
	}
	defer rows.Close()

	var tuples []catalog.RoadTuple
	for rows.Next() {
		var predir, name, typ, sufdir, commL, commR *string
		if err := rows.Scan(&predir, &name, &typ, &sufdir, &commL, &commR); err != nil {
			return nil, fmt.Errorf("repository: scan road centerline: %w", err)
		}
		base := catalog.RoadTuple{
			PreDir: strOrEmpty(predir),
			Name:   strOrEmpty(name),
			Type:   strOrEmpty(typ),
			SufDir: strOrEmpty(sufdir),
		}
		for _, comm := range []*string{commL, commR} {
			t := base
			t.PostComm = strOrEmpty(comm)
			tuples = append(tuples, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate road centerlines: %w", err)
	}
	return tuples, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
