package repository

import (
	"context"
	"fmt"

	"address-etl/internal/geometry"
)

// PostGIS implementation of the geometry service. Layer and field names are
// internal identifiers, never user input, so they are interpolated; point
// sets travel as parallel arrays and are unnested server-side.

// WithinJoin implements geometry.Service: one-to-many containment of
// address points against a polygon layer.
func (r *Repository) WithinJoin(ctx context.Context, layer, keyField string, points map[int64]geometry.Point) (map[int64][]string, error) {
	ids, xs, ys := explode(points)

	sql := fmt.Sprintf(`
		SELECT p.id, t.%s
		FROM unnest($1::bigint[], $2::float8[], $3::float8[]) AS p(id, x, y)
		JOIN %s t ON ST_Covers(t.geom, ST_SetSRID(ST_MakePoint(p.x, p.y), 2914))`,
		keyField, layer)

	rows, err := r.db.Query(ctx, sql, ids, xs, ys)
	if err != nil {
		return nil, fmt.Errorf("repository: within join on %s: %w", layer, err)
	}
	defer rows.Close()

	result := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("repository: scan within join row: %w", err)
		}
		result[id] = append(result[id], key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate within join: %w", err)
	}
	return result, nil
}

// OverlayAttribute implements geometry.Service: point-in-polygon attribute
// transfer with the centroid-nearest polygon winning boundary ties.
func (r *Repository) OverlayAttribute(ctx context.Context, layer, field string, points map[int64]geometry.Point) (map[int64]*string, error) {
	ids, xs, ys := explode(points)

	sql := fmt.Sprintf(`
		SELECT DISTINCT ON (p.id) p.id, t.%s
		FROM unnest($1::bigint[], $2::float8[], $3::float8[]) AS p(id, x, y)
		LEFT JOIN %s t
			ON ST_Covers(t.geom, ST_SetSRID(ST_MakePoint(p.x, p.y), 2914))
		ORDER BY p.id, ST_Distance(ST_Centroid(t.geom), ST_SetSRID(ST_MakePoint(p.x, p.y), 2914))`,
		field, layer)

	rows, err := r.db.Query(ctx, sql, ids, xs, ys)
	if err != nil {
		return nil, fmt.Errorf("repository: overlay on %s: %w", layer, err)
	}
	defer rows.Close()

	result := make(map[int64]*string, len(points))
	for rows.Next() {
		var id int64
		var value *string
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("repository: scan overlay row: %w", err)
		}
		result[id] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate overlay: %w", err)
	}
	return result, nil
}

// Area implements geometry.Service.
func (r *Repository) Area(ctx context.Context, layer, keyField, key string) (float64, error) {
	sql := fmt.Sprintf(`SELECT ST_Area(geom) FROM %s WHERE %s = $1`, layer, keyField)
	var area float64
	if err := r.db.QueryRow(ctx, sql, key).Scan(&area); err != nil {
		return 0, fmt.Errorf("repository: area of %s %q: %w", layer, key, err)
	}
	return area, nil
}

// Centroid implements geometry.Service.
func (r *Repository) Centroid(ctx context.Context, layer, keyField, key string, epsg int) (geometry.Point, error) {
	sql := fmt.Sprintf(
		`SELECT ST_X(c), ST_Y(c)
		FROM (SELECT ST_Transform(ST_SetSRID(ST_Centroid(geom), 2914), $2) AS c FROM %s WHERE %s = $1) s`,
		layer, keyField)
	var p geometry.Point
	if err := r.db.QueryRow(ctx, sql, key, epsg).Scan(&p.X, &p.Y); err != nil {
		return geometry.Point{}, fmt.Errorf("repository: centroid of %s %q: %w", layer, key, err)
	}
	return p, nil
}

func explode(points map[int64]geometry.Point) (ids []int64, xs, ys []float64) {
	ids = make([]int64, 0, len(points))
	xs = make([]float64, 0, len(points))
	ys = make([]float64, 0, len(points))
	for id, p := range points {
		ids = append(ids, id)
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}
	return ids, xs, ys
}
