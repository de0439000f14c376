// Package geometry defines the slice of the GIS engine the pipelines
// consume, and a shapefile-backed implementation of it. A PostGIS-backed
// implementation lives in the repository package.
package geometry

import "context"

// Spatial reference identifiers the pipelines work in. Feature datasets are
// maintained in the Oregon North state plane; deliverables want WGS-84.
const (
	EPSGOregonNorth = 2914
	EPSGWGS84       = 4326
)

// Point is a coordinate pair in the layer's coordinate system.
type Point struct {
	X float64
	Y float64
}

// Service provides the spatial operations the Core consumes. Layers are
// named opaquely (a table for PostGIS, a shapefile basename for the file
// backend); tolerances are the backend's configuration concern.
type Service interface {
	// WithinJoin is the one-to-many spatial join of point features against
	// a polygon layer: for each input point, the keyField values of every
	// polygon containing it. Points contained by nothing are absent from
	// the result.
	WithinJoin(ctx context.Context, layer, keyField string, points map[int64]Point) (map[int64][]string, error)

	// OverlayAttribute transfers one polygon attribute onto each point.
	// Every input point gets an entry; points on a polygon boundary take
	// the value of the polygon whose centroid is nearest, and points
	// outside every polygon get nil.
	OverlayAttribute(ctx context.Context, layer, field string, points map[int64]Point) (map[int64]*string, error)

	// Area returns the polygon's area in the square linear unit of its
	// coordinate system.
	Area(ctx context.Context, layer, keyField, key string) (float64, error)

	// Centroid returns the polygon centroid in the named spatial
	// reference.
	Centroid(ctx context.Context, layer, keyField, key string, epsg int) (Point, error)
}
