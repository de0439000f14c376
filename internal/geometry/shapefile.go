package geometry

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	shp "github.com/jonas-p/go-shp"
)

// ShapefileService implements Service over certified shapefile deliverables
// on disk. Layers are loaded on first use and held in memory for the rest
// of the run; county-scale taxlot layers fit comfortably.
type ShapefileService struct {
	dir    string
	layers map[string][]polyFeature
}

// polyFeature is one polygon record: its rings, DBF attributes and bounding
// box for the cheap reject.
type polyFeature struct {
	rings [][]Point
	attrs map[string]string
	minX  float64
	minY  float64
	maxX  float64
	maxY  float64
}

// NewShapefileService creates a service reading <dir>/<layer>.shp files.
func NewShapefileService(dir string) *ShapefileService {
	return &ShapefileService{dir: dir, layers: make(map[string][]polyFeature)}
}

func (s *ShapefileService) layer(name string) ([]polyFeature, error) {
	if feats, ok := s.layers[name]; ok {
		return feats, nil
	}
	feats, err := loadPolygons(filepath.Join(s.dir, name+".shp"))
	if err != nil {
		return nil, fmt.Errorf("geometry: load layer %s: %w", name, err)
	}
	s.layers[name] = feats
	return feats, nil
}

func loadPolygons(path string) ([]polyFeature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fields := r.Fields()

	var features []polyFeature
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		numParts := len(poly.Parts)
		rings := make([][]Point, numParts)
		minX, minY := math.MaxFloat64, math.MaxFloat64
		maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

		for partIdx := 0; partIdx < numParts; partIdx++ {
			start := poly.Parts[partIdx]
			end := int32(len(poly.Points))
			if partIdx+1 < numParts {
				end = poly.Parts[partIdx+1]
			}
			ring := make([]Point, 0, int(end-start))
			for i := start; i < end; i++ {
				pt := poly.Points[i]
				ring = append(ring, Point{X: pt.X, Y: pt.Y})
				minX = math.Min(minX, pt.X)
				minY = math.Min(minY, pt.Y)
				maxX = math.Max(maxX, pt.X)
				maxY = math.Max(maxY, pt.Y)
			}
			rings[partIdx] = ring
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = r.ReadAttribute(idx, i)
		}

		features = append(features, polyFeature{
			rings: rings,
			attrs: attrs,
			minX:  minX,
			minY:  minY,
			maxX:  maxX,
			maxY:  maxY,
		})
	}
	return features, nil
}

func (f polyFeature) contains(p Point) bool {
	if p.X < f.minX || p.X > f.maxX || p.Y < f.minY || p.Y > f.maxY {
		return false
	}
	// Even-odd across all rings so holes punch out.
	inside := false
	for _, ring := range f.rings {
		if pointInRing(p, ring) {
			inside = !inside
		}
	}
	return inside
}

// pointInRing is the ray-casting test. Shapefile rings arrive closed; the
// test does not require it.
func pointInRing(p Point, ring []Point) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		if ((yi > p.Y) != (yj > p.Y)) && (p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}
	return inside
}

// signedRingArea is the shoelace sum; the sign encodes winding order, which
// shapefiles use to distinguish outer rings from holes.
func signedRingArea(ring []Point) float64 {
	var sum float64
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		sum += ring[j].X*ring[i].Y - ring[i].X*ring[j].Y
		j = i
	}
	return sum / 2
}

func (f polyFeature) area() float64 {
	var total float64
	for _, ring := range f.rings {
		total += signedRingArea(ring)
	}
	// Holes carry the opposite winding, so the signed sum nets them out.
	return math.Abs(total)
}

func (f polyFeature) centroid() Point {
	var sx, sy, signedTotal float64
	for _, ring := range f.rings {
		j := len(ring) - 1
		for i := 0; i < len(ring); i++ {
			cross := ring[j].X*ring[i].Y - ring[i].X*ring[j].Y
			sx += (ring[j].X + ring[i].X) * cross
			sy += (ring[j].Y + ring[i].Y) * cross
			j = i
		}
		signedTotal += signedRingArea(ring)
	}
	if signedTotal == 0 {
		return Point{}
	}
	return Point{X: sx / (6 * signedTotal), Y: sy / (6 * signedTotal)}
}

// WithinJoin implements Service.
func (s *ShapefileService) WithinJoin(ctx context.Context, layer, keyField string, points map[int64]Point) (map[int64][]string, error) {
	feats, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	result := make(map[int64][]string)
	for id, p := range points {
		for _, f := range feats {
			if f.contains(p) {
				result[id] = append(result[id], f.attrs[keyField])
			}
		}
	}
	return result, nil
}

// OverlayAttribute implements Service.
func (s *ShapefileService) OverlayAttribute(ctx context.Context, layer, field string, points map[int64]Point) (map[int64]*string, error) {
	feats, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	result := make(map[int64]*string, len(points))
	for id, p := range points {
		var best *polyFeature
		var bestDist float64
		for i := range feats {
			f := &feats[i]
			if !f.contains(p) {
				continue
			}
			c := f.centroid()
			d := (c.X-p.X)*(c.X-p.X) + (c.Y-p.Y)*(c.Y-p.Y)
			if best == nil || d < bestDist {
				best, bestDist = f, d
			}
		}
		if best == nil {
			result[id] = nil
			continue
		}
		v := best.attrs[field]
		result[id] = &v
	}
	return result, nil
}

// Area implements Service.
func (s *ShapefileService) Area(ctx context.Context, layer, keyField, key string) (float64, error) {
	f, err := s.find(layer, keyField, key)
	if err != nil {
		return 0, err
	}
	return f.area(), nil
}

// Centroid implements Service.
func (s *ShapefileService) Centroid(ctx context.Context, layer, keyField, key string, epsg int) (Point, error) {
	f, err := s.find(layer, keyField, key)
	if err != nil {
		return Point{}, err
	}
	c := f.centroid()
	switch epsg {
	case EPSGOregonNorth:
		return c, nil
	case EPSGWGS84:
		lat, lon := orNorthToWGS84(c.Y, c.X)
		return Point{X: lon, Y: lat}, nil
	default:
		return Point{}, fmt.Errorf("geometry: unsupported spatial reference %d", epsg)
	}
}

func (s *ShapefileService) find(layer, keyField, key string) (*polyFeature, error) {
	feats, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	for i := range feats {
		if feats[i].attrs[keyField] == key {
			return &feats[i], nil
		}
	}
	return nil, fmt.Errorf("geometry: no feature in %s with %s = %q", layer, keyField, key)
}
