package geometry

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unit square with a centered half-size hole, rings wound per shapefile
// convention (outer clockwise, hole counter-clockwise).
func squareWithHole() polyFeature {
	return polyFeature{
		rings: [][]Point{
			{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}},
			{{1, 1}, {2, 1}, {2, 2}, {1, 2}, {1, 1}},
		},
		attrs: map[string]string{"maptaxlot": "1S10W2CB05100"},
		minX:  0, minY: 0, maxX: 4, maxY: 4,
	}
}

func TestPointInRing(t *testing.T) {
	ring := []Point{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}}

	assert.True(t, pointInRing(Point{2, 2}, ring))
	assert.True(t, pointInRing(Point{0.001, 3.999}, ring))
	assert.False(t, pointInRing(Point{5, 2}, ring))
	assert.False(t, pointInRing(Point{-1, -1}, ring))
}

func TestContains(t *testing.T) {
	f := squareWithHole()

	assert.True(t, f.contains(Point{3, 3}))
	assert.False(t, f.contains(Point{1.5, 1.5}), "inside the hole")
	assert.False(t, f.contains(Point{10, 10}), "bbox reject")
}

func TestArea(t *testing.T) {
	f := squareWithHole()
	// 4x4 outer minus 1x1 hole.
	assert.InDelta(t, 15.0, f.area(), 1e-9)
}

func TestCentroid(t *testing.T) {
	square := polyFeature{
		rings: [][]Point{{{0, 0}, {0, 4}, {4, 4}, {4, 0}, {0, 0}}},
		minX:  0, minY: 0, maxX: 4, maxY: 4,
	}
	c := square.centroid()
	assert.InDelta(t, 2.0, c.X, 1e-9)
	assert.InDelta(t, 2.0, c.Y, 1e-9)
}

func TestStatePlaneRoundTrip(t *testing.T) {
	// Courthouse-ish points around the county.
	points := []struct {
		lat, lon float64
	}{
		{45.4562, -123.8440}, // Tillamook
		{45.5620, -123.9070}, // Bay City area
		{45.2030, -123.7590},
	}

	for _, p := range points {
		northing, easting := wgs84ToORNorth(p.lat, p.lon)
		lat, lon := orNorthToWGS84(northing, easting)

		assert.InDelta(t, p.lat, lat, 1e-9)
		assert.InDelta(t, p.lon, lon, 1e-9)
	}
}

func TestStatePlaneForward(t *testing.T) {
	// The central meridian maps onto the false easting.
	_, easting := wgs84ToORNorth(45.0, orLon0Deg)
	assert.InDelta(t, orFalseEastingFt, easting, 1e-6)

	// Northings grow with latitude.
	n1, _ := wgs84ToORNorth(45.0, -123.8)
	n2, _ := wgs84ToORNorth(45.5, -123.8)
	assert.Greater(t, n2, n1)
}

func TestOverlayAttributeTieBreak(t *testing.T) {
	// Two overlapping features both contain the probe point; the one whose
	// centroid is nearer wins.
	near := polyFeature{
		rings: [][]Point{{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}},
		attrs: map[string]string{"taxcode": "180101"},
		minX:  0, minY: 0, maxX: 2, maxY: 2,
	}
	far := polyFeature{
		rings: [][]Point{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}},
		attrs: map[string]string{"taxcode": "180102"},
		minX:  0, minY: 0, maxX: 10, maxY: 10,
	}

	s := NewShapefileService("testdata")
	s.layers["tax_code_area_2026"] = []polyFeature{far, near}

	got, err := s.OverlayAttribute(context.Background(), "tax_code_area_2026", "taxcode", map[int64]Point{
		7: {1, 1},
		8: {50, 50},
	})
	require.NoError(t, err)

	require.NotNil(t, got[7])
	assert.Equal(t, "180101", *got[7])
	assert.Nil(t, got[8])
}

func TestWithinJoin(t *testing.T) {
	s := NewShapefileService("testdata")
	s.layers["taxlot"] = []polyFeature{squareWithHole()}

	got, err := s.WithinJoin(context.Background(), "taxlot", "maptaxlot", map[int64]Point{
		1: {3, 3},
		2: {1.5, 1.5},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1S10W2CB05100"}, got[1])
	assert.Empty(t, got[2])
}

func TestCentroidSpatialReference(t *testing.T) {
	s := NewShapefileService("testdata")
	s.layers["taxlot"] = []polyFeature{squareWithHole()}

	_, err := s.Centroid(context.Background(), "taxlot", "maptaxlot", "1S10W2CB05100", 9999)
	require.Error(t, err)

	c, err := s.Centroid(context.Background(), "taxlot", "maptaxlot", "1S10W2CB05100", EPSGOregonNorth)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(c.X))
}
