package geometry

import (
	"encoding/binary"
	"math"
)

// EWKB encoders for the PostGIS binary COPY path. The geometry type is not
// in pgx's type map, so COPY field payloads cross the wire raw and the
// server parses them with geometry_recv, which wants EWKB: an endian flag
// byte, a type word with the SRID bit set, the SRID, then coordinates.

const (
	ewkbLittleEndian = 0x01
	ewkbPointType    = 1
	ewkbPolygonType  = 3
	ewkbSRIDFlag     = 0x20000000
)

// EWKBPoint encodes a 2D point with an embedded SRID.
func EWKBPoint(srid int, x, y float64) []byte {
	buf := make([]byte, 0, 25)
	buf = append(buf, ewkbLittleEndian)
	buf = binary.LittleEndian.AppendUint32(buf, ewkbPointType|ewkbSRIDFlag)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(srid))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(y))
	return buf
}

// EWKBPolygon encodes a 2D polygon with an embedded SRID. Rings are written
// in the order given and must arrive closed, as shapefiles deliver them.
func EWKBPolygon(srid int, rings [][]Point) []byte {
	size := 13
	for _, ring := range rings {
		size += 4 + 16*len(ring)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, ewkbLittleEndian)
	buf = binary.LittleEndian.AppendUint32(buf, ewkbPolygonType|ewkbSRIDFlag)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(srid))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(rings)))
	for _, ring := range rings {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ring)))
		for _, p := range ring {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.X))
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Y))
		}
	}
	return buf
}
