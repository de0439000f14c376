package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"address-etl/internal/config"
	"address-etl/internal/geometry"

	"github.com/jackc/pgx/v5"
	shp "github.com/jonas-p/go-shp"
)

// The importer loads one certified polygon deliverable (taxlot or tax code
// area shapefile) into the feature store, replacing the target layer.

type polygonRecord struct {
	Key  string
	Geom []byte
}

func main() {
	file := flag.String("file", "", "Path to the shapefile to import")
	layer := flag.String("layer", "", "Target layer table, e.g. taxlot or tax_code_area_2026")
	keyField := flag.String("key-field", "", "DBF attribute holding the layer key, e.g. maptaxlot or taxcode")
	keyColumn := flag.String("key-column", "", "Target key column name (defaults to key-field lowercased)")
	flag.Parse()

	if *file == "" || *layer == "" || *keyField == "" {
		fmt.Println("Error: --file, --layer and --key-field flags are required")
		os.Exit(1)
	}
	if *keyColumn == "" {
		lc := strings.ToLower(*keyField)
		keyColumn = &lc
	}

	fmt.Printf("Starting import from file: %s\n", *file)

	records, err := parseShapefile(*file, *keyField)
	if err != nil {
		fmt.Printf("Error parsing shapefile: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsed %d polygons\n", len(records))

	// Load config
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Connect to DB
	conn, err := pgx.Connect(context.Background(), cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	// Ensure table exists
	err = createTableIfNotExists(conn, *layer, *keyColumn)
	if err != nil {
		fmt.Printf("Error creating table: %v\n", err)
		os.Exit(1)
	}

	// Insert records
	err = insertRecords(conn, *layer, *keyColumn, records)
	if err != nil {
		fmt.Printf("Error inserting records: %v\n", err)
		os.Exit(1)
	}

	// Verify data
	err = verifyImport(conn, *layer, len(records))
	if err != nil {
		fmt.Printf("Error verifying import: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully imported %d polygons into %s\n", len(records), *layer)
}

func parseShapefile(filePath, keyField string) ([]polygonRecord, error) {
	r, err := shp.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	keyIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f.String(), keyField) {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("attribute %q not found in shapefile", keyField)
	}

	var records []polygonRecord
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		records = append(records, polygonRecord{
			Key:  r.ReadAttribute(idx, keyIdx),
			Geom: polygonEWKB(poly),
		})
	}
	return records, nil
}

// polygonEWKB renders the shapefile polygon as EWKB in the Oregon North
// state plane. CopyFrom runs a binary COPY, so the geometry column has to
// receive EWKB bytes rather than EWKT text.
func polygonEWKB(poly *shp.Polygon) []byte {
	numParts := len(poly.Parts)
	rings := make([][]geometry.Point, numParts)
	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		ring := make([]geometry.Point, 0, int(end-start))
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, geometry.Point{X: pt.X, Y: pt.Y})
		}
		rings[partIdx] = ring
	}
	return geometry.EWKBPolygon(geometry.EPSGOregonNorth, rings)
}

func createTableIfNotExists(conn *pgx.Conn, layer, keyColumn string) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		%s VARCHAR(255),
		geom GEOMETRY(POLYGON, 2914)
	);
	CREATE INDEX IF NOT EXISTS %s_geom_idx ON %s USING GIST (geom);
	CREATE INDEX IF NOT EXISTS %s_%s_idx ON %s (%s);
	TRUNCATE %s;
	`, layer, keyColumn, layer, layer, layer, keyColumn, layer, keyColumn, layer)
	_, err := conn.Exec(context.Background(), query)
	return err
}

func insertRecords(conn *pgx.Conn, layer, keyColumn string, records []polygonRecord) error {
	// Use CopyFrom for bulk insert
	_, err := conn.CopyFrom(
		context.Background(),
		pgx.Identifier{layer},
		[]string{keyColumn, "geom"},
		pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
			r := records[i]
			return []interface{}{r.Key, r.Geom}, nil
		}),
	)
	return err
}

func verifyImport(conn *pgx.Conn, layer string, expectedCount int) error {
	var count int
	err := conn.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", layer)).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}

	if count != expectedCount {
		return fmt.Errorf("record count mismatch: expected %d, got %d", expectedCount, count)
	}

	// Check a sample geom
	var geom string
	err = conn.QueryRow(context.Background(), fmt.Sprintf("SELECT ST_AsText(geom) FROM %s LIMIT 1", layer)).Scan(&geom)
	if err != nil {
		return fmt.Errorf("failed to check geom: %w", err)
	}

	fmt.Printf("Sample geom: %.60s...\n", geom)
	return nil
}
