package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"address-etl/internal/models"
)

// ErrConfiguration marks an unusable reference table. Validating against a
// partial catalog would flood the issues dataset, so the run aborts instead.
var ErrConfiguration = errors.New("catalog: reference data unusable")

// PostalCommunity is one row of the postal community reference table.
type PostalCommunity struct {
	PostComm string
	Zip      *string
}

// RoadTuple is the side-expanded name of one road centerline segment. Null
// name parts are carried as empty strings so the tuple is comparable.
type RoadTuple struct {
	PreDir   string
	Name     string
	Type     string
	SufDir   string
	PostComm string
}

// ReferenceSource supplies the reference tables the catalog is built from.
// The feature store implements it.
type ReferenceSource interface {
	Directions(ctx context.Context) ([]string, error)
	NumberSuffixes(ctx context.Context) ([]string, error)
	StreetTypes(ctx context.Context) ([]string, error)
	UnitTypes(ctx context.Context) ([]string, error)
	Units(ctx context.Context) ([]string, error)
	Counties(ctx context.Context) ([]string, error)
	PostalCommunities(ctx context.Context) ([]PostalCommunity, error)
	RoadTuples(ctx context.Context) ([]RoadTuple, error)
}

// AccountSource supplies the A&T warehouse views: active non-personal
// accounts and the current-tax-year rows.
type AccountSource interface {
	ActiveAccounts(ctx context.Context) ([]models.AccountRow, error)
	TaxYearRows(ctx context.Context, year int) ([]models.TaxYearRow, error)
}

// Catalog holds the legal-value sets for one pipeline run, so validators
// reduce to membership tests. It is built once on pipeline entry and
// discarded on exit; nothing mutates it after Build returns.
type Catalog struct {
	Directions        map[string]bool
	NumberSuffixes    map[string]bool
	StreetTypes       map[string]bool
	UnitTypes         map[string]bool
	Units             map[string]bool
	Counties          map[string]bool
	ZipCodes          map[string]bool
	PostalCommunities map[string]bool
	RoadTuples        map[RoadTuple]bool

	TaxlotAccounts     map[string]map[string]bool
	TaxlotCodeAccounts map[models.MaptaxlotCode]map[string]bool
}

// Build materializes every reference set. An unreadable or empty reference
// table is a configuration failure: the whole run aborts rather than
// validating against a partial catalog.
func Build(ctx context.Context, ref ReferenceSource, accts AccountSource, taxYear int) (*Catalog, error) {
	c := &Catalog{}

	sets := []struct {
		name string
		load func(context.Context) ([]string, error)
		dest *map[string]bool
	}{
		{"Valid_Street_Direction", ref.Directions, &c.Directions},
		{"Valid_Number_Suffix", ref.NumberSuffixes, &c.NumberSuffixes},
		{"Valid_Street_Type", ref.StreetTypes, &c.StreetTypes},
		{"Valid_Unit_Type", ref.UnitTypes, &c.UnitTypes},
		{"Valid_Unit", ref.Units, &c.Units},
		{"Valid_County", ref.Counties, &c.Counties},
	}
	for _, s := range sets {
		values, err := s.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", s.name, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: reference table %s is empty", ErrConfiguration, s.name)
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		*s.dest = set
	}

	comms, err := ref.PostalCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: read Postal_Community: %w", err)
	}
	if len(comms) == 0 {
		return nil, fmt.Errorf("%w: reference table Postal_Community is empty", ErrConfiguration)
	}
	c.PostalCommunities = make(map[string]bool, len(comms))
	c.ZipCodes = make(map[string]bool, len(comms))
	for _, pc := range comms {
		c.PostalCommunities[strings.ToUpper(pc.PostComm)] = true
		if pc.Zip != nil {
			c.ZipCodes[*pc.Zip] = true
		}
	}

	roads, err := ref.RoadTuples(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: read Road_Centerline: %w", err)
	}
	if len(roads) == 0 {
		return nil, fmt.Errorf("%w: reference table Road_Centerline is empty", ErrConfiguration)
	}
	c.RoadTuples = make(map[RoadTuple]bool, len(roads))
	for _, r := range roads {
		c.RoadTuples[r] = true
	}

	accounts, err := accts.ActiveAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: read account view: %w", err)
	}
	c.TaxlotAccounts = make(map[string]map[string]bool)
	for _, row := range accounts {
		set, ok := c.TaxlotAccounts[row.Maptaxlot]
		if !ok {
			set = make(map[string]bool)
			c.TaxlotAccounts[row.Maptaxlot] = set
		}
		set[row.Account] = true
	}

	yearRows, err := accts.TaxYearRows(ctx, taxYear)
	if err != nil {
		return nil, fmt.Errorf("catalog: read tax year view: %w", err)
	}
	c.TaxlotCodeAccounts = make(map[models.MaptaxlotCode]map[string]bool)
	for _, row := range yearRows {
		key := models.MaptaxlotCode{
			Maptaxlot: row.Maptaxlot,
			TaxCode:   models.FormatTaxCode(row.TCA),
		}
		set, ok := c.TaxlotCodeAccounts[key]
		if !ok {
			set = make(map[string]bool)
			c.TaxlotCodeAccounts[key] = set
		}
		set[row.Account] = true
	}

	return c, nil
}

// HasOptional reports membership for a nullable attribute. A null value is
// always legal here; required-ness is enforced by dedicated null rules.
func HasOptional(v *string, set map[string]bool) bool {
	if v == nil {
		return true
	}
	return set[*v]
}
