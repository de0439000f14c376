package pipeline

import (
	"context"
	"fmt"

	"address-etl/internal/geometry"
	"address-etl/internal/models"
	"address-etl/internal/resolver"
)

// ResolveAccounts overlays the valid address points on the certified tax
// code areas and taxlots, resolves (maptaxlot, account) for every address,
// and performs the ordered write-back to the info and address datasets.
func (c *Context) ResolveAccounts(ctx context.Context) error {
	cat, err := c.buildCatalog(ctx)
	if err != nil {
		return err
	}

	addrs, err := c.Store.Addresses(ctx, "valid = 'Y'")
	if err != nil {
		return fmt.Errorf("pipeline: read address snapshot: %w", err)
	}
	c.Log.Info().Int("addresses", len(addrs)).Msg("pipeline: resolving accounts")

	points := make(map[int64]geometry.Point, len(addrs))
	for _, a := range addrs {
		points[a.ID] = geometry.Point{X: a.X, Y: a.Y}
	}

	// The tax code area source is certified per tax year.
	taxCodeLayer := fmt.Sprintf("%s_%d", c.Config.TaxCodeAreaLayer, c.Config.TaxYear)
	rawCodes, err := c.Geometry.OverlayAttribute(ctx, taxCodeLayer, "taxcode", points)
	if err != nil {
		return fmt.Errorf("pipeline: tax code overlay: %w", err)
	}

	overlaid, err := c.Geometry.WithinJoin(ctx, c.Config.TaxlotLayer, "maptaxlot", points)
	if err != nil {
		return fmt.Errorf("pipeline: taxlot within join: %w", err)
	}

	overlays := c.enrichOverlays(ctx, addrs, rawCodes, overlaid)

	res := resolver.New(c.Store, c.Store, cat, c.Log)
	return res.Run(ctx, addrs, overlays, overlaid)
}

type lotFacts struct {
	area     float64
	centroid geometry.Point
	ok       bool
}

// enrichOverlays formats the overlay tax codes and, for addresses whose
// containing taxlot is unambiguous, records the lot's area and WGS-84
// centroid. Lot facts are computed once per taxlot, not per address.
func (c *Context) enrichOverlays(ctx context.Context, addrs []models.Address, rawCodes map[int64]*string, overlaid map[int64][]string) map[int64]resolver.Overlay {
	lots := make(map[string]lotFacts)
	overlays := make(map[int64]resolver.Overlay, len(addrs))

	for _, a := range addrs {
		var ov resolver.Overlay
		if raw := rawCodes[a.ID]; raw != nil {
			code := models.FormatTaxCode(*raw)
			ov.TaxCode = &code
		}

		if hits := overlaid[a.ID]; len(hits) == 1 && models.IsRealLot(hits[0]) {
			lot := hits[0]
			facts, seen := lots[lot]
			if !seen {
				facts = c.lotFacts(ctx, lot)
				lots[lot] = facts
			}
			if facts.ok {
				area := facts.area
				cx, cy := facts.centroid.X, facts.centroid.Y
				ov.LotArea = &area
				ov.CentroidX = &cx
				ov.CentroidY = &cy
			}
		}
		overlays[a.ID] = ov
	}
	return overlays
}

func (c *Context) lotFacts(ctx context.Context, lot string) lotFacts {
	area, err := c.Geometry.Area(ctx, c.Config.TaxlotLayer, "maptaxlot", lot)
	if err != nil {
		c.Log.Warn().Err(err).Str("maptaxlot", lot).Msg("pipeline: taxlot area unavailable")
		return lotFacts{}
	}
	centroid, err := c.Geometry.Centroid(ctx, c.Config.TaxlotLayer, "maptaxlot", lot, geometry.EPSGWGS84)
	if err != nil {
		c.Log.Warn().Err(err).Str("maptaxlot", lot).Msg("pipeline: taxlot centroid unavailable")
		return lotFacts{}
	}
	return lotFacts{area: area, centroid: centroid, ok: true}
}
