// Package resolver assigns (tax code, maptaxlot, account) to every valid
// address and writes the results back to the info table and the address
// dataset in a strict, externally observable order.
package resolver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"address-etl/internal/catalog"
	"address-etl/internal/models"
)

// Overlay carries what the tax-code-area overlay found at one address point,
// plus the area and WGS-84 centroid of the containing taxlot when known.
type Overlay struct {
	TaxCode   *string
	LotArea   *float64
	CentroidX *float64
	CentroidY *float64
}

// Assignment is the resolver's decision for one address. The resolver never
// fails on a single address; every input resolves to some assignment,
// including nil fields that mean "manual review required".
type Assignment struct {
	ID        int64
	Maptaxlot *string
	Account   *string
}

// InfoStore is the info-table slice of the feature store.
type InfoStore interface {
	DeleteMissingInfo(ctx context.Context, keep []int64) error
	UpdateInfoOverlays(ctx context.Context, overlays map[int64]Overlay) error
	UpdateInfoMaptaxlots(ctx context.Context, values map[int64]*string) error
	UpdateInfoAccounts(ctx context.Context, values map[int64]*string) error
}

// AddressStore is the address-dataset slice of the feature store. Only
// maptaxlot and account are ever written back to the authoritative dataset.
type AddressStore interface {
	UpdateAddressMaptaxlots(ctx context.Context, values map[int64]*string) error
	UpdateAddressAccounts(ctx context.Context, values map[int64]*string) error
}

// Resolver runs the decision procedure and the ordered write-back.
type Resolver struct {
	info InfoStore
	addr AddressStore
	cat  *catalog.Catalog
	log  zerolog.Logger
}

func New(info InfoStore, addr AddressStore, cat *catalog.Catalog, log zerolog.Logger) *Resolver {
	return &Resolver{info: info, addr: addr, cat: cat, log: log}
}

// ResolveMaptaxlot picks the taxlot for one address given the set of taxlot
// IDs whose polygon contains the point. The current value wins if the point
// still overlays it; a sole overlay is adopted; anything else (zero or
// ambiguous overlays) resolves to nil for manual override.
func ResolveMaptaxlot(a models.Address, overlaid []string) *string {
	if a.Maptaxlot != nil {
		for _, m := range overlaid {
			if m == *a.Maptaxlot {
				return a.Maptaxlot
			}
		}
	}
	if len(overlaid) == 1 {
		v := overlaid[0]
		return &v
	}
	return nil
}

// accountInput is the view of one address the account cascade sees. The
// maptaxlot is the freshly resolved one, not the snapshot value.
type accountInput struct {
	account   *string
	archived  string
	valid     string
	maptaxlot *string
	taxCode   *string
	cat       *catalog.Catalog
}

type accountRule struct {
	name   string
	when   func(accountInput) bool
	assign func(accountInput) *string
}

// accountCascade is the ordered decision procedure for the account field.
// Evaluation stops at the first rule whose predicate matches; the ordering
// is load-bearing because several predicates are mutually satisfiable.
var accountCascade = []accountRule{
	{
		// Manual no-account sentinel is never disturbed.
		name:   "manual no-account",
		when:   func(in accountInput) bool { return in.account != nil && *in.account == models.AccountNone },
		assign: func(in accountInput) *string { return in.account },
	},
	{
		// Upstream filtering should have excluded these already.
		name:   "archived or invalid",
		when:   func(in accountInput) bool { return in.archived == "Y" || in.valid == "N" },
		assign: func(in accountInput) *string { return ptr(models.AccountNone) },
	},
	{
		name:   "no maptaxlot",
		when:   func(in accountInput) bool { return in.maptaxlot == nil },
		assign: func(in accountInput) *string { return nil },
	},
	{
		name:   "right of way",
		when:   func(in accountInput) bool { return models.IsRightOfWay(*in.maptaxlot) },
		assign: func(in accountInput) *string { return ptr(models.AccountRoad) },
	},
	{
		// Taxlot not yet in the A&T feed; preserve whatever is set.
		name:   "taxlot not in feed",
		when:   func(in accountInput) bool { return in.cat.TaxlotAccounts[*in.maptaxlot] == nil },
		assign: func(in accountInput) *string { return in.account },
	},
	{
		name: "sole account on taxlot",
		when: func(in accountInput) bool { return len(in.cat.TaxlotAccounts[*in.maptaxlot]) == 1 },
		assign: func(in accountInput) *string {
			return ptr(soleAccount(in.cat.TaxlotAccounts[*in.maptaxlot]))
		},
	},
	{
		// Taxlot-code pair not yet in the feed; preserve.
		name: "taxlot-code not in feed",
		when: func(in accountInput) bool {
			return in.taxCode == nil ||
				in.cat.TaxlotCodeAccounts[models.MaptaxlotCode{Maptaxlot: *in.maptaxlot, TaxCode: *in.taxCode}] == nil
		},
		assign: func(in accountInput) *string { return in.account },
	},
	{
		name: "sole account on taxlot-code",
		when: func(in accountInput) bool {
			return len(in.cat.TaxlotCodeAccounts[models.MaptaxlotCode{Maptaxlot: *in.maptaxlot, TaxCode: *in.taxCode}]) == 1
		},
		assign: func(in accountInput) *string {
			return ptr(soleAccount(in.cat.TaxlotCodeAccounts[models.MaptaxlotCode{Maptaxlot: *in.maptaxlot, TaxCode: *in.taxCode}]))
		},
	},
	{
		// Current account is still one of the taxlot's accounts.
		name: "current account still valid",
		when: func(in accountInput) bool {
			return in.account != nil && in.cat.TaxlotAccounts[*in.maptaxlot][*in.account]
		},
		assign: func(in accountInput) *string { return in.account },
	},
	{
		name:   "unresolvable",
		when:   func(in accountInput) bool { return true },
		assign: func(in accountInput) *string { return nil },
	},
}

// ResolveAccount runs the cascade for one address. maptaxlot must be the
// freshly resolved value and taxCode the hyphenated overlay result.
func ResolveAccount(a models.Address, maptaxlot, taxCode *string, cat *catalog.Catalog) *string {
	in := accountInput{
		account:   a.Account,
		archived:  a.Archived,
		valid:     a.Valid,
		maptaxlot: maptaxlot,
		taxCode:   taxCode,
		cat:       cat,
	}
	for _, rule := range accountCascade {
		if rule.when(in) {
			return rule.assign(in)
		}
	}
	// The cascade ends in a catch-all; reaching here is a programmer error.
	panic("resolver: account cascade fell through")
}

// Resolve computes assignments for the filtered address stream. overlaid
// maps each address to the taxlot IDs containing its point; overlays maps
// it to the tax-code overlay result.
func Resolve(addrs []models.Address, overlays map[int64]Overlay, overlaid map[int64][]string, cat *catalog.Catalog) []Assignment {
	assignments := make([]Assignment, 0, len(addrs))
	for _, a := range addrs {
		maptaxlot := ResolveMaptaxlot(a, overlaid[a.ID])
		var taxCode *string
		if ov, ok := overlays[a.ID]; ok {
			taxCode = ov.TaxCode
		}
		account := ResolveAccount(a, maptaxlot, taxCode, cat)
		assignments = append(assignments, Assignment{ID: a.ID, Maptaxlot: maptaxlot, Account: account})
	}
	return assignments
}

// Run resolves every address and performs the write-back. The order is
// strict and observable by other pipelines reading the info table:
//
//  1. garbage-collect info rows whose address no longer exists
//  2. tax-code overlay columns
//  3. maptaxlot, info table then address dataset
//  4. account, info table then address dataset
//
// Step 4's cascade reads the maptaxlot resolved in step 3, which is why the
// assignments are computed before any write starts.
func (r *Resolver) Run(ctx context.Context, addrs []models.Address, overlays map[int64]Overlay, overlaid map[int64][]string) error {
	eligible := make([]models.Address, 0, len(addrs))
	for _, a := range addrs {
		if a.Archived == "N" && a.Valid == "Y" && a.ID != 0 {
			eligible = append(eligible, a)
		}
	}

	assignments := Resolve(eligible, overlays, overlaid, r.cat)

	keep := make([]int64, len(eligible))
	maptaxlots := make(map[int64]*string, len(assignments))
	accounts := make(map[int64]*string, len(assignments))
	for i, a := range eligible {
		keep[i] = a.ID
	}
	for _, as := range assignments {
		maptaxlots[as.ID] = as.Maptaxlot
		accounts[as.ID] = as.Account
	}

	if err := r.info.DeleteMissingInfo(ctx, keep); err != nil {
		return fmt.Errorf("resolver: delete defunct info rows: %w", err)
	}
	if err := r.info.UpdateInfoOverlays(ctx, overlays); err != nil {
		return fmt.Errorf("resolver: update tax code overlay: %w", err)
	}
	if err := r.info.UpdateInfoMaptaxlots(ctx, maptaxlots); err != nil {
		return fmt.Errorf("resolver: update info maptaxlot: %w", err)
	}
	if err := r.addr.UpdateAddressMaptaxlots(ctx, maptaxlots); err != nil {
		return fmt.Errorf("resolver: update address maptaxlot: %w", err)
	}
	if err := r.info.UpdateInfoAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("resolver: update info account: %w", err)
	}
	if err := r.addr.UpdateAddressAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("resolver: update address account: %w", err)
	}

	r.log.Info().Int("addresses", len(eligible)).Msg("resolver: write-back complete")
	return nil
}

// soleAccount returns the lexicographic minimum of the set. The cascade
// only calls it on singletons, where the minimum is the sole element; the
// minimum keeps the function total if that invariant ever breaks upstream.
func soleAccount(set map[string]bool) string {
	min := ""
	for account := range set {
		if min == "" || account < min {
			min = account
		}
	}
	return min
}

func ptr(s string) *string { return &s }
