package models

import (
	"strconv"
	"strings"
	"time"
)

// Sentinel account values. These are in-band markers written by operators or
// the resolver; they are never real account numbers.
const (
	AccountNone = "NO ACCT"
	AccountRoad = "ROAD"
)

// Address is a snapshot of one maintenance address record. Nullable columns
// are pointers. The struct is never mutated after it is built; the resolver
// returns assignments instead of editing records in place.
type Address struct {
	ID         int64      `json:"geofeat_id"`
	StNum      *int       `json:"stnum"`
	StNumSuf   *string    `json:"stnumsuf"`
	PreDir     *string    `json:"predir"`
	Name       *string    `json:"name"`
	Type       *string    `json:"type"`
	SufDir     *string    `json:"sufdir"`
	UnitType   *string    `json:"unit_type"`
	Unit       *string    `json:"unit"`
	PostComm   *string    `json:"postcomm"`
	Zip        *string    `json:"zip"`
	County     *string    `json:"county"`
	Valid      string     `json:"valid"`
	Archived   string     `json:"archived"`
	Confidence *string    `json:"confidence"`
	InitDate   time.Time  `json:"init_date"`
	ModDate    *time.Time `json:"mod_date"`
	Maptaxlot  *string    `json:"maptaxlot"`
	Account    *string    `json:"account"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
}

// FullAddress concatenates the non-null name parts with single spaces, in
// the fixed order stnum, stnumsuf, predir, name, type, sufdir, unit_type,
// unit.
func (a Address) FullAddress() string {
	parts := make([]string, 0, 8)
	if a.StNum != nil {
		parts = append(parts, strconv.Itoa(*a.StNum))
	}
	for _, p := range []*string{a.StNumSuf, a.PreDir, a.Name, a.Type, a.SufDir, a.UnitType, a.Unit} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " ")
}

// DaysSinceUpdate returns the age of the record in days, measured from the
// modification date when one exists and the creation date otherwise.
func (a Address) DaysSinceUpdate(now time.Time) float64 {
	ref := a.InitDate
	if a.ModDate != nil {
		ref = *a.ModDate
	}
	return now.Sub(ref).Seconds() / 86400
}

// MaptaxlotCode keys the account lookups that depend on both the parcel and
// the tax code area the address falls in. TaxCode carries the hyphenated
// presentation form.
type MaptaxlotCode struct {
	Maptaxlot string
	TaxCode   string
}

// IsRightOfWay reports whether a maptaxlot denotes a road right-of-way lot:
// the last five digits form an integer below 100.
func IsRightOfWay(maptaxlot string) bool {
	if len(maptaxlot) < 5 {
		return false
	}
	n, err := strconv.Atoi(maptaxlot[len(maptaxlot)-5:])
	if err != nil {
		return false
	}
	return n < 100
}

// IsRealLot reports whether a taxlot identifier denotes a real parcel. Lot
// numbers ending in a doubled digit (11, 22, ... 99) are reserved for
// roads, water and similar non-parcels.
func IsRealLot(taxlot string) bool {
	if len(taxlot) < 2 {
		return true
	}
	last2 := taxlot[len(taxlot)-2:]
	return last2[0] != last2[1] || last2[0] < '1' || last2[0] > '9'
}

// FormatTaxCode renders a six-character tax code area identifier in its
// presentation form, three-hyphen-three. Shorter or longer inputs are
// returned unchanged.
func FormatTaxCode(code string) string {
	if len(code) != 6 || strings.Contains(code, "-") {
		return code
	}
	return code[:3] + "-" + code[3:]
}

// AccountRow is one account from the A&T warehouse view of active,
// non-personal accounts.
type AccountRow struct {
	Account   string `json:"account"`
	Maptaxlot string `json:"maptaxlot"`
}

// TaxYearRow is one (account, maptaxlot, tca) triple for the current tax
// year. TCA is the raw six-character code as stored in the warehouse.
type TaxYearRow struct {
	Account   string `json:"account"`
	Maptaxlot string `json:"maptaxlot"`
	TCA       string `json:"tca"`
}
