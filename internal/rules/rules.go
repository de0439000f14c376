// Package rules implements the address validation rule set. Each validator
// is an independent pass over the materialized address snapshot yielding
// issue records; validators are commutative, so All fixes an order only to
// keep the output stream deterministic between runs.
package rules

import (
	"strings"
	"time"

	"address-etl/internal/catalog"
	"address-etl/internal/models"
)

// Rule violations never abort a run; they are emitted into the issues
// dataset. OKToPublish marks the advisory ones that still let the address
// propagate to published products.

// Descriptions are the cross-run identity of an issue: operator notes are
// keyed on them, so the text is frozen, backticks included.
const (
	descStNum      = "`stnum` must not be null or negative."
	descStNumSuf   = "`stnumsuf` must be in `code` field of Valid_Number_Suffix."
	descPreDir     = "`predir` must be in `code` field of Valid_Street_Direction."
	descName       = "`name` must not be null."
	descType       = "`type` must be in `code` field of Valid_Street_Type."
	descSufDir     = "`sufdir` must be in `code` field of Valid_Street_Direction."
	descUnitType   = "`unit_type` must be in `code` field of Valid_Unit_Type."
	descUnit       = "`unit` must be in `unit` field of Valid_Unit."
	descUnitNull   = "`unit` must not be null if `unit_type` is not null."
	descPostComm   = "`postcomm` must be in `postcomm` field of Postal_Community."
	descRoadXRef   = "Road name + community must match fields of Road_Centerline."
	descZipNull    = "`zip` must not be null."
	descZip        = "`zip` must be in `zip` field of Postal_Community."
	descCounty     = "`county` must be in `county` field of Valid_County."
	descValid      = "`valid` must be N or Y."
	descArchived   = "`archived` must be N or Y."
	descConfidence = "`confidence` must be L, M, or H."
	descDuplicate  = "Must have unique address + community."
)

// postCommGraceDays shields freshly created addresses whose community row
// has not yet propagated from the postal-community rule.
const postCommGraceDays = 1

func newIssue(a models.Address, description string, okToPublish bool) models.Issue {
	comm := ""
	if a.PostComm != nil {
		comm = *a.PostComm
	}
	return models.Issue{
		AddressID:   a.ID,
		Address:     a.FullAddress(),
		PostComm:    comm,
		Description: description,
		OKToPublish: okToPublish,
		X:           a.X,
		Y:           a.Y,
	}
}

// CoreAttributes checks the structural name parts of every address. All of
// its issues block publication.
func CoreAttributes(addrs []models.Address, cat *catalog.Catalog, now time.Time) []models.Issue {
	var issues []models.Issue
	for _, a := range addrs {
		if a.StNum == nil || *a.StNum < 0 {
			issues = append(issues, newIssue(a, descStNum, false))
		}
		if !catalog.HasOptional(a.StNumSuf, cat.NumberSuffixes) {
			issues = append(issues, newIssue(a, descStNumSuf, false))
		}
		if !catalog.HasOptional(a.PreDir, cat.Directions) {
			issues = append(issues, newIssue(a, descPreDir, false))
		}
		if a.Name == nil {
			issues = append(issues, newIssue(a, descName, false))
		}
		if !catalog.HasOptional(a.Type, cat.StreetTypes) {
			issues = append(issues, newIssue(a, descType, false))
		}
		if !catalog.HasOptional(a.SufDir, cat.Directions) {
			issues = append(issues, newIssue(a, descSufDir, false))
		}
		if !catalog.HasOptional(a.UnitType, cat.UnitTypes) {
			issues = append(issues, newIssue(a, descUnitType, false))
		}
		if !catalog.HasOptional(a.Unit, cat.Units) {
			issues = append(issues, newIssue(a, descUnit, false))
		}
		if a.Unit == nil && a.UnitType != nil {
			issues = append(issues, newIssue(a, descUnitNull, false))
		}
		if (a.PostComm == nil || !cat.PostalCommunities[*a.PostComm]) &&
			a.DaysSinceUpdate(now) > postCommGraceDays {
			issues = append(issues, newIssue(a, descPostComm, false))
		}
	}
	return issues
}

// StreetCrossReference checks each address against the side-expanded road
// centerline tuples. A leading "MP " milepost marker on the street name is
// stripped before matching. Advisory only.
func StreetCrossReference(addrs []models.Address, cat *catalog.Catalog) []models.Issue {
	var issues []models.Issue
	for _, a := range addrs {
		road := catalog.RoadTuple{
			PreDir:   deref(a.PreDir),
			Name:     strings.TrimPrefix(deref(a.Name), "MP "),
			Type:     deref(a.Type),
			SufDir:   deref(a.SufDir),
			PostComm: deref(a.PostComm),
		}
		if !cat.RoadTuples[road] {
			issues = append(issues, newIssue(a, descRoadXRef, true))
		}
	}
	return issues
}

// ExtendedAttributes checks zip and county. Advisory only.
func ExtendedAttributes(addrs []models.Address, cat *catalog.Catalog) []models.Issue {
	var issues []models.Issue
	for _, a := range addrs {
		if a.Zip == nil {
			issues = append(issues, newIssue(a, descZipNull, true))
		} else if !cat.ZipCodes[*a.Zip] {
			issues = append(issues, newIssue(a, descZip, true))
		}
		if a.County == nil || !cat.Counties[*a.County] {
			issues = append(issues, newIssue(a, descCounty, true))
		}
	}
	return issues
}

// MaintenanceAttributes checks the maintenance flags. Bad valid/archived
// values block publication; confidence is advisory.
func MaintenanceAttributes(addrs []models.Address) []models.Issue {
	var issues []models.Issue
	for _, a := range addrs {
		if a.Valid != "N" && a.Valid != "Y" {
			issues = append(issues, newIssue(a, descValid, false))
		}
		if a.Archived != "N" && a.Archived != "Y" {
			issues = append(issues, newIssue(a, descArchived, false))
		}
		if a.Confidence == nil || (*a.Confidence != "L" && *a.Confidence != "M" && *a.Confidence != "H") {
			issues = append(issues, newIssue(a, descConfidence, true))
		}
	}
	return issues
}

// All runs every validator over the snapshot and returns the merged issue
// stream.
func All(addrs []models.Address, cat *catalog.Catalog, now time.Time) []models.Issue {
	var issues []models.Issue
	issues = append(issues, CoreAttributes(addrs, cat, now)...)
	issues = append(issues, StreetCrossReference(addrs, cat)...)
	issues = append(issues, ExtendedAttributes(addrs, cat)...)
	issues = append(issues, MaintenanceAttributes(addrs)...)
	issues = append(issues, Duplicates(addrs)...)
	return issues
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
