package models

import "time"

// Issue is one violation of one validation rule by one address. The pair
// (AddressID, Description) uniquely identifies an issue across runs; the
// maintenance columns ride along on that key and are co-owned with the
// operators who write them.
type Issue struct {
	AddressID     int64     `json:"address_id"`
	Address       string    `json:"address"`
	PostComm      string    `json:"postcomm"`
	Description   string    `json:"description"`
	OKToPublish   bool      `json:"ok_to_publish"`
	MaintNotes    *string   `json:"maint_notes"`
	MaintInitDate time.Time `json:"maint_init_date"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
}

// IssueKey identifies an issue across refreshes of the issues dataset.
type IssueKey struct {
	AddressID   int64
	Description string
}

// Key returns the cross-run identity of the issue.
func (i Issue) Key() IssueKey {
	return IssueKey{AddressID: i.AddressID, Description: i.Description}
}

// Maintenance holds the operator-written columns carried from one run of the
// issue writer to the next.
type Maintenance struct {
	Notes    *string
	InitDate time.Time
}

// IssueCount is one row of the per-description issue summary.
type IssueCount struct {
	Description string `json:"description"`
	OKToPublish bool   `json:"ok_to_publish"`
	Count       int    `json:"count"`
}
