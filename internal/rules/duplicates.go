package rules

import (
	"sort"

	"address-etl/internal/models"
)

type duplicateKey struct {
	address  string
	postComm string
}

// Duplicates flags every address that shares its concatenated address and
// postal community with another. Within each group the record with the
// earliest init date is the designated survivor and keeps publishing; every
// later duplicate blocks. The group sort is stable, so init-date ties break
// by snapshot order.
func Duplicates(addrs []models.Address) []models.Issue {
	groups := make(map[duplicateKey][]models.Address)
	for _, a := range addrs {
		key := duplicateKey{address: a.FullAddress(), postComm: deref(a.PostComm)}
		groups[key] = append(groups[key], a)
	}

	keys := make([]duplicateKey, 0, len(groups))
	for key, group := range groups {
		if len(group) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].address != keys[j].address {
			return keys[i].address < keys[j].address
		}
		return keys[i].postComm < keys[j].postComm
	})

	var issues []models.Issue
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].InitDate.Before(group[j].InitDate)
		})
		for i, a := range group {
			issues = append(issues, newIssue(a, descDuplicate, i == 0))
		}
	}
	return issues
}
