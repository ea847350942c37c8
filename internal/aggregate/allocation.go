// Package aggregate derives display values from raw records. Everything here
// is pure: no I/O, no shared state.
package aggregate

import "github.com/pbaille/fine/internal/domain"

// Category is one slice of the allocation chart
type Category struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Item is an allocatable catalog entry tagged with its category key
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CategoryTotal is the aggregated weight of one category
type CategoryTotal struct {
	Category   string `json:"category"`
	Label      string `json:"label"`
	Current    int    `json:"current"`
	Max        int    `json:"max"`
	Percentage int    `json:"percentage"`
}

// ValueOf returns the stored weight for id, or domain.DefaultAllocationValue
// when none is stored.
func ValueOf(values map[string]int, id string) int {
	if v, ok := values[id]; ok {
		return v
	}
	return domain.DefaultAllocationValue
}

// Allocate sums item weights per category, in the order of categories.
//
// Percentages are floor(100 * current / grand total). They are truncated,
// not rounded, so their sum may be below 100. A zero grand total yields 0
// for every category.
func Allocate(categories []Category, items []Item, values map[string]int) []CategoryTotal {
	totals := make([]CategoryTotal, len(categories))
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		totals[i] = CategoryTotal{Category: c.Key, Label: c.Label}
		index[c.Key] = i
	}

	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			continue
		}
		totals[i].Current += ValueOf(values, item.ID)
		totals[i].Max += domain.MaxAllocationValue
	}

	grand := 0
	for _, t := range totals {
		grand += t.Current
	}
	if grand == 0 {
		return totals
	}
	for i := range totals {
		totals[i].Percentage = totals[i].Current * 100 / grand
	}
	return totals
}
