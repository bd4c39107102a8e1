package entries

import (
	"sort"

	"ledger/internal/core"
)

// SortNewestFirst orders entries by date descending, then by creation time
// descending, in place.
func SortNewestFirst(list []core.Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date.Time) {
			return list[i].Date.After(list[j].Date.Time)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
