package report

import (
	"math"
	"sort"
)

// TotalMarker labels the synthetic grand-total row.
const TotalMarker = "Total"

type ProjectAggregate struct {
	ProjectName    *string `json:"projectName"`
	RequestCount   int     `json:"requestCount"`
	WordCountTotal int64   `json:"wordCountTotal"`
	Total          bool    `json:"total,omitempty"`
}

// Aggregate groups records by project name, ordered by request count
// descending with ties in first-seen order, followed by the Total row.
// Null word counts are skipped, so a group without any sums to 0. Records
// with a null project name form their own group. Totals saturate at
// math.MaxInt64 instead of wrapping.
func Aggregate(records []Record) []ProjectAggregate {
	var groups []ProjectAggregate
	index := make(map[string]int)
	nullGroup := -1

	for _, rec := range records {
		var gi int
		if rec.ProjectName == nil {
			if nullGroup < 0 {
				nullGroup = len(groups)
				groups = append(groups, ProjectAggregate{})
			}
			gi = nullGroup
		} else {
			i, ok := index[*rec.ProjectName]
			if !ok {
				i = len(groups)
				index[*rec.ProjectName] = i
				groups = append(groups, ProjectAggregate{ProjectName: rec.ProjectName})
			}
			gi = i
		}

		groups[gi].RequestCount++
		if rec.WordCount != nil {
			groups[gi].WordCountTotal = addWords(groups[gi].WordCountTotal, *rec.WordCount)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].RequestCount > groups[j].RequestCount
	})

	total := ProjectAggregate{Total: true}
	name := TotalMarker
	total.ProjectName = &name
	for _, g := range groups {
		total.RequestCount += g.RequestCount
		total.WordCountTotal = addWords(total.WordCountTotal, g.WordCountTotal)
	}
	return append(groups, total)
}

// addWords sums non-negative word counts, clamping at math.MaxInt64.
func addWords(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
