package transform

import (
	"cmp"
	"slices"
	"strings"
)

// Group is an aggregation key. Rows whose key cannot be derived fall into the
// null group, which is counted like any other group.
type Group struct {
	Label string
	Null  bool
}

func Label(label string) Group {
	return Group{Label: label}
}

var NullGroup = Group{Null: true}

func (g Group) String() string {
	if g.Null {
		return ""
	}
	return g.Label
}

type Count struct {
	Group Group
	Count int
}

// Aggregation describes a group -> count distinct view over rows of type R.
type Aggregation[R any, D comparable] struct {
	Key func(R) Group
	// identity counted once per group, rows repeating a (group, identity) pair are duplicates
	Distinct func(R) D
	Order    func(a, b Count) int
	// 0 keeps every group
	Limit int
}

// Aggregate deduplicates rows on (key, distinct), counts the remaining rows per
// key, sorts the groups stably and truncates them to the limit. Groups start out
// in order of first appearance.
func Aggregate[R any, D comparable](rows []R, agg Aggregation[R, D]) []Count {
	type pair struct {
		group    Group
		distinct D
	}

	seen := make(map[pair]struct{}, len(rows))
	index := map[Group]int{}
	counts := []Count{}

	for _, row := range rows {
		group := agg.Key(row)
		if group.Null {
			group = NullGroup
		}
		key := pair{group: group, distinct: agg.Distinct(row)}
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}

		i, ok := index[group]
		if !ok {
			i = len(counts)
			index[group] = i
			counts = append(counts, Count{Group: group})
		}
		counts[i].Count++
	}

	if agg.Order != nil {
		slices.SortStableFunc(counts, agg.Order)
	}
	if agg.Limit > 0 && len(counts) > agg.Limit {
		counts = counts[:agg.Limit]
	}
	return counts
}

// Total sums the counts of every group.
func Total(counts []Count) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}

// null groups sort after every labelled group in both directions.
func compareGroups(a, b Group, descending bool) int {
	if a.Null != b.Null {
		if a.Null {
			return 1
		}
		return -1
	}
	if descending {
		return strings.Compare(b.Label, a.Label)
	}
	return strings.Compare(a.Label, b.Label)
}

// CountDescending orders by count, largest first, ties by label ascending.
func CountDescending(a, b Count) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return compareGroups(a.Group, b.Group, false)
}

func LabelAscending(a, b Count) int {
	return compareGroups(a.Group, b.Group, false)
}

func LabelDescending(a, b Count) int {
	return compareGroups(a.Group, b.Group, true)
}
