package catalog

import (
	"github.com/Ecotrust/TreeForCaSt-s/internal/utils"
)

// Match is one (agency, year) label group together with the imagery selected
// for it, keyed by dataset name. Datasets with nothing inside the tolerance
// window are absent from Imagery; that is expected, not an error.
type Match struct {
	Agency  string
	Year    int
	Labels  []AssetPath
	Imagery map[string][]AssetPath
}

// Matcher decides which imagery entries belong to a label group.
//
// Static datasets match on cell id alone. Annual datasets match against the
// year with minimum absolute distance to the label year; a tie between two
// equally distant years goes to the earlier year. With MultiYear set, every
// other year inside the tolerance window also contributes entries for cells
// the nearest year could not cover.
type Matcher struct {
	Tolerance int
	MultiYear bool
}

func NewMatcher(multiYear bool) *Matcher {
	return &Matcher{Tolerance: 2, MultiYear: multiYear}
}

// MatchGroups pairs every (agency, year) label group with imagery from every
// dataset. Output is ordered by agency then year.
func (m *Matcher) MatchGroups(labels, imagery map[string]*Group) []Match {
	var matches []Match
	for _, agency := range utils.SortedKeys(labels) {
		group := labels[agency]
		for _, year := range utils.SortedKeys(group.Years) {
			entries := group.Years[year]
			cellIDs := make(map[int]bool, len(entries))
			for _, e := range entries {
				cellIDs[e.CellID] = true
			}

			match := Match{
				Agency:  agency,
				Year:    year,
				Labels:  entries,
				Imagery: map[string][]AssetPath{},
			}
			for _, dataset := range utils.SortedKeys(imagery) {
				selected := m.matchDataset(year, cellIDs, imagery[dataset])
				if len(selected) > 0 {
					match.Imagery[dataset] = selected
				}
			}
			matches = append(matches, match)
		}
	}
	return matches
}

func (m *Matcher) matchDataset(labelYear int, cellIDs map[int]bool, g *Group) []AssetPath {
	if !g.Annual() {
		return filterCells(g.Flat, cellIDs)
	}

	years := utils.SortedKeys(g.Years)
	nearest := nearestYear(years, labelYear)
	if abs(labelYear-nearest) > m.Tolerance {
		return nil
	}

	selected := filterCells(g.Years[nearest], cellIDs)
	if !m.MultiYear {
		return selected
	}

	// Cells already satisfied by the nearest year must not be re-attached
	// from a more distant year; other in-range years only fill the gaps.
	covered := make(map[int]bool, len(selected))
	for _, e := range selected {
		covered[e.CellID] = true
	}
	for _, year := range years {
		if year == nearest || abs(labelYear-year) > m.Tolerance {
			continue
		}
		for _, e := range g.Years[year] {
			if cellIDs[e.CellID] && !covered[e.CellID] {
				selected = append(selected, e)
			}
		}
	}
	return selected
}

// nearestYear picks the year with minimum absolute distance to target. years
// must be in ascending order; a distance tie resolves to the earlier year.
func nearestYear(years []int, target int) int {
	best := years[0]
	for _, y := range years[1:] {
		if abs(target-y) < abs(target-best) {
			best = y
		}
	}
	return best
}

func filterCells(entries []AssetPath, cellIDs map[int]bool) []AssetPath {
	var out []AssetPath
	for _, e := range entries {
		if cellIDs[e.CellID] {
			out = append(out, e)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
