package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annualGroup(name string, years map[int][]int) *Group {
	g := &Group{Name: name}
	for year, cells := range years {
		for _, cell := range cells {
			g.add(AssetPath{
				Path:   "data/" + name + "/file",
				CellID: cell,
				Year:   year,
				Annual: true,
				Name:   name,
			})
		}
	}
	return g
}

func cellsOf(entries []AssetPath) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.CellID)
	}
	return out
}

func TestMatchDatasetNearestYear(t *testing.T) {
	m := NewMatcher(false)
	cells := map[int]bool{1: true, 2: true}

	t.Run("exact year wins", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{2016: {1}, 2017: {2}})
		selected := m.matchDataset(2017, cells, g)
		assert.Equal(t, []int{2}, cellsOf(selected))
	})

	t.Run("distance tie resolves to the earlier year", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{2016: {1}, 2018: {2}})
		selected := m.matchDataset(2017, cells, g)
		assert.Equal(t, []int{1}, cellsOf(selected))
	})

	t.Run("tolerance boundary is absolute distance", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{2015: {1}})
		assert.Len(t, m.matchDataset(2017, cells, g), 1)
		assert.Empty(t, m.matchDataset(2018, cells, g))

		// The same window applies looking backwards in time.
		future := annualGroup("naip", map[int][]int{2019: {1}})
		assert.Len(t, m.matchDataset(2017, cells, future), 1)
		assert.Empty(t, m.matchDataset(2016, cells, future))
	})

	t.Run("unlabeled cells are filtered out", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{2017: {1, 2, 3}})
		selected := m.matchDataset(2017, map[int]bool{2: true}, g)
		assert.Equal(t, []int{2}, cellsOf(selected))
	})
}

func TestMatchDatasetStatic(t *testing.T) {
	m := NewMatcher(false)
	g := &Group{Name: "3dep"}
	g.add(AssetPath{CellID: 1, Name: "3dep"})
	g.add(AssetPath{CellID: 9, Name: "3dep"})

	selected := m.matchDataset(2017, map[int]bool{1: true}, g)
	assert.Equal(t, []int{1}, cellsOf(selected))
}

func TestMatchDatasetMultiYear(t *testing.T) {
	m := NewMatcher(true)
	cells := map[int]bool{1: true, 2: true, 3: true}

	t.Run("other in-range years fill coverage gaps only", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{
			2017: {1},
			2016: {1, 2},
			2019: {2, 3},
		})
		selected := m.matchDataset(2017, cells, g)

		byYear := map[int][]int{}
		for _, e := range selected {
			byYear[e.Year] = append(byYear[e.Year], e.CellID)
		}
		// Other years exclude only cells the nearest year covers; cell 2
		// appearing in both 2016 and 2019 is accepted.
		assert.Equal(t, []int{1}, byYear[2017])
		assert.Equal(t, []int{2}, byYear[2016])
		assert.Equal(t, []int{2, 3}, byYear[2019])
	})

	t.Run("covered cells are not re-attached from a farther year", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{
			2019: {1, 2},
			2020: {2, 3},
		})
		selected := m.matchDataset(2020, cells, g)

		byYear := map[int][]int{}
		for _, e := range selected {
			byYear[e.Year] = append(byYear[e.Year], e.CellID)
		}
		assert.Equal(t, []int{2, 3}, byYear[2020])
		assert.Equal(t, []int{1}, byYear[2019])
	})

	t.Run("years outside the window never contribute", func(t *testing.T) {
		g := annualGroup("naip", map[int][]int{
			2017: {1},
			2014: {2, 3},
		})
		selected := m.matchDataset(2017, cells, g)
		assert.Equal(t, []int{1}, cellsOf(selected))
	})
}

func TestMatchGroups(t *testing.T) {
	labels := map[string]*Group{
		"dnr": annualGroup("dnr", map[int][]int{2017: {1, 2}}),
		"blm": annualGroup("blm", map[int][]int{2016: {3}, 2019: {3}}),
	}
	imagery := map[string]*Group{
		"naip": annualGroup("naip", map[int][]int{2016: {1, 2, 3}, 2019: {3}}),
		"mola": annualGroup("mola", map[int][]int{1999: {1, 2, 3}}),
	}

	matches := NewMatcher(false).MatchGroups(labels, imagery)
	require.Len(t, matches, 3)

	// Ordered by agency, then year.
	assert.Equal(t, "blm", matches[0].Agency)
	assert.Equal(t, 2016, matches[0].Year)
	assert.Equal(t, "blm", matches[1].Agency)
	assert.Equal(t, 2019, matches[1].Year)
	assert.Equal(t, "dnr", matches[2].Agency)
	assert.Equal(t, 2017, matches[2].Year)

	// A dataset with nothing inside the window is simply absent.
	for _, m := range matches {
		assert.NotContains(t, m.Imagery, "mola")
	}
	assert.Equal(t, []int{3}, cellsOf(matches[0].Imagery["naip"]))
	assert.Equal(t, []int{1, 2}, cellsOf(matches[2].Imagery["naip"]))
}
