// Package catalog implements the stand-catalog assembly: classifying asset
// paths into dataset groups, matching stand labels to temporally nearby
// imagery, and materializing the matched groups as a STAC tree.
package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`^\d+$`)

// AssetPath is one classified asset file. Filename stems follow the
// {cellid}_{year}_{state}_{name} convention; Name is the dataset or agency
// read from the directory segment above the file, not from the stem.
type AssetPath struct {
	Path   string
	CellID int
	Year   int
	Annual bool
	State  string
	Name   string
}

// Stem returns the filename without extension and without a trailing -cog
// marker. Item ids are derived from it.
func (a AssetPath) Stem() string {
	base := path.Base(a.Path)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return strings.TrimSuffix(stem, "-cog")
}

// Classify parses one asset path. segmentIdx is the zero-based index of the
// path segment immediately preceding the dataset/agency name segment.
func Classify(p string, segmentIdx int) (AssetPath, error) {
	slashed := filepath.ToSlash(p)
	segments := strings.Split(slashed, "/")
	if segmentIdx+1 >= len(segments)-1 {
		return AssetPath{}, fmt.Errorf("path %s has no name segment at index %d", p, segmentIdx+1)
	}
	name := segments[segmentIdx+1]

	base := path.Base(slashed)
	stem := strings.TrimSuffix(base, path.Ext(base))
	tokens := strings.Split(stem, "_")
	if len(tokens) < 2 {
		return AssetPath{}, fmt.Errorf("filename %s does not follow the cellid_year_state_name convention", base)
	}

	cellID, err := strconv.Atoi(tokens[0])
	if err != nil {
		return AssetPath{}, fmt.Errorf("filename %s has a non-integer cell id: %w", base, err)
	}

	ap := AssetPath{Path: slashed, CellID: cellID, Name: name}
	if len(tokens) > 2 {
		ap.State = strings.ToUpper(tokens[2])
	}
	if yearPattern.MatchString(tokens[1]) {
		year, _ := strconv.Atoi(tokens[1])
		ap.Year = year
		ap.Annual = true
	}
	return ap, nil
}

// Group is the tagged per-dataset bucket: annual datasets keep a year-keyed
// map, non-annual (static) datasets a flat list. The classifier fills exactly
// one of the two.
type Group struct {
	Name  string
	Years map[int][]AssetPath
	Flat  []AssetPath
}

func (g *Group) Annual() bool {
	return len(g.Years) > 0
}

func (g *Group) add(ap AssetPath) {
	if ap.Annual {
		if g.Years == nil {
			g.Years = map[int][]AssetPath{}
		}
		g.Years[ap.Year] = append(g.Years[ap.Year], ap)
	} else {
		g.Flat = append(g.Flat, ap)
	}
}

// GroupPaths classifies every path and accumulates the grouped-dataset
// structure keyed by dataset/agency name.
func GroupPaths(paths []string, segmentIdx int) (map[string]*Group, error) {
	groups := map[string]*Group{}
	for _, p := range paths {
		ap, err := Classify(p, segmentIdx)
		if err != nil {
			return nil, err
		}
		g, ok := groups[ap.Name]
		if !ok {
			g = &Group{Name: ap.Name}
			groups[ap.Name] = g
		}
		g.add(ap)
	}
	return groups, nil
}

// SegmentIndex returns the classifier segment index for files discovered
// under root: the index of root's last path segment. Files directly below
// root then have their name segment at SegmentIndex(root)+1.
func SegmentIndex(root string) int {
	clean := path.Clean(filepath.ToSlash(root))
	return len(strings.Split(clean, "/")) - 1
}

// Discover walks root and returns every file whose name ends with one of the
// given suffixes, as slash-separated paths.
func Discover(root string, suffixes ...string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(d.Name(), suffix) {
				out = append(out, filepath.ToSlash(p))
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files under %s: %w", root, err)
	}
	return out, nil
}
