package catalog

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/Ecotrust/TreeForCaSt-s/internal/config"
	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
	"github.com/Ecotrust/TreeForCaSt-s/internal/stac"
	"github.com/Ecotrust/TreeForCaSt-s/internal/utils"
)

// Builder assembles the catalog tree from a processed data directory.
//
// With multiYear set it produces the temporally tolerant catalog variant:
// one label collection per agency spanning all its years, the gap-filling
// imagery match policy, and per-item error tolerance. Without it, one label
// collection per agency-year, nearest-year matching only, and a failed item
// aborts the build.
type Builder struct {
	conf      *config.Config
	grid      *grid.Grid
	matcher   *Matcher
	workers   int
	multiYear bool
	baseURL   string

	mu         sync.Mutex
	imageItems map[string][]*stac.Item
}

func NewBuilder(conf *config.Config, g *grid.Grid, multiYear bool) *Builder {
	return &Builder{
		conf:       conf,
		grid:       g,
		matcher:    NewMatcher(multiYear),
		workers:    conf.Workers,
		multiYear:  multiYear,
		baseURL:    strings.TrimSuffix(conf.AssetBaseURL, "/"),
		imageItems: map[string][]*stac.Item{},
	}
}

// labelBatch is the unit one label collection is built from: either one
// agency-year match, or all of an agency's matches merged.
type labelBatch struct {
	Agency  string
	ID      string
	MinYear int
	MaxYear int
	Labels  []AssetPath
	Imagery map[string][]AssetPath
}

// Build discovers and classifies every asset under dataDir, matches labels
// to imagery, and materializes the validated catalog tree in memory.
func (b *Builder) Build(dataDir string) (*stac.Catalog, error) {
	dataDir = filepath.ToSlash(dataDir)
	labelPaths, err := Discover(path.Join(dataDir, b.conf.LabelsSubdir), ".geojson")
	if err != nil {
		return nil, err
	}
	imagePaths, err := Discover(dataDir, "-cog.tif")
	if err != nil {
		return nil, err
	}

	imageIdx := SegmentIndex(dataDir)
	labels, err := GroupPaths(labelPaths, imageIdx+2)
	if err != nil {
		return nil, err
	}
	imagery, err := GroupPaths(imagePaths, imageIdx)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no label files found under %s", path.Join(dataDir, b.conf.LabelsSubdir))
	}

	matches := b.matcher.MatchGroups(labels, imagery)

	cat := stac.NewCatalog(b.conf.CatalogID, b.conf.CatalogDescription, b.conf.CatalogTitle)
	for _, name := range utils.SortedKeys(imagery) {
		col, err := b.newDatasetCollection(name)
		if err != nil {
			return nil, err
		}
		cat.AddChild(col)
	}

	for _, batch := range b.batches(matches) {
		fmt.Println("Creating label collection", batch.ID)
		if err := b.buildLabelBatch(cat, batch); err != nil {
			return nil, err
		}
	}

	// Imagery datasets that matched no label group keep an extent covering
	// the whole grid and label span, so the catalog still validates.
	b.fillEmptyExtents(cat, matches)

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}
	return cat, nil
}

func (b *Builder) newDatasetCollection(name string) (*stac.Collection, error) {
	info, ok := b.conf.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("no dataset configuration for %s", name)
	}
	providers := make([]stac.Provider, 0, len(info.Providers))
	for _, p := range info.Providers {
		providers = append(providers, stac.Provider{Name: p.Name, Roles: p.Roles, URL: p.URL})
	}
	col := stac.NewCollection(name, info.Description, info.License.Type, providers)
	if info.License.URL != "" {
		col.AddLink(stac.Link{Rel: "license", Href: info.License.URL, Type: stac.MediaTypeHTML})
	}
	return col, nil
}

// batches folds the ordered match list into label-collection units.
func (b *Builder) batches(matches []Match) []*labelBatch {
	if !b.multiYear {
		out := make([]*labelBatch, 0, len(matches))
		for _, m := range matches {
			out = append(out, &labelBatch{
				Agency:  m.Agency,
				ID:      fmt.Sprintf("%s-%d-stands", m.Agency, m.Year),
				MinYear: m.Year,
				MaxYear: m.Year,
				Labels:  m.Labels,
				Imagery: m.Imagery,
			})
		}
		return out
	}

	byAgency := map[string]*labelBatch{}
	seen := map[string]map[string]bool{}
	var order []string
	for _, m := range matches {
		batch, ok := byAgency[m.Agency]
		if !ok {
			batch = &labelBatch{
				Agency:  m.Agency,
				ID:      fmt.Sprintf("%s-stands", m.Agency),
				MinYear: m.Year,
				MaxYear: m.Year,
				Imagery: map[string][]AssetPath{},
			}
			byAgency[m.Agency] = batch
			seen[m.Agency] = map[string]bool{}
			order = append(order, m.Agency)
		}
		if m.Year < batch.MinYear {
			batch.MinYear = m.Year
		}
		if m.Year > batch.MaxYear {
			batch.MaxYear = m.Year
		}
		batch.Labels = append(batch.Labels, m.Labels...)
		// Neighboring label years often resolve to the same imagery year,
		// so the same path can appear in several matches. Keep it once.
		for dataset, entries := range m.Imagery {
			for _, entry := range entries {
				key := dataset + " " + entry.Path
				if seen[m.Agency][key] {
					continue
				}
				seen[m.Agency][key] = true
				batch.Imagery[dataset] = append(batch.Imagery[dataset], entry)
			}
		}
	}

	out := make([]*labelBatch, 0, len(byAgency))
	for _, agency := range order {
		out = append(out, byAgency[agency])
	}
	return out
}

func (b *Builder) buildLabelBatch(cat *stac.Catalog, batch *labelBatch) error {
	agencyInfo, ok := b.conf.Agencies[batch.Agency]
	if !ok {
		return fmt.Errorf("no agency configuration for %s", batch.Agency)
	}

	cellIDs := make([]int, 0, len(batch.Labels))
	for _, l := range batch.Labels {
		cellIDs = append(cellIDs, l.CellID)
	}
	aoi, ok := b.grid.UnionBound(cellIDs)
	if !ok {
		return fmt.Errorf("none of the label cells of %s are present in the grid", batch.Agency)
	}

	labelCol := stac.NewCollection(
		batch.ID,
		agencyInfo.Description,
		agencyInfo.License.Type,
		[]stac.Provider{{
			Name:  agencyInfo.Provider.Name,
			Roles: agencyInfo.Provider.Roles,
			URL:   agencyInfo.Provider.URL,
		}},
	)
	labelCol.Extent = stac.NewExtent(
		[4]float64{aoi.Min[0], aoi.Min[1], aoi.Max[0], aoi.Max[1]},
		time.Date(batch.MinYear, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(batch.MaxYear, 12, 31, 0, 0, 0, 0, time.UTC),
	)
	if agencyInfo.License.URL != "" {
		labelCol.AddLink(stac.Link{Rel: "license", Href: agencyInfo.License.URL, Type: stac.MediaTypeHTML})
	}

	// Imagery items, one parallel batch per dataset collection. Extents are
	// recomputed only after a batch has fully completed; items arrive in
	// pool order.
	for _, dataset := range utils.SortedKeys(batch.Imagery) {
		col := cat.Child(dataset)
		if col == nil {
			return fmt.Errorf("imagery dataset %s has no collection", dataset)
		}
		fmt.Println("Adding items to collection", dataset)
		if err := b.addImageItems(col, batch.Imagery[dataset]); err != nil {
			return err
		}
		recomputeExtent(col)
	}

	// Label items, then source links against the imagery registry.
	fmt.Println("Creating labels and links to assets for", batch.Agency)
	labelDate := agencyInfo.LabelDate(batch.MinYear)
	if err := b.addLabelItems(labelCol, batch.Labels, agencyInfo, labelDate); err != nil {
		return err
	}

	cat.AddChild(labelCol)
	return nil
}

func (b *Builder) addImageItems(col *stac.Collection, entries []AssetPath) error {
	wp := workerpool.New(b.workers)
	errChan := make(chan error, len(entries))
	pending := map[string]bool{}
	for _, entry := range entries {
		// An earlier batch may already have built this imagery item for
		// another label collection; it is shared, not duplicated.
		id := entry.Stem()
		if pending[id] || b.hasImageItem(id) {
			continue
		}
		pending[id] = true
		entry := entry
		wp.Submit(func() {
			item, err := b.newImageItem(entry)
			if err != nil {
				errChan <- fmt.Errorf("item %s: %w", entry.Stem(), err)
				return
			}
			col.AddItem(item)
			b.registerImageItem(item)
		})
	}
	wp.StopWait()
	close(errChan)

	for err := range errChan {
		if b.multiYear {
			fmt.Println(err)
			continue
		}
		return err
	}
	return nil
}

func (b *Builder) addLabelItems(labelCol *stac.Collection, entries []AssetPath, agencyInfo config.Agency, date time.Time) error {
	wp := workerpool.New(b.workers)
	errChan := make(chan error, len(entries))
	for _, entry := range entries {
		entry := entry
		wp.Submit(func() {
			item, err := b.newLabelItem(entry, agencyInfo, date)
			if err != nil {
				errChan <- fmt.Errorf("label %s: %w", entry.Stem(), err)
				return
			}
			for _, src := range b.imageSources(item.ID) {
				item.AddSource(src)
			}
			labelCol.AddItem(item)
		})
	}
	wp.StopWait()
	close(errChan)

	for err := range errChan {
		if b.multiYear {
			fmt.Println(err)
			continue
		}
		return err
	}
	return nil
}

func (b *Builder) hasImageItem(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range b.imageItems[leadingToken(id)] {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (b *Builder) registerImageItem(item *stac.Item) {
	token := leadingToken(item.ID)
	b.mu.Lock()
	b.imageItems[token] = append(b.imageItems[token], item)
	b.mu.Unlock()
}

// imageSources returns every imagery item sharing the label's leading
// cell-id token. A label with no sources is still cataloged.
func (b *Builder) imageSources(labelID string) []*stac.Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.imageItems[leadingToken(labelID)]
}

func leadingToken(id string) string {
	if i := strings.Index(id, "_"); i >= 0 {
		return id[:i]
	}
	return id
}

// recomputeExtent replaces a collection's extent with the union over its
// items. Must run after a full item batch, never concurrently with one.
func recomputeExtent(col *stac.Collection) {
	items := col.Items()
	if len(items) == 0 {
		return
	}
	bbox := [4]float64{items[0].Bbox[0], items[0].Bbox[1], items[0].Bbox[2], items[0].Bbox[3]}
	start, end := items[0].Datetime, items[0].Datetime
	for _, it := range items[1:] {
		bbox[0] = min(bbox[0], it.Bbox[0])
		bbox[1] = min(bbox[1], it.Bbox[1])
		bbox[2] = max(bbox[2], it.Bbox[2])
		bbox[3] = max(bbox[3], it.Bbox[3])
		if it.Datetime.Before(start) {
			start = it.Datetime
		}
		if it.Datetime.After(end) {
			end = it.Datetime
		}
	}
	col.Extent = stac.NewExtent(bbox, start, end)
}

func (b *Builder) fillEmptyExtents(cat *stac.Catalog, matches []Match) {
	minYear, maxYear := 0, 0
	for _, m := range matches {
		if minYear == 0 || m.Year < minYear {
			minYear = m.Year
		}
		if m.Year > maxYear {
			maxYear = m.Year
		}
	}
	if minYear == 0 {
		minYear, maxYear = time.Now().Year(), time.Now().Year()
	}

	var gridBound [4]float64
	if tiles := b.grid.Tiles(); len(tiles) > 0 {
		bound := tiles[0].Bound
		for _, t := range tiles[1:] {
			bound = bound.Union(t.Bound)
		}
		gridBound = [4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}
	}

	for _, col := range cat.Children() {
		if len(col.Items()) == 0 && len(col.Extent.Spatial.Bbox) == 0 {
			fmt.Println("Collection", col.ID, "has no items; using grid-wide extent")
			col.Extent = stac.NewExtent(
				gridBound,
				time.Date(minYear, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(maxYear, 12, 31, 0, 0, 0, 0, time.UTC),
			)
		}
	}
}
