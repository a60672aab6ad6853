package datafactory

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"

	"github.com/Ecotrust/TreeForCaSt-s/internal/stac"
)

// CopyAssets stages every asset a saved catalog references: it walks the
// item documents under catalogDir, maps each baseURL href back to its file
// under dataDir and copies it to the same relative path under destDir. The
// result is a directory tree ready for publishing next to the catalog.
func CopyAssets(catalogDir, dataDir, destDir, baseURL string, workers int) error {
	baseURL = strings.TrimSuffix(baseURL, "/")

	items, err := readItemDocs(catalogDir)
	if err != nil {
		return err
	}

	var rels []string
	seen := map[string]bool{}
	for _, item := range items {
		for _, asset := range item.Assets {
			if !strings.HasPrefix(asset.Href, baseURL+"/") {
				continue
			}
			rel := strings.TrimPrefix(asset.Href, baseURL+"/")
			if !seen[rel] {
				seen[rel] = true
				rels = append(rels, rel)
			}
		}
	}

	bar := progressbar.Default(int64(len(rels)), "copying assets")
	wp := workerpool.New(workers)
	errChan := make(chan error, len(rels))
	for _, rel := range rels {
		rel := rel
		wp.Submit(func() {
			defer bar.Add(1)
			src := filepath.Join(dataDir, filepath.FromSlash(rel))
			dst := filepath.Join(destDir, filepath.FromSlash(rel))
			if err := copyFile(src, dst); err != nil {
				errChan <- err
			}
		})
	}
	wp.StopWait()
	close(errChan)

	failed := 0
	for err := range errChan {
		fmt.Println(err)
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("failed to copy %d of %d assets", failed, len(rels))
	}
	return nil
}

// readItemDocs decodes every item document of a saved catalog, recognized by
// the <dir>/<id>/<id>.json layout.
func readItemDocs(catalogDir string) ([]*stac.ItemDoc, error) {
	var items []*stac.ItemDoc
	err := filepath.WalkDir(catalogDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		if strings.TrimSuffix(d.Name(), ".json") != filepath.Base(filepath.Dir(p)) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read item %s: %w", p, err)
		}
		doc := &stac.ItemDoc{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to parse item %s: %w", p, err)
		}
		items = append(items, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no item documents found under %s", catalogDir)
	}
	return items, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open asset %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
