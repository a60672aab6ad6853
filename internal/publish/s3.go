// Package publish uploads a saved catalog tree and its staged assets to an
// S3-compatible bucket.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gammazero/workerpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/schollz/progressbar/v3"

	"github.com/Ecotrust/TreeForCaSt-s/internal/properties"
	"github.com/Ecotrust/TreeForCaSt-s/internal/stac"
)

type Client struct {
	api    *minio.Client
	bucket string
}

// New builds a client from the S3_* environment settings.
func New() (*Client, error) {
	api, err := minio.New(properties.S3Endpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(properties.S3AccessKey(), properties.S3SecretKey(), ""),
		Secure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	bucket := properties.S3Bucket()
	if bucket == "" {
		return nil, fmt.Errorf("missing required environment variable: FBSTAC_S3_BUCKET")
	}
	return &Client{api: api, bucket: bucket}, nil
}

func contentType(path string) string {
	switch {
	case strings.HasSuffix(path, "-cog.tif"):
		return stac.MediaTypeCOG
	case strings.HasSuffix(path, ".tif"):
		return "image/tiff"
	case strings.HasSuffix(path, ".png"):
		return stac.MediaTypePNG
	case strings.HasSuffix(path, ".geojson"):
		return stac.MediaTypeGeoJSON
	case strings.HasSuffix(path, ".json"):
		return stac.MediaTypeJSON
	default:
		return "application/octet-stream"
	}
}

// UploadDir uploads every file under dir to prefix/<relative path>, keyed
// with forward slashes. Uploads run on a worker pool; failures are counted
// and reported after the walk completes.
func (c *Client) UploadDir(ctx context.Context, dir, prefix string, workers int) error {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list files under %s: %w", dir, err)
	}

	bar := progressbar.Default(int64(len(files)), "uploading")
	wp := workerpool.New(workers)
	errChan := make(chan error, len(files))
	for _, file := range files {
		file := file
		wp.Submit(func() {
			defer bar.Add(1)
			rel, err := filepath.Rel(dir, file)
			if err != nil {
				errChan <- err
				return
			}
			key := strings.TrimPrefix(prefix+"/"+filepath.ToSlash(rel), "/")
			_, err = c.api.FPutObject(ctx, c.bucket, key, file, minio.PutObjectOptions{
				ContentType: contentType(file),
			})
			if err != nil {
				errChan <- fmt.Errorf("failed to upload %s: %w", key, err)
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
		return fmt.Errorf("failed to upload %d of %d files", failed, len(files))
	}
	return nil
}
