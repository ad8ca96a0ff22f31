package storage

import (
	"context"

	"restate/models"

	"golang.org/x/sync/errgroup"
)

// UploadBatch uploads every image concurrently, at most concurrency at a time, and
// returns one result per image in input order. A failed image never stops the others.
func UploadBatch(ctx context.Context, u MediaUploader, images []models.ImageSource, concurrency int) []UploadResult {
	results := make([]UploadResult, len(images))
	if concurrency <= 0 {
		concurrency = len(images)
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			asset, err := u.Upload(ctx, img)
			if err != nil {
				results[i] = UploadResult{Err: &UploadError{Index: i, Source: img.Name, Err: err}}
				return nil
			}
			results[i] = UploadResult{Asset: asset}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failures returns the errors of every failed result.
func Failures(results []UploadResult) []*UploadError {
	var failed []*UploadError
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r.Err)
		}
	}
	return failed
}

// URLs returns the asset URLs of results, in order.
func URLs(results []UploadResult) []string {
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.Asset.URL
	}
	return urls
}
