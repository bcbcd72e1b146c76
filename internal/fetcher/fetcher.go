// Package fetcher reads contact sources: directory pages over HTTP and
// CSV/XLSX roster spreadsheets.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote pages.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// FetchPage downloads url and returns at most maxBytes of its body as a
// string. A maxBytes of zero reads the whole body.
func FetchPage(ctx context.Context, f Fetcher, url string, maxBytes int64) (string, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close() //nolint:errcheck

	var r io.Reader = body
	if maxBytes > 0 {
		r = io.LimitReader(body, maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
