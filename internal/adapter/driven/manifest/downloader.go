// Package manifest downloads publisher manifests over HTTP with cache
// validation (etag / last-modified) so unchanged documents cost one
// conditional request.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ManifestSource = (*Downloader)(nil)

const (
	requestTimeout = 30 * time.Second

	// defaultRefresh is the expiry applied when the server supplies no
	// cache headers of its own.
	defaultRefresh = 24 * time.Hour

	// maxErrorBody bounds how much of an error response body is read when
	// building a human-readable failure message.
	maxErrorBody = 4 << 10
)

// Downloader fetches publisher manifests through an in-memory validating
// HTTP cache.
type Downloader struct {
	client *http.Client
	now    func() time.Time
}

// NewDownloader creates a Downloader with an httpcache memory transport.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   requestTimeout,
		},
		now: time.Now,
	}
}

// Fetch downloads the manifest described by info. When the stored expiry is
// still in the future, or the server answers 304 Not Modified, Fetch returns
// driven.ErrManifestNotModified without a document.
func (d *Downloader) Fetch(ctx context.Context, info model.ManifestDownloadInfo) (*model.PublisherManifest, *model.ManifestDownloadInfo, error) {
	if info.SourceURL == "" {
		return nil, nil, errors.New("manifest download info has no source url")
	}

	if !info.Expires.IsZero() && d.now().Before(info.Expires) {
		return nil, nil, driven.ErrManifestNotModified
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.SourceURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build manifest request: %w", err)
	}
	if info.ETag != "" {
		req.Header.Set("If-None-Match", info.ETag)
	}
	if !info.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", info.LastModified.UTC().Format(http.TimeFormat))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, nil, driven.NewTransportError(info.SourceURL, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, nil, driven.ErrManifestNotModified
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, driven.NewTransportError(info.SourceURL, resp.StatusCode, friendlyErrorMessage(resp), nil)
	}

	var doc model.PublisherManifest
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decode manifest from %s: %w", info.SourceURL, err)
	}

	updated := d.downloadInfoFromResponse(info.SourceURL, resp)
	return &doc, updated, nil
}

// downloadInfoFromResponse rebuilds the cache validators from the response
// headers, falling back to a fixed refresh interval when the server sends
// no expiry.
func (d *Downloader) downloadInfoFromResponse(sourceURL string, resp *http.Response) *model.ManifestDownloadInfo {
	info := &model.ManifestDownloadInfo{
		SourceURL: sourceURL,
		ETag:      resp.Header.Get("Etag"),
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			info.LastModified = t
		}
	}

	if exp := resp.Header.Get("Expires"); exp != "" {
		if t, err := http.ParseTime(exp); err == nil {
			info.Expires = t
		}
	}
	if info.Expires.IsZero() {
		info.Expires = d.now().Add(defaultRefresh)
	}

	return info
}

// friendlyErrorMessage extracts a short human-readable message from an error
// response body. Binary or empty bodies yield the response status text.
func friendlyErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return resp.Status
	}

	text := strings.TrimSpace(string(body))
	if text == "" || !isMostlyPrintable(text) {
		return resp.Status
	}
	return text
}

func isMostlyPrintable(s string) bool {
	total, printable := 0, 0
	for _, r := range s {
		total++
		if r == '\n' || r == '\r' || r == '\t' || r >= ' ' {
			printable++
		}
	}
	return printable*10 >= total*9
}
