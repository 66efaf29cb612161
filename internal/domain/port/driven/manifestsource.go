package driven

import (
	"context"
	"errors"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
)

// ErrManifestNotModified is returned by Fetch when the remote manifest has
// not changed since the validators in the supplied download info.
var ErrManifestNotModified = errors.New("publisher manifest not modified")

// ManifestSource downloads an account's publisher manifest. Implementations
// honor the cache validators (etag, last-modified, expiry) carried in the
// download info and return the refreshed descriptor alongside the document.
type ManifestSource interface {
	Fetch(ctx context.Context, info model.ManifestDownloadInfo) (*model.PublisherManifest, *model.ManifestDownloadInfo, error)
}
