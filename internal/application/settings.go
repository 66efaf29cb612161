// Package application contains the publishing use-case services: account
// settings, credentials, login, the publishing orchestrator, and the
// background runners built around them.
package application

import (
	"context"
	"time"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// settingsRoot is the tree all account settings live under.
const settingsRoot = "weblogs"

// Value names stored directly at an account's path.
const (
	nameProviderID        = "ProviderID"
	nameServiceName       = "ServiceName"
	nameHostBlogID        = "HostBlogID"
	nameBlogName          = "BlogName"
	nameHomepageURL       = "HomepageURL"
	namePostAPIURL        = "PostAPIURL"
	nameClientType        = "ClientType"
	nameLastPublishFailed = "LastPublishFailed"
	nameDefaultAccount    = "DefaultAccount"
)

// BlogSettings is the typed view over one account's settings subtree. It is
// cheap to construct and holds no cache; every accessor goes straight to the
// persister, so concurrent writers are always observed.
type BlogSettings struct {
	id    string
	store driven.SettingsPersister
}

// ID returns the account id the settings belong to.
func (s *BlogSettings) ID() string { return s.id }

func (s *BlogSettings) path(sub ...string) string {
	p := settingsRoot + "/" + s.id
	for _, seg := range sub {
		p += "/" + seg
	}
	return p
}

// ProviderID identifies which provider definition the account was created
// from.
func (s *BlogSettings) ProviderID(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), nameProviderID, "")
}

func (s *BlogSettings) SetProviderID(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), nameProviderID, v)
}

// ServiceName is the human-readable name of the hosting service, used in
// credential prompts.
func (s *BlogSettings) ServiceName(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), nameServiceName, "")
}

func (s *BlogSettings) SetServiceName(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), nameServiceName, v)
}

// HostBlogID is the service-side identifier passed on every wire call.
func (s *BlogSettings) HostBlogID(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), nameHostBlogID, "")
}

func (s *BlogSettings) SetHostBlogID(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), nameHostBlogID, v)
}

// BlogName is the display name of the blog.
func (s *BlogSettings) BlogName(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), nameBlogName, "")
}

func (s *BlogSettings) SetBlogName(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), nameBlogName, v)
}

// HomepageURL is the public front page of the blog.
func (s *BlogSettings) HomepageURL(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), nameHomepageURL, "")
}

func (s *BlogSettings) SetHomepageURL(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), nameHomepageURL, v)
}

// PostAPIURL is the endpoint the protocol client posts to.
func (s *BlogSettings) PostAPIURL(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), namePostAPIURL, "")
}

func (s *BlogSettings) SetPostAPIURL(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), namePostAPIURL, v)
}

// ClientType selects which protocol client talks to this account.
func (s *BlogSettings) ClientType(ctx context.Context) (string, error) {
	return s.store.GetString(ctx, s.path(), nameClientType, "")
}

func (s *BlogSettings) SetClientType(ctx context.Context, v string) error {
	return s.store.SetString(ctx, s.path(), nameClientType, v)
}

// LastPublishFailed records whether the most recent publish attempt against
// this account ended in an error.
func (s *BlogSettings) LastPublishFailed(ctx context.Context) (bool, error) {
	return s.store.GetBool(ctx, s.path(), nameLastPublishFailed, false)
}

func (s *BlogSettings) SetLastPublishFailed(ctx context.Context, v bool) error {
	return s.store.SetBool(ctx, s.path(), nameLastPublishFailed, v)
}

// Credentials returns the durable credential accessor for this account.
func (s *BlogSettings) Credentials() *CredentialsAccessor {
	return &CredentialsAccessor{path: s.path("Credentials"), store: s.store}
}

// CredentialsDomain describes this account for credential prompts.
func (s *BlogSettings) CredentialsDomain(ctx context.Context) (model.CredentialsDomain, error) {
	service, err := s.ServiceName(ctx)
	if err != nil {
		return model.CredentialsDomain{}, err
	}
	blog, err := s.BlogName(ctx)
	if err != nil {
		return model.CredentialsDomain{}, err
	}
	return model.CredentialsDomain{ServiceName: service, BlogName: blog}, nil
}

// ManifestDownloadInfo returns where this account's publisher manifest lives
// plus the cache validators from the last download, or nil when the account
// has no manifest configured.
func (s *BlogSettings) ManifestDownloadInfo(ctx context.Context) (*model.ManifestDownloadInfo, error) {
	p := s.path("Manifest")
	has, err := s.store.HasSubtree(ctx, p)
	if err != nil || !has {
		return nil, err
	}
	var info model.ManifestDownloadInfo
	if info.SourceURL, err = s.store.GetString(ctx, p, "SourceURL", ""); err != nil {
		return nil, err
	}
	if info.Expires, err = s.store.GetTime(ctx, p, "Expires", time.Time{}); err != nil {
		return nil, err
	}
	if info.LastModified, err = s.store.GetTime(ctx, p, "LastModified", time.Time{}); err != nil {
		return nil, err
	}
	if info.ETag, err = s.store.GetString(ctx, p, "ETag", ""); err != nil {
		return nil, err
	}
	return &info, nil
}

// SetManifestDownloadInfo replaces the manifest descriptor. A nil value
// removes it entirely.
func (s *BlogSettings) SetManifestDownloadInfo(ctx context.Context, info *model.ManifestDownloadInfo) error {
	p := s.path("Manifest")
	if info == nil {
		return s.store.UnsetSubtree(ctx, p)
	}
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.SetString(ctx, p, "SourceURL", info.SourceURL); err != nil {
			return err
		}
		if err := tx.SetTime(ctx, p, "Expires", info.Expires); err != nil {
			return err
		}
		if err := tx.SetTime(ctx, p, "LastModified", info.LastModified); err != nil {
			return err
		}
		return tx.SetString(ctx, p, "ETag", info.ETag)
	})
}

// Categories returns the cached category set. Older settings trees stored
// categories as bare names; those read back with the name doubling as id.
func (s *BlogSettings) Categories(ctx context.Context) ([]model.Category, error) {
	p := s.path("Categories")
	ids, err := s.store.Children(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		// Legacy layout: value names at the Categories path are the
		// category names themselves.
		names, err := s.store.Names(ctx, p)
		if err != nil {
			return nil, err
		}
		cats := make([]model.Category, 0, len(names))
		for _, n := range names {
			cats = append(cats, model.Category{ID: n, Name: n})
		}
		return cats, nil
	}

	cats := make([]model.Category, 0, len(ids))
	for _, id := range ids {
		cp := p + "/" + id
		name, err := s.store.GetString(ctx, cp, "Name", "")
		if err != nil {
			return nil, err
		}
		parent, err := s.store.GetString(ctx, cp, "Parent", "")
		if err != nil {
			return nil, err
		}
		cats = append(cats, model.Category{ID: id, Name: name, Parent: parent})
	}
	return cats, nil
}

// SetCategories replaces the cached category set atomically.
func (s *BlogSettings) SetCategories(ctx context.Context, cats []model.Category) error {
	p := s.path("Categories")
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.UnsetSubtree(ctx, p); err != nil {
			return err
		}
		for _, c := range cats {
			cp := p + "/" + c.ID
			if err := tx.SetString(ctx, cp, "Name", c.Name); err != nil {
				return err
			}
			if err := tx.SetString(ctx, cp, "Parent", c.Parent); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keywords returns the cached keyword set.
func (s *BlogSettings) Keywords(ctx context.Context) ([]model.Keyword, error) {
	names, err := s.store.Names(ctx, s.path("Keywords"))
	if err != nil {
		return nil, err
	}
	kws := make([]model.Keyword, 0, len(names))
	for _, n := range names {
		kws = append(kws, model.Keyword{Name: n})
	}
	return kws, nil
}

// SetKeywords replaces the cached keyword set atomically.
func (s *BlogSettings) SetKeywords(ctx context.Context, kws []model.Keyword) error {
	p := s.path("Keywords")
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.UnsetSubtree(ctx, p); err != nil {
			return err
		}
		for _, k := range kws {
			if err := tx.SetString(ctx, p, k.Name, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// Authors returns the cached author directory.
func (s *BlogSettings) Authors(ctx context.Context) ([]model.Author, error) {
	p := s.path("Authors")
	ids, err := s.store.Children(ctx, p)
	if err != nil {
		return nil, err
	}
	authors := make([]model.Author, 0, len(ids))
	for _, id := range ids {
		name, err := s.store.GetString(ctx, p+"/"+id, "Name", "")
		if err != nil {
			return nil, err
		}
		authors = append(authors, model.Author{ID: id, Name: name})
	}
	return authors, nil
}

// SetAuthors replaces the cached author directory atomically.
func (s *BlogSettings) SetAuthors(ctx context.Context, authors []model.Author) error {
	p := s.path("Authors")
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.UnsetSubtree(ctx, p); err != nil {
			return err
		}
		for _, a := range authors {
			if err := tx.SetString(ctx, p+"/"+a.ID, "Name", a.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Pages returns the cached static-page directory.
func (s *BlogSettings) Pages(ctx context.Context) ([]model.PageInfo, error) {
	p := s.path("Pages")
	ids, err := s.store.Children(ctx, p)
	if err != nil {
		return nil, err
	}
	pages := make([]model.PageInfo, 0, len(ids))
	for _, id := range ids {
		pp := p + "/" + id
		title, err := s.store.GetString(ctx, pp, "Title", "")
		if err != nil {
			return nil, err
		}
		published, err := s.store.GetTime(ctx, pp, "DatePublished", time.Time{})
		if err != nil {
			return nil, err
		}
		parent, err := s.store.GetString(ctx, pp, "ParentID", "")
		if err != nil {
			return nil, err
		}
		pages = append(pages, model.PageInfo{ID: id, Title: title, DatePublished: published, ParentID: parent})
	}
	return pages, nil
}

// SetPages replaces the cached static-page directory atomically.
func (s *BlogSettings) SetPages(ctx context.Context, pages []model.PageInfo) error {
	p := s.path("Pages")
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.UnsetSubtree(ctx, p); err != nil {
			return err
		}
		for _, pg := range pages {
			pp := p + "/" + pg.ID
			if err := tx.SetString(ctx, pp, "Title", pg.Title); err != nil {
				return err
			}
			if err := tx.SetTime(ctx, pp, "DatePublished", pg.DatePublished); err != nil {
				return err
			}
			if err := tx.SetString(ctx, pp, "ParentID", pg.ParentID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Buttons returns the provider toolbar buttons from the last applied
// manifest.
func (s *BlogSettings) Buttons(ctx context.Context) ([]model.ProviderButton, error) {
	p := s.path("Buttons")
	ids, err := s.store.Children(ctx, p)
	if err != nil {
		return nil, err
	}
	buttons := make([]model.ProviderButton, 0, len(ids))
	for _, id := range ids {
		bp := p + "/" + id
		b := model.ProviderButton{ID: id}
		if b.Description, err = s.store.GetString(ctx, bp, "Description", ""); err != nil {
			return nil, err
		}
		if b.ImageURL, err = s.store.GetString(ctx, bp, "ImageURL", ""); err != nil {
			return nil, err
		}
		if b.ClickURL, err = s.store.GetString(ctx, bp, "ClickURL", ""); err != nil {
			return nil, err
		}
		if b.ContentURL, err = s.store.GetString(ctx, bp, "ContentURL", ""); err != nil {
			return nil, err
		}
		if b.ContentDisplaySize, err = s.store.GetString(ctx, bp, "ContentDisplaySize", ""); err != nil {
			return nil, err
		}
		if b.NotificationURL, err = s.store.GetString(ctx, bp, "NotificationURL", ""); err != nil {
			return nil, err
		}
		buttons = append(buttons, b)
	}
	return buttons, nil
}

// SetButtons replaces the provider toolbar buttons atomically.
func (s *BlogSettings) SetButtons(ctx context.Context, buttons []model.ProviderButton) error {
	p := s.path("Buttons")
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.UnsetSubtree(ctx, p); err != nil {
			return err
		}
		for _, b := range buttons {
			bp := p + "/" + b.ID
			fields := map[string]string{
				"Description":        b.Description,
				"ImageURL":           b.ImageURL,
				"ClickURL":           b.ClickURL,
				"ContentURL":         b.ContentURL,
				"ContentDisplaySize": b.ContentDisplaySize,
				"NotificationURL":    b.NotificationURL,
			}
			for name, value := range fields {
				if err := tx.SetString(ctx, bp, name, value); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// OptionOverrides are provider-supplied option values from the publisher
// manifest.
func (s *BlogSettings) OptionOverrides(ctx context.Context) (map[string]string, error) {
	return s.overrideMap(ctx, "OptionOverrides")
}

func (s *BlogSettings) SetOptionOverrides(ctx context.Context, m map[string]string) error {
	return s.setOverrideMap(ctx, "OptionOverrides", m)
}

// HomepageOverrides are option values detected from the blog's homepage.
func (s *BlogSettings) HomepageOverrides(ctx context.Context) (map[string]string, error) {
	return s.overrideMap(ctx, "HomepageOverrides")
}

func (s *BlogSettings) SetHomepageOverrides(ctx context.Context, m map[string]string) error {
	return s.setOverrideMap(ctx, "HomepageOverrides", m)
}

// UserOptionOverrides are option values the user set by hand. They win over
// every other source.
func (s *BlogSettings) UserOptionOverrides(ctx context.Context) (map[string]string, error) {
	return s.overrideMap(ctx, "UserOptionOverrides")
}

func (s *BlogSettings) SetUserOptionOverrides(ctx context.Context, m map[string]string) error {
	return s.setOverrideMap(ctx, "UserOptionOverrides", m)
}

func (s *BlogSettings) overrideMap(ctx context.Context, sub string) (map[string]string, error) {
	p := s.path(sub)
	names, err := s.store.Names(ctx, p)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		v, err := s.store.GetString(ctx, p, n, "")
		if err != nil {
			return nil, err
		}
		m[n] = v
	}
	return m, nil
}

func (s *BlogSettings) setOverrideMap(ctx context.Context, sub string, m map[string]string) error {
	p := s.path(sub)
	return s.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		if err := tx.UnsetSubtree(ctx, p); err != nil {
			return err
		}
		for name, value := range m {
			if err := tx.SetString(ctx, p, name, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// OptionValue resolves a single option by precedence: user override, then
// manifest override, then homepage override. ok == false means no source
// defines the option and the client's built-in default applies.
func (s *BlogSettings) OptionValue(ctx context.Context, name string) (value string, ok bool, err error) {
	for _, sub := range []string{"UserOptionOverrides", "OptionOverrides", "HomepageOverrides"} {
		p := s.path(sub)
		names, err := s.store.Names(ctx, p)
		if err != nil {
			return "", false, err
		}
		for _, n := range names {
			if n == name {
				v, err := s.store.GetString(ctx, p, n, "")
				if err != nil {
					return "", false, err
				}
				return v, true, nil
			}
		}
	}
	return "", false, nil
}
