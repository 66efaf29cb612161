package application

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// Blog is the publishing orchestrator for one account. It owns the policy
// around the protocol client: content filtering on the wire path, the
// edit-to-create fallback, permalink synthesis, and the cached metadata
// refreshes. The wire work itself stays inside the client.
type Blog struct {
	settings *BlogSettings
	clients  *ClientProvider
	filters  driven.FilterRegistry
	now      func() time.Time
}

// NewBlog builds the orchestrator for an account.
func NewBlog(settings *BlogSettings, factory ClientFactory, filters driven.FilterRegistry) *Blog {
	return &Blog{
		settings: settings,
		clients:  NewClientProvider(settings, factory),
		filters:  filters,
		now:      time.Now,
	}
}

// ID returns the account id.
func (b *Blog) ID() string { return b.settings.ID() }

// Settings returns the account's settings view.
func (b *Blog) Settings() *BlogSettings { return b.settings }

// InvalidateClient drops the cached protocol client so the next operation
// rebuilds it from current settings.
func (b *Blog) InvalidateClient() {
	b.clients.Invalidate()
}

// Options returns the effective client option set.
func (b *Blog) Options(ctx context.Context) (driven.ClientOptions, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return driven.ClientOptions{}, err
	}
	return client.Options(), nil
}

// applyPublishFilters runs the client's configured publish filters over the
// post body and returns a restore function that puts the original body back.
// The post instance is shared with the editor, so the restore must run on
// every exit path of the publish operation.
//
// A filter that is unknown or fails is skipped with a diagnostic; filtering
// problems never sink an otherwise-good publish.
func (b *Blog) applyPublishFilters(post *model.Post, opts driven.ClientOptions) (restore func()) {
	original := post.Contents
	restore = func() { post.Contents = original }

	contents := original
	for _, name := range strings.Split(opts.ContentFilter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := b.filters.Lookup(name)
		if !ok {
			slog.Warn("unknown content filter, skipping", "filter", name, "account_id", b.ID())
			continue
		}
		filtered, err := f.PublishFilter(contents)
		if err != nil {
			slog.Warn("content filter failed, skipping", "filter", name, "account_id", b.ID(), "error", err)
			continue
		}
		contents = filtered
	}
	post.Contents = contents
	return restore
}

// applyOpenFilters transforms a freshly-fetched body for editing. Unlike the
// publish path the result is meant to stick, so no restore is involved.
func (b *Blog) applyOpenFilters(post *model.Post, opts driven.ClientOptions) {
	contents := post.Contents
	for _, name := range strings.Split(opts.ContentFilter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := b.filters.Lookup(name)
		if !ok {
			slog.Warn("unknown content filter, skipping", "filter", name, "account_id", b.ID())
			continue
		}
		opened, err := f.OpenFilter(contents)
		if err != nil {
			slog.Warn("content filter failed, skipping", "filter", name, "account_id", b.ID(), "error", err)
			continue
		}
		contents = opened
	}
	post.Contents = contents
}

// NewPost publishes the post (or page) as a new entry and returns the
// creation result. The post body is filtered for the wire and restored
// before returning; the last-publish-failed flag tracks the outcome.
func (b *Blog) NewPost(ctx context.Context, post *model.Post, publish bool) (*model.PostResult, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return nil, err
	}

	restore := b.applyPublishFilters(post, client.Options())
	defer restore()

	var result *model.PostResult
	if post.IsPage {
		result, err = client.NewPage(ctx, blogID, post, publish)
	} else {
		result, err = client.NewPost(ctx, blogID, post, publish)
	}
	if err != nil {
		b.recordPublishOutcome(ctx, true)
		return nil, err
	}
	b.recordPublishOutcome(ctx, false)
	b.stampResult(post, result)
	return result, nil
}

// EditPost updates an existing entry. When the service reports that the post
// id is no longer valid — matched against the client's configured fault
// patterns — the edit falls back to publishing a fresh entry, so a post
// deleted on the server side republishes instead of erroring.
func (b *Blog) EditPost(ctx context.Context, post *model.Post, publish bool) (*model.PostResult, error) {
	result, err := b.editPostOnce(ctx, post, publish)
	if err != nil {
		var pe *driven.ProviderError
		if errors.As(err, &pe) && b.errorIsInvalidPostID(ctx, pe) {
			slog.Info("post id rejected by service, publishing as new post",
				"account_id", b.ID(), "post_id", post.ID)
			return b.NewPost(ctx, post, publish)
		}
		return nil, err
	}
	return result, nil
}

func (b *Blog) editPostOnce(ctx context.Context, post *model.Post, publish bool) (*model.PostResult, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return nil, err
	}

	restore := b.applyPublishFilters(post, client.Options())
	defer restore()

	var result *model.PostResult
	if post.IsPage {
		result, err = client.EditPage(ctx, blogID, post, publish)
	} else {
		result, err = client.EditPost(ctx, blogID, post, publish)
	}
	if err != nil {
		// Provider faults may still resolve through the new-post
		// fallback, so they are not a publish failure yet.
		var pe *driven.ProviderError
		if !errors.As(err, &pe) {
			b.recordPublishOutcome(ctx, true)
		}
		return nil, err
	}
	b.recordPublishOutcome(ctx, false)
	if result.PostID == "" {
		result.PostID = post.ID
	}
	b.stampResult(post, result)
	return result, nil
}

// stampResult fills the result timestamp: the caller's override when
// present, otherwise client UTC time now. Server-supplied dates stay inside
// the raw remote document.
func (b *Blog) stampResult(post *model.Post, result *model.PostResult) {
	if post.HasDatePublishedOverride() {
		result.DatePublished = *post.DatePublishedOverride
		return
	}
	result.DatePublished = b.now().UTC()
}

func (b *Blog) recordPublishOutcome(ctx context.Context, failed bool) {
	if err := b.settings.SetLastPublishFailed(ctx, failed); err != nil {
		slog.Warn("could not record publish outcome", "account_id", b.ID(), "error", err)
	}
}

// errorIsInvalidPostID classifies a provider fault using the client's
// configured patterns. When both patterns are configured both must match;
// with only one configured that one decides; with none the fault is never an
// invalid-post-id. A pattern that does not compile counts as a non-match.
func (b *Blog) errorIsInvalidPostID(ctx context.Context, pe *driven.ProviderError) bool {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return false
	}
	opts := client.Options()
	if opts.InvalidPostIDFaultCodePattern == "" && opts.InvalidPostIDFaultStringPattern == "" {
		return false
	}
	if opts.InvalidPostIDFaultCodePattern != "" &&
		!matchFaultPattern(opts.InvalidPostIDFaultCodePattern, pe.FaultCode) {
		return false
	}
	if opts.InvalidPostIDFaultStringPattern != "" &&
		!matchFaultPattern(opts.InvalidPostIDFaultStringPattern, pe.FaultString) {
		return false
	}
	return true
}

func matchFaultPattern(pattern, value string) bool {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		slog.Warn("malformed invalid-post-id pattern", "pattern", pattern, "error", err)
		return false
	}
	return re.MatchString(value)
}

// GetPost fetches a post or page for editing: the body runs through the
// open-mode content filters and a missing permalink is synthesized.
func (b *Blog) GetPost(ctx context.Context, postID string, isPage bool) (*model.Post, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return nil, err
	}

	var post *model.Post
	if isPage {
		post, err = client.GetPage(ctx, blogID, postID)
	} else {
		post, err = client.GetPost(ctx, blogID, postID)
	}
	if err != nil {
		return nil, err
	}
	post.IsPage = isPage
	b.applyOpenFilters(post, client.Options())
	b.ensurePermalink(ctx, post, client.Options())
	return post, nil
}

// DeletePost removes a post or page from the service.
func (b *Blog) DeletePost(ctx context.Context, postID string, isPage, publish bool) error {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return err
	}
	if isPage {
		return client.DeletePage(ctx, blogID, postID)
	}
	return client.DeletePost(ctx, blogID, postID, publish)
}

// GetRecentPosts fetches the newest posts, post-processed the same way as a
// single fetch: open filters applied and permalinks ensured.
func (b *Blog) GetRecentPosts(ctx context.Context, maxPosts int) ([]*model.Post, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := client.GetRecentPosts(ctx, blogID, maxPosts)
	if err != nil {
		return nil, err
	}
	opts := client.Options()
	for _, p := range posts {
		b.applyOpenFilters(p, opts)
		b.ensurePermalink(ctx, p, opts)
	}
	return posts, nil
}

// GetPages fetches static pages, marked as pages and clamped to maxPages.
func (b *Blog) GetPages(ctx context.Context, maxPages int) ([]*model.Post, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !client.Options().SupportsPages {
		return nil, nil
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return nil, err
	}
	pages, err := client.GetPages(ctx, blogID, maxPages)
	if err != nil {
		return nil, err
	}
	if maxPages >= 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	opts := client.Options()
	for _, p := range pages {
		p.IsPage = true
		b.applyOpenFilters(p, opts)
		b.ensurePermalink(ctx, p, opts)
	}
	return pages, nil
}

// ensurePermalink fills an empty or relative permalink. An empty permalink
// is synthesized from the client's permalink pattern when one is configured;
// a relative permalink is resolved against the blog homepage. URL problems
// leave the permalink as the service sent it.
func (b *Blog) ensurePermalink(ctx context.Context, post *model.Post, opts driven.ClientOptions) {
	if post.Permalink == "" {
		if opts.PermalinkFormat == "" || post.ID == "" {
			return
		}
		link, err := b.formatURL(ctx, opts.PermalinkFormat, post.ID)
		if err != nil {
			slog.Debug("could not synthesize permalink", "account_id", b.ID(), "error", err)
			return
		}
		post.Permalink = link
		return
	}

	if u, err := url.Parse(post.Permalink); err != nil || u.IsAbs() {
		return
	}
	homepage, err := b.settings.HomepageURL(ctx)
	if err != nil || homepage == "" {
		return
	}
	base, err := url.Parse(homepage)
	if err != nil {
		slog.Debug("could not parse homepage url", "account_id", b.ID(), "error", err)
		return
	}
	ref, err := url.Parse(post.Permalink)
	if err != nil {
		return
	}
	post.Permalink = base.ResolveReference(ref).String()
}

// PostEditingURL returns the service's browser editing page for the post, or
// "" when the client has no editing URL pattern.
func (b *Blog) PostEditingURL(ctx context.Context, postID string) (string, error) {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return "", err
	}
	pattern := client.Options().PostEditingURL
	if pattern == "" {
		return "", nil
	}
	return b.formatURL(ctx, pattern, postID)
}

// formatURL substitutes the account tokens into a URL pattern.
func (b *Blog) formatURL(ctx context.Context, pattern, postID string) (string, error) {
	homepage, err := b.settings.HomepageURL(ctx)
	if err != nil {
		return "", err
	}
	postAPI, err := b.settings.PostAPIURL(ctx)
	if err != nil {
		return "", err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return "", err
	}
	return strings.NewReplacer(
		"{blog-homepage-url}", homepage,
		"{blog-postapi-url}", postAPI,
		"{blog-id}", blogID,
		"{post-id}", postID,
	).Replace(pattern), nil
}

// RefreshCategories re-fetches the category set into the settings cache.
// User cancellation of an embedded prompt degrades to "keep the cache".
func (b *Blog) RefreshCategories(ctx context.Context) error {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return err
	}
	if !client.Options().SupportsCategories {
		return nil
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return err
	}
	cats, err := client.GetCategories(ctx, blogID)
	if err != nil {
		if errors.Is(err, driven.ErrOperationCancelled) {
			return nil
		}
		return err
	}
	return b.settings.SetCategories(ctx, model.NormalizeParents(cats))
}

// RefreshKeywords re-fetches the keyword set into the settings cache.
func (b *Blog) RefreshKeywords(ctx context.Context) error {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return err
	}
	if !client.Options().SupportsKeywords {
		return nil
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return err
	}
	kws, err := client.GetKeywords(ctx, blogID)
	if err != nil {
		if errors.Is(err, driven.ErrOperationCancelled) {
			return nil
		}
		return err
	}
	return b.settings.SetKeywords(ctx, kws)
}

// RefreshAuthors re-fetches the author directory into the settings cache,
// sorted by display name.
func (b *Blog) RefreshAuthors(ctx context.Context) error {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return err
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return err
	}
	authors, err := client.GetAuthors(ctx, blogID)
	if err != nil {
		if errors.Is(err, driven.ErrOperationCancelled) {
			return nil
		}
		return err
	}
	model.SortAuthorsByName(authors)
	return b.settings.SetAuthors(ctx, authors)
}

// RefreshPageList re-fetches the static-page directory into the settings
// cache.
func (b *Blog) RefreshPageList(ctx context.Context) error {
	client, err := b.clients.Get(ctx)
	if err != nil {
		return err
	}
	if !client.Options().SupportsPages {
		return nil
	}
	blogID, err := b.settings.HostBlogID(ctx)
	if err != nil {
		return err
	}
	pages, err := client.GetPageList(ctx, blogID)
	if err != nil {
		if errors.Is(err, driven.ErrOperationCancelled) {
			return nil
		}
		return err
	}
	return b.settings.SetPages(ctx, pages)
}
