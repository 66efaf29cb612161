package driven

import (
	"context"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
)

// ClientOptions is the merged option set a protocol client operates under.
// The orchestrator reads the fields that drive its own policy decisions;
// everything else stays inside the client.
type ClientOptions struct {
	ServiceName   string
	ContentFilter string // comma-separated filter names, empty entries skipped

	// Permalink and editing URL patterns. Patterns may contain the tokens
	// {blog-homepage-url}, {blog-postapi-url}, {blog-id} and {post-id}.
	PermalinkFormat string
	PostEditingURL  string

	// Fault patterns (regular expressions, case-insensitive) classifying a
	// provider fault as "this post id is invalid". Empty means unconfigured.
	InvalidPostIDFaultCodePattern   string
	InvalidPostIDFaultStringPattern string

	// PasswordRequired means verification is pointless without a password,
	// so the login flow prompts before making a guaranteed-failing call.
	PasswordRequired bool

	SupportsPages      bool
	SupportsCategories bool
	SupportsKeywords   bool
}

// ProtocolClient is the wire-protocol port. Implementations build the actual
// XML-RPC/Atom/MetaWeblog requests; the core only orchestrates around them.
// Failures are reported through the driven package's error taxonomy: *ProviderError
// for server faults, *TransportError for connectivity, ErrOperationCancelled
// when an embedded prompt was declined.
type ProtocolClient interface {
	// Options returns the client's effective option set.
	Options() ClientOptions

	// VerifyCredentials performs a round trip proving the transient
	// credentials are accepted, and may attach an opaque token to them.
	VerifyCredentials(ctx context.Context, tc *model.TransientCredentials) error

	NewPost(ctx context.Context, blogID string, post *model.Post, publish bool) (*model.PostResult, error)
	EditPost(ctx context.Context, blogID string, post *model.Post, publish bool) (*model.PostResult, error)
	NewPage(ctx context.Context, blogID string, page *model.Post, publish bool) (*model.PostResult, error)
	EditPage(ctx context.Context, blogID string, page *model.Post, publish bool) (*model.PostResult, error)

	GetPost(ctx context.Context, blogID, postID string) (*model.Post, error)
	GetPage(ctx context.Context, blogID, pageID string) (*model.Post, error)
	DeletePost(ctx context.Context, blogID, postID string, publish bool) error
	DeletePage(ctx context.Context, blogID, pageID string) error

	GetRecentPosts(ctx context.Context, blogID string, maxPosts int) ([]*model.Post, error)
	GetPages(ctx context.Context, blogID string, maxPages int) ([]*model.Post, error)
	GetCategories(ctx context.Context, blogID string) ([]model.Category, error)
	GetKeywords(ctx context.Context, blogID string) ([]model.Keyword, error)
	GetAuthors(ctx context.Context, blogID string) ([]model.Author, error)
	GetPageList(ctx context.Context, blogID string) ([]model.PageInfo, error)
}
