package filter

import "github.com/microcosm-cc/bluemonday"

// SanitizeFilter strips unsafe HTML from the post body on the publish path
// using the bluemonday UGC policy. The open path is a no-op.
type SanitizeFilter struct {
	policy *bluemonday.Policy
}

// NewSanitizeFilter creates a sanitizer with the UGC policy.
func NewSanitizeFilter() *SanitizeFilter {
	return &SanitizeFilter{policy: bluemonday.UGCPolicy()}
}

// OpenFilter returns content unchanged.
func (f *SanitizeFilter) OpenFilter(content string) (string, error) {
	return content, nil
}

// PublishFilter removes unsafe markup from content.
func (f *SanitizeFilter) PublishFilter(content string) (string, error) {
	return f.policy.Sanitize(content), nil
}
