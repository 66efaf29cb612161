package driven

// ContentFilter is a named transform applied to post bodies. OpenFilter runs
// when a remote post is loaded for editing; PublishFilter runs on the wire
// path just before a create or edit call.
type ContentFilter interface {
	OpenFilter(content string) (string, error)
	PublishFilter(content string) (string, error)
}

// FilterRegistry resolves content filters by name. Lookup of an unknown name
// returns ok == false; callers skip the filter and record a diagnostic.
type FilterRegistry interface {
	Lookup(name string) (ContentFilter, bool)
}
