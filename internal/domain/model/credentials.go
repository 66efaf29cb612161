package model

import "time"

// CredentialsDomain describes the account a prompt is about, so a dialog can
// say which service and blog the user is entering a password for.
type CredentialsDomain struct {
	ServiceName string
	BlogName    string
}

// Credentials is the durable credential record for one account. Only
// Username, Password and CustomValues are persisted; Password is encrypted
// at rest by the settings adapter.
type Credentials struct {
	Username     string
	Password     string
	CustomValues map[string]string
	Domain       CredentialsDomain
}

// TransientCredentials is a process-memory-only verified credential, keyed
// by account id in the shared session. It must never reach durable storage.
// Token carries whatever opaque state the protocol client established during
// verification (an auth token, a cookie jar, a service document URL).
type TransientCredentials struct {
	Username string
	Password string
	Token    any
}

// ManifestDownloadInfo records where an account's publisher manifest lives
// and the cache validators from the last successful download.
type ManifestDownloadInfo struct {
	SourceURL    string
	Expires      time.Time
	LastModified time.Time
	ETag         string
}
