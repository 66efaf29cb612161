package driven

import (
	"context"
	"time"
)

// SettingsPersister is the hierarchical key/value settings backend. Entries
// live at slash-separated tree paths ("weblogs/<id>/Credentials") and hold
// named scalar values. Getters return the supplied default when the value is
// absent or unparseable; malformed persisted values must never fail a read.
//
// Encrypted strings are stored opaque to callers; the adapter owns the
// cipher. GetEncryptedString returns "" for both "absent" and "cannot
// decrypt" — a stale or corrupt secret reads as empty, it does not error.
type SettingsPersister interface {
	GetString(ctx context.Context, path, name, def string) (string, error)
	SetString(ctx context.Context, path, name, value string) error

	GetBool(ctx context.Context, path, name string, def bool) (bool, error)
	SetBool(ctx context.Context, path, name string, value bool) error

	GetInt(ctx context.Context, path, name string, def int) (int, error)
	SetInt(ctx context.Context, path, name string, value int) error

	GetTime(ctx context.Context, path, name string, def time.Time) (time.Time, error)
	SetTime(ctx context.Context, path, name string, value time.Time) error

	GetBytes(ctx context.Context, path, name string) ([]byte, error)
	SetBytes(ctx context.Context, path, name string, value []byte) error

	GetEncryptedString(ctx context.Context, path, name string) (string, error)
	SetEncryptedString(ctx context.Context, path, name, value string) error

	// Unset removes a single named value; removing an absent value is a no-op.
	Unset(ctx context.Context, path, name string) error

	// Names enumerates the value names stored directly at path.
	Names(ctx context.Context, path string) ([]string, error)

	// Children enumerates the immediate child tree names under path.
	Children(ctx context.Context, path string) ([]string, error)

	// HasSubtree reports whether anything at all is stored at or under path.
	HasSubtree(ctx context.Context, path string) (bool, error)

	// UnsetSubtree atomically removes every value at or under path.
	UnsetSubtree(ctx context.Context, path string) error

	// Batch runs fn against a persister whose writes commit as one unit.
	// Reads inside fn observe the batch's own writes.
	Batch(ctx context.Context, fn func(SettingsPersister) error) error
}
