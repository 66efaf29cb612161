package application

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// applyUpdatesLockPrefix namespaces the per-account settings lock shared by
// ApplyUpdates, Delete and any external caller that needs a consistent view
// of one account's tree.
const applyUpdatesLockPrefix = "ApplyUpdates/"

// AccountManager owns the account directory: which accounts exist, which one
// is the default, and the serialized application of externally-detected
// settings updates.
type AccountManager struct {
	store driven.SettingsPersister
	locks *LockRegistry

	mu        sync.Mutex
	onDeleted []func(accountID string)
}

// NewAccountManager creates a manager over the given settings backend.
func NewAccountManager(store driven.SettingsPersister) *AccountManager {
	return &AccountManager{store: store, locks: NewLockRegistry()}
}

// NewAccountID mints a fresh account id.
func NewAccountID() string {
	return uuid.NewString()
}

// normalizeAccountID validates the id's shape and canonicalizes its form.
// A malformed id is a caller bug, not a data condition.
func normalizeAccountID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", driven.Programmingf("malformed account id %q: %v", id, err)
	}
	return u.String(), nil
}

// Settings returns the typed settings view for the account. The id must be
// well-formed; the account need not exist yet (creating one starts with
// writes through this view).
func (m *AccountManager) Settings(id string) (*BlogSettings, error) {
	id, err := normalizeAccountID(id)
	if err != nil {
		return nil, err
	}
	return &BlogSettings{id: id, store: m.store}, nil
}

// IsValidAccount reports whether the id is well-formed and has settings
// stored. A malformed id reads as "not an account" here rather than failing,
// so directory scans tolerate junk.
func (m *AccountManager) IsValidAccount(ctx context.Context, id string) (bool, error) {
	normalized, err := normalizeAccountID(id)
	if err != nil {
		return false, nil
	}
	return m.store.HasSubtree(ctx, settingsRoot+"/"+normalized)
}

// AccountIDs lists every valid account id in the directory. Child trees that
// are not well-formed ids are skipped.
func (m *AccountManager) AccountIDs(ctx context.Context) ([]string, error) {
	children, err := m.store.Children(ctx, settingsRoot)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(children))
	for _, c := range children {
		if _, err := uuid.Parse(c); err != nil {
			continue
		}
		ids = append(ids, c)
	}
	return ids, nil
}

// Descriptors returns the directory entries for every account, sorted by
// display name.
func (m *AccountManager) Descriptors(ctx context.Context) ([]model.AccountDescriptor, error) {
	ids, err := m.AccountIDs(ctx)
	if err != nil {
		return nil, err
	}
	descriptors := make([]model.AccountDescriptor, 0, len(ids))
	for _, id := range ids {
		s := &BlogSettings{id: id, store: m.store}
		name, err := s.BlogName(ctx)
		if err != nil {
			return nil, err
		}
		homepage, err := s.HomepageURL(ctx)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, model.AccountDescriptor{ID: id, Name: name, HomepageURL: homepage})
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors, nil
}

// DefaultAccountID returns the id of the default account. A stored pointer
// to a deleted or malformed account self-heals: the first valid account
// becomes the default and is persisted, or "" when no accounts remain.
func (m *AccountManager) DefaultAccountID(ctx context.Context) (string, error) {
	stored, err := m.store.GetString(ctx, settingsRoot, nameDefaultAccount, "")
	if err != nil {
		return "", err
	}
	if stored != "" {
		valid, err := m.IsValidAccount(ctx, stored)
		if err != nil {
			return "", err
		}
		if valid {
			return stored, nil
		}
	}

	ids, err := m.AccountIDs(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		if stored != "" {
			if err := m.store.Unset(ctx, settingsRoot, nameDefaultAccount); err != nil {
				return "", err
			}
		}
		return "", nil
	}
	if err := m.store.SetString(ctx, settingsRoot, nameDefaultAccount, ids[0]); err != nil {
		return "", err
	}
	return ids[0], nil
}

// SetDefaultAccountID makes the given account the default. The account must
// exist.
func (m *AccountManager) SetDefaultAccountID(ctx context.Context, id string) error {
	valid, err := m.IsValidAccount(ctx, id)
	if err != nil {
		return err
	}
	if !valid {
		return driven.Programmingf("cannot set unknown account %q as default", id)
	}
	normalized, _ := normalizeAccountID(id)
	return m.store.SetString(ctx, settingsRoot, nameDefaultAccount, normalized)
}

// OnAccountDeleted registers a callback fired after an account's settings
// tree is removed. Callbacks run synchronously inside Delete.
func (m *AccountManager) OnAccountDeleted(fn func(accountID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeleted = append(m.onDeleted, fn)
}

// Delete removes the account's entire settings tree, credentials included,
// and clears the default pointer when it referenced the deleted account.
// Deleting an unknown account is a no-op.
func (m *AccountManager) Delete(ctx context.Context, id string) error {
	id, err := normalizeAccountID(id)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(applyUpdatesLockPrefix + id)
	defer unlock()

	has, err := m.store.HasSubtree(ctx, settingsRoot+"/"+id)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}

	if err := m.store.UnsetSubtree(ctx, settingsRoot+"/"+id); err != nil {
		return err
	}
	stored, err := m.store.GetString(ctx, settingsRoot, nameDefaultAccount, "")
	if err != nil {
		return err
	}
	if stored == id {
		if err := m.store.Unset(ctx, settingsRoot, nameDefaultAccount); err != nil {
			return err
		}
	}

	m.mu.Lock()
	listeners := append([]func(string){}, m.onDeleted...)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

// LockAccount serializes external work against one account's settings tree
// with the same lock ApplyUpdates and Delete take.
func (m *AccountManager) LockAccount(id string) func() {
	return m.locks.Lock(applyUpdatesLockPrefix + id)
}

// ApplyUpdates merges an externally-detected settings update into the
// account field by field, under the account's settings lock. Only non-nil
// fields are written; anything the update does not carry keeps its current
// value. Applying updates to a deleted account is an invariant violation.
func (m *AccountManager) ApplyUpdates(ctx context.Context, id string, update model.SettingsUpdate) error {
	id, err := normalizeAccountID(id)
	if err != nil {
		return err
	}

	unlock := m.locks.Lock(applyUpdatesLockPrefix + id)
	defer unlock()

	has, err := m.store.HasSubtree(ctx, settingsRoot+"/"+id)
	if err != nil {
		return err
	}
	if !has {
		return driven.Programmingf("apply updates to deleted account %s", id)
	}
	if update.IsEmpty() {
		return nil
	}

	s := &BlogSettings{id: id, store: m.store}
	if update.ManifestDownloadInfo != nil {
		if err := s.SetManifestDownloadInfo(ctx, update.ManifestDownloadInfo); err != nil {
			return err
		}
	}
	if update.ClientType != nil {
		if err := s.SetClientType(ctx, *update.ClientType); err != nil {
			return err
		}
	}
	if update.Categories != nil {
		if err := s.SetCategories(ctx, model.NormalizeParents(update.Categories)); err != nil {
			return err
		}
	}
	if update.Keywords != nil {
		if err := s.SetKeywords(ctx, update.Keywords); err != nil {
			return err
		}
	}
	if update.Buttons != nil {
		if err := s.SetButtons(ctx, update.Buttons); err != nil {
			return err
		}
	}
	if update.OptionOverrides != nil {
		if err := s.SetOptionOverrides(ctx, update.OptionOverrides); err != nil {
			return err
		}
	}
	if update.HomepageOverrides != nil {
		if err := s.SetHomepageOverrides(ctx, update.HomepageOverrides); err != nil {
			return err
		}
	}
	return nil
}
