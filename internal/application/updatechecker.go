package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// UpdateChecker keeps account settings in sync with each provider's
// publisher manifest. Checks are silent: nothing here may prompt, and a
// failed or unchanged check leaves the account exactly as it was.
type UpdateChecker struct {
	accounts *AccountManager
	source   driven.ManifestSource

	mu        sync.Mutex
	onChanged []func(accountID string)
}

// NewUpdateChecker wires a checker over the account directory and a
// manifest source.
func NewUpdateChecker(accounts *AccountManager, source driven.ManifestSource) *UpdateChecker {
	return &UpdateChecker{accounts: accounts, source: source}
}

// OnSettingsChanged registers a callback fired after a check applied a
// manifest that materially changed the account's settings. Refreshed cache
// validators alone do not count as a change.
func (c *UpdateChecker) OnSettingsChanged(fn func(accountID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChanged = append(c.onChanged, fn)
}

// CheckAccount fetches the account's publisher manifest if due and applies
// it. Accounts without a configured manifest, and manifests the source
// reports as unchanged, are a quiet no-op.
func (c *UpdateChecker) CheckAccount(ctx context.Context, accountID string) error {
	settings, err := c.accounts.Settings(accountID)
	if err != nil {
		return err
	}
	info, err := settings.ManifestDownloadInfo(ctx)
	if err != nil {
		return err
	}
	if info == nil || info.SourceURL == "" {
		return nil
	}

	before, err := manifestFingerprint(ctx, settings)
	if err != nil {
		return err
	}

	manifest, refreshed, err := c.source.Fetch(ctx, *info)
	if err != nil {
		if errors.Is(err, driven.ErrManifestNotModified) {
			return nil
		}
		return fmt.Errorf("fetch publisher manifest: %w", err)
	}

	if err := c.accounts.ApplyUpdates(ctx, accountID, manifest.Update(refreshed)); err != nil {
		return err
	}

	after, err := manifestFingerprint(ctx, settings)
	if err != nil {
		return err
	}
	if after != before {
		slog.Info("publisher manifest changed account settings", "account_id", accountID)
		c.mu.Lock()
		listeners := append([]func(string){}, c.onChanged...)
		c.mu.Unlock()
		for _, fn := range listeners {
			fn(accountID)
		}
	}
	return nil
}

// CheckAll runs CheckAccount over the whole directory. Individual failures
// are logged and do not stop the sweep.
func (c *UpdateChecker) CheckAll(ctx context.Context) {
	ids, err := c.accounts.AccountIDs(ctx)
	if err != nil {
		slog.Error("could not enumerate accounts for manifest check", "error", err)
		return
	}
	for _, id := range ids {
		if err := c.CheckAccount(ctx, id); err != nil {
			slog.Warn("manifest check failed", "account_id", id, "error", err)
		}
	}
}

// Start sweeps all accounts immediately and then on the given interval,
// until ctx is cancelled.
func (c *UpdateChecker) Start(ctx context.Context, interval time.Duration) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("manifest update checker stopped")
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// manifestFingerprint folds the manifest-controlled settings into one
// comparable string, deliberately excluding the download validators so a
// revalidated-but-identical manifest does not read as a change.
func manifestFingerprint(ctx context.Context, settings *BlogSettings) (string, error) {
	var sb strings.Builder

	clientType, err := settings.ClientType(ctx)
	if err != nil {
		return "", err
	}
	sb.WriteString("clientType=" + clientType + "\n")

	buttons, err := settings.Buttons(ctx)
	if err != nil {
		return "", err
	}
	for _, b := range buttons {
		fmt.Fprintf(&sb, "button=%s|%s|%s|%s|%s|%s|%s\n",
			b.ID, b.Description, b.ImageURL, b.ClickURL,
			b.ContentURL, b.ContentDisplaySize, b.NotificationURL)
	}

	for _, section := range []struct {
		label string
		load  func(context.Context) (map[string]string, error)
	}{
		{"option", settings.OptionOverrides},
		{"homepage", settings.HomepageOverrides},
	} {
		m, err := section.load(ctx)
		if err != nil {
			return "", err
		}
		names := make([]string, 0, len(m))
		for n := range m {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&sb, "%s:%s=%s\n", section.label, n, m[n])
		}
	}
	return sb.String(), nil
}
