package application

import (
	"context"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// Value names inside an account's Credentials subtree. Everything else
// stored there is a provider custom value.
const (
	credUsername = "Username"
	credPassword = "Password"
)

// CredentialsAccessor reads and writes the durable credential record of one
// account. The password travels through the persister's encrypted channel;
// custom values are provider-defined extras (API endpoints, realm hints)
// stored in clear.
type CredentialsAccessor struct {
	path  string
	store driven.SettingsPersister
}

// Username returns the stored username, or "".
func (c *CredentialsAccessor) Username(ctx context.Context) (string, error) {
	return c.store.GetString(ctx, c.path, credUsername, "")
}

// SetUsername stores the username.
func (c *CredentialsAccessor) SetUsername(ctx context.Context, username string) error {
	return c.store.SetString(ctx, c.path, credUsername, username)
}

// Password returns the stored password, or "" when absent or undecryptable.
func (c *CredentialsAccessor) Password(ctx context.Context) (string, error) {
	return c.store.GetEncryptedString(ctx, c.path, credPassword)
}

// SetPassword stores the password encrypted at rest.
func (c *CredentialsAccessor) SetPassword(ctx context.Context, password string) error {
	return c.store.SetEncryptedString(ctx, c.path, credPassword, password)
}

// CustomValue returns a provider-defined extra value, or "".
func (c *CredentialsAccessor) CustomValue(ctx context.Context, name string) (string, error) {
	return c.store.GetString(ctx, c.path, name, "")
}

// SetCustomValue stores a provider-defined extra value.
func (c *CredentialsAccessor) SetCustomValue(ctx context.Context, name, value string) error {
	return c.store.SetString(ctx, c.path, name, value)
}

// CustomValueNames lists the provider-defined extras currently stored,
// excluding the username and password slots.
func (c *CredentialsAccessor) CustomValueNames(ctx context.Context) ([]string, error) {
	names, err := c.store.Names(ctx, c.path)
	if err != nil {
		return nil, err
	}
	custom := names[:0]
	for _, n := range names {
		if n != credUsername && n != credPassword {
			custom = append(custom, n)
		}
	}
	return custom, nil
}

// Load reads the whole durable record at once.
func (c *CredentialsAccessor) Load(ctx context.Context) (*model.Credentials, error) {
	creds := &model.Credentials{CustomValues: make(map[string]string)}
	var err error
	if creds.Username, err = c.Username(ctx); err != nil {
		return nil, err
	}
	if creds.Password, err = c.Password(ctx); err != nil {
		return nil, err
	}
	names, err := c.CustomValueNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		v, err := c.CustomValue(ctx, n)
		if err != nil {
			return nil, err
		}
		creds.CustomValues[n] = v
	}
	return creds, nil
}

// Clear wipes the entire durable record: username, password, and every
// custom value present, whatever its name.
func (c *CredentialsAccessor) Clear(ctx context.Context) error {
	return c.store.Batch(ctx, func(tx driven.SettingsPersister) error {
		names, err := tx.Names(ctx, c.path)
		if err != nil {
			return err
		}
		for _, n := range names {
			if err := tx.Unset(ctx, c.path, n); err != nil {
				return err
			}
		}
		return nil
	})
}
