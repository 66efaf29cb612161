package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// LoginStatus tags the outcome of a login attempt.
type LoginStatus int

const (
	// LoginVerified means the credentials were accepted and stored in the
	// transient session.
	LoginVerified LoginStatus = iota
	// LoginCancelled means the user declined the prompt, or silent mode
	// suppressed it.
	LoginCancelled
	// LoginFailed means verification failed and no further prompt was
	// possible.
	LoginFailed
)

// LoginResult is the tagged outcome of EnsureVerified. Credentials is
// non-nil only when Status is LoginVerified. Err carries the underlying
// failure for LoginFailed, or a *driven.ProgrammingError when the login flow
// itself was misused.
type LoginResult struct {
	Status      LoginStatus
	Credentials *model.TransientCredentials
	Err         error
}

// Error folds the result into the error taxonomy for callers that only
// propagate: nil when verified, ErrOperationCancelled when cancelled, the
// underlying error otherwise.
func (r LoginResult) Error() error {
	switch r.Status {
	case LoginVerified:
		return nil
	case LoginCancelled:
		return driven.ErrOperationCancelled
	default:
		if r.Err != nil {
			return r.Err
		}
		return driven.ErrAuthenticationFailed
	}
}

// Authenticator runs the interactive login flow: verify what is stored,
// prompt when that fails, and keep the verified result in the transient
// session so the rest of the session never asks again.
type Authenticator struct {
	transients *TransientStore
	ui         *UIContext
}

// NewAuthenticator wires the login flow to a credential session and a UI
// context.
func NewAuthenticator(transients *TransientStore, ui *UIContext) *Authenticator {
	return &Authenticator{transients: transients, ui: ui}
}

// EnsureVerified makes sure the account has verified transient credentials,
// prompting through the UI context as needed.
//
// An already-verified session credential is returned as-is with no wire
// call. Otherwise the flow seeds working credentials from the durable store,
// verifies, and on rejection prompts and retries until the client accepts,
// the user declines, or silent mode cuts the loop after the first failure.
// Whatever transient credential the session held going in is restored on
// every exit path; only a verified outcome replaces it.
func (a *Authenticator) EnsureVerified(ctx context.Context, settings *BlogSettings, client driven.ProtocolClient) LoginResult {
	accountID := settings.ID()

	if tc := a.transients.Get(accountID); tc != nil {
		return LoginResult{Status: LoginVerified, Credentials: tc}
	}

	result := a.login(ctx, accountID, settings, client)
	if result.Status == LoginVerified {
		a.transients.Set(accountID, result.Credentials)
	}
	return result
}

func (a *Authenticator) login(ctx context.Context, accountID string, settings *BlogSettings, client driven.ProtocolClient) LoginResult {
	previous := a.transients.Get(accountID)
	defer a.transients.Set(accountID, previous)

	durable := settings.Credentials()
	username, err := durable.Username(ctx)
	if err != nil {
		return LoginResult{Status: LoginFailed, Err: err}
	}
	password, err := durable.Password(ctx)
	if err != nil {
		return LoginResult{Status: LoginFailed, Err: err}
	}
	working := &model.TransientCredentials{Username: username, Password: password}

	// A client that cannot verify without a password would turn the first
	// attempt into a guaranteed failure, so prompt straight away. In silent
	// mode no prompt is possible either, which makes the outcome a plain
	// authentication failure with no wire call at all.
	skipVerify := false
	if client.Options().PasswordRequired && working.Password == "" {
		if a.ui.Silent() {
			return LoginResult{Status: LoginFailed, Err: driven.ErrAuthenticationFailed}
		}
		skipVerify = true
	}

	prompted := false
	save := SaveNothing
	for {
		if !skipVerify {
			a.transients.Set(accountID, working)
			verifyErr := client.VerifyCredentials(ctx, working)
			if verifyErr == nil {
				if prompted {
					if err := a.persistPromptChoice(ctx, durable, working, save); err != nil {
						slog.Warn("could not persist credentials after login",
							"account_id", accountID, "error", err)
					}
				}
				return LoginResult{Status: LoginVerified, Credentials: working}
			}
			if errors.Is(verifyErr, driven.ErrOperationCancelled) {
				return LoginResult{Status: LoginCancelled}
			}
			if a.ui.Silent() {
				return LoginResult{Status: LoginFailed, Err: verifyErr}
			}
			slog.Info("credential verification failed, prompting",
				"account_id", accountID, "error", verifyErr)
		}
		skipVerify = false

		domain, err := settings.CredentialsDomain(ctx)
		if err != nil {
			return LoginResult{Status: LoginFailed, Err: err}
		}
		res, err := a.ui.ShowDialog(ctx, CredentialsPrompt{
			Domain:   domain,
			Username: working.Username,
			Password: working.Password,
		})
		if err != nil {
			return LoginResult{Status: LoginFailed, Err: err}
		}
		if !res.OK {
			return LoginResult{Status: LoginCancelled}
		}
		working = &model.TransientCredentials{Username: res.Username, Password: res.Password}
		prompted = true
		save = res.Save
	}
}

// persistPromptChoice writes back what the user asked to save. Nothing is
// ever saved without an explicit choice from the prompt.
func (a *Authenticator) persistPromptChoice(ctx context.Context, durable *CredentialsAccessor, tc *model.TransientCredentials, save PromptSave) error {
	switch save {
	case SaveUsername:
		return durable.SetUsername(ctx, tc.Username)
	case SaveUsernameAndPassword:
		if err := durable.SetUsername(ctx, tc.Username); err != nil {
			return err
		}
		return durable.SetPassword(ctx, tc.Password)
	default:
		return nil
	}
}
