package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

func TestEnsureVerifiedFastPathSkipsVerification(t *testing.T) {
	transients := NewTransientStore()
	existing := &model.TransientCredentials{Username: "ada", Token: "tok"}
	transients.Set(testAccountID, existing)

	verifyCalls := 0
	client := &mockClient{verifyFn: func(context.Context, *model.TransientCredentials) error {
		verifyCalls++
		return nil
	}}

	auth := NewAuthenticator(transients, NewUIContext())
	result := auth.EnsureVerified(context.Background(), newTestSettings(newMemStore()), client)

	assert.Equal(t, LoginVerified, result.Status)
	assert.Same(t, existing, result.Credentials)
	assert.Zero(t, verifyCalls)
}

func TestEnsureVerifiedSeedsFromDurableStore(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(newMemStore())
	require.NoError(t, settings.Credentials().SetUsername(ctx, "ada"))
	require.NoError(t, settings.Credentials().SetPassword(ctx, "s3cret"))

	var seen *model.TransientCredentials
	client := &mockClient{verifyFn: func(_ context.Context, tc *model.TransientCredentials) error {
		seen = tc
		tc.Token = "session-token"
		return nil
	}}

	transients := NewTransientStore()
	auth := NewAuthenticator(transients, NewUIContext())
	result := auth.EnsureVerified(ctx, settings, client)

	require.Equal(t, LoginVerified, result.Status)
	require.NotNil(t, seen)
	assert.Equal(t, "ada", seen.Username)
	assert.Equal(t, "s3cret", seen.Password)
	assert.Equal(t, "session-token", result.Credentials.Token)
	assert.Same(t, result.Credentials, transients.Get(testAccountID))
}

func TestEnsureVerifiedPromptsOnRejectionAndSavesChoice(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(newMemStore())
	require.NoError(t, settings.SetServiceName(ctx, "Field Notes Hosting"))
	require.NoError(t, settings.Credentials().SetUsername(ctx, "ada"))

	client := &mockClient{verifyFn: func(_ context.Context, tc *model.TransientCredentials) error {
		if tc.Password != "correct" {
			return driven.ErrAuthenticationFailed
		}
		return nil
	}}

	host := &mockHost{result: CredentialsResult{
		OK:       true,
		Username: "ada",
		Password: "correct",
		Save:     SaveUsernameAndPassword,
	}}
	ui := NewUIContext()
	scope := ui.Push(host, false)
	defer scope.Close()

	auth := NewAuthenticator(NewTransientStore(), ui)
	result := auth.EnsureVerified(ctx, settings, client)

	require.Equal(t, LoginVerified, result.Status)
	require.Len(t, host.prompts, 1)
	assert.Equal(t, "Field Notes Hosting", host.prompts[0].Domain.ServiceName)
	assert.Equal(t, "ada", host.prompts[0].Username, "prompt is pre-filled with the rejected values")

	password, err := settings.Credentials().Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "correct", password)
}

func TestEnsureVerifiedSaveNothingLeavesDurableUntouched(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(newMemStore())
	require.NoError(t, settings.Credentials().SetUsername(ctx, "ada"))

	client := &mockClient{verifyFn: func(_ context.Context, tc *model.TransientCredentials) error {
		if tc.Password == "" {
			return driven.ErrAuthenticationFailed
		}
		return nil
	}}

	host := &mockHost{result: CredentialsResult{OK: true, Username: "grace", Password: "pw", Save: SaveNothing}}
	ui := NewUIContext()
	scope := ui.Push(host, false)
	defer scope.Close()

	auth := NewAuthenticator(NewTransientStore(), ui)
	result := auth.EnsureVerified(ctx, settings, client)

	require.Equal(t, LoginVerified, result.Status)

	username, err := settings.Credentials().Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", username)
	password, err := settings.Credentials().Password(ctx)
	require.NoError(t, err)
	assert.Empty(t, password)
}

func TestEnsureVerifiedDeclinedPromptIsCancelled(t *testing.T) {
	settings := newTestSettings(newMemStore())
	client := &mockClient{verifyFn: func(context.Context, *model.TransientCredentials) error {
		return driven.ErrAuthenticationFailed
	}}

	host := &mockHost{result: CredentialsResult{OK: false}}
	ui := NewUIContext()
	scope := ui.Push(host, false)
	defer scope.Close()

	transients := NewTransientStore()
	auth := NewAuthenticator(transients, ui)
	result := auth.EnsureVerified(context.Background(), settings, client)

	assert.Equal(t, LoginCancelled, result.Status)
	assert.True(t, errors.Is(result.Error(), driven.ErrOperationCancelled))
	assert.Nil(t, transients.Get(testAccountID), "failed login leaves no transient credential behind")
}

func TestEnsureVerifiedSilentModeFailsAfterOneAttempt(t *testing.T) {
	settings := newTestSettings(newMemStore())

	verifyCalls := 0
	client := &mockClient{verifyFn: func(context.Context, *model.TransientCredentials) error {
		verifyCalls++
		return driven.ErrAuthenticationFailed
	}}

	host := &mockHost{result: CredentialsResult{OK: true}}
	ui := NewUIContext()
	scope := ui.Push(host, true)
	defer scope.Close()

	auth := NewAuthenticator(NewTransientStore(), ui)
	result := auth.EnsureVerified(context.Background(), settings, client)

	assert.Equal(t, LoginFailed, result.Status)
	assert.True(t, errors.Is(result.Err, driven.ErrAuthenticationFailed))
	assert.Equal(t, 1, verifyCalls, "silent mode gets exactly one attempt")
	assert.Empty(t, host.prompts)
}

func TestEnsureVerifiedPasswordRequiredPromptsBeforeVerifying(t *testing.T) {
	settings := newTestSettings(newMemStore())

	verifyCalls := 0
	client := &mockClient{
		options: driven.ClientOptions{PasswordRequired: true},
		verifyFn: func(_ context.Context, tc *model.TransientCredentials) error {
			verifyCalls++
			if tc.Password == "pw" {
				return nil
			}
			return driven.ErrAuthenticationFailed
		},
	}

	host := &mockHost{result: CredentialsResult{OK: true, Username: "ada", Password: "pw"}}
	ui := NewUIContext()
	scope := ui.Push(host, false)
	defer scope.Close()

	auth := NewAuthenticator(NewTransientStore(), ui)
	result := auth.EnsureVerified(context.Background(), settings, client)

	require.Equal(t, LoginVerified, result.Status)
	assert.Equal(t, 1, verifyCalls, "no doomed attempt before the prompt")
	assert.Len(t, host.prompts, 1)
}

func TestEnsureVerifiedPasswordRequiredSilentFailsWithoutWireCall(t *testing.T) {
	settings := newTestSettings(newMemStore())

	verifyCalls := 0
	client := &mockClient{
		options: driven.ClientOptions{PasswordRequired: true},
		verifyFn: func(context.Context, *model.TransientCredentials) error {
			verifyCalls++
			return nil
		},
	}

	ui := NewUIContext()
	scope := ui.Push(nil, true)
	defer scope.Close()

	auth := NewAuthenticator(NewTransientStore(), ui)
	result := auth.EnsureVerified(context.Background(), settings, client)

	assert.Equal(t, LoginFailed, result.Status)
	assert.Zero(t, verifyCalls)
}

func TestEnsureVerifiedVerificationCancelledPropagates(t *testing.T) {
	settings := newTestSettings(newMemStore())
	client := &mockClient{verifyFn: func(context.Context, *model.TransientCredentials) error {
		return driven.ErrOperationCancelled
	}}

	ui := NewUIContext()
	scope := ui.Push(&mockHost{}, false)
	defer scope.Close()

	auth := NewAuthenticator(NewTransientStore(), ui)
	result := auth.EnsureVerified(context.Background(), settings, client)

	assert.Equal(t, LoginCancelled, result.Status)
}
