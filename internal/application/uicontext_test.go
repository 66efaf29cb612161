package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

func TestShowDialogWithoutScopeIsProgrammingError(t *testing.T) {
	ui := NewUIContext()

	_, err := ui.ShowDialog(context.Background(), CredentialsPrompt{})

	var pe *driven.ProgrammingError
	require.ErrorAs(t, err, &pe)
}

func TestShowDialogSilentModeDeclinesWithoutHost(t *testing.T) {
	ui := NewUIContext()
	host := &mockHost{result: CredentialsResult{OK: true}}
	scope := ui.Push(host, true)
	defer scope.Close()

	res, err := ui.ShowDialog(context.Background(), CredentialsPrompt{})

	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Empty(t, host.prompts, "silent mode must not reach the host")
}

func TestShowDialogDelegatesToActiveHost(t *testing.T) {
	ui := NewUIContext()
	host := &mockHost{result: CredentialsResult{OK: true, Username: "ada", Password: "s3cret"}}
	scope := ui.Push(host, false)
	defer scope.Close()

	res, err := ui.ShowDialog(context.Background(), CredentialsPrompt{Username: "seed"})

	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "ada", res.Username)
	require.Len(t, host.prompts, 1)
	assert.Equal(t, "seed", host.prompts[0].Username)
}

func TestNestedScopesRestoreOnClose(t *testing.T) {
	ui := NewUIContext()
	outer := &mockHost{result: CredentialsResult{OK: true, Username: "outer"}}
	inner := &mockHost{result: CredentialsResult{OK: true, Username: "inner"}}

	outerScope := ui.Push(outer, false)
	innerScope := ui.Push(inner, true)

	assert.True(t, ui.Silent(), "inner scope shadows the outer one")

	innerScope.Close()
	assert.False(t, ui.Silent())

	res, err := ui.ShowDialog(context.Background(), CredentialsPrompt{})
	require.NoError(t, err)
	assert.Equal(t, "outer", res.Username)

	outerScope.Close()
	_, err = ui.ShowDialog(context.Background(), CredentialsPrompt{})
	var pe *driven.ProgrammingError
	require.ErrorAs(t, err, &pe)
}

func TestScopeCloseIsIdempotent(t *testing.T) {
	ui := NewUIContext()
	outerScope := ui.Push(&mockHost{}, false)
	innerScope := ui.Push(&mockHost{}, true)

	innerScope.Close()
	innerScope.Close()

	assert.False(t, ui.Silent(), "double close must not pop the outer scope")
	outerScope.Close()
}

func TestChannelHostMarshalsToServeGoroutine(t *testing.T) {
	served := make(chan struct{})
	host := NewChannelHost(func(_ context.Context, prompt CredentialsPrompt) (CredentialsResult, error) {
		close(served)
		return CredentialsResult{OK: true, Username: prompt.Username + "!"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go host.Serve(ctx)

	res, err := host.ShowDialog(ctx, CredentialsPrompt{Username: "ada"})

	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "ada!", res.Username)
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("presentation callback never ran")
	}
}

func TestChannelHostShowDialogHonorsCancellation(t *testing.T) {
	host := NewChannelHost(func(context.Context, CredentialsPrompt) (CredentialsResult, error) {
		return CredentialsResult{}, nil
	})
	// No Serve goroutine: the send must give up when the context dies.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := host.ShowDialog(ctx, CredentialsPrompt{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
