package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// BlogOperation is a unit of work run against an account's orchestrator.
type BlogOperation func(ctx context.Context, blog *Blog) (any, error)

// AsyncRunner executes blog operations with a hard time budget, for UI paths
// that want fresh data but must never hang: the result is the operation's
// value, or nil on any failure, cancellation, or timeout.
type AsyncRunner struct {
	accounts *AccountManager
	auth     *Authenticator
	factory  ClientFactory
	filters  driven.FilterRegistry
}

// NewAsyncRunner wires a runner over the account directory.
func NewAsyncRunner(accounts *AccountManager, auth *Authenticator, factory ClientFactory, filters driven.FilterRegistry) *AsyncRunner {
	return &AsyncRunner{accounts: accounts, auth: auth, factory: factory, filters: filters}
}

// Run executes op against the account's orchestrator, waiting at most
// timeout. On timeout the operation's context is cancelled and Run returns
// nil immediately without waiting for the worker to notice.
//
// verifyFirst makes the run conditional on a verified login; with silent
// mode active in the UI context that verification never prompts. Any
// non-verified outcome yields nil.
func (r *AsyncRunner) Run(ctx context.Context, accountID string, timeout time.Duration, verifyFirst bool, op BlogOperation) any {
	valid, err := r.accounts.IsValidAccount(ctx, accountID)
	if err != nil || !valid {
		return nil
	}
	settings, err := r.accounts.Settings(accountID)
	if err != nil {
		return nil
	}
	blog := NewBlog(settings, r.factory, r.filters)

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if verifyFirst {
		client, err := blog.clients.Get(opCtx)
		if err != nil {
			return nil
		}
		if result := r.auth.EnsureVerified(opCtx, settings, client); result.Status != LoginVerified {
			return nil
		}
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := op(opCtx, blog)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			slog.Debug("background blog operation failed",
				"account_id", accountID, "error", out.err)
			return nil
		}
		return out.value
	case <-opCtx.Done():
		slog.Debug("background blog operation abandoned",
			"account_id", accountID, "cause", opCtx.Err())
		return nil
	}
}
