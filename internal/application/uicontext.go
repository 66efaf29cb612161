package application

import (
	"context"
	"sync"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// PromptSave says what, if anything, the user asked to persist after a
// successful login from a credentials prompt.
type PromptSave int

const (
	// SaveNothing leaves the durable credential record untouched.
	SaveNothing PromptSave = iota
	// SaveUsername persists the entered username only.
	SaveUsername
	// SaveUsernameAndPassword persists both entered values.
	SaveUsernameAndPassword
)

// CredentialsPrompt is the request shown to the user when stored credentials
// are missing or rejected. Username and Password carry the current values so
// the dialog can pre-fill them.
type CredentialsPrompt struct {
	Domain   model.CredentialsDomain
	Username string
	Password string
}

// CredentialsResult is the user's answer. OK == false means the prompt was
// declined or dismissed.
type CredentialsResult struct {
	OK       bool
	Username string
	Password string
	Save     PromptSave
}

// DialogHost presents credential prompts. Implementations decide where and
// how the prompt appears; the login flow only sees the result.
type DialogHost interface {
	ShowDialog(ctx context.Context, prompt CredentialsPrompt) (CredentialsResult, error)
}

type uiFrame struct {
	host   DialogHost
	silent bool
}

// UIContext tracks which dialog host, if any, a unit of work may prompt
// through, plus whether the work runs silently. Scopes nest: pushing a new
// frame shadows the previous one, and closing it restores the previous one.
// Each concurrent flow carries its own UIContext; the zero stack means
// "prompting here is a bug".
type UIContext struct {
	mu    sync.Mutex
	stack []*uiFrame
}

// NewUIContext creates a context with no active scope.
func NewUIContext() *UIContext {
	return &UIContext{}
}

// UIScope is an active dialog-host registration. Close it (typically with
// defer) to restore whatever scope was active before.
type UIScope struct {
	ctx   *UIContext
	frame *uiFrame
	once  sync.Once
}

// Push makes host the active dialog host until the returned scope is closed.
// A nil host with silent == true is the usual way to force a background
// operation to never prompt.
func (c *UIContext) Push(host DialogHost, silent bool) *UIScope {
	f := &uiFrame{host: host, silent: silent}
	c.mu.Lock()
	c.stack = append(c.stack, f)
	c.mu.Unlock()
	return &UIScope{ctx: c, frame: f}
}

// Close removes the scope's frame and restores the previously active one.
// Closing twice is a no-op.
func (s *UIScope) Close() {
	s.once.Do(func() {
		s.ctx.mu.Lock()
		defer s.ctx.mu.Unlock()
		for i := len(s.ctx.stack) - 1; i >= 0; i-- {
			if s.ctx.stack[i] == s.frame {
				s.ctx.stack = append(s.ctx.stack[:i], s.ctx.stack[i+1:]...)
				return
			}
		}
	})
}

// Silent reports whether the active scope runs in silent mode. With no
// active scope it returns false; callers reach ShowDialog's missing-scope
// check before silence matters.
func (c *UIContext) Silent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return false
	}
	return c.stack[len(c.stack)-1].silent
}

// ShowDialog presents a credentials prompt through the active scope. In
// silent mode it returns a declined result without involving any host.
// Calling with no active scope is an invariant violation and returns a
// *driven.ProgrammingError.
func (c *UIContext) ShowDialog(ctx context.Context, prompt CredentialsPrompt) (CredentialsResult, error) {
	c.mu.Lock()
	if len(c.stack) == 0 {
		c.mu.Unlock()
		return CredentialsResult{}, driven.Programmingf("credentials prompt requested with no active UI scope")
	}
	top := c.stack[len(c.stack)-1]
	c.mu.Unlock()

	if top.silent {
		return CredentialsResult{OK: false}, nil
	}
	if top.host == nil {
		return CredentialsResult{}, driven.Programmingf("non-silent UI scope has no dialog host")
	}
	return top.host.ShowDialog(ctx, prompt)
}

type dialogCall struct {
	ctx    context.Context
	prompt CredentialsPrompt
	reply  chan dialogReply
}

type dialogReply struct {
	result CredentialsResult
	err    error
}

// ChannelHost funnels every prompt onto the single goroutine running Serve,
// so a UI loop that must own all presentation work can service prompts
// raised from worker goroutines.
type ChannelHost struct {
	calls   chan dialogCall
	present func(ctx context.Context, prompt CredentialsPrompt) (CredentialsResult, error)
}

// NewChannelHost wraps a presentation callback that is only safe to run on
// the goroutine that calls Serve.
func NewChannelHost(present func(ctx context.Context, prompt CredentialsPrompt) (CredentialsResult, error)) *ChannelHost {
	return &ChannelHost{
		calls:   make(chan dialogCall),
		present: present,
	}
}

// Serve services prompt requests until ctx is cancelled. It must run on the
// goroutine that owns the presentation callback.
func (h *ChannelHost) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case call := <-h.calls:
			result, err := h.present(call.ctx, call.prompt)
			call.reply <- dialogReply{result: result, err: err}
		}
	}
}

// ShowDialog marshals the prompt to the Serve goroutine and blocks until it
// answers or ctx is cancelled.
func (h *ChannelHost) ShowDialog(ctx context.Context, prompt CredentialsPrompt) (CredentialsResult, error) {
	call := dialogCall{ctx: ctx, prompt: prompt, reply: make(chan dialogReply, 1)}
	select {
	case h.calls <- call:
	case <-ctx.Done():
		return CredentialsResult{}, ctx.Err()
	}
	select {
	case r := <-call.reply:
		return r.result, r.err
	case <-ctx.Done():
		return CredentialsResult{}, ctx.Err()
	}
}

var _ DialogHost = (*ChannelHost)(nil)
