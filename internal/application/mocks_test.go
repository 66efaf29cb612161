package application

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
	"github.com/inkpad-dev/inkpad/internal/domain/port/driven"
)

// --- In-memory settings persister ---

// memStore is an in-memory SettingsPersister for service tests. Values are
// stored as strings the same way the real adapter stores them; "encrypted"
// values are only marked, not ciphered.
type memStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]map[string]string)}
}

func (s *memStore) get(path, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.data[path]
	if !ok {
		return "", false
	}
	v, ok := values[name]
	return v, ok
}

func (s *memStore) set(path, name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.data[path]
	if !ok {
		values = make(map[string]string)
		s.data[path] = values
	}
	values[name] = value
}

func (s *memStore) GetString(_ context.Context, path, name, def string) (string, error) {
	if v, ok := s.get(path, name); ok {
		return v, nil
	}
	return def, nil
}

func (s *memStore) SetString(_ context.Context, path, name, value string) error {
	s.set(path, name, value)
	return nil
}

func (s *memStore) GetBool(_ context.Context, path, name string, def bool) (bool, error) {
	if v, ok := s.get(path, name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
	}
	return def, nil
}

func (s *memStore) SetBool(_ context.Context, path, name string, value bool) error {
	s.set(path, name, strconv.FormatBool(value))
	return nil
}

func (s *memStore) GetInt(_ context.Context, path, name string, def int) (int, error) {
	if v, ok := s.get(path, name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
	}
	return def, nil
}

func (s *memStore) SetInt(_ context.Context, path, name string, value int) error {
	s.set(path, name, strconv.Itoa(value))
	return nil
}

func (s *memStore) GetTime(_ context.Context, path, name string, def time.Time) (time.Time, error) {
	if v, ok := s.get(path, name); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t, nil
		}
	}
	return def, nil
}

func (s *memStore) SetTime(_ context.Context, path, name string, value time.Time) error {
	s.set(path, name, value.UTC().Format(time.RFC3339Nano))
	return nil
}

func (s *memStore) GetBytes(_ context.Context, path, name string) ([]byte, error) {
	if v, ok := s.get(path, name); ok {
		return []byte(v), nil
	}
	return nil, nil
}

func (s *memStore) SetBytes(ctx context.Context, path, name string, value []byte) error {
	if value == nil {
		return s.Unset(ctx, path, name)
	}
	s.set(path, name, string(value))
	return nil
}

func (s *memStore) GetEncryptedString(_ context.Context, path, name string) (string, error) {
	v, _ := s.get(path, name)
	return v, nil
}

func (s *memStore) SetEncryptedString(_ context.Context, path, name, value string) error {
	s.set(path, name, value)
	return nil
}

func (s *memStore) Unset(_ context.Context, path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if values, ok := s.data[path]; ok {
		delete(values, name)
		if len(values) == 0 {
			delete(s.data, path)
		}
	}
	return nil
}

func (s *memStore) Names(_ context.Context, path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0)
	for n := range s.data[path] {
		names = append(names, n)
	}
	return names, nil
}

func (s *memStore) Children(_ context.Context, path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := path + "/"
	seen := make(map[string]bool)
	children := make([]string, 0)
	for p := range s.data {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		child := strings.SplitN(strings.TrimPrefix(p, prefix), "/", 2)[0]
		if !seen[child] {
			seen[child] = true
			children = append(children, child)
		}
	}
	return children, nil
}

func (s *memStore) HasSubtree(_ context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data[path]) > 0 {
		return true, nil
	}
	prefix := path + "/"
	for p := range s.data {
		if strings.HasPrefix(p, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) UnsetSubtree(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
	prefix := path + "/"
	for p := range s.data {
		if strings.HasPrefix(p, prefix) {
			delete(s.data, p)
		}
	}
	return nil
}

func (s *memStore) Batch(_ context.Context, fn func(driven.SettingsPersister) error) error {
	return fn(s)
}

var _ driven.SettingsPersister = (*memStore)(nil)

// --- Mock protocol client ---

// mockClient is a configurable ProtocolClient. Unset function fields make
// the corresponding call fail the invariant loudly via nil dereference, so
// tests only stub what they expect to be called.
type mockClient struct {
	options driven.ClientOptions

	verifyFn func(ctx context.Context, tc *model.TransientCredentials) error

	newPostFn  func(ctx context.Context, blogID string, post *model.Post, publish bool) (*model.PostResult, error)
	editPostFn func(ctx context.Context, blogID string, post *model.Post, publish bool) (*model.PostResult, error)
	newPageFn  func(ctx context.Context, blogID string, page *model.Post, publish bool) (*model.PostResult, error)
	editPageFn func(ctx context.Context, blogID string, page *model.Post, publish bool) (*model.PostResult, error)

	getPostFn    func(ctx context.Context, blogID, postID string) (*model.Post, error)
	getPageFn    func(ctx context.Context, blogID, pageID string) (*model.Post, error)
	deletePostFn func(ctx context.Context, blogID, postID string, publish bool) error
	deletePageFn func(ctx context.Context, blogID, pageID string) error

	recentPostsFn func(ctx context.Context, blogID string, max int) ([]*model.Post, error)
	getPagesFn    func(ctx context.Context, blogID string, max int) ([]*model.Post, error)
	categoriesFn  func(ctx context.Context, blogID string) ([]model.Category, error)
	keywordsFn    func(ctx context.Context, blogID string) ([]model.Keyword, error)
	authorsFn     func(ctx context.Context, blogID string) ([]model.Author, error)
	pageListFn    func(ctx context.Context, blogID string) ([]model.PageInfo, error)
}

func (m *mockClient) Options() driven.ClientOptions { return m.options }

func (m *mockClient) VerifyCredentials(ctx context.Context, tc *model.TransientCredentials) error {
	return m.verifyFn(ctx, tc)
}

func (m *mockClient) NewPost(ctx context.Context, blogID string, post *model.Post, publish bool) (*model.PostResult, error) {
	return m.newPostFn(ctx, blogID, post, publish)
}

func (m *mockClient) EditPost(ctx context.Context, blogID string, post *model.Post, publish bool) (*model.PostResult, error) {
	return m.editPostFn(ctx, blogID, post, publish)
}

func (m *mockClient) NewPage(ctx context.Context, blogID string, page *model.Post, publish bool) (*model.PostResult, error) {
	return m.newPageFn(ctx, blogID, page, publish)
}

func (m *mockClient) EditPage(ctx context.Context, blogID string, page *model.Post, publish bool) (*model.PostResult, error) {
	return m.editPageFn(ctx, blogID, page, publish)
}

func (m *mockClient) GetPost(ctx context.Context, blogID, postID string) (*model.Post, error) {
	return m.getPostFn(ctx, blogID, postID)
}

func (m *mockClient) GetPage(ctx context.Context, blogID, pageID string) (*model.Post, error) {
	return m.getPageFn(ctx, blogID, pageID)
}

func (m *mockClient) DeletePost(ctx context.Context, blogID, postID string, publish bool) error {
	return m.deletePostFn(ctx, blogID, postID, publish)
}

func (m *mockClient) DeletePage(ctx context.Context, blogID, pageID string) error {
	return m.deletePageFn(ctx, blogID, pageID)
}

func (m *mockClient) GetRecentPosts(ctx context.Context, blogID string, max int) ([]*model.Post, error) {
	return m.recentPostsFn(ctx, blogID, max)
}

func (m *mockClient) GetPages(ctx context.Context, blogID string, max int) ([]*model.Post, error) {
	return m.getPagesFn(ctx, blogID, max)
}

func (m *mockClient) GetCategories(ctx context.Context, blogID string) ([]model.Category, error) {
	return m.categoriesFn(ctx, blogID)
}

func (m *mockClient) GetKeywords(ctx context.Context, blogID string) ([]model.Keyword, error) {
	return m.keywordsFn(ctx, blogID)
}

func (m *mockClient) GetAuthors(ctx context.Context, blogID string) ([]model.Author, error) {
	return m.authorsFn(ctx, blogID)
}

func (m *mockClient) GetPageList(ctx context.Context, blogID string) ([]model.PageInfo, error) {
	return m.pageListFn(ctx, blogID)
}

var _ driven.ProtocolClient = (*mockClient)(nil)

// --- Mock dialog host ---

// mockHost answers every prompt with a fixed result and records what it was
// asked.
type mockHost struct {
	result  CredentialsResult
	err     error
	prompts []CredentialsPrompt
}

func (h *mockHost) ShowDialog(_ context.Context, prompt CredentialsPrompt) (CredentialsResult, error) {
	h.prompts = append(h.prompts, prompt)
	return h.result, h.err
}

// --- Mock filter registry ---

type funcFilter struct {
	open    func(string) (string, error)
	publish func(string) (string, error)
}

func (f funcFilter) OpenFilter(content string) (string, error) {
	if f.open == nil {
		return content, nil
	}
	return f.open(content)
}

func (f funcFilter) PublishFilter(content string) (string, error) {
	if f.publish == nil {
		return content, nil
	}
	return f.publish(content)
}

type mapRegistry map[string]driven.ContentFilter

func (r mapRegistry) Lookup(name string) (driven.ContentFilter, bool) {
	f, ok := r[name]
	return f, ok
}

// --- Shared helpers ---

const testAccountID = "7f0c2d4e-9a1b-4c3d-8e5f-0123456789ab"

func newTestSettings(store driven.SettingsPersister) *BlogSettings {
	return &BlogSettings{id: testAccountID, store: store}
}

func seedAccount(ctx context.Context, store driven.SettingsPersister, id, name string) {
	_ = store.SetString(ctx, settingsRoot+"/"+id, nameBlogName, name)
}

func staticFactory(client driven.ProtocolClient) ClientFactory {
	return func(context.Context, *BlogSettings) (driven.ProtocolClient, error) {
		return client, nil
	}
}
