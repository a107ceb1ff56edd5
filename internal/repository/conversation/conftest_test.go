package conversation

import (
	"context"
	"testing"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	lists map[string][]string

	rpushFn  func(ctx context.Context, key string, values ...string) error
	lrangeFn func(ctx context.Context, key string, start, stop int64) ([]string, error)
}

func newMockStore() *mockStore {
	return &mockStore{lists: make(map[string][]string)}
}

func (m *mockStore) RPush(ctx context.Context, key string, values ...string) error {
	if m.rpushFn != nil {
		return m.rpushFn(ctx, key, values...)
	}
	m.lists[key] = append(m.lists[key], values...)
	return nil
}

func (m *mockStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	if m.lrangeFn != nil {
		return m.lrangeFn(ctx, key, start, stop)
	}
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if start > stop || start >= n {
		return nil, nil
	}
	if stop >= n {
		stop = n - 1
	}
	return list[start : stop+1], nil
}

func (m *mockStore) LLen(_ context.Context, key string) (int64, error) {
	return int64(len(m.lists[key])), nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.lists, key)
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms), ms
}
