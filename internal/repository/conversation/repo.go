// Package conversation persists per-course, per-user dialogue history in
// append-only lists.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ellie-edu/ellie/internal/domain"
)

// store is the consumer interface for conversation logs (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, key string) error
}

// Repo implements the conversation contracts of the answer usecase.
type Repo struct {
	store store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a conversation repository.
func New(s store) *Repo {
	return &Repo{store: s, locks: make(map[string]*sync.Mutex)}
}

func listKey(courseID, userID string) string {
	return domain.KeyPrefix + "conv:" + courseID + ":" + userID
}

// lockFor returns the per-conversation append lock, creating it on first use.
func (r *Repo) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}

// AppendExchange appends a user/assistant message pair. The pair is pushed in
// a single RPUSH under a per-conversation lock so concurrent exchanges never
// interleave their halves.
func (r *Repo) AppendExchange(ctx context.Context, courseID, userID string, user, assistant domain.Message) error {
	key := listKey(courseID, userID)

	userData, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user message: %w", err)
	}
	assistantData, err := json.Marshal(assistant)
	if err != nil {
		return fmt.Errorf("marshal assistant message: %w", err)
	}

	l := r.lockFor(key)
	l.Lock()
	defer l.Unlock()

	if err := r.store.RPush(ctx, key, string(userData), string(assistantData)); err != nil {
		return fmt.Errorf("rpush exchange %s: %w", key, err)
	}
	return nil
}

// History returns up to maxMessages most recent messages in chronological
// order. Unparseable entries are skipped.
func (r *Repo) History(ctx context.Context, courseID, userID string, maxMessages int) ([]domain.Message, error) {
	if maxMessages <= 0 {
		return nil, nil
	}
	key := listKey(courseID, userID)

	raw, err := r.store.LRange(ctx, key, int64(-maxMessages), -1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Len returns the total number of stored messages.
func (r *Repo) Len(ctx context.Context, courseID, userID string) (int, error) {
	n, err := r.store.LLen(ctx, listKey(courseID, userID))
	if err != nil {
		return 0, fmt.Errorf("llen: %w", err)
	}
	return int(n), nil
}

// Clear removes the whole conversation.
func (r *Repo) Clear(ctx context.Context, courseID, userID string) error {
	if err := r.store.Del(ctx, listKey(courseID, userID)); err != nil {
		return fmt.Errorf("del conversation: %w", err)
	}
	return nil
}
