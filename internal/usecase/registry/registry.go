// Package registry hands out per-course handles. A handle is created at most
// once per course for the life of the process; concurrent first access blocks
// on a single initialization instead of racing check-then-create.
package registry

import (
	"context"
	"sync"
)

// InitFunc prepares a course on first access, typically verifying or creating
// its document index.
type InitFunc func(ctx context.Context, courseID string) error

// Handle is the per-course unit of coordination. Its rebuild lock serializes
// full re-ingestion against in-flight queries on the same course; it is
// separate from the registry's creation locking, so rebuilding one course
// never blocks handle lookup for another.
type Handle struct {
	courseID string

	once    sync.Once
	initErr error

	rebuildMu sync.Mutex
}

// CourseID returns the course this handle coordinates.
func (h *Handle) CourseID() string {
	return h.courseID
}

// WithRebuildLock runs fn while holding the course's rebuild lock.
func (h *Handle) WithRebuildLock(fn func() error) error {
	h.rebuildMu.Lock()
	defer h.rebuildMu.Unlock()
	return fn()
}

// Registry is the process-wide map of course handles.
type Registry struct {
	init InitFunc

	mu      sync.Mutex
	handles map[string]*Handle
}

// New creates a registry. init may be nil for courses needing no setup.
func New(init InitFunc) *Registry {
	return &Registry{
		init:    init,
		handles: make(map[string]*Handle),
	}
}

// GetOrCreate returns the handle for courseID, running the init function
// exactly once on first access. A failed initialization is not cached: the
// handle is discarded so a later call retries.
func (r *Registry) GetOrCreate(ctx context.Context, courseID string) (*Handle, error) {
	r.mu.Lock()
	h, ok := r.handles[courseID]
	if !ok {
		h = &Handle{courseID: courseID}
		r.handles[courseID] = h
	}
	r.mu.Unlock()

	h.once.Do(func() {
		if r.init != nil {
			h.initErr = r.init(ctx, courseID)
		}
	})
	if h.initErr != nil {
		r.mu.Lock()
		if r.handles[courseID] == h {
			delete(r.handles, courseID)
		}
		r.mu.Unlock()
		return nil, h.initErr
	}
	return h, nil
}

// WithRebuildLock resolves the course handle and runs fn under its rebuild
// lock.
func (r *Registry) WithRebuildLock(ctx context.Context, courseID string, fn func() error) error {
	h, err := r.GetOrCreate(ctx, courseID)
	if err != nil {
		return err
	}
	return h.WithRebuildLock(fn)
}
