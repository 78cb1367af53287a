// Package session maps chat identities to assistant threads for the
// lifetime of the process. Threads are created lazily and never evicted;
// a restart starts everyone on a fresh thread.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mentorbotdev/mentorbot/pkg/log"
)

// ThreadCreator is the single backend call the registry needs.
type ThreadCreator interface {
	CreateThread(ctx context.Context) (string, error)
}

type Registry struct {
	backend ThreadCreator

	mu      sync.RWMutex
	threads map[int64]string
	group   singleflight.Group
}

func NewRegistry(backend ThreadCreator) *Registry {
	return &Registry{
		backend: backend,
		threads: make(map[int64]string),
	}
}

// GetOrCreate returns the thread bound to identity, creating it on first
// use. Concurrent callers for the same identity share a single backend
// call; one identity never ends up with two threads.
func (r *Registry) GetOrCreate(ctx context.Context, identity int64) (string, error) {
	r.mu.RLock()
	threadID, ok := r.threads[identity]
	r.mu.RUnlock()
	if ok {
		return threadID, nil
	}

	v, err, _ := r.group.Do(strconv.FormatInt(identity, 10), func() (any, error) {
		// Re-check under the flight: a previous flight may have
		// stored the thread between our read and Do.
		r.mu.RLock()
		existing, ok := r.threads[identity]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := r.backend.CreateThread(ctx)
		if err != nil {
			return "", fmt.Errorf("create thread for %d: %w", identity, err)
		}

		r.mu.Lock()
		r.threads[identity] = created
		r.mu.Unlock()

		log.FromCtx(ctx).Info().
			Int64("identity", identity).
			Str("thread", created).
			Msg("created assistant thread")
		return created, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len reports how many identities currently hold a thread.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads)
}
