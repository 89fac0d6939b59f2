package otp

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// MemoryRegistry keeps entries in process memory. Entries are lost on restart.
// Emails hash onto independent shards so unrelated emails rarely contend.
type MemoryRegistry struct {
	opts   Options
	shards [shardCount]*shard
}

// NewMemoryRegistry builds an in-memory registry.
func NewMemoryRegistry(opts Options) *MemoryRegistry {
	r := &MemoryRegistry{opts: opts.withDefaults()}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return r
}

func (r *MemoryRegistry) shardFor(k string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k))
	return r.shards[h.Sum32()%shardCount]
}

func (r *MemoryRegistry) Issue(_ context.Context, email string, pending Pending) (string, error) {
	k := key(email)
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *entry
	if e, ok := s.entries[k]; ok {
		prev = &e
	}
	e, err := r.opts.replace(prev, pending)
	if err != nil {
		return "", err
	}
	s.entries[k] = e
	return e.Code, nil
}

func (r *MemoryRegistry) Reissue(_ context.Context, email string) (string, error) {
	k := key(email)
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok || r.opts.forgotten(e) {
		delete(s.entries, k)
		return "", ErrNotFound
	}
	if err := r.opts.refresh(&e); err != nil {
		return "", err
	}
	s.entries[k] = e
	return e.Code, nil
}

func (r *MemoryRegistry) Verify(_ context.Context, email, code string) (Pending, error) {
	k := key(email)
	s := r.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok || r.opts.forgotten(e) {
		delete(s.entries, k)
		return Pending{}, ErrNotFound
	}
	keep, err := r.opts.judge(&e, code)
	if keep {
		s.entries[k] = e
	} else {
		delete(s.entries, k)
	}
	if err != nil {
		return Pending{}, err
	}
	return e.Pending, nil
}

func (r *MemoryRegistry) Cancel(_ context.Context, email string) error {
	k := key(email)
	s := r.shardFor(k)
	s.mu.Lock()
	delete(s.entries, k)
	s.mu.Unlock()
	return nil
}

// Sweep drops entries past their retention window and returns how many were
// removed. It only reclaims memory; lookups already ignore such entries.
func (r *MemoryRegistry) Sweep(_ context.Context) int {
	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for k, e := range s.entries {
			if r.opts.forgotten(e) {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (r *MemoryRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
