package repository

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/atinyakov/BurnLink/internal/models"
)

// sweepInterval is how often the background sweep reclaims expired entries.
const sweepInterval = time.Minute

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySecretRepository is a mutex-guarded in-process store with TTL
// support. It backs tests and single-node development runs; expired entries
// are reclaimed lazily on access and by a background sweep.
type MemorySecretRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemorySecretRepository creates an in-memory store and starts its TTL
// sweep goroutine. Call Close to stop it.
func NewMemorySecretRepository() *MemorySecretRepository {
	r := &MemorySecretRepository{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// Close stops the background sweep.
func (r *MemorySecretRepository) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *MemorySecretRepository) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			now := r.now()
			r.mu.Lock()
			for key, e := range r.entries {
				if now.After(e.expiresAt) {
					delete(r.entries, key)
				}
			}
			r.mu.Unlock()
		}
	}
}

// getLocked returns the live entry bytes for key, reclaiming it first if
// expired. Callers must hold r.mu.
func (r *MemorySecretRepository) getLocked(key string) ([]byte, bool) {
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	if r.now().After(e.expiresAt) {
		delete(r.entries, key)
		return nil, false
	}
	return e.data, true
}

// Get returns the record under key, or (nil, nil) if absent or expired.
func (r *MemorySecretRepository) Get(ctx context.Context, key string) (*models.SecretRecord, error) {
	r.mu.Lock()
	data, ok := r.getLocked(key)
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeRecord(data)
}

// Save stores the record under key with the given TTL.
func (r *MemorySecretRepository) Save(ctx context.Context, key string, rec *models.SecretRecord, ttl time.Duration) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries[key] = memoryEntry{data: data, expiresAt: r.now().Add(ttl)}
	r.mu.Unlock()
	return nil
}

// CompareAndSwap replaces the record under key only if the stored bytes
// still match expected; next == nil deletes instead. The single mutex makes
// the read-compare-write sequence atomic.
func (r *MemorySecretRepository) CompareAndSwap(ctx context.Context, key string, expected, next *models.SecretRecord) (bool, error) {
	want, err := encodeRecord(expected)
	if err != nil {
		return false, err
	}
	var nextData []byte
	if next != nil {
		if nextData, err = encodeRecord(next); err != nil {
			return false, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.getLocked(key)
	if !ok || !bytes.Equal(cur, want) {
		return false, nil
	}
	if next == nil {
		delete(r.entries, key)
		return true, nil
	}
	// Keep the original expiry: the write-back must not extend the TTL.
	e := r.entries[key]
	e.data = nextData
	r.entries[key] = e
	return true, nil
}

// Delete removes the record under key.
func (r *MemorySecretRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
	return nil
}
