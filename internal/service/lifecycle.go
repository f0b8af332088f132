package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/BurnLink/internal/ident"
	"github.com/atinyakov/BurnLink/internal/models"
)

// Bounds for create parameters.
const (
	MinViews    = 1
	MaxViews    = 100
	MinTTLHours = 1
	MaxTTLHours = 8760
)

// casAttempts bounds the optimistic-update retry loop. A conflict means
// another retrieve won the race; retrying is safe because no write has
// landed for this call yet.
const casAttempts = 5

// SecretRepository is the persistence contract for secret records. Get
// returns (nil, nil) when the key is absent. CompareAndSwap replaces the
// record only if the stored value still equals expected; next == nil means
// conditional delete. Implementations must make the swap atomic.
type SecretRepository interface {
	Get(ctx context.Context, key string) (*models.SecretRecord, error)
	Save(ctx context.Context, key string, rec *models.SecretRecord, ttl time.Duration) error
	CompareAndSwap(ctx context.Context, key string, expected, next *models.SecretRecord) (bool, error)
	Delete(ctx context.Context, key string) error
}

// CreateResult is returned to the caller of Create.
type CreateResult struct {
	ExternalID string
	ExpiresAt  time.Time
	MaxViews   int
}

// RetrieveResult carries the envelope read before the view-count increment
// together with the accounting the caller needs to render "views remaining".
// ViewCount includes the current view, so remaining = MaxViews - ViewCount.
type RetrieveResult struct {
	Envelope   json.RawMessage
	ViewCount  int
	MaxViews   int
	IsLastView bool
	CreatedAt  time.Time
}

// LifecycleService owns the NonExistent -> Active -> Exhausted/Expired
// transitions of secret records.
type LifecycleService struct {
	repo SecretRepository
	now  func() time.Time
}

// NewLifecycleService constructs a LifecycleService over the given
// repository.
func NewLifecycleService(repo SecretRepository) *LifecycleService {
	return &LifecycleService{repo: repo, now: time.Now}
}

// Create validates bounds, generates an external id, and writes a fresh
// record with viewCount 0 under the derived internal key. The store entry
// is time-bounded to ttlHours so the backend reclaims it autonomously even
// if never retrieved. Validation failures happen before any store write.
func (s *LifecycleService) Create(ctx context.Context, envelope json.RawMessage, maxViews, ttlHours int) (*CreateResult, error) {
	if maxViews < MinViews || maxViews > MaxViews {
		return nil, &ValidationError{Field: "maxViews", Reason: fmt.Sprintf("must be in [%d, %d]", MinViews, MaxViews)}
	}
	if ttlHours < MinTTLHours || ttlHours > MaxTTLHours {
		return nil, &ValidationError{Field: "ttlHours", Reason: fmt.Sprintf("must be in [%d, %d]", MinTTLHours, MaxTTLHours)}
	}
	if _, err := models.ParseEnvelope(envelope); err != nil {
		return nil, &ValidationError{Field: "envelope", Reason: err.Error()}
	}

	externalID, err := ident.NewExternalID()
	if err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	now := s.now()
	ttl := time.Duration(ttlHours) * time.Hour
	rec := &models.SecretRecord{
		Envelope:  envelope,
		MaxViews:  maxViews,
		ViewCount: 0,
		CreatedAt: now,
	}
	if err := s.repo.Save(ctx, ident.InternalKey(externalID), rec, ttl); err != nil {
		return nil, &StoreError{Op: "save", Err: err}
	}

	return &CreateResult{ExternalID: externalID, ExpiresAt: now.Add(ttl), MaxViews: maxViews}, nil
}

// Retrieve looks up the record by derived internal key and atomically
// advances its view state. The final view deletes the record; earlier views
// write back the incremented count, preserving the store TTL. Two
// concurrent calls cannot both consume the same view: the increment is a
// compare-and-swap on the whole record, and a lost race re-reads and
// retries before any write has happened for this call.
func (s *LifecycleService) Retrieve(ctx context.Context, externalID string) (*RetrieveResult, error) {
	key := ident.InternalKey(externalID)

	for attempt := 0; attempt < casAttempts; attempt++ {
		rec, err := s.repo.Get(ctx, key)
		if err != nil {
			return nil, &StoreError{Op: "get", Err: err}
		}
		if rec == nil {
			return nil, ErrNotFound
		}

		// Unreachable under correct sequencing, checked defensively.
		if rec.ViewCount >= rec.MaxViews {
			_ = s.repo.Delete(ctx, key)
			return nil, ErrExhausted
		}

		next := *rec
		next.ViewCount++

		var swapTo *models.SecretRecord
		if next.ViewCount < next.MaxViews {
			swapTo = &next
		}
		// swapTo == nil: the final view consumes the record.

		swapped, err := s.repo.CompareAndSwap(ctx, key, rec, swapTo)
		if err != nil {
			return nil, &StoreError{Op: "swap", Err: err}
		}
		if !swapped {
			continue
		}

		return &RetrieveResult{
			Envelope:   rec.Envelope,
			ViewCount:  next.ViewCount,
			MaxViews:   rec.MaxViews,
			IsLastView: next.ViewCount == rec.MaxViews,
			CreatedAt:  rec.CreatedAt,
		}, nil
	}

	return nil, &StoreError{Op: "retrieve", Err: errors.New("too much contention")}
}
