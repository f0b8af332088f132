// Package repository provides persistence implementations for the secret
// lifecycle controller: a Redis-backed store for deployments and an
// in-memory store for tests and single-node development runs.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/BurnLink/internal/models"
)

// errCASMismatch aborts a Watch transaction when the stored record no
// longer matches the expected value.
var errCASMismatch = errors.New("record changed")

// RedisSecretRepository stores secret records as JSON values with a native
// TTL. View-count advancement uses optimistic locking: WATCH the key,
// re-read inside the transaction, and commit the conditional write with
// MULTI/EXEC, so two concurrent retrievals can never both consume the same
// view.
type RedisSecretRepository struct {
	client redis.UniversalClient
}

// NewRedisSecretRepository creates a repository over the given Redis
// client. Both redis.Client and redis.ClusterClient are supported.
func NewRedisSecretRepository(client redis.UniversalClient) *RedisSecretRepository {
	return &RedisSecretRepository{client: client}
}

// Get fetches and decodes the record under key. Absent keys yield
// (nil, nil), matching the repository contract.
func (r *RedisSecretRepository) Get(ctx context.Context, key string) (*models.SecretRecord, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeRecord(data)
}

// Save writes the record with the given TTL. Redis reclaims the entry on
// expiry without any application involvement.
func (r *RedisSecretRepository) Save(ctx context.Context, key string, rec *models.SecretRecord, ttl time.Duration) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CompareAndSwap replaces the record under key only if the stored bytes
// still match expected. next == nil deletes the record instead; a non-nil
// next preserves the remaining TTL via KEEPTTL. Returns (false, nil) when
// the record changed or vanished underneath us, which the caller treats as
// a lost race.
func (r *RedisSecretRepository) CompareAndSwap(ctx context.Context, key string, expected, next *models.SecretRecord) (bool, error) {
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

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return errCASMismatch
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}
		if !bytes.Equal(cur, want) {
			return errCASMismatch
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, nextData, redis.KeepTTL)
			}
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errCASMismatch), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis cas: %w", err)
	}
}

// Delete removes the record under key. Deleting an absent key is not an
// error.
func (r *RedisSecretRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// encodeRecord and decodeRecord fix the storage codec for both
// repositories. Struct field order makes the JSON deterministic, so byte
// comparison of encoded records is a valid equality check.
func encodeRecord(rec *models.SecretRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*models.SecretRecord, error) {
	var rec models.SecretRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
