// Package cache implements the patient summary cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
)

const keyPrefix = "ledger:summary"

// cachedSummary is the JSON shape stored in Redis.
type cachedSummary struct {
	PatientID           int64                     `json:"patient_id"`
	TotalCharges        map[entity.Currency]int64 `json:"total_charges"`
	TotalPayments       map[entity.Currency]int64 `json:"total_payments"`
	TotalRefunds        map[entity.Currency]int64 `json:"total_refunds"`
	Balance             map[entity.Currency]int64 `json:"balance"`
	LastTransactionDate *time.Time                `json:"last_transaction_date,omitempty"`
	TransactionCount    int                       `json:"transaction_count"`
}

// summaryCache implements adapter.SummaryCache.
type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a Redis-backed summary cache. Entries expire after ttl.
func NewSummaryCache(client *redis.Client, ttl time.Duration) adapter.SummaryCache {
	return &summaryCache{
		client: client,
		ttl:    ttl,
	}
}

func generationKey(patientID int64) string {
	return fmt.Sprintf("%s:%d:generation", keyPrefix, patientID)
}

func summaryKey(patientID, generation int64) string {
	return fmt.Sprintf("%s:%d:%d", keyPrefix, patientID, generation)
}

// Generation returns the patient's current generation, zero if never written.
func (c *summaryCache) Generation(ctx context.Context, patientID int64) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey(patientID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read summary generation: %w", err)
	}
	return generation, nil
}

// Get returns the summary stored for the generation.
func (c *summaryCache) Get(ctx context.Context, patientID, generation int64) (*entity.PatientFinancialSummary, bool, error) {
	raw, err := c.client.Get(ctx, summaryKey(patientID, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached summary: %w", err)
	}

	var cached cachedSummary
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached summary: %w", err)
	}

	return &entity.PatientFinancialSummary{
		PatientID:           cached.PatientID,
		TotalCharges:        nonNil(cached.TotalCharges),
		TotalPayments:       nonNil(cached.TotalPayments),
		TotalRefunds:        nonNil(cached.TotalRefunds),
		Balance:             nonNil(cached.Balance),
		LastTransactionDate: cached.LastTransactionDate,
		TransactionCount:    cached.TransactionCount,
	}, true, nil
}

// Set stores the summary for the generation with the configured TTL.
func (c *summaryCache) Set(ctx context.Context, patientID, generation int64, summary *entity.PatientFinancialSummary) error {
	raw, err := json.Marshal(cachedSummary{
		PatientID:           summary.PatientID,
		TotalCharges:        summary.TotalCharges,
		TotalPayments:       summary.TotalPayments,
		TotalRefunds:        summary.TotalRefunds,
		Balance:             summary.Balance,
		LastTransactionDate: summary.LastTransactionDate,
		TransactionCount:    summary.TransactionCount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := c.client.Set(ctx, summaryKey(patientID, generation), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// Invalidate bumps the patient's generation.
func (c *summaryCache) Invalidate(ctx context.Context, patientID int64) error {
	if err := c.client.Incr(ctx, generationKey(patientID)).Err(); err != nil {
		return fmt.Errorf("failed to bump summary generation: %w", err)
	}
	return nil
}

// Evict removes the entry cached under the current generation.
func (c *summaryCache) Evict(ctx context.Context, patientID int64) error {
	generation, err := c.Generation(ctx, patientID)
	if err != nil {
		return err
	}
	if err := c.client.Del(ctx, summaryKey(patientID, generation)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached summary: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *summaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func nonNil(m map[entity.Currency]int64) map[entity.Currency]int64 {
	if m == nil {
		return map[entity.Currency]int64{}
	}
	return m
}
