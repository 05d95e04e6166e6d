package adapter

import (
	"context"

	"github.com/dental-clinic/backend/internal/domain/entity"
)

// SummaryCache stores computed patient summaries keyed by a per-patient
// generation. Invalidate bumps the generation so entries computed before a
// write are never returned afterwards.
type SummaryCache interface {
	// Generation returns the patient's current cache generation.
	Generation(ctx context.Context, patientID int64) (int64, error)

	// Get returns the cached summary for the given generation, if any.
	Get(ctx context.Context, patientID, generation int64) (*entity.PatientFinancialSummary, bool, error)

	// Set stores a summary computed at the given generation.
	Set(ctx context.Context, patientID, generation int64, summary *entity.PatientFinancialSummary) error

	// Invalidate advances the patient's generation.
	Invalidate(ctx context.Context, patientID int64) error

	// Evict deletes the summary stored under the patient's current generation.
	Evict(ctx context.Context, patientID int64) error

	// Ping checks connectivity to the cache backend.
	Ping(ctx context.Context) error
}
