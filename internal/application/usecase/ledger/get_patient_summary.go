package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
)

// GetPatientSummaryInput represents the input for a patient summary.
type GetPatientSummaryInput struct {
	PatientID int64
}

// GetPatientSummaryOutput represents the output of a patient summary.
type GetPatientSummaryOutput struct {
	Summary *entity.PatientFinancialSummary
}

// GetPatientSummaryUseCase folds a patient's transactions into a summary.
type GetPatientSummaryUseCase struct {
	transactionRepo adapter.FinancialTransactionRepository
	summaryCache    adapter.SummaryCache
}

// NewGetPatientSummaryUseCase creates a new GetPatientSummaryUseCase instance.
// summaryCache may be nil, in which case every call recomputes.
func NewGetPatientSummaryUseCase(
	transactionRepo adapter.FinancialTransactionRepository,
	summaryCache adapter.SummaryCache,
) *GetPatientSummaryUseCase {
	return &GetPatientSummaryUseCase{
		transactionRepo: transactionRepo,
		summaryCache:    summaryCache,
	}
}

// Execute computes the summary.
func (uc *GetPatientSummaryUseCase) Execute(ctx context.Context, input GetPatientSummaryInput) (*GetPatientSummaryOutput, error) {
	if err := validatePatientID(input.PatientID); err != nil {
		return nil, err
	}

	if uc.summaryCache == nil {
		summary, err := uc.compute(ctx, input.PatientID)
		if err != nil {
			return nil, err
		}
		return &GetPatientSummaryOutput{Summary: summary}, nil
	}

	// The generation is read before the fold: a write racing with this call
	// bumps it, so whatever we store below lands under a stale key.
	generation, err := uc.summaryCache.Generation(ctx, input.PatientID)
	if err != nil {
		slog.Warn("Summary cache unavailable, computing directly",
			"patientID", input.PatientID,
			"error", err,
		)
		summary, err := uc.compute(ctx, input.PatientID)
		if err != nil {
			return nil, err
		}
		return &GetPatientSummaryOutput{Summary: summary}, nil
	}

	cached, ok, err := uc.summaryCache.Get(ctx, input.PatientID, generation)
	if err != nil {
		slog.Warn("Failed to read cached patient summary",
			"patientID", input.PatientID,
			"error", err,
		)
	} else if ok {
		return &GetPatientSummaryOutput{Summary: cached}, nil
	}

	summary, err := uc.compute(ctx, input.PatientID)
	if err != nil {
		return nil, err
	}

	if err := uc.summaryCache.Set(ctx, input.PatientID, generation, summary); err != nil {
		slog.Warn("Failed to cache patient summary",
			"patientID", input.PatientID,
			"error", err,
		)
	}

	return &GetPatientSummaryOutput{Summary: summary}, nil
}

func (uc *GetPatientSummaryUseCase) compute(ctx context.Context, patientID int64) (*entity.PatientFinancialSummary, error) {
	transactions, err := uc.transactionRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient transactions: %w", err)
	}
	return entity.SummarizeTransactions(patientID, transactions), nil
}
