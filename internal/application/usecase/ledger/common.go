// Package ledger contains the patient financial ledger use cases.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

const (
	// MaxDescriptionLength is the maximum allowed length for transaction
	// descriptions, counted in characters.
	MaxDescriptionLength = 255
	// MaxNotesLength is the maximum allowed length for transaction notes, counted in characters.
	MaxNotesLength = 1000
)

// TransactionOutput represents a single ledger transaction in use case output.
type TransactionOutput struct {
	ID                   int64
	PatientID            int64
	Type                 entity.TransactionType
	Amount               int64
	AmountDecimal        decimal.Decimal
	Currency             entity.Currency
	Description          string
	Category             string
	PaymentMethod        string
	TransactionReference string
	AppointmentID        *int64
	TreatmentID          *int64
	Notes                string
	RecordedBy           int64
	AuthorizedBy         *int64
	Status               entity.TransactionStatus
	ProcessedAt          time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func toTransactionOutput(txn *entity.FinancialTransaction) *TransactionOutput {
	return &TransactionOutput{
		ID:                   txn.ID,
		PatientID:            txn.PatientID,
		Type:                 txn.Type,
		Amount:               txn.Amount,
		AmountDecimal:        txn.Currency.ToDecimal(txn.Amount),
		Currency:             txn.Currency,
		Description:          txn.Description,
		Category:             txn.Category,
		PaymentMethod:        txn.PaymentMethod,
		TransactionReference: txn.TransactionReference,
		AppointmentID:        txn.AppointmentID,
		TreatmentID:          txn.TreatmentID,
		Notes:                txn.Notes,
		RecordedBy:           txn.RecordedBy,
		AuthorizedBy:         txn.AuthorizedBy,
		Status:               txn.Status,
		ProcessedAt:          txn.ProcessedAt,
		CreatedAt:            txn.CreatedAt,
		UpdatedAt:            txn.UpdatedAt,
	}
}

func validatePatientID(patientID int64) error {
	if patientID <= 0 {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidPatientID,
			"patient_id",
			"patient id must be a positive integer",
			domainerror.ErrInvalidPatientID,
		)
	}
	return nil
}

// invalidateSummary marks the patient's cached summary stale. When the
// generation cannot be bumped the current entry is evicted instead, so the
// next read folds the repository again.
func invalidateSummary(ctx context.Context, cache adapter.SummaryCache, patientID int64) {
	if cache == nil {
		return
	}

	err := cache.Invalidate(ctx, patientID)
	if err == nil {
		return
	}
	slog.Warn("Failed to invalidate patient summary cache, evicting entry",
		"patientID", patientID,
		"error", err,
	)

	if err := cache.Evict(ctx, patientID); err != nil {
		slog.Error("Failed to evict patient summary cache",
			"patientID", patientID,
			"error", err,
		)
	}
}
