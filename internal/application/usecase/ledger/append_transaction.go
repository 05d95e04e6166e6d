package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

// AppendTransactionInput represents the input for recording a transaction.
// Amount is a magnitude for payments, charges and refunds; adjustments keep
// the sign given by the caller.
type AppendTransactionInput struct {
	PatientID            int64
	Type                 entity.TransactionType
	Amount               int64
	Currency             entity.Currency
	Description          string
	Category             string
	PaymentMethod        string
	TransactionReference string
	AppointmentID        *int64
	TreatmentID          *int64
	Notes                string
	RecordedBy           int64
	Status               entity.TransactionStatus // Optional, defaults to completed
}

// AppendTransactionOutput represents the output of recording a transaction.
type AppendTransactionOutput struct {
	Transaction *TransactionOutput
}

// AppendTransactionUseCase validates, normalizes and appends a transaction.
type AppendTransactionUseCase struct {
	transactionRepo adapter.FinancialTransactionRepository
	summaryCache    adapter.SummaryCache
	clock           adapter.Clock
}

// NewAppendTransactionUseCase creates a new AppendTransactionUseCase instance.
// summaryCache may be nil when caching is disabled.
func NewAppendTransactionUseCase(
	transactionRepo adapter.FinancialTransactionRepository,
	summaryCache adapter.SummaryCache,
	clock adapter.Clock,
) *AppendTransactionUseCase {
	if clock == nil {
		clock = adapter.SystemClock{}
	}
	return &AppendTransactionUseCase{
		transactionRepo: transactionRepo,
		summaryCache:    summaryCache,
		clock:           clock,
	}
}

// Execute performs the append.
func (uc *AppendTransactionUseCase) Execute(ctx context.Context, input AppendTransactionInput) (*AppendTransactionOutput, error) {
	if err := validateAppendInput(&input); err != nil {
		return nil, err
	}

	transaction := entity.NewFinancialTransaction(
		input.PatientID,
		input.Type,
		input.Amount,
		input.Currency,
		input.Description,
		input.RecordedBy,
		input.Status,
		uc.clock.Now(),
	)
	transaction.Category = input.Category
	transaction.PaymentMethod = input.PaymentMethod
	transaction.TransactionReference = input.TransactionReference
	transaction.AppointmentID = input.AppointmentID
	transaction.TreatmentID = input.TreatmentID
	transaction.Notes = input.Notes

	if err := uc.transactionRepo.Append(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	invalidateSummary(ctx, uc.summaryCache, transaction.PatientID)

	slog.Debug("Recorded ledger transaction",
		"transactionID", transaction.ID,
		"patientID", transaction.PatientID,
		"type", transaction.Type,
		"amount", transaction.Amount,
		"currency", transaction.Currency,
	)

	return &AppendTransactionOutput{
		Transaction: toTransactionOutput(transaction),
	}, nil
}

// validateAppendInput checks the input and trims the description in place.
func validateAppendInput(input *AppendTransactionInput) error {
	if !input.Type.IsValid() {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidTransactionType,
			"type",
			"transaction type must be one of payment, charge, refund, adjustment",
			domainerror.ErrInvalidTransactionType,
		)
	}

	if !input.Currency.IsValid() {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidCurrency,
			"currency",
			"currency must be one of EUR, RSD, CHF",
			domainerror.ErrInvalidCurrency,
		)
	}

	input.Description = strings.TrimSpace(input.Description)
	if input.Description == "" {
		return domainerror.NewValidationError(
			domainerror.ErrCodeEmptyDescription,
			"description",
			"description is required",
			domainerror.ErrEmptyDescription,
		)
	}
	if utf8.RuneCountInString(input.Description) > MaxDescriptionLength {
		return domainerror.NewValidationError(
			domainerror.ErrCodeDescriptionTooLong,
			"description",
			fmt.Sprintf("description must not exceed %d characters", MaxDescriptionLength),
			domainerror.ErrDescriptionTooLong,
		)
	}

	if utf8.RuneCountInString(input.Notes) > MaxNotesLength {
		return domainerror.NewValidationError(
			domainerror.ErrCodeNotesTooLong,
			"notes",
			fmt.Sprintf("notes must not exceed %d characters", MaxNotesLength),
			domainerror.ErrNotesTooLong,
		)
	}

	if input.RecordedBy <= 0 {
		return domainerror.NewValidationError(
			domainerror.ErrCodeMissingRecordedBy,
			"recorded_by",
			"recorded by is required",
			domainerror.ErrMissingRecordedBy,
		)
	}

	if err := validatePatientID(input.PatientID); err != nil {
		return err
	}

	if input.Type == entity.TransactionTypeAdjustment {
		if input.Amount == 0 {
			return domainerror.NewValidationError(
				domainerror.ErrCodeInvalidTransactionAmount,
				"amount",
				"adjustment amount must not be zero",
				domainerror.ErrInvalidTransactionAmount,
			)
		}
	} else if input.Amount <= 0 {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidTransactionAmount,
			"amount",
			fmt.Sprintf("%s amount must be a positive number", input.Type),
			domainerror.ErrInvalidTransactionAmount,
		)
	}

	if input.Status != "" && !input.Status.IsValid() {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidStatus,
			"status",
			"status must be one of completed, pending, cancelled, refunded",
			domainerror.ErrInvalidStatus,
		)
	}

	return nil
}
