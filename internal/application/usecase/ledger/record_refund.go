package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

const refundDescription = "Refund"

// RecordRefundInput represents the input for refunding a patient.
type RecordRefundInput struct {
	PatientID             int64
	Amount                int64
	Currency              entity.Currency
	OriginalTransactionID int64
	Reason                string
	RecordedBy            int64
}

// RecordRefundUseCase records a refund linked to an earlier payment or charge.
type RecordRefundUseCase struct {
	transactionRepo adapter.FinancialTransactionRepository
	appendUseCase   *AppendTransactionUseCase
}

// NewRecordRefundUseCase creates a new RecordRefundUseCase instance.
func NewRecordRefundUseCase(
	transactionRepo adapter.FinancialTransactionRepository,
	appendUseCase *AppendTransactionUseCase,
) *RecordRefundUseCase {
	return &RecordRefundUseCase{
		transactionRepo: transactionRepo,
		appendUseCase:   appendUseCase,
	}
}

// Execute records the refund. The original transaction must exist, belong
// to the same patient, be a payment or charge and share the refund's currency.
func (uc *RecordRefundUseCase) Execute(ctx context.Context, input RecordRefundInput) (*AppendTransactionOutput, error) {
	// An unsupported currency is reported by the append validation instead.
	if input.Currency.IsValid() {
		if err := uc.checkOriginal(ctx, input); err != nil {
			return nil, err
		}
	}

	reason := strings.TrimSpace(input.Reason)
	description := refundDescription
	notes := fmt.Sprintf("Refund of transaction #%d", input.OriginalTransactionID)
	if reason != "" {
		description = reason
		notes += ": " + reason
	}

	return uc.appendUseCase.Execute(ctx, AppendTransactionInput{
		PatientID:   input.PatientID,
		Type:        entity.TransactionTypeRefund,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Description: description,
		Notes:       notes,
		RecordedBy:  input.RecordedBy,
	})
}

func (uc *RecordRefundUseCase) checkOriginal(ctx context.Context, input RecordRefundInput) error {
	invalid := func(message string) error {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidRefundReference,
			"original_transaction_id",
			message,
			domainerror.ErrInvalidRefundReference,
		)
	}

	if input.OriginalTransactionID <= 0 {
		return invalid("original transaction id is required")
	}

	original, err := uc.transactionRepo.FindByID(ctx, input.OriginalTransactionID)
	if err != nil {
		if errors.Is(err, domainerror.ErrTransactionNotFound) {
			return invalid(fmt.Sprintf("original transaction %d does not exist", input.OriginalTransactionID))
		}
		return fmt.Errorf("failed to find original transaction: %w", err)
	}

	if original.PatientID != input.PatientID {
		return invalid("original transaction belongs to a different patient")
	}
	if original.Type != entity.TransactionTypePayment && original.Type != entity.TransactionTypeCharge {
		return invalid("only payments and charges can be refunded")
	}
	if original.Currency != input.Currency {
		return invalid(fmt.Sprintf("refund currency must match the original transaction (%s)", original.Currency))
	}

	return nil
}
