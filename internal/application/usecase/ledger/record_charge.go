package ledger

import (
	"context"

	"github.com/dental-clinic/backend/internal/domain/entity"
)

// RecordChargeInput represents the input for charging a patient.
type RecordChargeInput struct {
	PatientID   int64
	Amount      int64
	Currency    entity.Currency
	Description string
	Category    string // Optional
	RecordedBy  int64
}

// RecordChargeUseCase records a charge, stored as a positive amount.
type RecordChargeUseCase struct {
	appendUseCase *AppendTransactionUseCase
}

// NewRecordChargeUseCase creates a new RecordChargeUseCase instance.
func NewRecordChargeUseCase(appendUseCase *AppendTransactionUseCase) *RecordChargeUseCase {
	return &RecordChargeUseCase{
		appendUseCase: appendUseCase,
	}
}

// Execute records the charge.
func (uc *RecordChargeUseCase) Execute(ctx context.Context, input RecordChargeInput) (*AppendTransactionOutput, error) {
	return uc.appendUseCase.Execute(ctx, AppendTransactionInput{
		PatientID:   input.PatientID,
		Type:        entity.TransactionTypeCharge,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Description: input.Description,
		Category:    input.Category,
		RecordedBy:  input.RecordedBy,
	})
}
