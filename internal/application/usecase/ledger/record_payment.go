package ledger

import (
	"context"

	"github.com/dental-clinic/backend/internal/domain/entity"
)

// RecordPaymentInput represents the input for recording a patient payment.
type RecordPaymentInput struct {
	PatientID     int64
	Amount        int64
	Currency      entity.Currency
	PaymentMethod string
	Description   string
	RecordedBy    int64
}

// RecordPaymentUseCase records a payment, stored as a negative amount.
type RecordPaymentUseCase struct {
	appendUseCase *AppendTransactionUseCase
}

// NewRecordPaymentUseCase creates a new RecordPaymentUseCase instance.
func NewRecordPaymentUseCase(appendUseCase *AppendTransactionUseCase) *RecordPaymentUseCase {
	return &RecordPaymentUseCase{
		appendUseCase: appendUseCase,
	}
}

// Execute records the payment.
func (uc *RecordPaymentUseCase) Execute(ctx context.Context, input RecordPaymentInput) (*AppendTransactionOutput, error) {
	return uc.appendUseCase.Execute(ctx, AppendTransactionInput{
		PatientID:     input.PatientID,
		Type:          entity.TransactionTypePayment,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Description:   input.Description,
		PaymentMethod: input.PaymentMethod,
		RecordedBy:    input.RecordedBy,
	})
}
