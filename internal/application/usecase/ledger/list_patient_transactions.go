package ledger

import (
	"context"
	"fmt"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

// ListPatientTransactionsInput represents the input for listing a patient's transactions.
// The filters are optional; without them every transaction is returned.
type ListPatientTransactionsInput struct {
	PatientID int64
	Status    *entity.TransactionStatus
	Type      *entity.TransactionType
	Currency  *entity.Currency
}

// ListPatientTransactionsOutput represents the output of listing a patient's transactions.
type ListPatientTransactionsOutput struct {
	Transactions []*TransactionOutput
}

// ListPatientTransactionsUseCase handles listing a patient's transactions, newest first.
type ListPatientTransactionsUseCase struct {
	transactionRepo adapter.FinancialTransactionRepository
}

// NewListPatientTransactionsUseCase creates a new ListPatientTransactionsUseCase instance.
func NewListPatientTransactionsUseCase(transactionRepo adapter.FinancialTransactionRepository) *ListPatientTransactionsUseCase {
	return &ListPatientTransactionsUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute performs the listing.
func (uc *ListPatientTransactionsUseCase) Execute(ctx context.Context, input ListPatientTransactionsInput) (*ListPatientTransactionsOutput, error) {
	if err := validatePatientID(input.PatientID); err != nil {
		return nil, err
	}
	if err := validateListFilters(input); err != nil {
		return nil, err
	}

	transactions, err := uc.transactionRepo.ListByPatient(ctx, input.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient transactions: %w", err)
	}

	output := &ListPatientTransactionsOutput{
		Transactions: make([]*TransactionOutput, 0, len(transactions)),
	}
	for _, txn := range transactions {
		if input.Status != nil && txn.Status != *input.Status {
			continue
		}
		if input.Type != nil && txn.Type != *input.Type {
			continue
		}
		if input.Currency != nil && txn.Currency != *input.Currency {
			continue
		}
		output.Transactions = append(output.Transactions, toTransactionOutput(txn))
	}

	return output, nil
}

func validateListFilters(input ListPatientTransactionsInput) error {
	if input.Status != nil && !input.Status.IsValid() {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidStatus,
			"status",
			"status must be one of completed, pending, cancelled, refunded",
			domainerror.ErrInvalidStatus,
		)
	}
	if input.Type != nil && !input.Type.IsValid() {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidTransactionType,
			"type",
			"transaction type must be one of payment, charge, refund, adjustment",
			domainerror.ErrInvalidTransactionType,
		)
	}
	if input.Currency != nil && !input.Currency.IsValid() {
		return domainerror.NewValidationError(
			domainerror.ErrCodeInvalidCurrency,
			"currency",
			"currency must be one of EUR, RSD, CHF",
			domainerror.ErrInvalidCurrency,
		)
	}
	return nil
}
