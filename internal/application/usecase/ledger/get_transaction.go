package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dental-clinic/backend/internal/application/adapter"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

// GetTransactionInput represents the input for fetching one transaction.
type GetTransactionInput struct {
	TransactionID int64
}

// GetTransactionOutput represents the output of fetching one transaction.
type GetTransactionOutput struct {
	Transaction *TransactionOutput
}

// GetTransactionUseCase handles single transaction lookups.
type GetTransactionUseCase struct {
	transactionRepo adapter.FinancialTransactionRepository
}

// NewGetTransactionUseCase creates a new GetTransactionUseCase instance.
func NewGetTransactionUseCase(transactionRepo adapter.FinancialTransactionRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute performs the lookup.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, input GetTransactionInput) (*GetTransactionOutput, error) {
	transaction, err := uc.transactionRepo.FindByID(ctx, input.TransactionID)
	if err != nil {
		if errors.Is(err, domainerror.ErrTransactionNotFound) {
			return nil, domainerror.NewNotFoundError(
				domainerror.ErrCodeTransactionNotFound,
				fmt.Sprintf("transaction %d not found", input.TransactionID),
				domainerror.ErrTransactionNotFound,
			)
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	return &GetTransactionOutput{
		Transaction: toTransactionOutput(transaction),
	}, nil
}
