package ledger

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

// UpdateTransactionInput represents the input for a transaction update.
// Only status, notes and authorized by can change after creation.
type UpdateTransactionInput struct {
	TransactionID int64
	Status        *entity.TransactionStatus
	Notes         *string
	AuthorizedBy  *int64
}

// UpdateTransactionOutput represents the output of a transaction update.
type UpdateTransactionOutput struct {
	Transaction *TransactionOutput
}

// UpdateTransactionUseCase handles the narrow update path of the ledger.
type UpdateTransactionUseCase struct {
	transactionRepo adapter.FinancialTransactionRepository
	summaryCache    adapter.SummaryCache
	clock           adapter.Clock
}

// NewUpdateTransactionUseCase creates a new UpdateTransactionUseCase instance.
func NewUpdateTransactionUseCase(
	transactionRepo adapter.FinancialTransactionRepository,
	summaryCache adapter.SummaryCache,
	clock adapter.Clock,
) *UpdateTransactionUseCase {
	if clock == nil {
		clock = adapter.SystemClock{}
	}
	return &UpdateTransactionUseCase{
		transactionRepo: transactionRepo,
		summaryCache:    summaryCache,
		clock:           clock,
	}
}

// Execute performs the transaction update.
func (uc *UpdateTransactionUseCase) Execute(ctx context.Context, input UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeInvalidStatus,
			"status",
			"status must be one of completed, pending, cancelled, refunded",
			domainerror.ErrInvalidStatus,
		)
	}

	if input.Notes != nil && utf8.RuneCountInString(*input.Notes) > MaxNotesLength {
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeNotesTooLong,
			"notes",
			fmt.Sprintf("notes must not exceed %d characters", MaxNotesLength),
			domainerror.ErrNotesTooLong,
		)
	}

	if input.AuthorizedBy != nil && *input.AuthorizedBy <= 0 {
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeInvalidAuthorizedBy,
			"authorized_by",
			"authorized by must be a positive employee id",
			domainerror.ErrInvalidAuthorizedBy,
		)
	}

	now := uc.clock.Now()
	updated, err := uc.transactionRepo.UpdateByID(ctx, input.TransactionID, func(txn *entity.FinancialTransaction) error {
		changed := false

		if input.Status != nil && *input.Status != txn.Status {
			if !txn.Status.CanTransitionTo(*input.Status) {
				return domainerror.NewValidationError(
					domainerror.ErrCodeIllegalStatusTransition,
					"status",
					fmt.Sprintf("cannot change status from %s to %s", txn.Status, *input.Status),
					domainerror.ErrIllegalStatusTransition,
				)
			}
			txn.Status = *input.Status
			changed = true
		}

		if input.Notes != nil && *input.Notes != txn.Notes {
			txn.Notes = *input.Notes
			changed = true
		}

		if input.AuthorizedBy != nil {
			authorizedBy := *input.AuthorizedBy
			txn.AuthorizedBy = &authorizedBy
			changed = true
		}

		if changed {
			txn.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		var ledgerErr *domainerror.LedgerError
		switch {
		case errors.As(err, &ledgerErr):
			return nil, err
		case errors.Is(err, domainerror.ErrTransactionNotFound):
			return nil, domainerror.NewNotFoundError(
				domainerror.ErrCodeTransactionNotFound,
				fmt.Sprintf("transaction %d not found", input.TransactionID),
				domainerror.ErrTransactionNotFound,
			)
		case errors.Is(err, domainerror.ErrConcurrentModification):
			return nil, domainerror.NewConflictError(
				domainerror.ErrCodeConcurrentModification,
				"transaction was modified concurrently, retry the update",
				domainerror.ErrConcurrentModification,
			)
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	invalidateSummary(ctx, uc.summaryCache, updated.PatientID)

	return &UpdateTransactionOutput{
		Transaction: toTransactionOutput(updated),
	}, nil
}
