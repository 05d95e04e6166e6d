// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/dental-clinic/backend/internal/domain/entity"
)

// TransactionMutator applies an update to a freshly loaded transaction.
// Returning an error aborts the update and leaves the stored row unchanged.
type TransactionMutator func(transaction *entity.FinancialTransaction) error

// FinancialTransactionRepository defines the ledger's persistence contract.
// Implementations must assign unique, monotonically increasing ids on Append.
type FinancialTransactionRepository interface {
	// Append stores a new transaction and sets its ID.
	Append(ctx context.Context, transaction *entity.FinancialTransaction) error

	// FindByID retrieves a transaction by its ID.
	// Returns domainerror.ErrTransactionNotFound when it does not exist.
	FindByID(ctx context.Context, id int64) (*entity.FinancialTransaction, error)

	// ListByPatient returns a snapshot of the patient's transactions,
	// newest created first.
	ListByPatient(ctx context.Context, patientID int64) ([]*entity.FinancialTransaction, error)

	// UpdateByID loads the transaction, applies mutate and persists the
	// mutable fields (status, notes, authorized by, updated at).
	UpdateByID(ctx context.Context, id int64, mutate TransactionMutator) (*entity.FinancialTransaction, error)
}
