// Package inmemory provides a process-local ledger repository.
package inmemory

import (
	"context"
	"sync"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

// FinancialTransactionRepository is an in-memory implementation of
// adapter.FinancialTransactionRepository. It is safe for concurrent use:
// appends are serialized under the write lock and reads return copies.
// Data is lost on restart.
type FinancialTransactionRepository struct {
	mu        sync.RWMutex
	lastID    int64
	byID      map[int64]*entity.FinancialTransaction
	byPatient map[int64][]int64 // ids in creation order
}

var _ adapter.FinancialTransactionRepository = (*FinancialTransactionRepository)(nil)

// NewFinancialTransactionRepository creates an empty in-memory repository.
func NewFinancialTransactionRepository() *FinancialTransactionRepository {
	return &FinancialTransactionRepository{
		byID:      make(map[int64]*entity.FinancialTransaction),
		byPatient: make(map[int64][]int64),
	}
}

// Append stores a copy of the transaction under the next id.
func (r *FinancialTransactionRepository) Append(ctx context.Context, transaction *entity.FinancialTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	transaction.ID = r.lastID
	r.byID[transaction.ID] = transaction.Clone()
	r.byPatient[transaction.PatientID] = append(r.byPatient[transaction.PatientID], transaction.ID)

	return nil
}

// FindByID returns a copy of the transaction.
func (r *FinancialTransactionRepository) FindByID(ctx context.Context, id int64) (*entity.FinancialTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transaction, exists := r.byID[id]
	if !exists {
		return nil, domainerror.ErrTransactionNotFound
	}
	return transaction.Clone(), nil
}

// ListByPatient returns copies of the patient's transactions, newest first.
func (r *FinancialTransactionRepository) ListByPatient(ctx context.Context, patientID int64) ([]*entity.FinancialTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byPatient[patientID]
	transactions := make([]*entity.FinancialTransaction, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		transactions = append(transactions, r.byID[ids[i]].Clone())
	}
	return transactions, nil
}

// UpdateByID applies mutate to a copy under the write lock and stores only
// the mutable fields back.
func (r *FinancialTransactionRepository) UpdateByID(
	ctx context.Context,
	id int64,
	mutate adapter.TransactionMutator,
) (*entity.FinancialTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.byID[id]
	if !exists {
		return nil, domainerror.ErrTransactionNotFound
	}

	working := stored.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}

	stored.Status = working.Status
	stored.Notes = working.Notes
	stored.UpdatedAt = working.UpdatedAt
	stored.AuthorizedBy = nil
	if working.AuthorizedBy != nil {
		authorizedBy := *working.AuthorizedBy
		stored.AuthorizedBy = &authorizedBy
	}

	return stored.Clone(), nil
}

// Len returns the number of stored transactions.
func (r *FinancialTransactionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
