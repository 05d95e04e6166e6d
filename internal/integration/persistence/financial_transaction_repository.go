// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
	"github.com/dental-clinic/backend/internal/integration/persistence/model"
)

// financialTransactionRepository implements the adapter.FinancialTransactionRepository interface.
type financialTransactionRepository struct {
	db *gorm.DB
}

// NewFinancialTransactionRepository creates a new gorm-backed ledger repository instance.
func NewFinancialTransactionRepository(db *gorm.DB) adapter.FinancialTransactionRepository {
	return &financialTransactionRepository{
		db: db,
	}
}

// Append inserts a new transaction; the database assigns the id.
func (r *financialTransactionRepository) Append(ctx context.Context, transaction *entity.FinancialTransaction) error {
	transactionModel := model.FinancialTransactionFromEntity(transaction)
	transactionModel.ID = 0
	if err := r.db.WithContext(ctx).Create(transactionModel).Error; err != nil {
		return err
	}
	transaction.ID = transactionModel.ID
	return nil
}

// FindByID retrieves a transaction by its ID.
func (r *financialTransactionRepository) FindByID(ctx context.Context, id int64) (*entity.FinancialTransaction, error) {
	var transactionModel model.FinancialTransactionModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&transactionModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return transactionModel.ToEntity(), nil
}

// ListByPatient retrieves all transactions for a patient, newest created first.
func (r *financialTransactionRepository) ListByPatient(ctx context.Context, patientID int64) ([]*entity.FinancialTransaction, error) {
	var transactionModels []model.FinancialTransactionModel
	result := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("id DESC").
		Find(&transactionModels)
	if result.Error != nil {
		return nil, result.Error
	}

	transactions := make([]*entity.FinancialTransaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = transactionModels[i].ToEntity()
	}
	return transactions, nil
}

// UpdateByID applies mutate inside a database transaction. The write is
// guarded on the row version that was read, so any concurrent update makes
// it fail with ErrConcurrentModification instead of overwriting.
func (r *financialTransactionRepository) UpdateByID(
	ctx context.Context,
	id int64,
	mutate adapter.TransactionMutator,
) (*entity.FinancialTransaction, error) {
	var updated *entity.FinancialTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transactionModel model.FinancialTransactionModel
		if err := tx.Where("id = ?", id).First(&transactionModel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerror.ErrTransactionNotFound
			}
			return err
		}

		transaction := transactionModel.ToEntity()
		if err := mutate(transaction); err != nil {
			return err
		}

		if err := writeMutableFields(tx, transactionModel.Version, transaction); err != nil {
			return err
		}

		updated = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// writeMutableFields stores the mutable columns of transaction if the row is
// still at version, and bumps the version.
func writeMutableFields(tx *gorm.DB, version int64, transaction *entity.FinancialTransaction) error {
	result := tx.Model(&model.FinancialTransactionModel{}).
		Where("id = ? AND version = ?", transaction.ID, version).
		Updates(map[string]interface{}{
			"status":        string(transaction.Status),
			"notes":         transaction.Notes,
			"authorized_by": transaction.AuthorizedBy,
			"updated_at":    transaction.UpdatedAt,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrConcurrentModification
	}
	return nil
}
