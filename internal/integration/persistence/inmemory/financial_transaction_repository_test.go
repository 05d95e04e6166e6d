package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
)

func newCharge(patientID int64) *entity.FinancialTransaction {
	return entity.NewFinancialTransaction(patientID, entity.TransactionTypeCharge, 1000, entity.CurrencyEUR, "Treatment", 7, "", time.Now().UTC())
}

func TestFinancialTransactionRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewFinancialTransactionRepository()

	txn := newCharge(1)
	if err := repo.Append(ctx, txn); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	txn.Amount = 1
	found, err := repo.FindByID(ctx, txn.ID)
	if err != nil {
		t.Fatalf("failed to find: %v", err)
	}
	if found.Amount != 1000 {
		t.Errorf("expected stored amount 1000 after caller mutation, got %d", found.Amount)
	}

	found.Notes = "changed"
	listed, _ := repo.ListByPatient(ctx, 1)
	if listed[0].Notes != "" {
		t.Errorf("expected stored notes untouched, got %q", listed[0].Notes)
	}
}

func TestFinancialTransactionRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewFinancialTransactionRepository()

	for _, patientID := range []int64{1, 2, 1, 1} {
		if err := repo.Append(ctx, newCharge(patientID)); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	listed, err := repo.ListByPatient(ctx, 1)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	want := []int64{4, 3, 1}
	if len(listed) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(listed))
	}
	for i, txn := range listed {
		if txn.ID != want[i] {
			t.Errorf("position %d: expected id %d, got %d", i, want[i], txn.ID)
		}
	}
}

func TestFinancialTransactionRepository_UpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := NewFinancialTransactionRepository()

	txn := newCharge(1)
	if err := repo.Append(ctx, txn); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	_, err := repo.UpdateByID(ctx, txn.ID, func(current *entity.FinancialTransaction) error {
		current.Notes = "discarded"
		return errors.New("rejected")
	})
	if err == nil {
		t.Fatal("expected mutator error")
	}
	stored, _ := repo.FindByID(ctx, txn.ID)
	if stored.Notes != "" {
		t.Errorf("expected notes unchanged after rejected update, got %q", stored.Notes)
	}

	updated, err := repo.UpdateByID(ctx, txn.ID, func(current *entity.FinancialTransaction) error {
		current.Status = entity.TransactionStatusRefunded
		current.Description = "ignored"
		return nil
	})
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	if updated.Status != entity.TransactionStatusRefunded {
		t.Errorf("expected refunded, got %s", updated.Status)
	}
	if updated.Description != "Treatment" {
		t.Errorf("expected description unchanged, got %q", updated.Description)
	}

	_, err = repo.UpdateByID(ctx, 999, func(*entity.FinancialTransaction) error { return nil })
	if !errors.Is(err, domainerror.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestFinancialTransactionRepository_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	repo := NewFinancialTransactionRepository()

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(patientID int64) {
			defer wg.Done()
			if err := repo.Append(ctx, newCharge(patientID)); err != nil {
				t.Errorf("failed to append: %v", err)
			}
		}(int64(i%3 + 1))
	}
	wg.Wait()

	if repo.Len() != writers {
		t.Fatalf("expected %d transactions, got %d", writers, repo.Len())
	}

	seen := make(map[int64]bool)
	for patientID := int64(1); patientID <= 3; patientID++ {
		listed, _ := repo.ListByPatient(ctx, patientID)
		for i, txn := range listed {
			if seen[txn.ID] {
				t.Errorf("duplicate id %d", txn.ID)
			}
			seen[txn.ID] = true
			if i > 0 && txn.ID >= listed[i-1].ID {
				t.Errorf("patient %d: ids not descending at position %d", patientID, i)
			}
		}
	}
	if len(seen) != writers {
		t.Errorf("expected %d distinct ids, got %d", writers, len(seen))
	}
}

func TestFinancialTransactionRepository_CancelledContext(t *testing.T) {
	repo := NewFinancialTransactionRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Append(ctx, newCharge(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if repo.Len() != 0 {
		t.Errorf("expected nothing stored, got %d", repo.Len())
	}
}
