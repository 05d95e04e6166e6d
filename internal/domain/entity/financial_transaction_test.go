package entity

import (
	"testing"
	"time"
)

func TestTransactionType_NormalizeAmount(t *testing.T) {
	tests := []struct {
		name     string
		txnType  TransactionType
		amount   int64
		expected int64
	}{
		{name: "payment positive becomes negative", txnType: TransactionTypePayment, amount: 5000, expected: -5000},
		{name: "payment negative stays negative", txnType: TransactionTypePayment, amount: -5000, expected: -5000},
		{name: "charge positive", txnType: TransactionTypeCharge, amount: 3000, expected: 3000},
		{name: "charge negative becomes positive", txnType: TransactionTypeCharge, amount: -3000, expected: 3000},
		{name: "refund negative becomes positive", txnType: TransactionTypeRefund, amount: -1200, expected: 1200},
		{name: "adjustment keeps negative sign", txnType: TransactionTypeAdjustment, amount: -700, expected: -700},
		{name: "adjustment keeps positive sign", txnType: TransactionTypeAdjustment, amount: 700, expected: 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.txnType.NormalizeAmount(tt.amount); got != tt.expected {
				t.Errorf("NormalizeAmount(%d) = %d, want %d", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestTransactionType_IsValid(t *testing.T) {
	for _, valid := range []TransactionType{TransactionTypePayment, TransactionTypeCharge, TransactionTypeRefund, TransactionTypeAdjustment} {
		if !valid.IsValid() {
			t.Errorf("expected %q to be valid", valid)
		}
	}
	for _, invalid := range []TransactionType{"", "transfer", "PAYMENT"} {
		if invalid.IsValid() {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

func TestCurrency_IsValid(t *testing.T) {
	for _, currency := range SupportedCurrencies {
		if !currency.IsValid() {
			t.Errorf("expected %q to be valid", currency)
		}
	}
	for _, invalid := range []Currency{"", "USD", "eur", "DIN"} {
		if invalid.IsValid() {
			t.Errorf("expected %q to be invalid", invalid)
		}
	}
}

func TestCurrency_ToDecimal(t *testing.T) {
	tests := []struct {
		currency Currency
		amount   int64
		expected string
	}{
		{CurrencyEUR, 5000, "50.00"},
		{CurrencyRSD, -123456, "-1234.56"},
		{CurrencyCHF, 5, "0.05"},
		{CurrencyEUR, 0, "0.00"},
	}

	for _, tt := range tests {
		got := tt.currency.ToDecimal(tt.amount).StringFixed(tt.currency.MinorUnits())
		if got != tt.expected {
			t.Errorf("%s ToDecimal(%d) = %s, want %s", tt.currency, tt.amount, got, tt.expected)
		}
	}
}

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     TransactionStatus
		to       TransactionStatus
		expected bool
	}{
		{TransactionStatusPending, TransactionStatusCompleted, true},
		{TransactionStatusPending, TransactionStatusCancelled, true},
		{TransactionStatusCompleted, TransactionStatusRefunded, true},
		{TransactionStatusPending, TransactionStatusPending, true},
		{TransactionStatusCompleted, TransactionStatusCompleted, true},
		{TransactionStatusCancelled, TransactionStatusCancelled, true},
		{TransactionStatusPending, TransactionStatusRefunded, false},
		{TransactionStatusCompleted, TransactionStatusPending, false},
		{TransactionStatusCompleted, TransactionStatusCancelled, true},
		{TransactionStatusCancelled, TransactionStatusCompleted, false},
		{TransactionStatusCancelled, TransactionStatusPending, false},
		{TransactionStatusRefunded, TransactionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewFinancialTransaction(t *testing.T) {
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	txn := NewFinancialTransaction(1, TransactionTypePayment, 5000, CurrencyEUR, "Payment", 7, "", now)

	if txn.Amount != -5000 {
		t.Errorf("expected amount -5000, got %d", txn.Amount)
	}
	if txn.Status != TransactionStatusCompleted {
		t.Errorf("expected default status completed, got %s", txn.Status)
	}
	if !txn.ProcessedAt.Equal(now) || !txn.CreatedAt.Equal(now) || !txn.UpdatedAt.Equal(now) {
		t.Errorf("expected all timestamps to equal %v", now)
	}
	if txn.ID != 0 {
		t.Errorf("expected unassigned id, got %d", txn.ID)
	}

	pending := NewFinancialTransaction(1, TransactionTypeCharge, 100, CurrencyCHF, "Deposit", 7, TransactionStatusPending, now)
	if pending.Status != TransactionStatusPending {
		t.Errorf("expected status pending, got %s", pending.Status)
	}
}

func TestFinancialTransaction_Clone(t *testing.T) {
	authorizedBy := int64(9)
	appointmentID := int64(3)
	original := &FinancialTransaction{
		ID:            1,
		AuthorizedBy:  &authorizedBy,
		AppointmentID: &appointmentID,
		Notes:         "original",
	}

	clone := original.Clone()
	*clone.AuthorizedBy = 10
	*clone.AppointmentID = 4
	clone.Notes = "changed"

	if *original.AuthorizedBy != 9 {
		t.Errorf("clone shares AuthorizedBy with original")
	}
	if *original.AppointmentID != 3 {
		t.Errorf("clone shares AppointmentID with original")
	}
	if original.Notes != "original" {
		t.Errorf("clone shares Notes with original")
	}
	if clone.TreatmentID != nil {
		t.Errorf("expected nil TreatmentID to stay nil")
	}
}
