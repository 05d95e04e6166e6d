// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeCharge     TransactionType = "charge"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// IsValid reports whether t is one of the supported transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeCharge, TransactionTypeRefund, TransactionTypeAdjustment:
		return true
	}
	return false
}

// NormalizeAmount applies the ledger sign convention to a raw amount.
// Payments are stored negative, charges and refunds positive, and
// adjustments exactly as given.
func (t TransactionType) NormalizeAmount(amount int64) int64 {
	switch t {
	case TransactionTypePayment:
		return -abs(amount)
	case TransactionTypeCharge, TransactionTypeRefund:
		return abs(amount)
	default:
		return amount
	}
}

// Currency is an ISO 4217 code accepted by the ledger.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyRSD Currency = "RSD"
	CurrencyCHF Currency = "CHF"
)

// SupportedCurrencies lists the accepted currencies in display order.
var SupportedCurrencies = []Currency{CurrencyEUR, CurrencyRSD, CurrencyCHF}

// IsValid reports whether c is a supported currency.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyRSD, CurrencyCHF:
		return true
	}
	return false
}

// MinorUnits returns the number of decimal digits of the currency's smallest unit.
func (c Currency) MinorUnits() int32 {
	return 2
}

// ToDecimal converts an amount in minor units to major units.
func (c Currency) ToDecimal(amount int64) decimal.Decimal {
	return decimal.New(amount, -c.MinorUnits())
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusPending, TransactionStatusCancelled, TransactionStatusRefunded:
		return true
	}
	return false
}

// statusTransitions holds the legal status changes. Writing the current
// status again is always allowed.
var statusTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:   {TransactionStatusCompleted, TransactionStatusCancelled},
	TransactionStatusCompleted: {TransactionStatusRefunded, TransactionStatusCancelled},
}

// CanTransitionTo reports whether a transaction in status s may move to next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FinancialTransaction is one recorded money movement for a patient.
// Only Status, Notes, AuthorizedBy and UpdatedAt change after creation.
type FinancialTransaction struct {
	ID                   int64
	PatientID            int64
	Type                 TransactionType
	Amount               int64 // Signed, in the currency's smallest unit
	Currency             Currency
	Description          string
	Category             string
	PaymentMethod        string
	TransactionReference string
	AppointmentID        *int64
	TreatmentID          *int64
	Notes                string
	RecordedBy           int64
	AuthorizedBy         *int64
	Status               TransactionStatus
	ProcessedAt          time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewFinancialTransaction creates a transaction with a normalized amount.
// The ID is assigned by the repository on append.
func NewFinancialTransaction(
	patientID int64,
	transactionType TransactionType,
	amount int64,
	currency Currency,
	description string,
	recordedBy int64,
	status TransactionStatus,
	now time.Time,
) *FinancialTransaction {
	if status == "" {
		status = TransactionStatusCompleted
	}

	return &FinancialTransaction{
		PatientID:   patientID,
		Type:        transactionType,
		Amount:      transactionType.NormalizeAmount(amount),
		Currency:    currency,
		Description: description,
		RecordedBy:  recordedBy,
		Status:      status,
		ProcessedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsCompleted reports whether the transaction counts toward balances.
func (t *FinancialTransaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// Clone returns a deep copy of the transaction.
func (t *FinancialTransaction) Clone() *FinancialTransaction {
	c := *t
	if t.AppointmentID != nil {
		v := *t.AppointmentID
		c.AppointmentID = &v
	}
	if t.TreatmentID != nil {
		v := *t.TreatmentID
		c.TreatmentID = &v
	}
	if t.AuthorizedBy != nil {
		v := *t.AuthorizedBy
		c.AuthorizedBy = &v
	}
	return &c
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
