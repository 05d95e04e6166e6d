package dto

import (
	"encoding/json"
	"time"

	"github.com/dental-clinic/backend/internal/application/usecase/ledger"
	"github.com/dental-clinic/backend/internal/domain/entity"
)

// CreateTransactionRequest represents the request body for recording any transaction.
// Amount is in the currency's smallest unit.
type CreateTransactionRequest struct {
	PatientID            int64  `json:"patient_id"`
	Type                 string `json:"type"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	Description          string `json:"description"`
	Category             string `json:"category,omitempty"`
	PaymentMethod        string `json:"payment_method,omitempty"`
	TransactionReference string `json:"transaction_reference,omitempty"`
	AppointmentID        *int64 `json:"appointment_id,omitempty"`
	TreatmentID          *int64 `json:"treatment_id,omitempty"`
	Notes                string `json:"notes,omitempty"`
	Status               string `json:"status,omitempty"`
}

// UpdateTransactionRequest represents the request body for a transaction update.
// The raw fields exist only to detect attempts to change immutable data.
type UpdateTransactionRequest struct {
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	AuthorizedBy *int64  `json:"authorized_by,omitempty"`

	PatientID            json.RawMessage `json:"patient_id,omitempty"`
	Type                 json.RawMessage `json:"type,omitempty"`
	Amount               json.RawMessage `json:"amount,omitempty"`
	Currency             json.RawMessage `json:"currency,omitempty"`
	Description          json.RawMessage `json:"description,omitempty"`
	Category             json.RawMessage `json:"category,omitempty"`
	PaymentMethod        json.RawMessage `json:"payment_method,omitempty"`
	TransactionReference json.RawMessage `json:"transaction_reference,omitempty"`
	AppointmentID        json.RawMessage `json:"appointment_id,omitempty"`
	TreatmentID          json.RawMessage `json:"treatment_id,omitempty"`
	RecordedBy           json.RawMessage `json:"recorded_by,omitempty"`
	ProcessedAt          json.RawMessage `json:"processed_at,omitempty"`
	CreatedAt            json.RawMessage `json:"created_at,omitempty"`
}

// ImmutableField returns the JSON name of the first immutable field present
// in the request, or "" when there is none.
func (r *UpdateTransactionRequest) ImmutableField() string {
	fields := []struct {
		name  string
		value json.RawMessage
	}{
		{"patient_id", r.PatientID},
		{"type", r.Type},
		{"amount", r.Amount},
		{"currency", r.Currency},
		{"description", r.Description},
		{"category", r.Category},
		{"payment_method", r.PaymentMethod},
		{"transaction_reference", r.TransactionReference},
		{"appointment_id", r.AppointmentID},
		{"treatment_id", r.TreatmentID},
		{"recorded_by", r.RecordedBy},
		{"processed_at", r.ProcessedAt},
		{"created_at", r.CreatedAt},
	}
	for _, f := range fields {
		if len(f.value) > 0 {
			return f.name
		}
	}
	return ""
}

// RecordPaymentRequest represents the request body for a patient payment.
type RecordPaymentRequest struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	Description   string `json:"description"`
}

// RecordChargeRequest represents the request body for a patient charge.
type RecordChargeRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// RecordRefundRequest represents the request body for a patient refund.
type RecordRefundRequest struct {
	Amount                int64  `json:"amount"`
	Currency              string `json:"currency"`
	OriginalTransactionID int64  `json:"original_transaction_id"`
	Reason                string `json:"reason"`
}

// TransactionResponse represents a single ledger transaction in API responses.
type TransactionResponse struct {
	ID                   int64     `json:"id"`
	PatientID            int64     `json:"patient_id"`
	Type                 string    `json:"type"`
	Amount               int64     `json:"amount"`
	AmountDecimal        string    `json:"amount_decimal"`
	Currency             string    `json:"currency"`
	Description          string    `json:"description"`
	Category             string    `json:"category,omitempty"`
	PaymentMethod        string    `json:"payment_method,omitempty"`
	TransactionReference string    `json:"transaction_reference,omitempty"`
	AppointmentID        *int64    `json:"appointment_id,omitempty"`
	TreatmentID          *int64    `json:"treatment_id,omitempty"`
	Notes                string    `json:"notes"`
	RecordedBy           int64     `json:"recorded_by"`
	AuthorizedBy         *int64    `json:"authorized_by,omitempty"`
	Status               string    `json:"status"`
	ProcessedAt          time.Time `json:"processed_at"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TransactionListResponse represents the response for listing patient transactions.
type TransactionListResponse struct {
	PatientID    int64                 `json:"patient_id"`
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
}

// PatientSummaryResponse represents a patient's financial summary.
// Amounts are in minor units; BalanceDecimal renders the balance in major units.
type PatientSummaryResponse struct {
	PatientID           int64             `json:"patient_id"`
	TotalCharges        map[string]int64  `json:"total_charges"`
	TotalPayments       map[string]int64  `json:"total_payments"`
	TotalRefunds        map[string]int64  `json:"total_refunds"`
	Balance             map[string]int64  `json:"balance"`
	BalanceDecimal      map[string]string `json:"balance_decimal"`
	LastTransactionDate *time.Time        `json:"last_transaction_date,omitempty"`
	TransactionCount    int               `json:"transaction_count"`
}

// ToTransactionResponse converts a TransactionOutput to a TransactionResponse DTO.
func ToTransactionResponse(txn *ledger.TransactionOutput) TransactionResponse {
	return TransactionResponse{
		ID:                   txn.ID,
		PatientID:            txn.PatientID,
		Type:                 string(txn.Type),
		Amount:               txn.Amount,
		AmountDecimal:        txn.AmountDecimal.StringFixed(txn.Currency.MinorUnits()),
		Currency:             string(txn.Currency),
		Description:          txn.Description,
		Category:             txn.Category,
		PaymentMethod:        txn.PaymentMethod,
		TransactionReference: txn.TransactionReference,
		AppointmentID:        txn.AppointmentID,
		TreatmentID:          txn.TreatmentID,
		Notes:                txn.Notes,
		RecordedBy:           txn.RecordedBy,
		AuthorizedBy:         txn.AuthorizedBy,
		Status:               string(txn.Status),
		ProcessedAt:          txn.ProcessedAt,
		CreatedAt:            txn.CreatedAt,
		UpdatedAt:            txn.UpdatedAt,
	}
}

// ToTransactionListResponse converts a ListPatientTransactionsOutput to a TransactionListResponse.
func ToTransactionListResponse(patientID int64, output *ledger.ListPatientTransactionsOutput) TransactionListResponse {
	transactions := make([]TransactionResponse, len(output.Transactions))
	for i, txn := range output.Transactions {
		transactions[i] = ToTransactionResponse(txn)
	}

	return TransactionListResponse{
		PatientID:    patientID,
		Transactions: transactions,
		Count:        len(transactions),
	}
}

// ToPatientSummaryResponse converts a domain summary to its API representation.
func ToPatientSummaryResponse(summary *entity.PatientFinancialSummary) PatientSummaryResponse {
	balanceDecimal := make(map[string]string, len(summary.Balance))
	for currency, amount := range summary.Balance {
		balanceDecimal[string(currency)] = currency.ToDecimal(amount).StringFixed(currency.MinorUnits())
	}

	return PatientSummaryResponse{
		PatientID:           summary.PatientID,
		TotalCharges:        currencyMap(summary.TotalCharges),
		TotalPayments:       currencyMap(summary.TotalPayments),
		TotalRefunds:        currencyMap(summary.TotalRefunds),
		Balance:             currencyMap(summary.Balance),
		BalanceDecimal:      balanceDecimal,
		LastTransactionDate: summary.LastTransactionDate,
		TransactionCount:    summary.TransactionCount,
	}
}

func currencyMap(in map[entity.Currency]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for currency, amount := range in {
		out[string(currency)] = amount
	}
	return out
}
