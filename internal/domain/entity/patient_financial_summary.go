package entity

import "time"

// PatientFinancialSummary is a derived view over a patient's transactions.
// All per-currency maps share the same key set: the currencies with at
// least one completed transaction.
type PatientFinancialSummary struct {
	PatientID           int64
	TotalCharges        map[Currency]int64
	TotalPayments       map[Currency]int64
	TotalRefunds        map[Currency]int64
	Balance             map[Currency]int64
	LastTransactionDate *time.Time
	TransactionCount    int
}

// SummarizeTransactions folds a patient's transactions into a summary.
// Only completed transactions contribute to the per-currency maps;
// TransactionCount and LastTransactionDate consider every status.
func SummarizeTransactions(patientID int64, transactions []*FinancialTransaction) *PatientFinancialSummary {
	summary := &PatientFinancialSummary{
		PatientID:        patientID,
		TotalCharges:     map[Currency]int64{},
		TotalPayments:    map[Currency]int64{},
		TotalRefunds:     map[Currency]int64{},
		Balance:          map[Currency]int64{},
		TransactionCount: len(transactions),
	}

	var last *FinancialTransaction
	for _, txn := range transactions {
		// Ids are assigned in creation order.
		if last == nil || txn.ID > last.ID {
			last = txn
		}

		if !txn.IsCompleted() {
			continue
		}

		if _, seen := summary.Balance[txn.Currency]; !seen {
			summary.TotalCharges[txn.Currency] = 0
			summary.TotalPayments[txn.Currency] = 0
			summary.TotalRefunds[txn.Currency] = 0
		}
		summary.Balance[txn.Currency] += txn.Amount

		switch txn.Type {
		case TransactionTypeCharge:
			summary.TotalCharges[txn.Currency] += txn.Amount
		case TransactionTypePayment:
			summary.TotalPayments[txn.Currency] += abs(txn.Amount)
		case TransactionTypeRefund:
			summary.TotalRefunds[txn.Currency] += txn.Amount
		}
	}

	if last != nil {
		createdAt := last.CreatedAt
		summary.LastTransactionDate = &createdAt
	}

	return summary
}
