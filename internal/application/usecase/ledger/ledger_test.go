package ledger

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
	"github.com/dental-clinic/backend/internal/integration/cache"
	"github.com/dental-clinic/backend/internal/integration/persistence/inmemory"
)

const testEmployeeID int64 = 7

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testLedger struct {
	repo    *inmemory.FinancialTransactionRepository
	cache   adapter.SummaryCache
	redis   *miniredis.Miniredis
	clock   *fixedClock
	append  *AppendTransactionUseCase
	get     *GetTransactionUseCase
	update  *UpdateTransactionUseCase
	list    *ListPatientTransactionsUseCase
	summary *GetPatientSummaryUseCase
	payment *RecordPaymentUseCase
	charge  *RecordChargeUseCase
	refund  *RecordRefundUseCase
}

func newTestLedger(t *testing.T, withCache bool) *testLedger {
	t.Helper()

	l := &testLedger{
		repo:  inmemory.NewFinancialTransactionRepository(),
		clock: &fixedClock{now: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)},
	}

	if withCache {
		l.redis = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: l.redis.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		l.cache = cache.NewSummaryCache(client, time.Minute)
	}

	l.wire()
	return l
}

// useCache rebuilds the use cases around a different summary cache.
func (l *testLedger) useCache(c adapter.SummaryCache) {
	l.cache = c
	l.wire()
}

func (l *testLedger) wire() {
	l.append = NewAppendTransactionUseCase(l.repo, l.cache, l.clock)
	l.get = NewGetTransactionUseCase(l.repo)
	l.update = NewUpdateTransactionUseCase(l.repo, l.cache, l.clock)
	l.list = NewListPatientTransactionsUseCase(l.repo)
	l.summary = NewGetPatientSummaryUseCase(l.repo, l.cache)
	l.payment = NewRecordPaymentUseCase(l.append)
	l.charge = NewRecordChargeUseCase(l.append)
	l.refund = NewRecordRefundUseCase(l.repo, l.append)
}

// stuckGenerationCache is a summary cache whose generation never advances.
type stuckGenerationCache struct {
	adapter.SummaryCache
	evictions int
}

func (c *stuckGenerationCache) Invalidate(ctx context.Context, patientID int64) error {
	return errors.New("ERR value is not an integer or out of range")
}

func (c *stuckGenerationCache) Evict(ctx context.Context, patientID int64) error {
	c.evictions++
	return c.SummaryCache.Evict(ctx, patientID)
}

func (l *testLedger) mustCharge(t *testing.T, patientID, amount int64, currency entity.Currency) *TransactionOutput {
	t.Helper()
	out, err := l.charge.Execute(context.Background(), RecordChargeInput{
		PatientID:   patientID,
		Amount:      amount,
		Currency:    currency,
		Description: "Treatment",
		RecordedBy:  testEmployeeID,
	})
	if err != nil {
		t.Fatalf("failed to record charge: %v", err)
	}
	return out.Transaction
}

func (l *testLedger) mustPay(t *testing.T, patientID, amount int64, currency entity.Currency) *TransactionOutput {
	t.Helper()
	out, err := l.payment.Execute(context.Background(), RecordPaymentInput{
		PatientID:     patientID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: "card",
		Description:   "Payment",
		RecordedBy:    testEmployeeID,
	})
	if err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}
	return out.Transaction
}

func (l *testLedger) mustSummary(t *testing.T, patientID int64) *entity.PatientFinancialSummary {
	t.Helper()
	out, err := l.summary.Execute(context.Background(), GetPatientSummaryInput{PatientID: patientID})
	if err != nil {
		t.Fatalf("failed to get summary: %v", err)
	}
	return out.Summary
}

func assertValidationField(t *testing.T, err error, code domainerror.LedgerErrorCode, field string) {
	t.Helper()
	var ledgerErr *domainerror.LedgerError
	if !errors.As(err, &ledgerErr) {
		t.Fatalf("expected ledger error, got %v", err)
	}
	if ledgerErr.Kind != domainerror.KindValidation {
		t.Errorf("expected validation error, got %s", ledgerErr.Kind)
	}
	if ledgerErr.Code != code {
		t.Errorf("expected code %s, got %s", code, ledgerErr.Code)
	}
	if ledgerErr.Field != field {
		t.Errorf("expected field %s, got %s", field, ledgerErr.Field)
	}
}

func statusPtr(s entity.TransactionStatus) *entity.TransactionStatus { return &s }

func stringPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestAppendTransaction_Validation(t *testing.T) {
	valid := AppendTransactionInput{
		PatientID:   1,
		Type:        entity.TransactionTypeCharge,
		Amount:      1000,
		Currency:    entity.CurrencyEUR,
		Description: "Consultation",
		RecordedBy:  testEmployeeID,
	}

	tests := []struct {
		name   string
		modify func(in *AppendTransactionInput)
		code   domainerror.LedgerErrorCode
		field  string
	}{
		{"unknown type", func(in *AppendTransactionInput) { in.Type = "transfer" }, domainerror.ErrCodeInvalidTransactionType, "type"},
		{"unsupported currency", func(in *AppendTransactionInput) { in.Currency = "USD" }, domainerror.ErrCodeInvalidCurrency, "currency"},
		{"blank description", func(in *AppendTransactionInput) { in.Description = "   " }, domainerror.ErrCodeEmptyDescription, "description"},
		{"long description", func(in *AppendTransactionInput) { in.Description = strings.Repeat("a", MaxDescriptionLength+1) }, domainerror.ErrCodeDescriptionTooLong, "description"},
		{"long cyrillic description", func(in *AppendTransactionInput) { in.Description = strings.Repeat("ш", MaxDescriptionLength+1) }, domainerror.ErrCodeDescriptionTooLong, "description"},
		{"long notes", func(in *AppendTransactionInput) { in.Notes = strings.Repeat("n", MaxNotesLength+1) }, domainerror.ErrCodeNotesTooLong, "notes"},
		{"missing recorder", func(in *AppendTransactionInput) { in.RecordedBy = 0 }, domainerror.ErrCodeMissingRecordedBy, "recorded_by"},
		{"non-positive patient", func(in *AppendTransactionInput) { in.PatientID = 0 }, domainerror.ErrCodeInvalidPatientID, "patient_id"},
		{"zero charge", func(in *AppendTransactionInput) { in.Amount = 0 }, domainerror.ErrCodeInvalidTransactionAmount, "amount"},
		{"negative charge", func(in *AppendTransactionInput) { in.Amount = -100 }, domainerror.ErrCodeInvalidTransactionAmount, "amount"},
		{"zero adjustment", func(in *AppendTransactionInput) {
			in.Type = entity.TransactionTypeAdjustment
			in.Amount = 0
		}, domainerror.ErrCodeInvalidTransactionAmount, "amount"},
		{"unknown status", func(in *AppendTransactionInput) { in.Status = "settled" }, domainerror.ErrCodeInvalidStatus, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t, false)
			input := valid
			tt.modify(&input)

			_, err := l.append.Execute(context.Background(), input)
			assertValidationField(t, err, tt.code, tt.field)

			if l.repo.Len() != 0 {
				t.Errorf("expected nothing appended, found %d transactions", l.repo.Len())
			}
		})
	}
}

func TestAppendTransaction_LengthsCountCharacters(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)

	description := strings.Repeat("ш", 130)
	notes := strings.Repeat("ž", MaxNotesLength)

	out, err := l.append.Execute(ctx, AppendTransactionInput{
		PatientID:   1,
		Type:        entity.TransactionTypeCharge,
		Amount:      1000,
		Currency:    entity.CurrencyRSD,
		Description: description,
		Notes:       notes,
		RecordedBy:  testEmployeeID,
	})
	if err != nil {
		t.Fatalf("expected multibyte text within limits to be accepted, got %v", err)
	}
	if out.Transaction.Description != description {
		t.Errorf("expected description to be stored unchanged")
	}

	edge := strings.Repeat("ђ", MaxDescriptionLength)
	if _, err := l.append.Execute(ctx, AppendTransactionInput{
		PatientID:   1,
		Type:        entity.TransactionTypeCharge,
		Amount:      1000,
		Currency:    entity.CurrencyRSD,
		Description: edge,
		RecordedBy:  testEmployeeID,
	}); err != nil {
		t.Errorf("expected %d-character description to be accepted, got %v", MaxDescriptionLength, err)
	}

	if _, err := l.update.Execute(ctx, UpdateTransactionInput{
		TransactionID: out.Transaction.ID,
		Notes:         stringPtr(strings.Repeat("č", MaxNotesLength)),
	}); err != nil {
		t.Errorf("expected %d-character notes update to be accepted, got %v", MaxNotesLength, err)
	}

	_, err = l.update.Execute(ctx, UpdateTransactionInput{
		TransactionID: out.Transaction.ID,
		Notes:         stringPtr(strings.Repeat("č", MaxNotesLength+1)),
	})
	assertValidationField(t, err, domainerror.ErrCodeNotesTooLong, "notes")
}

func TestAppendTransaction_NormalizesAndStamps(t *testing.T) {
	l := newTestLedger(t, false)

	out, err := l.append.Execute(context.Background(), AppendTransactionInput{
		PatientID:     1,
		Type:          entity.TransactionTypePayment,
		Amount:        5000,
		Currency:      entity.CurrencyEUR,
		Description:   "  Partial payment  ",
		PaymentMethod: "cash",
		AppointmentID: int64Ptr(12),
		RecordedBy:    testEmployeeID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txn := out.Transaction
	if txn.ID != 1 {
		t.Errorf("expected id 1, got %d", txn.ID)
	}
	if txn.Amount != -5000 {
		t.Errorf("expected amount -5000, got %d", txn.Amount)
	}
	if txn.AmountDecimal.StringFixed(2) != "-50.00" {
		t.Errorf("expected decimal -50.00, got %s", txn.AmountDecimal.StringFixed(2))
	}
	if txn.Description != "Partial payment" {
		t.Errorf("expected trimmed description, got %q", txn.Description)
	}
	if txn.Status != entity.TransactionStatusCompleted {
		t.Errorf("expected status completed, got %s", txn.Status)
	}
	if !txn.CreatedAt.Equal(l.clock.Now()) || !txn.ProcessedAt.Equal(l.clock.Now()) {
		t.Errorf("expected timestamps from the clock")
	}
	if txn.AppointmentID == nil || *txn.AppointmentID != 12 {
		t.Errorf("expected appointment id 12, got %v", txn.AppointmentID)
	}
}

func TestRecordCharge_RejectsNonPositiveAmount(t *testing.T) {
	l := newTestLedger(t, false)

	_, err := l.charge.Execute(context.Background(), RecordChargeInput{
		PatientID:   1,
		Amount:      -3000,
		Currency:    entity.CurrencyRSD,
		Description: "Cleaning",
		RecordedBy:  testEmployeeID,
	})
	assertValidationField(t, err, domainerror.ErrCodeInvalidTransactionAmount, "amount")
}

func TestRecordPaymentAndCharge_Balance(t *testing.T) {
	l := newTestLedger(t, false)

	charge := l.mustCharge(t, 1, 10000, entity.CurrencyEUR)
	payment := l.mustPay(t, 1, 5000, entity.CurrencyEUR)

	if charge.Amount != 10000 {
		t.Errorf("expected charge 10000, got %d", charge.Amount)
	}
	if payment.Amount != -5000 {
		t.Errorf("expected payment -5000, got %d", payment.Amount)
	}
	if payment.PaymentMethod != "card" {
		t.Errorf("expected payment method card, got %s", payment.PaymentMethod)
	}
	if payment.Type != entity.TransactionTypePayment {
		t.Errorf("expected payment type, got %s", payment.Type)
	}

	summary := l.mustSummary(t, 1)
	if summary.Balance[entity.CurrencyEUR] != 5000 {
		t.Errorf("expected balance 5000, got %d", summary.Balance[entity.CurrencyEUR])
	}
	if summary.TotalPayments[entity.CurrencyEUR] != 5000 {
		t.Errorf("expected payments 5000, got %d", summary.TotalPayments[entity.CurrencyEUR])
	}
	if summary.TransactionCount != 2 {
		t.Errorf("expected 2 transactions, got %d", summary.TransactionCount)
	}
}

func TestRecordRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("links to original payment", func(t *testing.T) {
		l := newTestLedger(t, false)
		payment := l.mustPay(t, 1, 8000, entity.CurrencyEUR)

		out, err := l.refund.Execute(ctx, RecordRefundInput{
			PatientID:             1,
			Amount:                2000,
			Currency:              entity.CurrencyEUR,
			OriginalTransactionID: payment.ID,
			Reason:                " Treatment shortened ",
			RecordedBy:            testEmployeeID,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		refund := out.Transaction
		if refund.Type != entity.TransactionTypeRefund || refund.Amount != 2000 {
			t.Errorf("expected refund of 2000, got %s %d", refund.Type, refund.Amount)
		}
		if refund.Description != "Treatment shortened" {
			t.Errorf("unexpected description %q", refund.Description)
		}
		if refund.Notes != "Refund of transaction #1: Treatment shortened" {
			t.Errorf("unexpected notes %q", refund.Notes)
		}
	})

	t.Run("defaults description without reason", func(t *testing.T) {
		l := newTestLedger(t, false)
		charge := l.mustCharge(t, 1, 8000, entity.CurrencyCHF)

		out, err := l.refund.Execute(ctx, RecordRefundInput{
			PatientID:             1,
			Amount:                -100,
			Currency:              entity.CurrencyCHF,
			OriginalTransactionID: charge.ID,
			RecordedBy:            testEmployeeID,
		})
		if err == nil {
			t.Fatalf("expected negative refund amount to be rejected, got %+v", out.Transaction)
		}
		assertValidationField(t, err, domainerror.ErrCodeInvalidTransactionAmount, "amount")

		out, err = l.refund.Execute(ctx, RecordRefundInput{
			PatientID:             1,
			Amount:                100,
			Currency:              entity.CurrencyCHF,
			OriginalTransactionID: charge.ID,
			RecordedBy:            testEmployeeID,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Transaction.Description != "Refund" {
			t.Errorf("expected default description, got %q", out.Transaction.Description)
		}
		if out.Transaction.Notes != "Refund of transaction #1" {
			t.Errorf("unexpected notes %q", out.Transaction.Notes)
		}
	})

	t.Run("rejects mismatched originals", func(t *testing.T) {
		l := newTestLedger(t, false)
		payment := l.mustPay(t, 1, 4000, entity.CurrencyEUR)
		adjustment, err := l.append.Execute(ctx, AppendTransactionInput{
			PatientID:   1,
			Type:        entity.TransactionTypeAdjustment,
			Amount:      -100,
			Currency:    entity.CurrencyEUR,
			Description: "Discount",
			RecordedBy:  testEmployeeID,
		})
		if err != nil {
			t.Fatalf("failed to append adjustment: %v", err)
		}

		cases := []struct {
			name  string
			input RecordRefundInput
		}{
			{"missing original", RecordRefundInput{PatientID: 1, Amount: 100, Currency: entity.CurrencyEUR}},
			{"unknown original", RecordRefundInput{PatientID: 1, Amount: 100, Currency: entity.CurrencyEUR, OriginalTransactionID: 999}},
			{"other patient", RecordRefundInput{PatientID: 2, Amount: 100, Currency: entity.CurrencyEUR, OriginalTransactionID: payment.ID}},
			{"other currency", RecordRefundInput{PatientID: 1, Amount: 100, Currency: entity.CurrencyCHF, OriginalTransactionID: payment.ID}},
			{"not refundable type", RecordRefundInput{PatientID: 1, Amount: 100, Currency: entity.CurrencyEUR, OriginalTransactionID: adjustment.Transaction.ID}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				tc.input.RecordedBy = testEmployeeID
				_, err := l.refund.Execute(ctx, tc.input)
				assertValidationField(t, err, domainerror.ErrCodeInvalidRefundReference, "original_transaction_id")
			})
		}

		if l.repo.Len() != 2 {
			t.Errorf("expected no refunds appended, found %d transactions", l.repo.Len())
		}
	})

	t.Run("reports unsupported currency first", func(t *testing.T) {
		l := newTestLedger(t, false)
		_, err := l.refund.Execute(ctx, RecordRefundInput{
			PatientID:             1,
			Amount:                100,
			Currency:              "USD",
			OriginalTransactionID: 42,
			RecordedBy:            testEmployeeID,
		})
		assertValidationField(t, err, domainerror.ErrCodeInvalidCurrency, "currency")
	})
}

func TestUpdateTransaction_StatusTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		initial entity.TransactionStatus
		target  entity.TransactionStatus
		allowed bool
	}{
		{"pending to completed", entity.TransactionStatusPending, entity.TransactionStatusCompleted, true},
		{"pending to cancelled", entity.TransactionStatusPending, entity.TransactionStatusCancelled, true},
		{"completed to refunded", entity.TransactionStatusCompleted, entity.TransactionStatusRefunded, true},
		{"completed to cancelled", entity.TransactionStatusCompleted, entity.TransactionStatusCancelled, true},
		{"completed to completed", entity.TransactionStatusCompleted, entity.TransactionStatusCompleted, true},
		{"completed to pending", entity.TransactionStatusCompleted, entity.TransactionStatusPending, false},
		{"cancelled to completed", entity.TransactionStatusCancelled, entity.TransactionStatusCompleted, false},
		{"pending to refunded", entity.TransactionStatusPending, entity.TransactionStatusRefunded, false},
		{"refunded to completed", entity.TransactionStatusRefunded, entity.TransactionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t, false)
			created, err := l.append.Execute(ctx, AppendTransactionInput{
				PatientID:   1,
				Type:        entity.TransactionTypeCharge,
				Amount:      1000,
				Currency:    entity.CurrencyEUR,
				Description: "Filling",
				RecordedBy:  testEmployeeID,
				Status:      tt.initial,
			})
			if err != nil {
				t.Fatalf("failed to append: %v", err)
			}

			out, err := l.update.Execute(ctx, UpdateTransactionInput{
				TransactionID: created.Transaction.ID,
				Status:        statusPtr(tt.target),
			})

			if tt.allowed {
				if err != nil {
					t.Fatalf("expected transition to be allowed, got %v", err)
				}
				if out.Transaction.Status != tt.target {
					t.Errorf("expected status %s, got %s", tt.target, out.Transaction.Status)
				}
				return
			}

			assertValidationField(t, err, domainerror.ErrCodeIllegalStatusTransition, "status")
			stored, _ := l.repo.FindByID(ctx, created.Transaction.ID)
			if stored.Status != tt.initial {
				t.Errorf("expected stored status to stay %s, got %s", tt.initial, stored.Status)
			}
		})
	}
}

func TestUpdateTransaction_CancelCompletedCharge(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)

	charge := l.mustCharge(t, 3, 3000, entity.CurrencyEUR)
	if charge.Status != entity.TransactionStatusCompleted {
		t.Fatalf("expected charge to be completed, got %s", charge.Status)
	}
	if balance := l.mustSummary(t, 3).Balance[entity.CurrencyEUR]; balance != 3000 {
		t.Fatalf("expected EUR balance 3000, got %d", balance)
	}

	if _, err := l.update.Execute(ctx, UpdateTransactionInput{
		TransactionID: charge.ID,
		Status:        statusPtr(entity.TransactionStatusCancelled),
	}); err != nil {
		t.Fatalf("failed to cancel charge: %v", err)
	}

	summary := l.mustSummary(t, 3)
	if _, ok := summary.Balance[entity.CurrencyEUR]; ok {
		t.Errorf("expected no EUR balance, got %d", summary.Balance[entity.CurrencyEUR])
	}
	if _, ok := summary.TotalCharges[entity.CurrencyEUR]; ok {
		t.Errorf("expected no EUR charges, got %d", summary.TotalCharges[entity.CurrencyEUR])
	}
	if summary.TransactionCount != 1 {
		t.Errorf("expected 1 transaction, got %d", summary.TransactionCount)
	}

	listed, err := l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: 3})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(listed.Transactions) != 1 || listed.Transactions[0].Status != entity.TransactionStatusCancelled {
		t.Errorf("expected the cancelled charge to stay listed")
	}
}

func TestUpdateTransaction_MutableFields(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)

	created := l.mustCharge(t, 1, 1000, entity.CurrencyEUR)
	l.clock.Advance(time.Hour)

	out, err := l.update.Execute(ctx, UpdateTransactionInput{
		TransactionID: created.ID,
		Notes:         stringPtr("Approved by head dentist"),
		AuthorizedBy:  int64Ptr(9),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := out.Transaction
	if updated.Notes != "Approved by head dentist" {
		t.Errorf("unexpected notes %q", updated.Notes)
	}
	if updated.AuthorizedBy == nil || *updated.AuthorizedBy != 9 {
		t.Errorf("expected authorized by 9, got %v", updated.AuthorizedBy)
	}
	if !updated.UpdatedAt.Equal(l.clock.Now()) {
		t.Errorf("expected updated at to advance")
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("expected created at unchanged")
	}
	if updated.Amount != created.Amount || updated.Description != created.Description {
		t.Errorf("expected immutable fields unchanged")
	}
}

func TestUpdateTransaction_Errors(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)
	created := l.mustCharge(t, 1, 1000, entity.CurrencyEUR)

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := l.update.Execute(ctx, UpdateTransactionInput{TransactionID: 999, Notes: stringPtr("x")})
		if !domainerror.IsNotFound(err) {
			t.Errorf("expected not found, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := l.update.Execute(ctx, UpdateTransactionInput{TransactionID: created.ID, Status: statusPtr("settled")})
		assertValidationField(t, err, domainerror.ErrCodeInvalidStatus, "status")
	})

	t.Run("notes too long", func(t *testing.T) {
		_, err := l.update.Execute(ctx, UpdateTransactionInput{
			TransactionID: created.ID,
			Notes:         stringPtr(strings.Repeat("n", MaxNotesLength+1)),
		})
		assertValidationField(t, err, domainerror.ErrCodeNotesTooLong, "notes")
	})

	t.Run("invalid authorizer", func(t *testing.T) {
		_, err := l.update.Execute(ctx, UpdateTransactionInput{TransactionID: created.ID, AuthorizedBy: int64Ptr(0)})
		assertValidationField(t, err, domainerror.ErrCodeInvalidAuthorizedBy, "authorized_by")
	})
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)
	created := l.mustPay(t, 3, 2500, entity.CurrencyCHF)

	out, err := l.get.Execute(ctx, GetTransactionInput{TransactionID: created.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Transaction.Amount != -2500 || out.Transaction.Currency != entity.CurrencyCHF {
		t.Errorf("unexpected transaction %+v", out.Transaction)
	}

	_, err = l.get.Execute(ctx, GetTransactionInput{TransactionID: 404})
	if !domainerror.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListPatientTransactions(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)

	first := l.mustCharge(t, 1, 1000, entity.CurrencyEUR)
	l.clock.Advance(time.Minute)
	second := l.mustPay(t, 1, 500, entity.CurrencyEUR)
	l.clock.Advance(time.Minute)
	third := l.mustCharge(t, 1, 70000, entity.CurrencyRSD)
	l.mustCharge(t, 2, 1000, entity.CurrencyEUR)

	t.Run("newest first", func(t *testing.T) {
		out, err := l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Transactions) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(out.Transactions))
		}
		want := []int64{third.ID, second.ID, first.ID}
		for i, txn := range out.Transactions {
			if txn.ID != want[i] {
				t.Errorf("position %d: expected id %d, got %d", i, want[i], txn.ID)
			}
		}
	})

	t.Run("filters", func(t *testing.T) {
		currency := entity.CurrencyRSD
		out, err := l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: 1, Currency: &currency})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Transactions) != 1 || out.Transactions[0].ID != third.ID {
			t.Errorf("expected only the RSD charge, got %d transactions", len(out.Transactions))
		}

		txnType := entity.TransactionTypePayment
		out, err = l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: 1, Type: &txnType})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Transactions) != 1 || out.Transactions[0].ID != second.ID {
			t.Errorf("expected only the payment, got %d transactions", len(out.Transactions))
		}
	})

	t.Run("unknown patient is empty", func(t *testing.T) {
		out, err := l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: 42})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Transactions == nil || len(out.Transactions) != 0 {
			t.Errorf("expected empty non-nil list, got %v", out.Transactions)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: -1})
		assertValidationField(t, err, domainerror.ErrCodeInvalidPatientID, "patient_id")

		status := entity.TransactionStatus("settled")
		_, err = l.list.Execute(ctx, ListPatientTransactionsInput{PatientID: 1, Status: &status})
		assertValidationField(t, err, domainerror.ErrCodeInvalidStatus, "status")
	})
}

func TestGetPatientSummary_ExcludesNonCompleted(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)

	l.mustCharge(t, 1, 1000, entity.CurrencyEUR)
	pending, err := l.append.Execute(ctx, AppendTransactionInput{
		PatientID:   1,
		Type:        entity.TransactionTypeCharge,
		Amount:      2500,
		Currency:    entity.CurrencyCHF,
		Description: "Implant deposit",
		RecordedBy:  testEmployeeID,
		Status:      entity.TransactionStatusPending,
	})
	if err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	summary := l.mustSummary(t, 1)
	if _, ok := summary.Balance[entity.CurrencyCHF]; ok {
		t.Errorf("expected pending CHF charge to be excluded")
	}
	if summary.TransactionCount != 2 {
		t.Errorf("expected 2 transactions, got %d", summary.TransactionCount)
	}

	if _, err := l.update.Execute(ctx, UpdateTransactionInput{
		TransactionID: pending.Transaction.ID,
		Status:        statusPtr(entity.TransactionStatusCompleted),
	}); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}

	summary = l.mustSummary(t, 1)
	if summary.Balance[entity.CurrencyCHF] != 2500 {
		t.Errorf("expected CHF balance 2500, got %d", summary.Balance[entity.CurrencyCHF])
	}
}

func TestGetPatientSummary_Cache(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, true)

	l.mustCharge(t, 1, 1000, entity.CurrencyEUR)

	first := l.mustSummary(t, 1)
	if first.Balance[entity.CurrencyEUR] != 1000 {
		t.Fatalf("expected balance 1000, got %d", first.Balance[entity.CurrencyEUR])
	}

	generation, err := l.cache.Generation(ctx, 1)
	if err != nil {
		t.Fatalf("failed to read generation: %v", err)
	}
	if _, ok, _ := l.cache.Get(ctx, 1, generation); !ok {
		t.Fatalf("expected summary to be cached at generation %d", generation)
	}

	l.mustPay(t, 1, 400, entity.CurrencyEUR)

	next, err := l.cache.Generation(ctx, 1)
	if err != nil {
		t.Fatalf("failed to read generation: %v", err)
	}
	if next <= generation {
		t.Errorf("expected generation to advance after a write, got %d then %d", generation, next)
	}

	second := l.mustSummary(t, 1)
	if second.Balance[entity.CurrencyEUR] != 600 {
		t.Errorf("expected fresh balance 600, got %d", second.Balance[entity.CurrencyEUR])
	}
}

func TestGetPatientSummary_Idempotent(t *testing.T) {
	ctx := context.Background()

	for _, withCache := range []bool{false, true} {
		name := "without cache"
		if withCache {
			name = "with cache"
		}

		t.Run(name, func(t *testing.T) {
			l := newTestLedger(t, withCache)

			l.mustCharge(t, 1, 12000, entity.CurrencyEUR)
			l.clock.Advance(time.Minute)
			l.mustPay(t, 1, 5000, entity.CurrencyEUR)
			l.clock.Advance(time.Minute)
			l.mustCharge(t, 1, 250000, entity.CurrencyRSD)
			l.clock.Advance(time.Minute)
			if _, err := l.append.Execute(ctx, AppendTransactionInput{
				PatientID:   1,
				Type:        entity.TransactionTypeCharge,
				Amount:      900,
				Currency:    entity.CurrencyCHF,
				Description: "Whitening",
				RecordedBy:  testEmployeeID,
				Status:      entity.TransactionStatusPending,
			}); err != nil {
				t.Fatalf("failed to append: %v", err)
			}

			first := l.mustSummary(t, 1)
			second := l.mustSummary(t, 1)
			third := l.mustSummary(t, 1)

			if !reflect.DeepEqual(first, second) {
				t.Errorf("expected identical summaries, got %+v and %+v", first, second)
			}
			if !reflect.DeepEqual(second, third) {
				t.Errorf("expected identical summaries, got %+v and %+v", second, third)
			}
			if first.LastTransactionDate == nil || !first.LastTransactionDate.Equal(l.clock.Now()) {
				t.Errorf("expected last transaction date %v, got %v", l.clock.Now(), first.LastTransactionDate)
			}
			if first.TransactionCount != 4 {
				t.Errorf("expected 4 transactions, got %d", first.TransactionCount)
			}
		})
	}
}

func TestGetPatientSummary_InvalidateFailureEvicts(t *testing.T) {
	l := newTestLedger(t, true)
	l.mustCharge(t, 1, 1000, entity.CurrencyEUR)

	if balance := l.mustSummary(t, 1).Balance[entity.CurrencyEUR]; balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", balance)
	}

	stuck := &stuckGenerationCache{SummaryCache: l.cache}
	l.useCache(stuck)

	l.mustPay(t, 1, 1000, entity.CurrencyEUR)

	if stuck.evictions != 1 {
		t.Errorf("expected one eviction, got %d", stuck.evictions)
	}

	summary := l.mustSummary(t, 1)
	if summary.Balance[entity.CurrencyEUR] != 0 || summary.TransactionCount != 2 {
		t.Errorf("expected balance 0 over 2 transactions, got %d over %d",
			summary.Balance[entity.CurrencyEUR], summary.TransactionCount)
	}
}

func TestGetPatientSummary_CacheUnavailable(t *testing.T) {
	l := newTestLedger(t, true)
	l.mustCharge(t, 1, 1000, entity.CurrencyEUR)

	l.redis.Close()

	summary := l.mustSummary(t, 1)
	if summary.Balance[entity.CurrencyEUR] != 1000 {
		t.Errorf("expected balance computed without cache, got %d", summary.Balance[entity.CurrencyEUR])
	}
}

func TestAppendTransaction_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, false)

	const writers = 50
	var wg sync.WaitGroup
	ids := make(chan int64, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := l.payment.Execute(ctx, RecordPaymentInput{
				PatientID:   1,
				Amount:      100,
				Currency:    entity.CurrencyEUR,
				Description: "Installment",
				RecordedBy:  testEmployeeID,
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			ids <- out.Transaction.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %d", id)
		}
		seen[id] = true
	}

	summary := l.mustSummary(t, 1)
	if summary.Balance[entity.CurrencyEUR] != -writers*100 {
		t.Errorf("expected balance %d, got %d", -writers*100, summary.Balance[entity.CurrencyEUR])
	}
	if summary.TransactionCount != writers {
		t.Errorf("expected %d transactions, got %d", writers, summary.TransactionCount)
	}
}
