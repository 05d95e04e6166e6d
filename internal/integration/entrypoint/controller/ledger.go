// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dental-clinic/backend/internal/application/usecase/ledger"
	"github.com/dental-clinic/backend/internal/domain/entity"
	domainerror "github.com/dental-clinic/backend/internal/domain/error"
	"github.com/dental-clinic/backend/internal/integration/entrypoint/dto"
	"github.com/dental-clinic/backend/internal/integration/entrypoint/middleware"
)

// LedgerController handles patient ledger endpoints.
type LedgerController struct {
	appendUseCase  *ledger.AppendTransactionUseCase
	getUseCase     *ledger.GetTransactionUseCase
	updateUseCase  *ledger.UpdateTransactionUseCase
	listUseCase    *ledger.ListPatientTransactionsUseCase
	summaryUseCase *ledger.GetPatientSummaryUseCase
	paymentUseCase *ledger.RecordPaymentUseCase
	chargeUseCase  *ledger.RecordChargeUseCase
	refundUseCase  *ledger.RecordRefundUseCase
}

// NewLedgerController creates a new ledger controller instance.
func NewLedgerController(
	appendUseCase *ledger.AppendTransactionUseCase,
	getUseCase *ledger.GetTransactionUseCase,
	updateUseCase *ledger.UpdateTransactionUseCase,
	listUseCase *ledger.ListPatientTransactionsUseCase,
	summaryUseCase *ledger.GetPatientSummaryUseCase,
	paymentUseCase *ledger.RecordPaymentUseCase,
	chargeUseCase *ledger.RecordChargeUseCase,
	refundUseCase *ledger.RecordRefundUseCase,
) *LedgerController {
	return &LedgerController{
		appendUseCase:  appendUseCase,
		getUseCase:     getUseCase,
		updateUseCase:  updateUseCase,
		listUseCase:    listUseCase,
		summaryUseCase: summaryUseCase,
		paymentUseCase: paymentUseCase,
		chargeUseCase:  chargeUseCase,
		refundUseCase:  refundUseCase,
	}
}

// Create handles POST /transactions requests.
func (c *LedgerController) Create(ctx *gin.Context) {
	employeeID, ok := requireEmployee(ctx)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	input := ledger.AppendTransactionInput{
		PatientID:            req.PatientID,
		Type:                 entity.TransactionType(req.Type),
		Amount:               req.Amount,
		Currency:             entity.Currency(req.Currency),
		Description:          req.Description,
		Category:             req.Category,
		PaymentMethod:        req.PaymentMethod,
		TransactionReference: req.TransactionReference,
		AppointmentID:        req.AppointmentID,
		TreatmentID:          req.TreatmentID,
		Notes:                req.Notes,
		RecordedBy:           employeeID,
		Status:               entity.TransactionStatus(req.Status),
	}

	output, err := c.appendUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToTransactionResponse(output.Transaction))
}

// Get handles GET /transactions/:id requests.
func (c *LedgerController) Get(ctx *gin.Context) {
	transactionID, ok := parseTransactionID(ctx)
	if !ok {
		return
	}

	output, err := c.getUseCase.Execute(ctx.Request.Context(), ledger.GetTransactionInput{
		TransactionID: transactionID,
	})
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponse(output.Transaction))
}

// Update handles PATCH /transactions/:id requests.
// Only status, notes and authorized_by may be sent.
func (c *LedgerController) Update(ctx *gin.Context) {
	transactionID, ok := parseTransactionID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if !bindJSON(ctx, &req) {
		return
	}

	if field := req.ImmutableField(); field != "" {
		c.handleLedgerError(ctx, domainerror.NewValidationError(
			domainerror.ErrCodeImmutableField, field,
			field+" cannot be changed after creation", domainerror.ErrImmutableField,
		))
		return
	}

	input := ledger.UpdateTransactionInput{
		TransactionID: transactionID,
		Notes:         req.Notes,
		AuthorizedBy:  req.AuthorizedBy,
	}
	if req.Status != nil {
		status := entity.TransactionStatus(*req.Status)
		input.Status = &status
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionResponse(output.Transaction))
}

// RecordPayment handles POST /patients/:patientId/payments requests.
func (c *LedgerController) RecordPayment(ctx *gin.Context) {
	employeeID, ok := requireEmployee(ctx)
	if !ok {
		return
	}
	patientID, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if !bindJSON(ctx, &req) {
		return
	}

	output, err := c.paymentUseCase.Execute(ctx.Request.Context(), ledger.RecordPaymentInput{
		PatientID:     patientID,
		Amount:        req.Amount,
		Currency:      entity.Currency(req.Currency),
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		RecordedBy:    employeeID,
	})
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToTransactionResponse(output.Transaction))
}

// RecordCharge handles POST /patients/:patientId/charges requests.
func (c *LedgerController) RecordCharge(ctx *gin.Context) {
	employeeID, ok := requireEmployee(ctx)
	if !ok {
		return
	}
	patientID, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	var req dto.RecordChargeRequest
	if !bindJSON(ctx, &req) {
		return
	}

	output, err := c.chargeUseCase.Execute(ctx.Request.Context(), ledger.RecordChargeInput{
		PatientID:   patientID,
		Amount:      req.Amount,
		Currency:    entity.Currency(req.Currency),
		Description: req.Description,
		Category:    req.Category,
		RecordedBy:  employeeID,
	})
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToTransactionResponse(output.Transaction))
}

// RecordRefund handles POST /patients/:patientId/refunds requests.
func (c *LedgerController) RecordRefund(ctx *gin.Context) {
	employeeID, ok := requireEmployee(ctx)
	if !ok {
		return
	}
	patientID, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	var req dto.RecordRefundRequest
	if !bindJSON(ctx, &req) {
		return
	}

	output, err := c.refundUseCase.Execute(ctx.Request.Context(), ledger.RecordRefundInput{
		PatientID:             patientID,
		Amount:                req.Amount,
		Currency:              entity.Currency(req.Currency),
		OriginalTransactionID: req.OriginalTransactionID,
		Reason:                req.Reason,
		RecordedBy:            employeeID,
	})
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToTransactionResponse(output.Transaction))
}

// ListPatientTransactions handles GET /patients/:patientId/transactions requests.
// Optional query filters: status, type, currency.
func (c *LedgerController) ListPatientTransactions(ctx *gin.Context) {
	patientID, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	input := ledger.ListPatientTransactionsInput{
		PatientID: patientID,
	}
	if statusStr := ctx.Query("status"); statusStr != "" {
		status := entity.TransactionStatus(statusStr)
		input.Status = &status
	}
	if typeStr := ctx.Query("type"); typeStr != "" {
		txnType := entity.TransactionType(typeStr)
		input.Type = &txnType
	}
	if currencyStr := ctx.Query("currency"); currencyStr != "" {
		currency := entity.Currency(currencyStr)
		input.Currency = &currency
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionListResponse(patientID, output))
}

// GetPatientSummary handles GET /patients/:patientId/summary requests.
func (c *LedgerController) GetPatientSummary(ctx *gin.Context) {
	patientID, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	output, err := c.summaryUseCase.Execute(ctx.Request.Context(), ledger.GetPatientSummaryInput{
		PatientID: patientID,
	})
	if err != nil {
		c.handleLedgerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToPatientSummaryResponse(output.Summary))
}

// handleLedgerError maps ledger errors to HTTP responses.
func (c *LedgerController) handleLedgerError(ctx *gin.Context, err error) {
	var ledgerErr *domainerror.LedgerError
	if !errors.As(err, &ledgerErr) {
		slog.Error("Ledger request failed",
			"path", ctx.FullPath(),
			"request_id", ctx.GetString(string(middleware.RequestIDKey)),
			"error", err,
		)
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An unexpected error occurred",
		})
		return
	}

	response := dto.ErrorResponse{
		Error: ledgerErr.Error(),
		Code:  string(ledgerErr.Code),
		Field: ledgerErr.Field,
	}

	switch {
	case ledgerErr.Code == domainerror.ErrCodeIllegalStatusTransition:
		ctx.JSON(http.StatusUnprocessableEntity, response)
	case ledgerErr.Kind == domainerror.KindValidation:
		ctx.JSON(http.StatusBadRequest, response)
	case ledgerErr.Kind == domainerror.KindNotFound:
		ctx.JSON(http.StatusNotFound, response)
	case ledgerErr.Kind == domainerror.KindConflict:
		ctx.JSON(http.StatusConflict, response)
	default:
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "An unexpected error occurred",
		})
	}
}

func requireEmployee(ctx *gin.Context) (int64, bool) {
	employeeID, ok := middleware.GetEmployeeIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "Employee not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return 0, false
	}
	return employeeID, true
}

func bindJSON(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid request body: " + err.Error(),
			Code:  string(domainerror.ErrCodeMalformedRequest),
		})
		return false
	}
	return true
}

func parseTransactionID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid transaction ID format",
			Code:  string(domainerror.ErrCodeMalformedRequest),
			Field: "id",
		})
		return 0, false
	}
	return id, true
}

func parsePatientID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("patientId"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid patient ID",
			Code:  string(domainerror.ErrCodeInvalidPatientID),
			Field: "patient_id",
		})
		return 0, false
	}
	return id, true
}
