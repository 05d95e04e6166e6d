// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/dental-clinic/backend/internal/domain/entity"
)

// FinancialTransactionModel represents the financial_transactions table in the database.
type FinancialTransactionModel struct {
	ID                   int64  `gorm:"primaryKey;autoIncrement"`
	PatientID            int64  `gorm:"not null;index"`
	Type                 string `gorm:"type:varchar(16);not null"`
	Amount               int64  `gorm:"not null"` // Signed, smallest currency unit
	Currency             string `gorm:"type:varchar(3);not null"`
	Description          string `gorm:"type:varchar(255);not null"`
	Category             string `gorm:"type:varchar(100)"`
	PaymentMethod        string `gorm:"type:varchar(50)"`
	TransactionReference string `gorm:"type:varchar(100)"`
	AppointmentID        *int64 `gorm:"index"`
	TreatmentID          *int64 `gorm:"index"`
	Notes                string `gorm:"type:text"`
	RecordedBy           int64  `gorm:"not null"`
	AuthorizedBy         *int64
	Status               string    `gorm:"type:varchar(16);not null;index"`
	ProcessedAt          time.Time `gorm:"not null"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
	Version              int64     `gorm:"not null;default:1"` // Bumped on every update
}

// TableName returns the table name for the FinancialTransactionModel.
func (FinancialTransactionModel) TableName() string {
	return "financial_transactions"
}

// ToEntity converts a FinancialTransactionModel to a domain FinancialTransaction entity.
func (m *FinancialTransactionModel) ToEntity() *entity.FinancialTransaction {
	return &entity.FinancialTransaction{
		ID:                   m.ID,
		PatientID:            m.PatientID,
		Type:                 entity.TransactionType(m.Type),
		Amount:               m.Amount,
		Currency:             entity.Currency(m.Currency),
		Description:          m.Description,
		Category:             m.Category,
		PaymentMethod:        m.PaymentMethod,
		TransactionReference: m.TransactionReference,
		AppointmentID:        m.AppointmentID,
		TreatmentID:          m.TreatmentID,
		Notes:                m.Notes,
		RecordedBy:           m.RecordedBy,
		AuthorizedBy:         m.AuthorizedBy,
		Status:               entity.TransactionStatus(m.Status),
		ProcessedAt:          m.ProcessedAt.UTC(),
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
}

// FinancialTransactionFromEntity creates a FinancialTransactionModel from a domain entity.
func FinancialTransactionFromEntity(transaction *entity.FinancialTransaction) *FinancialTransactionModel {
	return &FinancialTransactionModel{
		ID:                   transaction.ID,
		PatientID:            transaction.PatientID,
		Type:                 string(transaction.Type),
		Amount:               transaction.Amount,
		Currency:             string(transaction.Currency),
		Description:          transaction.Description,
		Category:             transaction.Category,
		PaymentMethod:        transaction.PaymentMethod,
		TransactionReference: transaction.TransactionReference,
		AppointmentID:        transaction.AppointmentID,
		TreatmentID:          transaction.TreatmentID,
		Notes:                transaction.Notes,
		RecordedBy:           transaction.RecordedBy,
		AuthorizedBy:         transaction.AuthorizedBy,
		Status:               string(transaction.Status),
		ProcessedAt:          transaction.ProcessedAt,
		CreatedAt:            transaction.CreatedAt,
		UpdatedAt:            transaction.UpdatedAt,
		Version:              1,
	}
}
