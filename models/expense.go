package models

import (
	"github.com/shopspring/decimal"
)

// Person is an identity in the pool model: just an id and a display name.
type Person struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;size:100" json:"name"`
}

// Expense is the pool-model bill: the payer covered amount on behalf of
// participants, who share it equally.
type Expense struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Description  string          `gorm:"not null;size:255" json:"description"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PayerID      uint            `gorm:"index;not null" json:"payerId"`
	Participants []uint          `gorm:"serializer:json" json:"participants"`
}

// Request structs
type CreatePersonRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreateExpenseRequest struct {
	Description  string          `json:"description" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	PayerID      uint            `json:"payerId" binding:"required"`
	Participants []uint          `json:"participants" binding:"required"`
}
