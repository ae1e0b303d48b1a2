package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auditable carries the shared audit columns. Created/updated user refs are
// denormalized history only; nothing branches on them.
type Auditable struct {
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedByID *string   `gorm:"type:char(36)" json:"created_by_id"`
	UpdatedByID *string   `gorm:"type:char(36)" json:"updated_by_id"`
}

// FinancialDocument is the shape the approval workflow drives. Bill and
// DisbursementVoucher implement it; the workflow writes transitions back
// through the concrete type so GORM resolves the right table.
type FinancialDocument interface {
	GetID() string
	GetDocumentNumber() string
	GetStatus() DocumentStatus
	GetAmount() decimal.Decimal
	GetInitiatorUserID() string
	GetApprovedByLevel1ID() *string
}

// Totals is the result of a header-totals recomputation.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}
