package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EmployeeAdvance tracks money issued to an employee ahead of expenses. The
// settled amounts never exceed what was issued:
// amount_liquidated + amount_repaid <= amount_issued.
type EmployeeAdvance struct {
	ID                    string          `gorm:"type:char(36);primaryKey" json:"id"`
	AdvanceNumber         string          `gorm:"size:100;uniqueIndex;not null" json:"advance_number"`
	EmployeeID            string          `gorm:"type:char(36);index;not null" json:"employee_id"`
	DisbursementVoucherID *string         `gorm:"type:char(36);index" json:"disbursement_voucher_id"`
	DateIssued            time.Time       `gorm:"index;not null" json:"date_issued"`
	DateDue               *time.Time      `json:"date_due"`
	AmountIssued          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_issued"`
	AmountLiquidated      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"amount_liquidated"`
	AmountRepaid          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"amount_repaid"`
	Status                AdvanceStatus   `gorm:"size:30;index;not null;default:ISSUED" json:"status"`
	Purpose               string          `gorm:"type:text" json:"purpose"`
	Auditable
}

func (a *EmployeeAdvance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// OutstandingBalance is the portion of the advance not yet settled.
func (a *EmployeeAdvance) OutstandingBalance() decimal.Decimal {
	return a.AmountIssued.Sub(a.AmountLiquidated).Sub(a.AmountRepaid)
}

// IsOverdue reports whether an unsettled balance remains past the due date.
func (a *EmployeeAdvance) IsOverdue(now time.Time) bool {
	if a.DateDue == nil || a.Status == AdvanceCancelled {
		return false
	}
	return now.After(*a.DateDue) && a.OutstandingBalance().IsPositive()
}

func (a *EmployeeAdvance) deriveStatus() AdvanceStatus {
	if a.Status == AdvanceCancelled {
		return AdvanceCancelled
	}
	settled := a.AmountLiquidated.Add(a.AmountRepaid)
	switch {
	case settled.GreaterThanOrEqual(a.AmountIssued):
		return AdvanceLiquidated
	case settled.IsPositive():
		return AdvancePartiallyLiquidated
	default:
		return AdvanceIssued
	}
}

type NewEmployeeAdvance struct {
	EmployeeID            string          `json:"employee_id" validate:"required"`
	DisbursementVoucherID *string         `json:"disbursement_voucher_id"`
	DateIssued            time.Time       `json:"date_issued" validate:"required"`
	DateDue               *time.Time      `json:"date_due"`
	AmountIssued          decimal.Decimal `json:"amount_issued"`
	Purpose               string          `json:"purpose"`
}

func CreateEmployeeAdvance(ctx context.Context, input *NewEmployeeAdvance) (*EmployeeAdvance, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if !input.AmountIssued.IsPositive() {
		return nil, utils.NewValidationError("", "issued amount must be positive")
	}
	db := config.GetDB()
	var advance *EmployeeAdvance
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := utils.ValidateResourceId[Employee](ctx, tx, input.EmployeeID); err != nil {
			return utils.NewValidationError("", "employee does not exist")
		}
		number, err := NextDocumentNumber(ctx, tx, "ADV")
		if err != nil {
			return err
		}
		userID, _ := utils.GetUserIdFromContext(ctx)
		advance = &EmployeeAdvance{
			ID:                    uuid.NewString(),
			AdvanceNumber:         number,
			EmployeeID:            input.EmployeeID,
			DisbursementVoucherID: input.DisbursementVoucherID,
			DateIssued:            input.DateIssued,
			DateDue:               input.DateDue,
			AmountIssued:          input.AmountIssued.Round(2),
			Status:                AdvanceIssued,
			Purpose:               input.Purpose,
		}
		if userID != "" {
			advance.CreatedByID = &userID
			advance.UpdatedByID = &userID
		}
		return tx.Create(advance).Error
	})
	if err != nil {
		return nil, err
	}
	return advance, nil
}

// RecordLiquidation adds a liquidation (expense receipts submitted against the
// advance) and rolls the status forward. The settlement amounts are validated
// as user input, not recomputed from linked documents.
func RecordLiquidation(ctx context.Context, advanceID string, amount decimal.Decimal) (*EmployeeAdvance, error) {
	return settleAdvance(ctx, advanceID, amount, decimal.Zero)
}

// RecordRepayment adds a cash repayment against the advance.
func RecordRepayment(ctx context.Context, advanceID string, amount decimal.Decimal) (*EmployeeAdvance, error) {
	return settleAdvance(ctx, advanceID, decimal.Zero, amount)
}

func settleAdvance(ctx context.Context, advanceID string, liquidated, repaid decimal.Decimal) (*EmployeeAdvance, error) {
	delta := liquidated.Add(repaid)
	if !delta.IsPositive() {
		return nil, utils.NewValidationError("", "settlement amount must be positive")
	}
	db := config.GetDB()
	var advance *EmployeeAdvance
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		advance, err = GetEmployeeAdvance(ctx, tx, advanceID)
		if err != nil {
			return err
		}
		if advance.Status == AdvanceCancelled {
			return utils.NewPolicyError(advance.AdvanceNumber, "cancelled advances cannot be settled")
		}
		if delta.GreaterThan(advance.OutstandingBalance()) {
			return utils.NewValidationError(advance.AdvanceNumber,
				"settlement exceeds the outstanding balance")
		}
		advance.AmountLiquidated = advance.AmountLiquidated.Add(liquidated).Round(2)
		advance.AmountRepaid = advance.AmountRepaid.Add(repaid).Round(2)
		advance.Status = advance.deriveStatus()
		userID, _ := utils.GetUserIdFromContext(ctx)
		updates := map[string]interface{}{
			"amount_liquidated": advance.AmountLiquidated,
			"amount_repaid":     advance.AmountRepaid,
			"status":            advance.Status,
		}
		if userID != "" {
			updates["updated_by_id"] = userID
		}
		return tx.Model(&EmployeeAdvance{}).Where("id = ?", advanceID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return advance, nil
}

// CancelAdvance marks an untouched advance as cancelled. Advances with any
// settlement recorded stay on their derived status.
func CancelAdvance(ctx context.Context, advanceID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advance, err := GetEmployeeAdvance(ctx, tx, advanceID)
		if err != nil {
			return err
		}
		if advance.AmountLiquidated.Add(advance.AmountRepaid).IsPositive() {
			return utils.NewPolicyError(advance.AdvanceNumber,
				"advances with recorded settlements cannot be cancelled")
		}
		return tx.Model(&EmployeeAdvance{}).Where("id = ?", advanceID).
			Update("status", AdvanceCancelled).Error
	})
}

func GetEmployeeAdvance(ctx context.Context, tx *gorm.DB, id string) (*EmployeeAdvance, error) {
	var advance EmployeeAdvance
	if err := tx.WithContext(ctx).First(&advance, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &advance, nil
}
