package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DisbursementVoucher authorizes an outgoing payment before any money moves.
// The payee is a tagged variant: exactly one of VendorID, EmployeeID or
// OtherPayeeName is set, selected by PayeeType.
type DisbursementVoucher struct {
	ID                 string          `gorm:"type:char(36);primaryKey" json:"id"`
	VoucherNumber      string          `gorm:"size:100;uniqueIndex;not null" json:"voucher_number"`
	VoucherDate        time.Time       `gorm:"index;not null" json:"voucher_date"`
	PayeeType          PayeeType       `gorm:"size:20;not null" json:"payee_type"`
	VendorID           *string         `gorm:"type:char(36);index" json:"vendor_id"`
	EmployeeID         *string         `gorm:"type:char(36);index" json:"employee_id"`
	OtherPayeeName     *string         `gorm:"size:255" json:"other_payee_name"`
	Amount             decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Purpose            string          `gorm:"type:text;not null" json:"purpose"`
	PaymentMethod      PaymentMethod   `gorm:"size:20;not null;default:CHECK" json:"payment_method"`
	CheckNumber        string          `gorm:"size:50" json:"check_number"`
	PaymentAccountID   *string         `gorm:"type:char(36)" json:"payment_account_id"`
	Status             DocumentStatus  `gorm:"size:20;index;not null;default:DRAFT" json:"status"`
	InitiatorID        string          `gorm:"type:char(36);not null" json:"initiator_id"`
	ApprovedByLevel1ID *string         `gorm:"type:char(36)" json:"approved_by_level1_id"`
	ApprovedByFinalID  *string         `gorm:"type:char(36)" json:"approved_by_final_id"`
	Auditable
}

func (d *DisbursementVoucher) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (d *DisbursementVoucher) GetID() string                  { return d.ID }
func (d *DisbursementVoucher) GetDocumentNumber() string      { return d.VoucherNumber }
func (d *DisbursementVoucher) GetStatus() DocumentStatus      { return d.Status }
func (d *DisbursementVoucher) GetAmount() decimal.Decimal     { return d.Amount }
func (d *DisbursementVoucher) GetInitiatorUserID() string     { return d.InitiatorID }
func (d *DisbursementVoucher) GetApprovedByLevel1ID() *string { return d.ApprovedByLevel1ID }

// PayeeName resolves the display name for the configured payee variant.
func (d *DisbursementVoucher) PayeeName(ctx context.Context, tx *gorm.DB) (string, error) {
	switch d.PayeeType {
	case PayeeTypeVendor:
		if d.VendorID == nil {
			return "", utils.NewConsistencyError(d.VoucherNumber, "vendor payee has no vendor reference")
		}
		var vendor Vendor
		if err := tx.WithContext(ctx).First(&vendor, "id = ?", *d.VendorID).Error; err != nil {
			return "", err
		}
		return vendor.Name, nil
	case PayeeTypeEmployee:
		if d.EmployeeID == nil {
			return "", utils.NewConsistencyError(d.VoucherNumber, "employee payee has no employee reference")
		}
		employee, err := GetEmployee(ctx, tx, *d.EmployeeID)
		if err != nil {
			return "", err
		}
		return employee.FullName(), nil
	case PayeeTypeOther:
		if d.OtherPayeeName == nil || *d.OtherPayeeName == "" {
			return "", utils.NewConsistencyError(d.VoucherNumber, "other payee has no name")
		}
		return *d.OtherPayeeName, nil
	default:
		return "", utils.NewConsistencyError(d.VoucherNumber,
			fmt.Sprintf("unknown payee type %q", d.PayeeType))
	}
}

func validatePayeeVariant(docName string, payeeType PayeeType, vendorID, employeeID, otherName *string) error {
	set := 0
	if vendorID != nil && *vendorID != "" {
		set++
	}
	if employeeID != nil && *employeeID != "" {
		set++
	}
	if otherName != nil && *otherName != "" {
		set++
	}
	if set != 1 {
		return utils.NewValidationError(docName, "exactly one payee must be set")
	}
	switch payeeType {
	case PayeeTypeVendor:
		if vendorID == nil || *vendorID == "" {
			return utils.NewValidationError(docName, "vendor payee requires a vendor reference")
		}
	case PayeeTypeEmployee:
		if employeeID == nil || *employeeID == "" {
			return utils.NewValidationError(docName, "employee payee requires an employee reference")
		}
	case PayeeTypeOther:
		if otherName == nil || *otherName == "" {
			return utils.NewValidationError(docName, "other payee requires a name")
		}
	default:
		return utils.NewValidationError(docName, fmt.Sprintf("unknown payee type %q", payeeType))
	}
	return nil
}

type NewDisbursementVoucher struct {
	VoucherDate      time.Time       `json:"voucher_date" validate:"required"`
	PayeeType        PayeeType       `json:"payee_type" validate:"required"`
	VendorID         *string         `json:"vendor_id"`
	EmployeeID       *string         `json:"employee_id"`
	OtherPayeeName   *string         `json:"other_payee_name"`
	Amount           decimal.Decimal `json:"amount"`
	Purpose          string          `json:"purpose" validate:"required"`
	PaymentMethod    PaymentMethod   `json:"payment_method"`
	CheckNumber      string          `json:"check_number"`
	PaymentAccountID *string         `json:"payment_account_id"`
}

func CreateDisbursementVoucher(ctx context.Context, input *NewDisbursementVoucher) (*DisbursementVoucher, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("", "voucher amount must be positive")
	}
	if err := validatePayeeVariant("", input.PayeeType, input.VendorID, input.EmployeeID, input.OtherPayeeName); err != nil {
		return nil, err
	}
	userID, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewPolicyError("", "no acting user in context")
	}
	db := config.GetDB()
	var voucher *DisbursementVoucher
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.VendorID != nil && *input.VendorID != "" {
			if err := utils.ValidateResourceId[Vendor](ctx, tx, *input.VendorID); err != nil {
				return utils.NewValidationError("", "vendor does not exist")
			}
		}
		if input.EmployeeID != nil && *input.EmployeeID != "" {
			if err := utils.ValidateResourceId[Employee](ctx, tx, *input.EmployeeID); err != nil {
				return utils.NewValidationError("", "employee does not exist")
			}
		}
		if input.PaymentAccountID != nil && *input.PaymentAccountID != "" {
			if err := paymentAccountOK(ctx, tx, *input.PaymentAccountID); err != nil {
				return err
			}
		}
		number, err := NextDocumentNumber(ctx, tx, "DV")
		if err != nil {
			return err
		}
		method := input.PaymentMethod
		if method == "" {
			method = PaymentMethodCheck
		}
		voucher = &DisbursementVoucher{
			ID:               uuid.NewString(),
			VoucherNumber:    number,
			VoucherDate:      input.VoucherDate,
			PayeeType:        input.PayeeType,
			VendorID:         input.VendorID,
			EmployeeID:       input.EmployeeID,
			OtherPayeeName:   input.OtherPayeeName,
			Amount:           input.Amount.Round(2),
			Purpose:          input.Purpose,
			PaymentMethod:    method,
			CheckNumber:      input.CheckNumber,
			PaymentAccountID: input.PaymentAccountID,
			Status:           StatusDraft,
			InitiatorID:      userID,
			Auditable:        Auditable{CreatedByID: &userID, UpdatedByID: &userID},
		}
		return tx.Create(voucher).Error
	})
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

func GetDisbursementVoucher(ctx context.Context, tx *gorm.DB, id string) (*DisbursementVoucher, error) {
	var voucher DisbursementVoucher
	if err := tx.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &voucher, nil
}
