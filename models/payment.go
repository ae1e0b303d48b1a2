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

// PaymentMade is an outgoing payment. It can settle several bills at once
// through the payment_made_bills link table; reconciliation derives each
// bill's amount_paid from the linked payments.
type PaymentMade struct {
	ID                    string          `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentNumber         string          `gorm:"size:100;uniqueIndex;not null" json:"payment_number"`
	PaymentDate           time.Time       `gorm:"index;not null" json:"payment_date"`
	PayeeType             PayeeType       `gorm:"size:20;not null" json:"payee_type"`
	VendorID              *string         `gorm:"type:char(36);index" json:"vendor_id"`
	EmployeeID            *string         `gorm:"type:char(36);index" json:"employee_id"`
	OtherPayeeName        *string         `gorm:"size:255" json:"other_payee_name"`
	Amount                decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod         PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	PaymentAccountID      string          `gorm:"type:char(36);not null" json:"payment_account_id"`
	ReferenceNumber       string          `gorm:"size:100" json:"reference_number"`
	Notes                 string          `gorm:"type:text" json:"notes"`
	DisbursementVoucherID *string         `gorm:"type:char(36);index" json:"disbursement_voucher_id"`
	EmployeeAdvanceID     *string         `gorm:"type:char(36);index" json:"employee_advance_id"`
	Bills                 []Bill          `gorm:"many2many:payment_made_bills" json:"bills"`
	Auditable
}

func (PaymentMade) TableName() string { return "payments_made" }

func (p *PaymentMade) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PaymentReceived is an incoming customer payment, settling sales invoices
// through the payment_received_invoices link table.
type PaymentReceived struct {
	ID               string          `gorm:"type:char(36);primaryKey" json:"id"`
	PaymentNumber    string          `gorm:"size:100;uniqueIndex;not null" json:"payment_number"`
	PaymentDate      time.Time       `gorm:"index;not null" json:"payment_date"`
	CustomerID       string          `gorm:"type:char(36);index;not null" json:"customer_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod    PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	DepositAccountID string          `gorm:"type:char(36);not null" json:"deposit_account_id"`
	ReferenceNumber  string          `gorm:"size:100" json:"reference_number"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Invoices         []SalesInvoice  `gorm:"many2many:payment_received_invoices" json:"invoices"`
	Auditable
}

func (PaymentReceived) TableName() string { return "payments_received" }

func (p *PaymentReceived) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type NewPaymentMade struct {
	PaymentDate           time.Time       `json:"payment_date" validate:"required"`
	PayeeType             PayeeType       `json:"payee_type" validate:"required"`
	VendorID              *string         `json:"vendor_id"`
	EmployeeID            *string         `json:"employee_id"`
	OtherPayeeName        *string         `json:"other_payee_name"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentMethod         PaymentMethod   `json:"payment_method" validate:"required"`
	PaymentAccountID      string          `json:"payment_account_id" validate:"required"`
	ReferenceNumber       string          `json:"reference_number"`
	Notes                 string          `json:"notes"`
	DisbursementVoucherID *string         `json:"disbursement_voucher_id"`
	EmployeeAdvanceID     *string         `json:"employee_advance_id"`
}

func CreatePaymentMade(ctx context.Context, input *NewPaymentMade) (*PaymentMade, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("", "payment amount must be positive")
	}
	if err := validatePayeeVariant("", input.PayeeType, input.VendorID, input.EmployeeID, input.OtherPayeeName); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var payment *PaymentMade
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := paymentAccountOK(ctx, tx, input.PaymentAccountID); err != nil {
			return err
		}
		number, err := NextDocumentNumber(ctx, tx, "PM")
		if err != nil {
			return err
		}
		if input.DisbursementVoucherID != nil && *input.DisbursementVoucherID != "" {
			if err := utils.ValidateResourceId[DisbursementVoucher](ctx, tx, *input.DisbursementVoucherID); err != nil {
				return utils.NewValidationError("", "disbursement voucher does not exist")
			}
		}
		if input.EmployeeAdvanceID != nil && *input.EmployeeAdvanceID != "" {
			if err := utils.ValidateResourceId[EmployeeAdvance](ctx, tx, *input.EmployeeAdvanceID); err != nil {
				return utils.NewValidationError("", "employee advance does not exist")
			}
		}
		userID, _ := utils.GetUserIdFromContext(ctx)
		payment = &PaymentMade{
			ID:                    uuid.NewString(),
			PaymentNumber:         number,
			PaymentDate:           input.PaymentDate,
			PayeeType:             input.PayeeType,
			VendorID:              input.VendorID,
			EmployeeID:            input.EmployeeID,
			OtherPayeeName:        input.OtherPayeeName,
			Amount:                input.Amount.Round(2),
			PaymentMethod:         input.PaymentMethod,
			PaymentAccountID:      input.PaymentAccountID,
			ReferenceNumber:       input.ReferenceNumber,
			Notes:                 input.Notes,
			DisbursementVoucherID: input.DisbursementVoucherID,
			EmployeeAdvanceID:     input.EmployeeAdvanceID,
		}
		if userID != "" {
			payment.CreatedByID = &userID
			payment.UpdatedByID = &userID
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

type NewPaymentReceived struct {
	PaymentDate      time.Time       `json:"payment_date" validate:"required"`
	CustomerID       string          `json:"customer_id" validate:"required"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMethod    PaymentMethod   `json:"payment_method" validate:"required"`
	DepositAccountID string          `json:"deposit_account_id" validate:"required"`
	ReferenceNumber  string          `json:"reference_number"`
	Notes            string          `json:"notes"`
}

func CreatePaymentReceived(ctx context.Context, input *NewPaymentReceived) (*PaymentReceived, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	if !input.Amount.IsPositive() {
		return nil, utils.NewValidationError("", "payment amount must be positive")
	}
	db := config.GetDB()
	var payment *PaymentReceived
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := utils.ValidateResourceId[Customer](ctx, tx, input.CustomerID); err != nil {
			return utils.NewValidationError("", "customer does not exist")
		}
		if err := paymentAccountOK(ctx, tx, input.DepositAccountID); err != nil {
			return err
		}
		number, err := NextDocumentNumber(ctx, tx, "PR")
		if err != nil {
			return err
		}
		userID, _ := utils.GetUserIdFromContext(ctx)
		payment = &PaymentReceived{
			ID:               uuid.NewString(),
			PaymentNumber:    number,
			PaymentDate:      input.PaymentDate,
			CustomerID:       input.CustomerID,
			Amount:           input.Amount.Round(2),
			PaymentMethod:    input.PaymentMethod,
			DepositAccountID: input.DepositAccountID,
			ReferenceNumber:  input.ReferenceNumber,
			Notes:            input.Notes,
		}
		if userID != "" {
			payment.CreatedByID = &userID
			payment.UpdatedByID = &userID
		}
		return tx.Create(payment).Error
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Payments settle through bank or cash accounts only.
func paymentAccountOK(ctx context.Context, tx *gorm.DB, accountID string) error {
	account, err := GetChartOfAccount(ctx, tx, accountID)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return utils.NewValidationError("", "payment account does not exist")
		}
		return err
	}
	if !account.IsActive {
		return utils.NewValidationError(account.AccountNumber, "payment account is inactive")
	}
	if account.AccountSubType != AccountSubTypeBank && account.AccountSubType != AccountSubTypeCash {
		return utils.NewValidationError(account.AccountNumber, "payment account must be a bank or cash account")
	}
	return nil
}

// SumPaymentsForBill totals every payment linked to the bill. The link table
// is the source of truth; the bill's amount_paid column is derived from this.
func SumPaymentsForBill(ctx context.Context, tx *gorm.DB, billID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments_made p
		JOIN payment_made_bills j ON j.payment_made_id = p.id
		WHERE j.bill_id = ?`, billID).Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SumPaymentsForInvoice totals every payment linked to the sales invoice.
func SumPaymentsForInvoice(ctx context.Context, tx *gorm.DB, invoiceID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments_received p
		JOIN payment_received_invoices j ON j.payment_received_id = p.id
		WHERE j.sales_invoice_id = ?`, invoiceID).Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func GetPaymentMade(ctx context.Context, tx *gorm.DB, id string) (*PaymentMade, error) {
	var payment PaymentMade
	if err := tx.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func GetPaymentReceived(ctx context.Context, tx *gorm.DB, id string) (*PaymentReceived, error) {
	var payment PaymentReceived
	if err := tx.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &payment, nil
}
