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

// SalesInvoice is a receivable issued to a customer. Unlike bills it does not
// run the approval workflow; it moves Draft -> Sent -> Shipped and is then
// settled by received payments.
type SalesInvoice struct {
	ID            string             `gorm:"type:char(36);primaryKey" json:"id"`
	InvoiceNumber string             `gorm:"size:100;uniqueIndex;not null" json:"invoice_number"`
	CustomerID    string             `gorm:"type:char(36);index;not null" json:"customer_id"`
	InvoiceDate   time.Time          `gorm:"index;not null" json:"invoice_date"`
	DueDate       *time.Time         `json:"due_date"`
	Status        DocumentStatus     `gorm:"size:20;index;not null;default:DRAFT" json:"status"`
	Subtotal      decimal.Decimal    `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`
	TaxAmount     decimal.Decimal    `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`
	TotalAmount   decimal.Decimal    `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	AmountPaid    decimal.Decimal    `gorm:"type:decimal(20,2);not null;default:0" json:"amount_paid"`
	ShippedAt     *time.Time         `json:"shipped_at"`
	Notes         string             `gorm:"type:text" json:"notes"`
	Lines         []SalesInvoiceLine `gorm:"constraint:OnDelete:CASCADE" json:"lines"`
	Auditable
}

func (s *SalesInvoice) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *SalesInvoice) BalanceDue() decimal.Decimal {
	return s.TotalAmount.Sub(s.AmountPaid)
}

type SalesInvoiceLine struct {
	ID                string          `gorm:"type:char(36);primaryKey" json:"id"`
	SalesInvoiceID    string          `gorm:"type:char(36);index;not null" json:"sales_invoice_id"`
	ProductID         *string         `gorm:"type:char(36);index" json:"product_id"`
	AccountID         string          `gorm:"type:char(36);not null" json:"account_id"`
	WarehouseID       *string         `gorm:"type:char(36)" json:"warehouse_id"`
	Description       string          `gorm:"type:text" json:"description"`
	Quantity          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"line_total"`
	IsVatable         *bool           `gorm:"not null;default:true" json:"is_vatable"`
	BirClassification string          `gorm:"size:100" json:"bir_classification"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave lookups run on a fresh session; the hook's statement is mid-build
// for the line row and must not leak into them.
func (l *SalesInvoiceLine) BeforeSave(tx *gorm.DB) error {
	ctx := tx.Statement.Context
	db := tx.Session(&gorm.Session{NewDB: true})
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	docName, err := invoiceNumberFor(ctx, db, l.SalesInvoiceID)
	if err != nil {
		return err
	}
	if l.Quantity.IsNegative() {
		return utils.NewValidationError(docName, "line quantity must not be negative")
	}
	if l.UnitPrice.IsNegative() {
		return utils.NewValidationError(docName, "line unit price must not be negative")
	}
	if l.AccountID == "" {
		return utils.NewValidationError(docName, "line requires a revenue account")
	}
	account, err := GetChartOfAccount(ctx, db, l.AccountID)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return utils.NewValidationError(docName, "line account does not exist")
		}
		return err
	}
	if !account.IsActive {
		return utils.NewValidationError(docName, "line account is inactive")
	}
	if account.AccountType != AccountTypeRevenue {
		return utils.NewValidationError(docName, "line account must be a revenue account")
	}
	if l.ProductID != nil {
		product, err := GetProduct(ctx, db, *l.ProductID)
		if err != nil {
			if err == utils.ErrorRecordNotFound {
				return utils.NewValidationError(docName, "line product does not exist")
			}
			return err
		}
		if product.TrackInventory && l.WarehouseID == nil {
			return utils.NewValidationError(docName, "a warehouse is required for inventory-tracked products")
		}
	}
	l.LineTotal = l.Quantity.Mul(l.UnitPrice).Round(2)
	return nil
}

func (l *SalesInvoiceLine) AfterSave(tx *gorm.DB) error {
	_, _, err := RecalculateInvoiceTotals(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}), l.SalesInvoiceID)
	if utils.IsConsistency(err) {
		return nil
	}
	return err
}

func (l *SalesInvoiceLine) AfterDelete(tx *gorm.DB) error {
	_, _, err := RecalculateInvoiceTotals(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}), l.SalesInvoiceID)
	if utils.IsConsistency(err) {
		return nil
	}
	return err
}

func invoiceNumberFor(ctx context.Context, tx *gorm.DB, invoiceID string) (string, error) {
	var number string
	err := tx.WithContext(ctx).Model(&SalesInvoice{}).Where("id = ?", invoiceID).
		Select("invoice_number").Scan(&number).Error
	if err != nil {
		return invoiceID, err
	}
	if number == "" {
		return invoiceID, nil
	}
	return number, nil
}

// RecalculateInvoiceTotals mirrors the bill calculator for sales invoices.
func RecalculateInvoiceTotals(ctx context.Context, tx *gorm.DB, invoiceID string) (Totals, bool, error) {
	var invoice SalesInvoice
	if err := tx.WithContext(ctx).First(&invoice, "id = ?", invoiceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Totals{}, false, utils.NewConsistencyError(invoiceID, "sales invoice no longer exists")
		}
		return Totals{}, false, err
	}
	var lines []SalesInvoiceLine
	if err := tx.WithContext(ctx).Where("sales_invoice_id = ?", invoiceID).Find(&lines).Error; err != nil {
		return Totals{}, false, err
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	rule := ActiveTaxRule()
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
		if line.IsVatable == nil || *line.IsVatable {
			tax = tax.Add(rule.TaxAmount(line.LineTotal, line.BirClassification).Round(2))
		}
	}
	subtotal = subtotal.Round(2)
	tax = tax.Round(2)
	totals := Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}

	updates := map[string]interface{}{}
	if !invoice.Subtotal.Round(2).Equal(totals.Subtotal) {
		updates["subtotal"] = totals.Subtotal
	}
	if !invoice.TaxAmount.Round(2).Equal(totals.Tax) {
		updates["tax_amount"] = totals.Tax
	}
	if !invoice.TotalAmount.Round(2).Equal(totals.Total) {
		updates["total_amount"] = totals.Total
	}
	if len(updates) == 0 {
		return totals, false, nil
	}
	if err := tx.WithContext(ctx).Model(&SalesInvoice{}).Where("id = ?", invoiceID).Updates(updates).Error; err != nil {
		return totals, false, err
	}
	return totals, true, nil
}

type NewSalesInvoice struct {
	CustomerID  string                `json:"customer_id" validate:"required"`
	InvoiceDate time.Time             `json:"invoice_date" validate:"required"`
	DueDate     *time.Time            `json:"due_date"`
	Notes       string                `json:"notes"`
	Lines       []NewSalesInvoiceLine `json:"lines"`
}

type NewSalesInvoiceLine struct {
	ProductID         *string         `json:"product_id"`
	AccountID         string          `json:"account_id" validate:"required"`
	WarehouseID       *string         `json:"warehouse_id"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	IsVatable         *bool           `json:"is_vatable"`
	BirClassification string          `json:"bir_classification"`
}

func CreateSalesInvoice(ctx context.Context, input *NewSalesInvoice) (*SalesInvoice, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	userID, _ := utils.GetUserIdFromContext(ctx)
	db := config.GetDB()
	var invoice *SalesInvoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := NextDocumentNumber(ctx, tx, "INV")
		if err != nil {
			return err
		}
		invoice = &SalesInvoice{
			ID:            uuid.NewString(),
			InvoiceNumber: number,
			CustomerID:    input.CustomerID,
			InvoiceDate:   input.InvoiceDate,
			DueDate:       input.DueDate,
			Status:        StatusDraft,
			Notes:         input.Notes,
		}
		if userID != "" {
			invoice.CreatedByID = &userID
			invoice.UpdatedByID = &userID
		}
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range input.Lines {
			if _, err := addInvoiceLineTx(ctx, tx, invoice.ID, &input.Lines[i]); err != nil {
				return err
			}
		}
		return tx.First(invoice, "id = ?", invoice.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func AddSalesInvoiceLine(ctx context.Context, invoiceID string, input *NewSalesInvoiceLine) (*SalesInvoiceLine, error) {
	db := config.GetDB()
	var line *SalesInvoiceLine
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		line, err = addInvoiceLineTx(ctx, tx, invoiceID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func addInvoiceLineTx(ctx context.Context, tx *gorm.DB, invoiceID string, input *NewSalesInvoiceLine) (*SalesInvoiceLine, error) {
	quantity := input.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	line := &SalesInvoiceLine{
		ID:                uuid.NewString(),
		SalesInvoiceID:    invoiceID,
		ProductID:         input.ProductID,
		AccountID:         input.AccountID,
		WarehouseID:       input.WarehouseID,
		Description:       input.Description,
		Quantity:          quantity,
		UnitPrice:         input.UnitPrice,
		IsVatable:         input.IsVatable,
		BirClassification: input.BirClassification,
	}
	if err := tx.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func GetSalesInvoice(ctx context.Context, tx *gorm.DB, id string) (*SalesInvoice, error) {
	var invoice SalesInvoice
	if err := tx.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}
