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

// Bill is a vendor-issued invoice recorded as payable. It runs the two-level
// approval workflow before payments can reconcile against it.
type Bill struct {
	ID                    string          `gorm:"type:char(36);primaryKey" json:"id"`
	BillNumber            string          `gorm:"size:100;uniqueIndex;not null" json:"bill_number"`
	VendorID              string          `gorm:"type:char(36);index;not null" json:"vendor_id"`
	BillDate              time.Time       `gorm:"index;not null" json:"bill_date"`
	DueDate               *time.Time      `json:"due_date"`
	DisbursementVoucherID *string         `gorm:"type:char(36);index" json:"disbursement_voucher_id"`
	Status                DocumentStatus  `gorm:"size:20;index;not null;default:DRAFT" json:"status"`
	Subtotal              decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`
	TaxAmount             decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	AmountPaid            decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"amount_paid"`
	Notes                 string          `gorm:"type:text" json:"notes"`
	InitiatorID           string          `gorm:"type:char(36);not null" json:"initiator_id"`
	ApprovedByLevel1ID    *string         `gorm:"type:char(36)" json:"approved_by_level1_id"`
	ApprovedByFinalID     *string         `gorm:"type:char(36)" json:"approved_by_final_id"`
	Lines                 []BillLine      `gorm:"constraint:OnDelete:CASCADE" json:"lines"`
	Auditable
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Bill) GetID() string                  { return b.ID }
func (b *Bill) GetDocumentNumber() string      { return b.BillNumber }
func (b *Bill) GetStatus() DocumentStatus      { return b.Status }
func (b *Bill) GetAmount() decimal.Decimal     { return b.TotalAmount }
func (b *Bill) GetInitiatorUserID() string     { return b.InitiatorID }
func (b *Bill) GetApprovedByLevel1ID() *string { return b.ApprovedByLevel1ID }

func (b *Bill) BalanceDue() decimal.Decimal {
	return b.TotalAmount.Sub(b.AmountPaid)
}

// BillLine is one line of a Bill. Owned by the parent bill and cascade-deleted
// with it. LineTotal is derived on every save; parent totals follow.
type BillLine struct {
	ID                string          `gorm:"type:char(36);primaryKey" json:"id"`
	BillID            string          `gorm:"type:char(36);index;not null" json:"bill_id"`
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

// BeforeSave validates the line and derives LineTotal. A malformed line fails
// the save outright; parent totals stay untouched. Lookups run on a fresh
// session: the hook's own statement is mid-build for the line row and must not
// leak into them.
func (l *BillLine) BeforeSave(tx *gorm.DB) error {
	ctx := tx.Statement.Context
	db := tx.Session(&gorm.Session{NewDB: true})
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	docName, err := billNumberFor(ctx, db, l.BillID)
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
		return utils.NewValidationError(docName, "line requires an expense or asset account")
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
	if account.AccountType != AccountTypeExpense && account.AccountType != AccountTypeAsset {
		return utils.NewValidationError(docName, "line account must be an expense or asset account")
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

func (l *BillLine) AfterSave(tx *gorm.DB) error {
	_, _, err := RecalculateBillTotals(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}), l.BillID)
	if utils.IsConsistency(err) {
		return nil
	}
	return err
}

func (l *BillLine) AfterDelete(tx *gorm.DB) error {
	_, _, err := RecalculateBillTotals(tx.Statement.Context, tx.Session(&gorm.Session{NewDB: true}), l.BillID)
	if utils.IsConsistency(err) {
		return nil
	}
	return err
}

func billNumberFor(ctx context.Context, tx *gorm.DB, billID string) (string, error) {
	var number string
	err := tx.WithContext(ctx).Model(&Bill{}).Where("id = ?", billID).
		Select("bill_number").Scan(&number).Error
	if err != nil {
		return billID, err
	}
	if number == "" {
		return billID, nil
	}
	return number, nil
}

// RecalculateBillTotals recomputes subtotal, tax and total from the current
// line set. Idempotent: values are quantized to two fraction digits and only
// changed columns are written, so a repeat call performs no storage write.
// Returns the totals and whether a write happened.
func RecalculateBillTotals(ctx context.Context, tx *gorm.DB, billID string) (Totals, bool, error) {
	var bill Bill
	if err := tx.WithContext(ctx).First(&bill, "id = ?", billID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Totals{}, false, utils.NewConsistencyError(billID, "bill no longer exists")
		}
		return Totals{}, false, err
	}
	var lines []BillLine
	if err := tx.WithContext(ctx).Where("bill_id = ?", billID).Find(&lines).Error; err != nil {
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
	if !bill.Subtotal.Round(2).Equal(totals.Subtotal) {
		updates["subtotal"] = totals.Subtotal
	}
	if !bill.TaxAmount.Round(2).Equal(totals.Tax) {
		updates["tax_amount"] = totals.Tax
	}
	if !bill.TotalAmount.Round(2).Equal(totals.Total) {
		updates["total_amount"] = totals.Total
	}
	if len(updates) == 0 {
		return totals, false, nil
	}
	if err := tx.WithContext(ctx).Model(&Bill{}).Where("id = ?", billID).Updates(updates).Error; err != nil {
		return totals, false, err
	}
	return totals, true, nil
}

type NewBill struct {
	VendorID              string        `json:"vendor_id" validate:"required"`
	BillDate              time.Time     `json:"bill_date" validate:"required"`
	DueDate               *time.Time    `json:"due_date"`
	DisbursementVoucherID *string       `json:"disbursement_voucher_id"`
	Notes                 string        `json:"notes"`
	Lines                 []NewBillLine `json:"lines"`
}

type NewBillLine struct {
	ProductID         *string         `json:"product_id"`
	AccountID         string          `json:"account_id" validate:"required"`
	WarehouseID       *string         `json:"warehouse_id"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	IsVatable         *bool           `json:"is_vatable"`
	BirClassification string          `json:"bir_classification"`
}

// CreateBill creates a Draft bill with its lines. The initiator is the
// calling user and is immutable afterwards.
func CreateBill(ctx context.Context, input *NewBill) (*Bill, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError("", err.Error())
	}
	userID, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewPolicyError("", "no acting user in context")
	}
	db := config.GetDB()
	var bill *Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := NextDocumentNumber(ctx, tx, "BILL")
		if err != nil {
			return err
		}
		bill = &Bill{
			ID:                    uuid.NewString(),
			BillNumber:            number,
			VendorID:              input.VendorID,
			BillDate:              input.BillDate,
			DueDate:               input.DueDate,
			DisbursementVoucherID: input.DisbursementVoucherID,
			Status:                StatusDraft,
			Notes:                 input.Notes,
			InitiatorID:           userID,
			Auditable:             Auditable{CreatedByID: &userID, UpdatedByID: &userID},
		}
		if err := tx.Create(bill).Error; err != nil {
			return err
		}
		for i := range input.Lines {
			if _, err := addBillLineTx(ctx, tx, bill.ID, &input.Lines[i]); err != nil {
				return err
			}
		}
		return tx.First(bill, "id = ?", bill.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func AddBillLine(ctx context.Context, billID string, input *NewBillLine) (*BillLine, error) {
	db := config.GetDB()
	var line *BillLine
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		line, err = addBillLineTx(ctx, tx, billID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func addBillLineTx(ctx context.Context, tx *gorm.DB, billID string, input *NewBillLine) (*BillLine, error) {
	quantity := input.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	line := &BillLine{
		ID:                uuid.NewString(),
		BillID:            billID,
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

func DeleteBillLine(ctx context.Context, lineID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line BillLine
		if err := tx.First(&line, "id = ?", lineID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		return tx.Delete(&line).Error
	})
}

func GetBill(ctx context.Context, tx *gorm.DB, id string) (*Bill, error) {
	var bill Bill
	if err := tx.WithContext(ctx).First(&bill, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &bill, nil
}
