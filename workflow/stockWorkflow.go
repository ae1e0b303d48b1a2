package workflow

import (
	"context"
	"time"

	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

// applyBillReceiptStock increments on-hand quantities for an approved bill's
// receipt lines: tracked product, warehouse, and an INVENTORY-subtype account
// (expense-coded purchases are consumed, not stocked). Called exactly once,
// from inside the transaction that performs the APPROVED transition.
func applyBillReceiptStock(ctx context.Context, tx *gorm.DB, billID string) error {
	var lines []models.BillLine
	if err := tx.WithContext(ctx).Where("bill_id = ?", billID).Find(&lines).Error; err != nil {
		return err
	}
	for _, line := range lines {
		if line.ProductID == nil || line.WarehouseID == nil {
			continue
		}
		account, err := models.GetChartOfAccount(ctx, tx, line.AccountID)
		if err != nil {
			return err
		}
		if account.AccountSubType != models.AccountSubTypeInventory {
			continue
		}
		product, err := models.GetProduct(ctx, tx, *line.ProductID)
		if err != nil {
			return err
		}
		if !product.TrackInventory {
			continue
		}
		if _, err := models.ApplyStockDelta(ctx, tx, *line.ProductID, *line.WarehouseID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// applyInvoiceShipmentStock decrements on-hand quantities when an invoice
// ships. Negative resulting stock is allowed and left to reporting.
func applyInvoiceShipmentStock(ctx context.Context, tx *gorm.DB, invoiceID string) error {
	var lines []models.SalesInvoiceLine
	if err := tx.WithContext(ctx).Where("sales_invoice_id = ?", invoiceID).Find(&lines).Error; err != nil {
		return err
	}
	for _, line := range lines {
		if line.ProductID == nil || line.WarehouseID == nil {
			continue
		}
		product, err := models.GetProduct(ctx, tx, *line.ProductID)
		if err != nil {
			return err
		}
		if !product.TrackInventory {
			continue
		}
		if _, err := models.ApplyStockDelta(ctx, tx, *line.ProductID, *line.WarehouseID, line.Quantity.Neg()); err != nil {
			return err
		}
	}
	return nil
}

// MarkInvoiceSent issues a draft invoice to the customer.
func MarkInvoiceSent(ctx context.Context, invoiceID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetSalesInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != models.StatusDraft {
			return utils.NewPolicyError(invoice.InvoiceNumber, "only draft invoices can be sent")
		}
		return tx.Model(&models.SalesInvoice{}).Where("id = ?", invoiceID).
			Update("status", models.StatusSent).Error
	})
}

// MarkInvoiceShipped records fulfilment and moves stock out, exactly once,
// inside the shipping transaction.
func MarkInvoiceShipped(ctx context.Context, invoiceID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		defer release()

		invoice, err := models.GetSalesInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != models.StatusSent && invoice.Status != models.StatusPartial {
			return utils.NewPolicyError(invoice.InvoiceNumber, "only sent invoices can be shipped")
		}
		if invoice.ShippedAt != nil {
			return utils.NewPolicyError(invoice.InvoiceNumber, "invoice already shipped")
		}
		now := time.Now()
		updates := map[string]interface{}{"shipped_at": now}
		if invoice.Status == models.StatusSent {
			updates["status"] = models.StatusShipped
		}
		if err := tx.Model(&models.SalesInvoice{}).Where("id = ?", invoiceID).Updates(updates).Error; err != nil {
			return err
		}
		// A stock failure is logged, not propagated; the shipment stands.
		if err := applyInvoiceShipmentStock(ctx, tx, invoiceID); err != nil {
			config.LogError(config.GetLogger(), "workflow", "MarkInvoiceShipped", "stock shipment adjustment", invoiceID, err)
		}
		return nil
	})
}

// VoidBill cancels an approved, unpaid bill. Stock received on approval is
// not reversed here; the gap is logged for a manual adjustment.
func VoidBill(ctx context.Context, billID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := models.GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		switch bill.Status {
		case models.StatusDraft, models.StatusRejected:
			return tx.Model(&models.Bill{}).Where("id = ?", billID).
				Update("status", models.StatusCancelled).Error
		case models.StatusApproved:
			if bill.AmountPaid.IsPositive() {
				return utils.NewPolicyError(bill.BillNumber, "bills with payments cannot be voided")
			}
			config.LogWarn(config.GetLogger(), "workflow", "VoidBill", "stock received on approval is not reversed",
				map[string]string{"bill": bill.BillNumber}, "voided bill leaves stock adjustments in place")
			return tx.Model(&models.Bill{}).Where("id = ?", billID).
				Update("status", models.StatusVoid).Error
		default:
			return utils.NewPolicyError(bill.BillNumber, "bill cannot be voided in its current state")
		}
	})
}

func VoidInvoice(ctx context.Context, invoiceID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := models.GetSalesInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.AmountPaid.IsPositive() {
			return utils.NewPolicyError(invoice.InvoiceNumber, "invoices with payments cannot be voided")
		}
		if invoice.ShippedAt != nil {
			config.LogWarn(config.GetLogger(), "workflow", "VoidInvoice", "stock shipped is not reversed",
				map[string]string{"invoice": invoice.InvoiceNumber}, "voided invoice leaves stock adjustments in place")
		}
		return tx.Model(&models.SalesInvoice{}).Where("id = ?", invoiceID).
			Update("status", models.StatusVoid).Error
	})
}
