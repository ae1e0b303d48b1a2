package workflow

import (
	"context"

	"github.com/rgreyesph/paspro/appctx"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileResult reports where a document landed after its linked payments
// were rederived.
type ReconcileResult struct {
	AmountPaid decimal.Decimal       `json:"amount_paid"`
	BalanceDue decimal.Decimal       `json:"balance_due"`
	Status     models.DocumentStatus `json:"status"`
}

// Only these statuses track linked payments in amount_paid. Drafts and
// pending documents never reconcile.
func billIsPayable(status models.DocumentStatus) bool {
	return status == models.StatusApproved || status == models.StatusPartial || status == models.StatusPaid
}

func invoiceIsPayable(status models.DocumentStatus) bool {
	return status == models.StatusSent || status == models.StatusShipped ||
		status == models.StatusPartial || status == models.StatusPaid
}

// LinkPaymentToBill attaches a payment to a bill and reconciles the bill's
// paid amount and status in the same transaction. Linking twice is a no-op.
func LinkPaymentToBill(ctx context.Context, paymentID string, billID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, billID)
		if err != nil {
			return err
		}
		defer release()

		payment, err := models.GetPaymentMade(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		bill, err := models.GetBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if !billIsPayable(bill.Status) {
			return utils.NewPolicyError(bill.BillNumber, "only approved bills accept payments")
		}
		if payment.PayeeType == models.PayeeTypeVendor &&
			payment.VendorID != nil && *payment.VendorID != bill.VendorID {
			return utils.NewValidationError(bill.BillNumber, "payment payee does not match the bill's vendor")
		}

		var linked int64
		if err := tx.WithContext(ctx).Table("payment_made_bills").
			Where("payment_made_id = ? AND bill_id = ?", paymentID, billID).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked == 0 {
			if err := tx.WithContext(ctx).Exec(
				"INSERT INTO payment_made_bills (payment_made_id, bill_id) VALUES (?, ?)",
				paymentID, billID).Error; err != nil {
				return err
			}
		}
		_, err = reconcileBill(ctx, tx, billID)
		return err
	})
}

// UnlinkPaymentFromBill detaches a payment and reconciles. Detaching the last
// payment returns the bill to APPROVED with a zero paid amount.
func UnlinkPaymentFromBill(ctx context.Context, paymentID string, billID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, billID)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.WithContext(ctx).Exec(
			"DELETE FROM payment_made_bills WHERE payment_made_id = ? AND bill_id = ?",
			paymentID, billID).Error; err != nil {
			return err
		}
		_, err = reconcileBill(ctx, tx, billID)
		return err
	})
}

func LinkPaymentToInvoice(ctx context.Context, paymentID string, invoiceID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		defer release()

		payment, err := models.GetPaymentReceived(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		invoice, err := models.GetSalesInvoice(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if !invoiceIsPayable(invoice.Status) {
			return utils.NewPolicyError(invoice.InvoiceNumber, "only sent invoices accept payments")
		}
		if payment.CustomerID != invoice.CustomerID {
			return utils.NewValidationError(invoice.InvoiceNumber, "payment customer does not match the invoice's customer")
		}

		var linked int64
		if err := tx.WithContext(ctx).Table("payment_received_invoices").
			Where("payment_received_id = ? AND sales_invoice_id = ?", paymentID, invoiceID).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked == 0 {
			if err := tx.WithContext(ctx).Exec(
				"INSERT INTO payment_received_invoices (payment_received_id, sales_invoice_id) VALUES (?, ?)",
				paymentID, invoiceID).Error; err != nil {
				return err
			}
		}
		_, err = reconcileInvoice(ctx, tx, invoiceID)
		return err
	})
}

func UnlinkPaymentFromInvoice(ctx context.Context, paymentID string, invoiceID string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		release, err := acquireDocumentLock(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.WithContext(ctx).Exec(
			"DELETE FROM payment_received_invoices WHERE payment_received_id = ? AND sales_invoice_id = ?",
			paymentID, invoiceID).Error; err != nil {
			return err
		}
		_, err = reconcileInvoice(ctx, tx, invoiceID)
		return err
	})
}

// ReconcileBill rederives a bill's amount_paid and settlement status from its
// linked payments, in its own transaction. Used by the manual reconcile
// surface and by repair jobs. A nil result means the reconciliation was a
// no-op (guarded reentry or a bill that no longer exists).
func ReconcileBill(ctx context.Context, billID string) (*ReconcileResult, error) {
	db := config.GetDB()
	var result *ReconcileResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = reconcileBill(ctx, tx, billID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ReconcileInvoice(ctx context.Context, invoiceID string) (*ReconcileResult, error) {
	db := config.GetDB()
	var result *ReconcileResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = reconcileInvoice(ctx, tx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// reconcileBill is reentrancy-guarded through the context: linkage changes
// made while a reconciliation is in flight must not recurse into a second
// reconciliation of the same bill. A bill deleted mid-flight makes the
// reconciliation a no-op, not a failure.
func reconcileBill(ctx context.Context, tx *gorm.DB, billID string) (*ReconcileResult, error) {
	ctx, guard := appctx.ReconcileGuard(ctx)
	if guard[billID] {
		return nil, nil
	}
	guard[billID] = true
	defer delete(guard, billID)

	bill, err := models.GetBill(ctx, tx, billID)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			config.LogWarn(config.GetLogger(), "workflow", "reconcileBill",
				"bill no longer exists", billID, "skipping reconciliation")
			return nil, nil
		}
		return nil, err
	}
	if !billIsPayable(bill.Status) {
		return &ReconcileResult{AmountPaid: bill.AmountPaid, BalanceDue: bill.BalanceDue(), Status: bill.Status}, nil
	}
	totalPaid, err := models.SumPaymentsForBill(ctx, tx, billID)
	if err != nil {
		return nil, err
	}
	totalPaid = totalPaid.Round(2)

	status := models.StatusApproved
	switch {
	case totalPaid.GreaterThanOrEqual(bill.TotalAmount) && bill.TotalAmount.IsPositive():
		status = models.StatusPaid
	case totalPaid.IsPositive():
		status = models.StatusPartial
	}
	result := &ReconcileResult{
		AmountPaid: totalPaid,
		BalanceDue: bill.TotalAmount.Sub(totalPaid),
		Status:     status,
	}
	if bill.AmountPaid.Round(2).Equal(totalPaid) && bill.Status == status {
		return result, nil
	}
	if err := tx.WithContext(ctx).Model(&models.Bill{}).Where("id = ?", billID).Updates(map[string]interface{}{
		"amount_paid": totalPaid,
		"status":      status,
	}).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func reconcileInvoice(ctx context.Context, tx *gorm.DB, invoiceID string) (*ReconcileResult, error) {
	ctx, guard := appctx.ReconcileGuard(ctx)
	if guard[invoiceID] {
		return nil, nil
	}
	guard[invoiceID] = true
	defer delete(guard, invoiceID)

	invoice, err := models.GetSalesInvoice(ctx, tx, invoiceID)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			config.LogWarn(config.GetLogger(), "workflow", "reconcileInvoice",
				"sales invoice no longer exists", invoiceID, "skipping reconciliation")
			return nil, nil
		}
		return nil, err
	}
	if !invoiceIsPayable(invoice.Status) {
		return &ReconcileResult{AmountPaid: invoice.AmountPaid, BalanceDue: invoice.BalanceDue(), Status: invoice.Status}, nil
	}
	totalPaid, err := models.SumPaymentsForInvoice(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	totalPaid = totalPaid.Round(2)

	// The zero-payment base depends on fulfilment: a shipped invoice reverts
	// to SHIPPED, an unshipped one to SENT.
	status := models.StatusSent
	if invoice.ShippedAt != nil {
		status = models.StatusShipped
	}
	switch {
	case totalPaid.GreaterThanOrEqual(invoice.TotalAmount) && invoice.TotalAmount.IsPositive():
		status = models.StatusPaid
	case totalPaid.IsPositive():
		status = models.StatusPartial
	}
	result := &ReconcileResult{
		AmountPaid: totalPaid,
		BalanceDue: invoice.TotalAmount.Sub(totalPaid),
		Status:     status,
	}
	if invoice.AmountPaid.Round(2).Equal(totalPaid) && invoice.Status == status {
		return result, nil
	}
	if err := tx.WithContext(ctx).Model(&models.SalesInvoice{}).Where("id = ?", invoiceID).Updates(map[string]interface{}{
		"amount_paid": totalPaid,
		"status":      status,
	}).Error; err != nil {
		return nil, err
	}
	return result, nil
}
