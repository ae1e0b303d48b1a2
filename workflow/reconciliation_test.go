package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/appctx"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
)

func (f *approvalFixture) approvedBill(t *testing.T, amount int64) *models.Bill {
	t.Helper()
	bill := f.newBill(t, amount)
	ref := f.billRef(bill)
	if _, err := SubmitDocument(asUser(f.initiatorUser.ID), ref); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := ApproveDocument(asUser(f.managerUser.ID), ref); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return f.reloadBill(t, bill.ID)
}

func (f *approvalFixture) bankAccount(t *testing.T) *models.ChartOfAccount {
	t.Helper()
	account, err := models.CreateChartOfAccount(context.Background(), &models.NewChartOfAccount{
		AccountNumber:  "1010",
		Name:           "Operating Bank",
		AccountType:    models.AccountTypeAsset,
		AccountSubType: models.AccountSubTypeBank,
	})
	if err != nil {
		t.Fatalf("create bank account: %v", err)
	}
	return account
}

func (f *approvalFixture) vendorPayment(t *testing.T, bank *models.ChartOfAccount, amount int64) *models.PaymentMade {
	t.Helper()
	payment, err := models.CreatePaymentMade(asUser(f.initiatorUser.ID), &models.NewPaymentMade{
		PaymentDate:      time.Now(),
		PayeeType:        models.PayeeTypeVendor,
		VendorID:         &f.vendor.ID,
		Amount:           decimal.NewFromInt(amount),
		PaymentMethod:    models.PaymentMethodBankTransfer,
		PaymentAccountID: bank.ID,
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return payment
}

func TestPartialPaymentThenUnlinkRevertsBill(t *testing.T) {
	f := newApprovalFixture(t)
	bank := f.bankAccount(t)
	bill := f.approvedBill(t, 280)
	payment := f.vendorPayment(t, bank, 100)
	ctx := asUser(f.initiatorUser.ID)

	if err := LinkPaymentToBill(ctx, payment.ID, bill.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	reloaded := f.reloadBill(t, bill.ID)
	if reloaded.Status != models.StatusPartial {
		t.Errorf("status = %s, want %s", reloaded.Status, models.StatusPartial)
	}
	if !reloaded.AmountPaid.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount paid = %s, want 100", reloaded.AmountPaid)
	}
	if !reloaded.BalanceDue().Equal(decimal.NewFromInt(180)) {
		t.Errorf("balance due = %s, want 180", reloaded.BalanceDue())
	}

	if err := UnlinkPaymentFromBill(ctx, payment.ID, bill.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	reloaded = f.reloadBill(t, bill.ID)
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %s, want %s after unlink", reloaded.Status, models.StatusApproved)
	}
	if !reloaded.AmountPaid.IsZero() {
		t.Errorf("amount paid = %s, want 0 after unlink", reloaded.AmountPaid)
	}
}

func TestFullPaymentMarksBillPaid(t *testing.T) {
	f := newApprovalFixture(t)
	bank := f.bankAccount(t)
	bill := f.approvedBill(t, 280)
	ctx := asUser(f.initiatorUser.ID)

	first := f.vendorPayment(t, bank, 100)
	second := f.vendorPayment(t, bank, 180)
	if err := LinkPaymentToBill(ctx, first.ID, bill.ID); err != nil {
		t.Fatalf("link first: %v", err)
	}
	if err := LinkPaymentToBill(ctx, second.ID, bill.ID); err != nil {
		t.Fatalf("link second: %v", err)
	}
	reloaded := f.reloadBill(t, bill.ID)
	if reloaded.Status != models.StatusPaid {
		t.Errorf("status = %s, want %s", reloaded.Status, models.StatusPaid)
	}
	if !reloaded.AmountPaid.Equal(decimal.NewFromInt(280)) {
		t.Errorf("amount paid = %s, want 280", reloaded.AmountPaid)
	}
}

func TestDraftBillRefusesPaymentLinks(t *testing.T) {
	f := newApprovalFixture(t)
	bank := f.bankAccount(t)
	bill := f.newBill(t, 500)
	payment := f.vendorPayment(t, bank, 100)

	err := LinkPaymentToBill(asUser(f.initiatorUser.ID), payment.ID, bill.ID)
	if !utils.IsPolicy(err) {
		t.Fatalf("expected policy error for draft bill, got %v", err)
	}
}

func TestLinkingTwiceIsIdempotent(t *testing.T) {
	f := newApprovalFixture(t)
	bank := f.bankAccount(t)
	bill := f.approvedBill(t, 280)
	payment := f.vendorPayment(t, bank, 100)
	ctx := asUser(f.initiatorUser.ID)

	if err := LinkPaymentToBill(ctx, payment.ID, bill.ID); err != nil {
		t.Fatalf("first link: %v", err)
	}
	if err := LinkPaymentToBill(ctx, payment.ID, bill.ID); err != nil {
		t.Fatalf("second link: %v", err)
	}
	reloaded := f.reloadBill(t, bill.ID)
	if !reloaded.AmountPaid.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount paid = %s, want 100 after duplicate link", reloaded.AmountPaid)
	}
}

func TestReconcileReportsPaidBalanceAndStatus(t *testing.T) {
	f := newApprovalFixture(t)
	bank := f.bankAccount(t)
	bill := f.approvedBill(t, 280)
	payment := f.vendorPayment(t, bank, 100)
	ctx := asUser(f.initiatorUser.ID)

	if err := LinkPaymentToBill(ctx, payment.ID, bill.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	result, err := ReconcileBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result == nil {
		t.Fatal("reconcile returned no result")
	}
	if !result.AmountPaid.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount paid = %s, want 100", result.AmountPaid)
	}
	if !result.BalanceDue.Equal(decimal.NewFromInt(180)) {
		t.Errorf("balance due = %s, want 180", result.BalanceDue)
	}
	if result.Status != models.StatusPartial {
		t.Errorf("status = %s, want %s", result.Status, models.StatusPartial)
	}
}

func TestReconcileVanishedBillIsNoOp(t *testing.T) {
	f := newApprovalFixture(t)
	result, err := ReconcileBill(asUser(f.initiatorUser.ID), uuid.NewString())
	if err != nil {
		t.Fatalf("reconcile of a missing bill must not fail: %v", err)
	}
	if result != nil {
		t.Errorf("reconcile of a missing bill returned %+v, want no result", result)
	}
}

func TestReconcileGuardStopsReentry(t *testing.T) {
	f := newApprovalFixture(t)
	bill := f.approvedBill(t, 280)

	// A context already holding the bill in its guard set must make the
	// nested reconciliation a no-op instead of recursing.
	ctx, guard := appctx.ReconcileGuard(asUser(f.initiatorUser.ID))
	guard[bill.ID] = true
	result, err := ReconcileBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("guarded reconcile: %v", err)
	}
	if result != nil {
		t.Errorf("guarded reconcile returned %+v, want no result", result)
	}
	reloaded := f.reloadBill(t, bill.ID)
	if reloaded.Status != models.StatusApproved {
		t.Errorf("status = %s, want unchanged %s", reloaded.Status, models.StatusApproved)
	}
}

func TestInvoicePaymentLifecycle(t *testing.T) {
	f := newApprovalFixture(t)
	ctx := asUser(f.initiatorUser.ID)

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "North Retail"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	revenue, err := models.CreateChartOfAccount(ctx, &models.NewChartOfAccount{
		AccountNumber:  "4000",
		Name:           "Sales",
		AccountType:    models.AccountTypeRevenue,
		AccountSubType: models.AccountSubTypeSales,
	})
	if err != nil {
		t.Fatalf("create revenue account: %v", err)
	}
	bank := f.bankAccount(t)
	exempt := false
	invoice, err := models.CreateSalesInvoice(ctx, &models.NewSalesInvoice{
		CustomerID:  customer.ID,
		InvoiceDate: time.Now(),
		Lines: []models.NewSalesInvoiceLine{
			{AccountID: revenue.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500), IsVatable: &exempt},
		},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if err := MarkInvoiceSent(ctx, invoice.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	payment, err := models.CreatePaymentReceived(ctx, &models.NewPaymentReceived{
		PaymentDate:      time.Now(),
		CustomerID:       customer.ID,
		Amount:           decimal.NewFromInt(200),
		PaymentMethod:    models.PaymentMethodGCash,
		DepositAccountID: bank.ID,
	})
	if err != nil {
		t.Fatalf("create received payment: %v", err)
	}
	if err := LinkPaymentToInvoice(ctx, payment.ID, invoice.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	reloaded, err := models.GetSalesInvoice(ctx, f.db, invoice.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != models.StatusPartial {
		t.Errorf("status = %s, want %s", reloaded.Status, models.StatusPartial)
	}

	// Unlink with no shipment on record reverts to SENT.
	if err := UnlinkPaymentFromInvoice(ctx, payment.ID, invoice.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	reloaded, _ = models.GetSalesInvoice(ctx, f.db, invoice.ID)
	if reloaded.Status != models.StatusSent {
		t.Errorf("status = %s, want %s after unlink", reloaded.Status, models.StatusSent)
	}
}
