package models

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
)

func createTestVendor(t *testing.T) *Vendor {
	t.Helper()
	vendor, err := CreateVendor(context.Background(), &NewVendor{Name: "Acme Supplies"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	return vendor
}

func TestBillTotalsFromVatableLines(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "maria")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6001")

	bill, err := CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)},
			{AccountID: account.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if !bill.Subtotal.Equal(decimal.RequireFromString("250")) {
		t.Errorf("subtotal = %s, want 250", bill.Subtotal)
	}
	if !bill.TaxAmount.Equal(decimal.RequireFromString("30")) {
		t.Errorf("tax = %s, want 30", bill.TaxAmount)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("280")) {
		t.Errorf("total = %s, want 280", bill.TotalAmount)
	}
}

func TestBillTotalsRecalculationIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "jun")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6002")

	bill, err := CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(40)},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	_, changed, err := RecalculateBillTotals(ctx, config.GetDB(), bill.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if changed {
		t.Error("second recalculation performed a write; totals should already be current")
	}
}

func TestBillTotalsSkipTaxOnExemptLines(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "nina")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6003")

	bill, err := CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000), IsVatable: boolPtr(false)},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if !bill.TaxAmount.IsZero() {
		t.Errorf("tax = %s, want 0 for exempt line", bill.TaxAmount)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("total = %s, want 1000", bill.TotalAmount)
	}
}

func TestBillLineRejectsNegativeQuantity(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "olga")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6004")

	_, err := CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(10)},
		},
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error for negative quantity, got %v", err)
	}
}

func TestBillLineRequiresWarehouseForTrackedProduct(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "pia")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6005")
	product, err := CreateProduct(ctx, &NewProduct{
		Name:           "Widget",
		ProductType:    ProductTypeInventory,
		TrackInventory: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err = CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, ProductID: &product.ID, Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(10)},
		},
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error for missing warehouse, got %v", err)
	}
}

func TestBillLineErrorNamesBillNumber(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "sol")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6007")

	// The line save hook looks up the parent bill for the error message; that
	// lookup must not inherit the line statement it runs inside of.
	bill, err := CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(75)},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	_, err = AddBillLine(ctx, bill.ID, &NewBillLine{
		AccountID: account.ID,
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromInt(-5),
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
	if !strings.Contains(err.Error(), bill.BillNumber) {
		t.Errorf("error %q does not name bill %s", err.Error(), bill.BillNumber)
	}
}

func TestDeletingLineRecalculatesTotals(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "rex")
	ctx := testContext(t, user.ID)
	vendor := createTestVendor(t)
	account := createExpenseAccount(t, "6006")

	bill, err := CreateBill(ctx, &NewBill{
		VendorID: vendor.ID,
		BillDate: time.Now(),
		Lines: []NewBillLine{
			{AccountID: account.ID, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)},
			{AccountID: account.ID, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	var lines []BillLine
	if err := db.Where("bill_id = ?", bill.ID).Order("line_total desc").Find(&lines).Error; err != nil {
		t.Fatalf("load lines: %v", err)
	}
	if err := DeleteBillLine(ctx, lines[0].ID); err != nil {
		t.Fatalf("delete line: %v", err)
	}
	reloaded, err := GetBill(ctx, db, bill.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Subtotal.Equal(decimal.RequireFromString("50")) {
		t.Errorf("subtotal after delete = %s, want 50", reloaded.Subtotal)
	}
}
