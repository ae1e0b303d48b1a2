package models

import (
	"context"
	"testing"
	"time"

	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
)

func createAdvanceFixture(t *testing.T, issued int64) *EmployeeAdvance {
	t.Helper()
	emp, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E100", FirstName: "Gio", LastName: "Tan",
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	advance, err := CreateEmployeeAdvance(context.Background(), &NewEmployeeAdvance{
		EmployeeID:   emp.ID,
		DateIssued:   time.Now(),
		AmountIssued: decimal.NewFromInt(issued),
		Purpose:      "site visit",
	})
	if err != nil {
		t.Fatalf("create advance: %v", err)
	}
	return advance
}

func TestAdvanceSettlementCannotExceedIssued(t *testing.T) {
	setupTestDB(t)
	advance := createAdvanceFixture(t, 5000)
	_, err := RecordLiquidation(context.Background(), advance.ID, decimal.NewFromInt(6000))
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error for over-liquidation, got %v", err)
	}
}

func TestAdvanceStatusFollowsSettlement(t *testing.T) {
	setupTestDB(t)
	advance := createAdvanceFixture(t, 5000)

	updated, err := RecordLiquidation(context.Background(), advance.ID, decimal.NewFromInt(2000))
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if updated.Status != AdvancePartiallyLiquidated {
		t.Errorf("status = %s, want %s", updated.Status, AdvancePartiallyLiquidated)
	}

	updated, err = RecordRepayment(context.Background(), advance.ID, decimal.NewFromInt(3000))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if updated.Status != AdvanceLiquidated {
		t.Errorf("status = %s, want %s", updated.Status, AdvanceLiquidated)
	}
	if !updated.OutstandingBalance().IsZero() {
		t.Errorf("outstanding = %s, want 0", updated.OutstandingBalance())
	}
}

func TestCombinedSettlementGuardsTheSum(t *testing.T) {
	setupTestDB(t)
	advance := createAdvanceFixture(t, 5000)

	if _, err := RecordLiquidation(context.Background(), advance.ID, decimal.NewFromInt(3000)); err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	// 3000 liquidated leaves 2000; a 2500 repayment would overshoot.
	_, err := RecordRepayment(context.Background(), advance.ID, decimal.NewFromInt(2500))
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error when sum exceeds issued, got %v", err)
	}
}

func TestCancelledAdvanceRefusesSettlement(t *testing.T) {
	setupTestDB(t)
	advance := createAdvanceFixture(t, 1000)
	if err := CancelAdvance(context.Background(), advance.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := RecordRepayment(context.Background(), advance.ID, decimal.NewFromInt(100))
	if !utils.IsPolicy(err) {
		t.Fatalf("expected policy error on cancelled advance, got %v", err)
	}
}
