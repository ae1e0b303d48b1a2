package models

import (
	"context"
	"testing"

	"github.com/rgreyesph/paspro/utils"
)

func TestAccountSubTypeMustMatchType(t *testing.T) {
	setupTestDB(t)
	_, err := CreateChartOfAccount(context.Background(), &NewChartOfAccount{
		AccountNumber:  "1000",
		Name:           "Mislabeled",
		AccountType:    AccountTypeAsset,
		AccountSubType: AccountSubTypeSales,
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error for subtype/type mismatch, got %v", err)
	}
}

func TestAccountHierarchyRejectsCycle(t *testing.T) {
	db := setupTestDB(t)
	parent, err := CreateChartOfAccount(context.Background(), &NewChartOfAccount{
		AccountNumber:  "6000",
		Name:           "Expenses",
		AccountType:    AccountTypeExpense,
		AccountSubType: AccountSubTypeOperatingExpense,
	})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := CreateChartOfAccount(context.Background(), &NewChartOfAccount{
		AccountNumber:   "6100",
		Name:            "Office Expenses",
		AccountType:     AccountTypeExpense,
		AccountSubType:  AccountSubTypeOperatingExpense,
		ParentAccountID: &parent.ID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// Pointing the parent back at the child closes a loop.
	parent.ParentAccountID = &child.ID
	if err := parent.Validate(context.Background(), db); !utils.IsValidation(err) {
		t.Fatalf("expected validation error for cycle, got %v", err)
	}
}

func TestAccountCannotBeOwnParent(t *testing.T) {
	db := setupTestDB(t)
	account := createExpenseAccount(t, "6200")
	account.ParentAccountID = &account.ID
	if err := account.Validate(context.Background(), db); !utils.IsValidation(err) {
		t.Fatalf("expected validation error for self-parent, got %v", err)
	}
}
