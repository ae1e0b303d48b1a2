package models

import (
	"context"
	"testing"

	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
)

func TestManagerAssignmentRejectsSelf(t *testing.T) {
	setupTestDB(t)
	emp, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E001", FirstName: "Alma", LastName: "Reyes",
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if err := AssignManager(context.Background(), emp.ID, &emp.ID); !utils.IsValidation(err) {
		t.Fatalf("expected validation error for self-manager, got %v", err)
	}
}

func TestManagerAssignmentRejectsCycle(t *testing.T) {
	setupTestDB(t)
	a, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E010", FirstName: "Ana", LastName: "Cruz",
	})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E011", FirstName: "Ben", LastName: "Cruz", ManagerID: &a.ID,
	})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	c, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E012", FirstName: "Cora", LastName: "Cruz", ManagerID: &b.ID,
	})
	if err != nil {
		t.Fatalf("create c: %v", err)
	}

	// a -> c would close a <- b <- c into a loop.
	if err := AssignManager(context.Background(), a.ID, &c.ID); !utils.IsValidation(err) {
		t.Fatalf("expected validation error for manager cycle, got %v", err)
	}
}

func TestManagerReassignmentAllowsChain(t *testing.T) {
	db := setupTestDB(t)
	a, _ := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E020", FirstName: "Dina", LastName: "Santos",
		ApprovalLimit: decimal.NewFromInt(20000),
	})
	b, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E021", FirstName: "Elio", LastName: "Santos", ManagerID: &a.ID,
	})
	if err != nil {
		t.Fatalf("create subordinate: %v", err)
	}
	var stored Employee
	if err := db.First(&stored, "id = ?", b.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.ManagerID == nil || *stored.ManagerID != a.ID {
		t.Fatalf("manager not persisted, got %v", stored.ManagerID)
	}
	if err := AssignManager(context.Background(), b.ID, nil); err != nil {
		t.Fatalf("clearing manager: %v", err)
	}
}

func TestNegativeApprovalLimitRejected(t *testing.T) {
	setupTestDB(t)
	_, err := CreateEmployee(context.Background(), &NewEmployee{
		EmployeeCode: "E030", FirstName: "Fe", LastName: "Lim",
		ApprovalLimit: decimal.NewFromInt(-5),
	})
	if !utils.IsValidation(err) {
		t.Fatalf("expected validation error for negative limit, got %v", err)
	}
}
