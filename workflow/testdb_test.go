package workflow

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.SetDB(db)
	models.MigrateTable()
	return db
}

func asUser(userID string) context.Context {
	return utils.SetUserIdInContext(context.Background(), userID)
}

// approvalFixture wires a three-level reporting chain:
// initiator -> manager (limit 20,000) -> senior (ultimate approver).
type approvalFixture struct {
	db             *gorm.DB
	initiatorUser  *models.User
	managerUser    *models.User
	seniorUser     *models.User
	initiator      *models.Employee
	manager        *models.Employee
	senior         *models.Employee
	vendor         *models.Vendor
	expenseAccount *models.ChartOfAccount
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &approvalFixture{db: db}

	f.initiatorUser = createUser(t, db, "clerk")
	f.managerUser = createUser(t, db, "manager")
	f.seniorUser = createUser(t, db, "senior")

	var err error
	f.senior, err = models.CreateEmployee(context.Background(), &models.NewEmployee{
		EmployeeCode: "E003", FirstName: "Sol", LastName: "Garcia",
		UserID:               &f.seniorUser.ID,
		ApprovalLimit:        decimal.NewFromInt(1000000),
		CanUltimatelyApprove: true,
	})
	if err != nil {
		t.Fatalf("create senior: %v", err)
	}
	f.manager, err = models.CreateEmployee(context.Background(), &models.NewEmployee{
		EmployeeCode: "E002", FirstName: "Mon", LastName: "Diaz",
		UserID:        &f.managerUser.ID,
		ManagerID:     &f.senior.ID,
		ApprovalLimit: decimal.NewFromInt(20000),
	})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	f.initiator, err = models.CreateEmployee(context.Background(), &models.NewEmployee{
		EmployeeCode: "E001", FirstName: "Ivy", LastName: "Ramos",
		UserID:    &f.initiatorUser.ID,
		ManagerID: &f.manager.ID,
	})
	if err != nil {
		t.Fatalf("create initiator: %v", err)
	}

	f.vendor, err = models.CreateVendor(context.Background(), &models.NewVendor{Name: "Acme Supplies"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	f.expenseAccount, err = models.CreateChartOfAccount(context.Background(), &models.NewChartOfAccount{
		AccountNumber:  "6000",
		Name:           "Operating Expenses",
		AccountType:    models.AccountTypeExpense,
		AccountSubType: models.AccountSubTypeOperatingExpense,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return f
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{UserName: name, Email: name + "@example.test", IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// newBill creates a draft bill for the given amount as the initiator. The
// single line is tax-exempt so the document total equals amount exactly.
func (f *approvalFixture) newBill(t *testing.T, amount int64) *models.Bill {
	t.Helper()
	exempt := false
	bill, err := models.CreateBill(asUser(f.initiatorUser.ID), &models.NewBill{
		VendorID: f.vendor.ID,
		BillDate: time.Now(),
		Lines: []models.NewBillLine{
			{
				AccountID: f.expenseAccount.ID,
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: decimal.NewFromInt(amount),
				IsVatable: &exempt,
			},
		},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return bill
}

func (f *approvalFixture) billRef(bill *models.Bill) DocumentRef {
	return DocumentRef{Type: models.DocumentTypeBill, ID: bill.ID}
}

func (f *approvalFixture) reloadBill(t *testing.T, id string) *models.Bill {
	t.Helper()
	bill, err := models.GetBill(context.Background(), f.db, id)
	if err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	return bill
}
