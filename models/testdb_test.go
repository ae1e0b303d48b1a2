package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
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
	MigrateTable()
	return db
}

func testContext(t *testing.T, userID string) context.Context {
	t.Helper()
	return utils.SetUserIdInContext(context.Background(), userID)
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *User {
	t.Helper()
	user := &User{UserName: name, Email: name + "@example.test", IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func createExpenseAccount(t *testing.T, number string) *ChartOfAccount {
	t.Helper()
	account, err := CreateChartOfAccount(context.Background(), &NewChartOfAccount{
		AccountNumber:  number,
		Name:           "Operating Expenses " + number,
		AccountType:    AccountTypeExpense,
		AccountSubType: AccountSubTypeOperatingExpense,
	})
	if err != nil {
		t.Fatalf("create expense account: %v", err)
	}
	return account
}

func boolPtr(b bool) *bool { return &b }
