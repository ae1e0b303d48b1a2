package models

import (
	"github.com/rgreyesph/paspro/config"
)

// MigrateTable brings the schema up to date. Ordering matters only for
// readability; GORM resolves references by tag.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&User{},
		&ChartOfAccount{},
		&Employee{},
		&Vendor{},
		&Customer{},
		&Product{},
		&Warehouse{},
		&StockLevel{},
		&DocumentNumberSeries{},
		&DisbursementVoucher{},
		&Bill{},
		&BillLine{},
		&SalesInvoice{},
		&SalesInvoiceLine{},
		&EmployeeAdvance{},
		&PaymentMade{},
		&PaymentReceived{},
	)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "MigrateTable", "auto migration", nil, err)
		panic(err)
	}
}
