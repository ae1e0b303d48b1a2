package models

import (
	"context"
	"testing"

	"github.com/rgreyesph/paspro/config"
)

func TestDocumentNumbersAreSequential(t *testing.T) {
	setupTestDB(t)
	db := config.GetDB()

	first, err := NextDocumentNumber(context.Background(), db, "BILL")
	if err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	second, err := NextDocumentNumber(context.Background(), db, "BILL")
	if err != nil {
		t.Fatalf("second allocation: %v", err)
	}
	if first != "BILL-000001" {
		t.Errorf("first number = %s, want BILL-000001", first)
	}
	if second != "BILL-000002" {
		t.Errorf("second number = %s, want BILL-000002", second)
	}
}

func TestDocumentNumbersUseConfiguredPrefix(t *testing.T) {
	setupTestDB(t)
	db := config.GetDB()
	series := &DocumentNumberSeries{ModuleName: "DV", Prefix: "2026-DV", NextNumber: 41, Padding: 4}
	if err := db.Create(series).Error; err != nil {
		t.Fatalf("seed series: %v", err)
	}
	number, err := NextDocumentNumber(context.Background(), db, "DV")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if number != "2026-DV-0041" {
		t.Errorf("number = %s, want 2026-DV-0041", number)
	}
}
