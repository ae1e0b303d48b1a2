package models

import (
	"context"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

type Vendor struct {
	ID                      string  `gorm:"type:char(36);primaryKey" json:"id"`
	Name                    string  `gorm:"size:255;not null;index" json:"name"`
	ContactPerson           string  `gorm:"size:150" json:"contact_person"`
	Email                   string  `gorm:"size:254" json:"email"`
	TaxID                   string  `gorm:"size:50" json:"tax_id"`
	DefaultExpenseAccountID *string `gorm:"type:char(36)" json:"default_expense_account_id"`
	IsActive                bool    `gorm:"not null;default:true" json:"is_active"`
	Auditable
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

type NewVendor struct {
	Name                    string  `json:"name" validate:"required"`
	ContactPerson           string  `json:"contact_person"`
	Email                   string  `json:"email"`
	TaxID                   string  `json:"tax_id"`
	DefaultExpenseAccountID *string `json:"default_expense_account_id"`
}

func CreateVendor(ctx context.Context, input *NewVendor) (*Vendor, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError(input.Name, err.Error())
	}
	vendor := &Vendor{
		ID:                      uuid.NewString(),
		Name:                    input.Name,
		ContactPerson:           input.ContactPerson,
		Email:                   input.Email,
		TaxID:                   input.TaxID,
		DefaultExpenseAccountID: input.DefaultExpenseAccountID,
		IsActive:                true,
	}
	if err := config.GetDB().WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}
