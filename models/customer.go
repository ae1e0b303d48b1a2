package models

import (
	"context"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID                      string  `gorm:"type:char(36);primaryKey" json:"id"`
	Name                    string  `gorm:"size:255;not null;index" json:"name"`
	ParentCompanyID         *string `gorm:"type:char(36)" json:"parent_company_id"`
	ContactPerson           string  `gorm:"size:150" json:"contact_person"`
	Email                   string  `gorm:"size:254" json:"email"`
	TaxID                   string  `gorm:"size:50" json:"tax_id"`
	DefaultRevenueAccountID *string `gorm:"type:char(36)" json:"default_revenue_account_id"`
	IsActive                bool    `gorm:"not null;default:true" json:"is_active"`
	Auditable
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type NewCustomer struct {
	Name                    string  `json:"name" validate:"required"`
	ParentCompanyID         *string `json:"parent_company_id"`
	ContactPerson           string  `json:"contact_person"`
	Email                   string  `json:"email"`
	TaxID                   string  `json:"tax_id"`
	DefaultRevenueAccountID *string `json:"default_revenue_account_id"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError(input.Name, err.Error())
	}
	customer := &Customer{
		ID:                      uuid.NewString(),
		Name:                    input.Name,
		ParentCompanyID:         input.ParentCompanyID,
		ContactPerson:           input.ContactPerson,
		Email:                   input.Email,
		TaxID:                   input.TaxID,
		DefaultRevenueAccountID: input.DefaultRevenueAccountID,
		IsActive:                true,
	}
	if err := config.GetDB().WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}
