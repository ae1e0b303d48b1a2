package models

import (
	"context"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID               string          `gorm:"type:char(36);primaryKey" json:"id"`
	Name             string          `gorm:"size:255;not null" json:"name"`
	Sku              *string         `gorm:"size:100;uniqueIndex" json:"sku"`
	Description      string          `gorm:"type:text" json:"description"`
	ProductType      ProductType     `gorm:"size:20;not null;default:INVENTORY" json:"product_type"`
	TrackInventory   bool            `gorm:"not null;default:true" json:"track_inventory"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_cost"`
	SalesPrice       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"sales_price"`
	IncomeAccountID  *string         `gorm:"type:char(36)" json:"income_account_id"`
	ExpenseAccountID *string         `gorm:"type:char(36)" json:"expense_account_id"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	Auditable
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type NewProduct struct {
	Name             string          `json:"name" validate:"required"`
	Sku              *string         `json:"sku"`
	Description      string          `json:"description"`
	ProductType      ProductType     `json:"product_type" validate:"required"`
	TrackInventory   bool            `json:"track_inventory"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	SalesPrice       decimal.Decimal `json:"sales_price"`
	IncomeAccountID  *string         `json:"income_account_id"`
	ExpenseAccountID *string         `json:"expense_account_id"`
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError(input.Name, err.Error())
	}
	if input.TrackInventory && input.ProductType != ProductTypeInventory {
		return nil, utils.NewValidationError(input.Name,
			"inventory tracking is only valid for inventory-type products")
	}
	product := &Product{
		ID:               uuid.NewString(),
		Name:             input.Name,
		Sku:              input.Sku,
		Description:      input.Description,
		ProductType:      input.ProductType,
		TrackInventory:   input.TrackInventory,
		UnitCost:         input.UnitCost,
		SalesPrice:       input.SalesPrice,
		IncomeAccountID:  input.IncomeAccountID,
		ExpenseAccountID: input.ExpenseAccountID,
		IsActive:         true,
	}
	if err := config.GetDB().WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, tx *gorm.DB, id string) (*Product, error) {
	var product Product
	if err := tx.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &product, nil
}
