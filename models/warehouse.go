package models

import (
	"context"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

type Warehouse struct {
	ID       string `gorm:"type:char(36);primaryKey" json:"id"`
	Name     string `gorm:"size:150;uniqueIndex;not null" json:"name"`
	IsActive bool   `gorm:"not null;default:true" json:"is_active"`
	Auditable
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

type NewWarehouse struct {
	Name string `json:"name" validate:"required"`
}

func CreateWarehouse(ctx context.Context, input *NewWarehouse) (*Warehouse, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError(input.Name, err.Error())
	}
	warehouse := &Warehouse{ID: uuid.NewString(), Name: input.Name, IsActive: true}
	if err := config.GetDB().WithContext(ctx).Create(warehouse).Error; err != nil {
		return nil, err
	}
	return warehouse, nil
}
