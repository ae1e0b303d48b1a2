package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLevel is the current on-hand snapshot for one (product, warehouse)
// pair. Rows are mutated only through ApplyStockDelta; the quantity column is
// never written from an engine-side read-modify-write.
type StockLevel struct {
	ID             string          `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID      string          `gorm:"type:char(36);not null;uniqueIndex:idx_stock_product_warehouse" json:"product_id"`
	WarehouseID    string          `gorm:"type:char(36);not null;uniqueIndex:idx_stock_product_warehouse" json:"warehouse_id"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_on_hand"`
	ReorderPoint   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reorder_point"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *StockLevel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// ApplyStockDelta adjusts quantity_on_hand by delta for the (product,
// warehouse) pair, inserting a zero-quantity row first when absent. The
// adjustment is a relative SQL expression so concurrent adjustments to the
// same pair cannot lose updates.
func ApplyStockDelta(ctx context.Context, tx *gorm.DB, productID string, warehouseID string, delta decimal.Decimal) (*StockLevel, error) {
	if productID == "" || warehouseID == "" {
		return nil, utils.NewValidationError("", "product and warehouse are required for a stock adjustment")
	}
	row := StockLevel{
		ID:             uuid.NewString(),
		ProductID:      productID,
		WarehouseID:    warehouseID,
		QuantityOnHand: delta,
	}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity_on_hand": gorm.Expr("quantity_on_hand + ?", delta),
			"updated_at":       time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	var current StockLevel
	if err := tx.WithContext(ctx).
		First(&current, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

func GetStockLevel(ctx context.Context, tx *gorm.DB, productID string, warehouseID string) (*StockLevel, error) {
	var level StockLevel
	if err := tx.WithContext(ctx).
		First(&level, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &level, nil
}
