package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"gorm.io/gorm"
)

// DocumentNumberSeries allocates sequential, gap-tolerant document numbers per
// module. The counter is advanced with a relative SQL update so concurrent
// allocations never hand out the same number.
type DocumentNumberSeries struct {
	ID         string `gorm:"type:char(36);primaryKey" json:"id"`
	ModuleName string `gorm:"size:20;uniqueIndex;not null" json:"module_name"`
	Prefix     string `gorm:"size:20;not null" json:"prefix"`
	NextNumber int64  `gorm:"not null;default:1" json:"next_number"`
	Padding    int    `gorm:"not null;default:6" json:"padding"`
}

func (s *DocumentNumberSeries) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

const seriesCacheTTL = 12 * time.Hour

func seriesCacheKey(module string) string {
	return "docSeries:" + module
}

type cachedSeries struct {
	Prefix  string `json:"prefix"`
	Padding int    `json:"padding"`
}

// NextDocumentNumber returns the next formatted number for the module,
// creating the series row with defaults on first use. The prefix and padding
// are cached in Redis when available; the counter itself always lives in the
// database.
func NextDocumentNumber(ctx context.Context, tx *gorm.DB, module string) (string, error) {
	var series DocumentNumberSeries
	err := tx.WithContext(ctx).First(&series, "module_name = ?", module).Error
	if err == gorm.ErrRecordNotFound {
		series = DocumentNumberSeries{
			ID:         uuid.NewString(),
			ModuleName: module,
			Prefix:     module,
			NextNumber: 1,
			Padding:    6,
		}
		if err := tx.WithContext(ctx).Create(&series).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	shape := cachedSeries{Prefix: series.Prefix, Padding: series.Padding}
	var cached cachedSeries
	if hit, cacheErr := config.GetRedisObject(seriesCacheKey(module), &cached); cacheErr == nil && hit {
		shape = cached
	} else {
		_ = config.SetRedisObject(seriesCacheKey(module), shape, seriesCacheTTL)
	}
	if shape.Padding <= 0 {
		shape.Padding = 6
	}

	result := tx.WithContext(ctx).Model(&DocumentNumberSeries{}).
		Where("module_name = ?", module).
		UpdateColumn("next_number", gorm.Expr("next_number + 1"))
	if result.Error != nil {
		return "", result.Error
	}
	var allocated int64
	if err := tx.WithContext(ctx).Model(&DocumentNumberSeries{}).
		Where("module_name = ?", module).
		Select("next_number").Scan(&allocated).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%0*d", shape.Prefix, shape.Padding, allocated-1), nil
}
