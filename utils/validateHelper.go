package utils

import (
	"context"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// ValidateStruct runs the `validate` tags on an input payload.
func ValidateStruct(obj interface{}) error {
	return validate.Struct(obj)
}

// ValidateResourceId checks that a row of model T with the given id exists.
// Returns ErrorRecordNotFound when absent.
func ValidateResourceId[T any](ctx context.Context, db *gorm.DB, id string) error {
	if id == "" {
		return ErrorRecordNotFound
	}
	var count int64
	var model T
	if err := db.WithContext(ctx).Model(&model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}
	return nil
}
