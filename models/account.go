package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

// ChartOfAccount is one entry in the chart of accounts. Accounts form an
// optional hierarchy through ParentAccountID.
type ChartOfAccount struct {
	ID              string         `gorm:"type:char(36);primaryKey" json:"id"`
	AccountNumber   string         `gorm:"size:20;uniqueIndex;not null" json:"account_number"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	AccountType     AccountType    `gorm:"size:20;index;not null" json:"account_type"`
	AccountSubType  AccountSubType `gorm:"size:50;not null" json:"account_subtype"`
	Description     string         `gorm:"type:text" json:"description"`
	ParentAccountID *string        `gorm:"type:char(36);index" json:"parent_account_id"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	Auditable
}

func (a *ChartOfAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// subTypeOwners maps every subtype to the major type it belongs to.
var subTypeOwners = map[AccountSubType]AccountType{
	AccountSubTypeBank:               AccountTypeAsset,
	AccountSubTypeCash:               AccountTypeAsset,
	AccountSubTypeAccountsReceivable: AccountTypeAsset,
	AccountSubTypeEmployeeAdvances:   AccountTypeAsset,
	AccountSubTypeInventory:          AccountTypeAsset,
	AccountSubTypePrepaidExpenses:    AccountTypeAsset,
	AccountSubTypeOtherCurrentAsset:  AccountTypeAsset,
	AccountSubTypeFixedAsset:         AccountTypeAsset,
	AccountSubTypeAccountsPayable:    AccountTypeLiability,
	AccountSubTypeCreditCardPayable:  AccountTypeLiability,
	AccountSubTypeAccruedLiabilities: AccountTypeLiability,
	AccountSubTypeUnearnedRevenue:    AccountTypeLiability,
	AccountSubTypeCurrentLiability:   AccountTypeLiability,
	AccountSubTypeLongTermLiability:  AccountTypeLiability,
	AccountSubTypeOwnersEquity:       AccountTypeEquity,
	AccountSubTypeRetainedEarnings:   AccountTypeEquity,
	AccountSubTypeSales:              AccountTypeRevenue,
	AccountSubTypeServiceRevenue:     AccountTypeRevenue,
	AccountSubTypeOtherIncome:        AccountTypeRevenue,
	AccountSubTypeCostOfGoodsSold:    AccountTypeExpense,
	AccountSubTypeOperatingExpense:   AccountTypeExpense,
	AccountSubTypeSalariesWages:      AccountTypeExpense,
	AccountSubTypeRentExpense:        AccountTypeExpense,
	AccountSubTypeUtilitiesExpense:   AccountTypeExpense,
	AccountSubTypeDepreciation:       AccountTypeExpense,
	AccountSubTypeInterestExpense:    AccountTypeExpense,
	AccountSubTypeOtherExpense:       AccountTypeExpense,
}

const maxAccountDepth = 50

// Validate checks hierarchy and classification rules against the given DB.
func (a *ChartOfAccount) Validate(ctx context.Context, tx *gorm.DB) error {
	owner, ok := subTypeOwners[a.AccountSubType]
	if !ok {
		return utils.NewValidationError(a.AccountNumber, fmt.Sprintf("unknown account subtype %q", a.AccountSubType))
	}
	if owner != a.AccountType {
		return utils.NewValidationError(a.AccountNumber,
			fmt.Sprintf("subtype %s belongs to %s, not %s", a.AccountSubType, owner, a.AccountType))
	}
	if a.ParentAccountID == nil {
		return nil
	}
	if *a.ParentAccountID == a.ID {
		return utils.NewValidationError(a.AccountNumber, "an account cannot be its own parent")
	}
	// Walk up the parent chain; a cycle or runaway depth rejects the write.
	seen := map[string]bool{a.ID: true}
	parentID := a.ParentAccountID
	for depth := 0; parentID != nil; depth++ {
		if depth > maxAccountDepth {
			return utils.NewValidationError(a.AccountNumber, "account hierarchy too deep")
		}
		if seen[*parentID] {
			return utils.NewValidationError(a.AccountNumber, "parent assignment creates a cycle")
		}
		seen[*parentID] = true
		var parent ChartOfAccount
		if err := tx.WithContext(ctx).Select("id", "parent_account_id").First(&parent, "id = ?", *parentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NewValidationError(a.AccountNumber, "parent account does not exist")
			}
			return err
		}
		parentID = parent.ParentAccountID
	}
	return nil
}

type NewChartOfAccount struct {
	AccountNumber   string         `json:"account_number" validate:"required"`
	Name            string         `json:"name" validate:"required"`
	AccountType     AccountType    `json:"account_type" validate:"required"`
	AccountSubType  AccountSubType `json:"account_subtype" validate:"required"`
	Description     string         `json:"description"`
	ParentAccountID *string        `json:"parent_account_id"`
}

func CreateChartOfAccount(ctx context.Context, input *NewChartOfAccount) (*ChartOfAccount, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError(input.AccountNumber, err.Error())
	}
	db := config.GetDB()
	account := &ChartOfAccount{
		ID:              uuid.NewString(),
		AccountNumber:   input.AccountNumber,
		Name:            input.Name,
		AccountType:     input.AccountType,
		AccountSubType:  input.AccountSubType,
		Description:     input.Description,
		ParentAccountID: input.ParentAccountID,
		IsActive:        true,
	}
	if err := account.Validate(ctx, db); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func GetChartOfAccount(ctx context.Context, tx *gorm.DB, id string) (*ChartOfAccount, error) {
	var account ChartOfAccount
	if err := tx.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}
