package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Employee struct {
	ID           string           `gorm:"type:char(36);primaryKey" json:"id"`
	EmployeeCode string           `gorm:"size:20;uniqueIndex" json:"employee_code"`
	FirstName    string           `gorm:"size:100;not null" json:"first_name"`
	LastName     string           `gorm:"size:100;not null" json:"last_name"`
	JobTitle     string           `gorm:"size:150" json:"job_title"`
	UserID       *string          `gorm:"type:char(36);uniqueIndex" json:"user_id"`
	Status       EmploymentStatus `gorm:"size:20;not null;default:ACTIVE" json:"status"`

	// Approval workflow fields.
	ManagerID            *string         `gorm:"type:char(36);index" json:"manager_id"`
	ApprovalLimit        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"approval_limit"`
	CanUltimatelyApprove bool            `gorm:"not null;default:false" json:"can_ultimately_approve"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type NewEmployee struct {
	EmployeeCode         string          `json:"employee_code"`
	FirstName            string          `json:"first_name" validate:"required"`
	LastName             string          `json:"last_name" validate:"required"`
	JobTitle             string          `json:"job_title"`
	UserID               *string         `json:"user_id"`
	ManagerID            *string         `json:"manager_id"`
	ApprovalLimit        decimal.Decimal `json:"approval_limit"`
	CanUltimatelyApprove bool            `json:"can_ultimately_approve"`
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, utils.NewValidationError(input.EmployeeCode, err.Error())
	}
	if input.ApprovalLimit.IsNegative() {
		return nil, utils.NewValidationError(input.EmployeeCode, "approval limit must not be negative")
	}
	db := config.GetDB()
	emp := &Employee{
		ID:                   uuid.NewString(),
		EmployeeCode:         input.EmployeeCode,
		FirstName:            input.FirstName,
		LastName:             input.LastName,
		JobTitle:             input.JobTitle,
		UserID:               input.UserID,
		Status:               EmploymentActive,
		ApprovalLimit:        input.ApprovalLimit,
		CanUltimatelyApprove: input.CanUltimatelyApprove,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(emp).Error; err != nil {
			return err
		}
		if input.ManagerID != nil {
			return assignManagerTx(ctx, tx, emp, *input.ManagerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return emp, nil
}

const maxManagerDepth = 100

// AssignManager sets (or clears, with nil) an employee's manager. Assignments
// that would close a loop in the manager chain are rejected; an unvalidated
// cycle would hang approver resolution.
func AssignManager(ctx context.Context, employeeID string, managerID *string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		emp, err := GetEmployee(ctx, tx, employeeID)
		if err != nil {
			return err
		}
		if managerID == nil {
			return tx.Model(emp).Update("manager_id", nil).Error
		}
		return assignManagerTx(ctx, tx, emp, *managerID)
	})
}

func assignManagerTx(ctx context.Context, tx *gorm.DB, emp *Employee, managerID string) error {
	if managerID == emp.ID {
		return utils.NewValidationError(emp.EmployeeCode, "an employee cannot be their own manager")
	}
	// Walk the prospective manager's chain; hitting the employee means a cycle.
	currentID := &managerID
	for depth := 0; currentID != nil; depth++ {
		if depth > maxManagerDepth {
			return utils.NewValidationError(emp.EmployeeCode, "manager chain too deep")
		}
		if *currentID == emp.ID {
			return utils.NewValidationError(emp.EmployeeCode, "manager assignment creates a cycle")
		}
		var mgr Employee
		if err := tx.WithContext(ctx).Select("id", "manager_id").First(&mgr, "id = ?", *currentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.NewValidationError(emp.EmployeeCode, "manager does not exist")
			}
			return err
		}
		currentID = mgr.ManagerID
	}
	return tx.Model(emp).Update("manager_id", managerID).Error
}

func GetEmployee(ctx context.Context, tx *gorm.DB, id string) (*Employee, error) {
	var emp Employee
	if err := tx.WithContext(ctx).First(&emp, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// GetEmployeeByUserID resolves the employee profile linked to a user identity.
// Returns ErrorRecordNotFound when the user has no profile.
func GetEmployeeByUserID(ctx context.Context, tx *gorm.DB, userID string) (*Employee, error) {
	var emp Employee
	if err := tx.WithContext(ctx).First(&emp, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &emp, nil
}

// GetManagerOf returns the direct manager of the given employee, or
// ErrorRecordNotFound when none is assigned.
func GetManagerOf(ctx context.Context, tx *gorm.DB, emp *Employee) (*Employee, error) {
	if emp.ManagerID == nil {
		return nil, utils.ErrorRecordNotFound
	}
	return GetEmployee(ctx, tx, *emp.ManagerID)
}
