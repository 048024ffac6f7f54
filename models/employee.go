package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
)

// ErrEmployeeNotLinked means the authenticated user has no employee profile.
// This is a precondition failure, not a validation error: the user must ask
// an administrator to link one.
var ErrEmployeeNotLinked = errors.New("no employee profile is linked to this user; contact an administrator")

type Employee struct {
	ID        int        `gorm:"primary_key" json:"id"`
	UserId    int        `gorm:"uniqueIndex;not null" json:"user_id" binding:"required"`
	Name      string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone     string     `gorm:"size:20" json:"phone"`
	Position  string     `gorm:"size:100" json:"position"`
	TeamName  string     `gorm:"size:100" json:"team_name"`
	JoinDate  *time.Time `json:"join_date"`
	IsActive  *bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	UserId   int        `json:"user_id" binding:"required"`
	Name     string     `json:"name" binding:"required"`
	Phone    string     `json:"phone"`
	Position string     `json:"position"`
	TeamName string     `json:"team_name"`
	JoinDate *time.Time `json:"join_date"`
	IsActive *bool      `json:"is_active" binding:"required"`
}

func (e *Employee) GetId() int {
	return e.ID
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {

	if err := utils.ValidateResourceId[User](ctx, input.UserId); err != nil {
		return nil, errors.New("user not found")
	}
	if err := utils.ValidateUnique[Employee](ctx, "user_id", input.UserId, 0); err != nil {
		return nil, errors.New("user already has an employee profile")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, errors.New("invalid phone number")
		}
	}

	employee := Employee{
		UserId:   input.UserId,
		Name:     strings.TrimSpace(input.Name),
		Phone:    input.Phone,
		Position: input.Position,
		TeamName: input.TeamName,
		JoinDate: input.JoinDate,
		IsActive: input.IsActive,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	return utils.FetchSingleModel[Employee](ctx, id)
}

func GetAllEmployees(ctx context.Context) ([]*Employee, error) {
	return utils.FetchAllModels[Employee](ctx)
}

// GetEmployeeByUserId resolves the employee profile linked to a user account.
func GetEmployeeByUserId(ctx context.Context, userId int) (*Employee, error) {
	db := config.GetDB()
	var employee Employee
	err := db.WithContext(ctx).Where("user_id = ?", userId).Take(&employee).Error
	if err != nil {
		return nil, ErrEmployeeNotLinked
	}
	if employee.IsActive != nil && !*employee.IsActive {
		return nil, errors.New("employee profile is disabled")
	}
	return &employee, nil
}
