package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
)

// Device is one livestream phone/box a shift report row is filed against.
type Device struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:50;not null;unique" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Platform  string    `gorm:"size:50" json:"platform"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDevice struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Platform string `json:"platform"`
	IsActive *bool  `json:"is_active" binding:"required"`
}

func (d *Device) GetId() int {
	return d.ID
}

func CreateDevice(ctx context.Context, input *NewDevice) (*Device, error) {

	if err := utils.ValidateUnique[Device](ctx, "code", input.Code, 0); err != nil {
		return nil, errors.New("duplicate device code")
	}

	device := Device{
		Code:     strings.TrimSpace(input.Code),
		Name:     strings.TrimSpace(input.Name),
		Platform: input.Platform,
		IsActive: input.IsActive,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func GetAllDevices(ctx context.Context) ([]*Device, error) {
	return utils.FetchAllModels[Device](ctx)
}
