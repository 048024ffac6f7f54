package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmlivehub/opsboard_backend/config"
	"github.com/mmlivehub/opsboard_backend/utils"
)

// SellerAccount is the platform storefront account a shift streams under.
type SellerAccount struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:50;not null;unique" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Platform  string    `gorm:"size:50" json:"platform"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSellerAccount struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Platform string `json:"platform"`
	IsActive *bool  `json:"is_active" binding:"required"`
}

func (a *SellerAccount) GetId() int {
	return a.ID
}

func CreateSellerAccount(ctx context.Context, input *NewSellerAccount) (*SellerAccount, error) {

	if err := utils.ValidateUnique[SellerAccount](ctx, "code", input.Code, 0); err != nil {
		return nil, errors.New("duplicate account code")
	}

	account := SellerAccount{
		Code:     strings.TrimSpace(input.Code),
		Name:     strings.TrimSpace(input.Name),
		Platform: input.Platform,
		IsActive: input.IsActive,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func GetAllSellerAccounts(ctx context.Context) ([]*SellerAccount, error) {
	return utils.FetchAllModels[SellerAccount](ctx)
}
