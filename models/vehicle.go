package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetfocus/rentals_backend/config"
	"github.com/fleetfocus/rentals_backend/utils"
	"gorm.io/gorm"
)

type Vehicle struct {
	ID           int        `gorm:"primary_key" json:"id"`
	LicensePlate string     `gorm:"size:100;not null;index" json:"license_plate" binding:"required"`
	Make         string     `gorm:"size:255" json:"make"`
	Model        string     `gorm:"size:255" json:"model"`
	Category     string     `gorm:"size:100;not null;index" json:"category" binding:"required"`
	BranchId     int        `gorm:"index;not null" json:"branch_id" binding:"required"`
	InvestorId   int        `gorm:"index" json:"investor_id"`
	AcquiredDate time.Time  `gorm:"not null" json:"acquired_date" binding:"required"`
	RetiredDate  *time.Time `json:"retired_date"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetVehicle(ctx context.Context, id int) (*Vehicle, error) {
	db := config.GetDB()
	var vehicle Vehicle
	if err := db.WithContext(ctx).First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &vehicle, nil
}
