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

type Branch struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name" binding:"required"`
	City      string    `gorm:"size:255" json:"city"`
	Phone     string    `gorm:"size:100" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetBranch(ctx context.Context, id int) (*Branch, error) {
	db := config.GetDB()
	var branch Branch
	if err := db.WithContext(ctx).First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: branch %d", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &branch, nil
}

// BranchNamesById returns a lookup used by report builders to resolve branch
// labels once during aggregation instead of per consumer.
func BranchNamesById(ctx context.Context) (map[int]string, error) {
	db := config.GetDB()
	var branches []Branch
	if err := db.WithContext(ctx).Find(&branches).Error; err != nil {
		return nil, err
	}
	names := make(map[int]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}
	return names, nil
}
