package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CropStatus string

const (
	CropPlanted         CropStatus = "PLANTED"
	CropGrowing         CropStatus = "GROWING"
	CropReadyForHarvest CropStatus = "READY_FOR_HARVEST"
	CropHarvested       CropStatus = "HARVESTED"
	CropFailed          CropStatus = "FAILED"
)

func (s CropStatus) Valid() bool {
	switch s {
	case CropPlanted, CropGrowing, CropReadyForHarvest, CropHarvested, CropFailed:
		return true
	}
	return false
}

type Crop struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Variety     string     `json:"variety"`
	PlantedDate *time.Time `json:"plantedDate"`
	HarvestDate *time.Time `json:"harvestDate"`
	Quantity    *float64   `json:"quantity"` // kg
	Status      CropStatus `gorm:"type:text" json:"status"`
	Notes       string     `json:"notes"`
	IsFuture    bool       `gorm:"index" json:"isFuture"`
	Position    int        `json:"-"` // order within its list
	FarmerID    string     `gorm:"index;not null" json:"farmerId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Crop) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CropPlanted
	}
	return nil
}
