package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Farmer struct {
	ID       string  `gorm:"primaryKey;type:text" json:"id"`
	Email    string  `gorm:"uniqueIndex;not null" json:"email"`
	Password string  `gorm:"not null" json:"-"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Avatar   *string `json:"avatar"`
	Revenue  float64 `json:"revenue"`
	// refreshed on sign-in, token refresh and profile writes
	LastSync time.Time `json:"lastSync"`

	Settings *FarmerSettings `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
	Crops    []Crop          `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Farmer) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// CurrentCrops and FutureCrops split the preloaded crop list on IsFuture.
func (f *Farmer) CurrentCrops() []Crop { return f.cropsWhere(false) }

func (f *Farmer) FutureCrops() []Crop { return f.cropsWhere(true) }

func (f *Farmer) cropsWhere(future bool) []Crop {
	out := make([]Crop, 0, len(f.Crops))
	for _, c := range f.Crops {
		if c.IsFuture == future {
			out = append(out, c)
		}
	}
	return out
}
