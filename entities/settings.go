package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FarmerSettings struct {
	ID       string `gorm:"primaryKey;type:text" json:"id"`
	FarmerID string `gorm:"uniqueIndex;not null" json:"farmerId"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zipCode"`
	Country   string   `json:"country"`

	PrimaryContact   string `json:"primaryContact"`   // EMAIL|PHONE
	SecondaryContact string `json:"secondaryContact"` // EMAIL|PHONE

	LanguagePreference string `json:"languagePreference"`
	Timezone           string `json:"timezone"`
	Currency           string `json:"currency"`

	Equipments       []string `gorm:"serializer:json" json:"equipments"`
	FarmSize         float64  `json:"farmSize"` // acres
	FarmType         string   `json:"farmType"`
	OrganicCertified bool     `json:"organicCertified"`

	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
	WeatherAlerts      bool `json:"weatherAlerts"`
	MarketPriceAlerts  bool `json:"marketPriceAlerts"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *FarmerSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// DefaultSettings is what a farmer gets before onboarding fills anything in.
func DefaultSettings(farmerID string) *FarmerSettings {
	return &FarmerSettings{
		FarmerID:           farmerID,
		Country:            "IN",
		PrimaryContact:     "EMAIL",
		LanguagePreference: "en",
		Timezone:           "Asia/Kolkata",
		Currency:           "INR",
		Equipments:         []string{},
		EmailNotifications: true,
		PushNotifications:  true,
		WeatherAlerts:      true,
	}
}
