package service

import (
	"context"
	"time"

	"krishi/entities"
)

// Profile is the farmer as the dashboard sees it.
type Profile struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Email       string                   `json:"email"`
	Phone       string                   `json:"phone"`
	Avatar      *string                  `json:"avatar,omitempty"`
	Revenue     float64                  `json:"revenue"`
	LastSync    time.Time                `json:"lastSync"`
	Settings    *entities.FarmerSettings `json:"settings"`
	Crops       []entities.Crop          `json:"crops"`
	FutureCrops []entities.Crop          `json:"futureCrops"`
}

// UpdateInput is a partial profile. Nil fields keep the stored value; a
// non-nil crop list, even an empty one, replaces the stored list.
type UpdateInput struct {
	Name        *string        `json:"name"`
	Phone       *string        `json:"phone"`
	Avatar      *string        `json:"avatar"`
	Revenue     *float64       `json:"revenue"`
	Settings    *SettingsPatch `json:"settings"`
	Crops       *[]CropInput   `json:"crops"`
	FutureCrops *[]CropInput   `json:"futureCrops"`
}

type SettingsPatch struct {
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
	City               *string   `json:"city"`
	State              *string   `json:"state"`
	ZipCode            *string   `json:"zipCode"`
	Country            *string   `json:"country"`
	PrimaryContact     *string   `json:"primaryContact"`
	SecondaryContact   *string   `json:"secondaryContact"`
	LanguagePreference *string   `json:"languagePreference"`
	Timezone           *string   `json:"timezone"`
	Currency           *string   `json:"currency"`
	Equipments         *[]string `json:"equipments"`
	FarmSize           *float64  `json:"farmSize"`
	FarmType           *string   `json:"farmType"`
	OrganicCertified   *bool     `json:"organicCertified"`
	EmailNotifications *bool     `json:"emailNotifications"`
	PushNotifications  *bool     `json:"pushNotifications"`
	WeatherAlerts      *bool     `json:"weatherAlerts"`
	MarketPriceAlerts  *bool     `json:"marketPriceAlerts"`
}

// CropInput dates accept "2006-01-02" or RFC 3339.
type CropInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Variety     string   `json:"variety"`
	PlantedDate string   `json:"plantedDate"`
	HarvestDate string   `json:"harvestDate"`
	Quantity    *float64 `json:"quantity"`
	Status      string   `json:"status"`
	Notes       string   `json:"notes"`
}

type ProfileService interface {
	Get(ctx context.Context, farmerID string) (*Profile, error)
	Update(ctx context.Context, farmerID string, in UpdateInput) (*Profile, error)
}
