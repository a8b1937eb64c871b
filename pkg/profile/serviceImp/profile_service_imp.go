package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"krishi/entities"
	"krishi/pkg/apperr"
	"krishi/pkg/farmer/repository"
	"krishi/pkg/profile/service"
)

const noProfile = "No profile found for this user"

type profileSvc struct {
	farmers repository.FarmerRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewProfileService(farmers repository.FarmerRepository, log *zap.Logger, now func() time.Time) service.ProfileService {
	if now == nil {
		now = time.Now
	}
	return &profileSvc{farmers: farmers, log: log, now: now}
}

// Get returns 404 until onboarding has written a settings row.
func (s *profileSvc) Get(ctx context.Context, farmerID string) (*service.Profile, error) {
	f, err := s.load(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	if f.Settings == nil {
		return nil, apperr.NotFound(noProfile)
	}
	return toProfile(f), nil
}

func (s *profileSvc) Update(ctx context.Context, farmerID string, in service.UpdateInput) (*service.Profile, error) {
	f, err := s.load(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		f.Name = name
	}
	if in.Phone != nil {
		f.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Avatar != nil {
		f.Avatar = in.Avatar
	}
	if in.Revenue != nil {
		if *in.Revenue < 0 {
			return nil, apperr.Validation("Revenue cannot be negative")
		}
		f.Revenue = *in.Revenue
	}
	f.LastSync = s.now()

	settings := f.Settings
	if settings == nil {
		settings = entities.DefaultSettings(f.ID)
	}
	if in.Settings != nil {
		if err := applySettings(settings, in.Settings); err != nil {
			return nil, err
		}
	}

	w := repository.ProfileWrite{Farmer: f, Settings: settings}
	if in.Crops != nil {
		if w.Crops, err = toCrops(*in.Crops, cropIDs(f.CurrentCrops())); err != nil {
			return nil, err
		}
		w.ReplaceCrops = true
	}
	if in.FutureCrops != nil {
		if w.FutureCrops, err = toCrops(*in.FutureCrops, cropIDs(f.FutureCrops())); err != nil {
			return nil, err
		}
		w.ReplaceFutureCrops = true
	}

	if err := s.farmers.SaveProfile(ctx, w); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(noProfile)
		}
		return nil, apperr.Internal(err)
	}
	s.log.Info("profile updated",
		zap.String("farmer_id", f.ID),
		zap.Bool("crops_replaced", w.ReplaceCrops),
		zap.Bool("future_crops_replaced", w.ReplaceFutureCrops))

	saved, err := s.load(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	return toProfile(saved), nil
}

func (s *profileSvc) load(ctx context.Context, farmerID string) (*entities.Farmer, error) {
	f, err := s.farmers.FindProfile(ctx, farmerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(noProfile)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return f, nil
}

func applySettings(dst *entities.FarmerSettings, p *service.SettingsPatch) error {
	if p.Latitude != nil {
		if *p.Latitude < -90 || *p.Latitude > 90 {
			return apperr.Validation("Latitude must be between -90 and 90")
		}
		dst.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		if *p.Longitude < -180 || *p.Longitude > 180 {
			return apperr.Validation("Longitude must be between -180 and 180")
		}
		dst.Longitude = p.Longitude
	}
	if p.FarmSize != nil {
		if *p.FarmSize < 0 {
			return apperr.Validation("Farm size cannot be negative")
		}
		dst.FarmSize = *p.FarmSize
	}
	for _, c := range []*string{p.PrimaryContact, p.SecondaryContact} {
		if c != nil && *c != "" && *c != "EMAIL" && *c != "PHONE" {
			return apperr.Validation("Contact preference must be EMAIL or PHONE")
		}
	}

	setStr(&dst.City, p.City)
	setStr(&dst.State, p.State)
	setStr(&dst.ZipCode, p.ZipCode)
	setStr(&dst.Country, p.Country)
	setStr(&dst.PrimaryContact, p.PrimaryContact)
	setStr(&dst.SecondaryContact, p.SecondaryContact)
	setStr(&dst.LanguagePreference, p.LanguagePreference)
	setStr(&dst.Timezone, p.Timezone)
	setStr(&dst.Currency, p.Currency)
	setStr(&dst.FarmType, p.FarmType)
	if p.Equipments != nil {
		dst.Equipments = append([]string{}, (*p.Equipments)...)
	}
	setBool(&dst.OrganicCertified, p.OrganicCertified)
	setBool(&dst.EmailNotifications, p.EmailNotifications)
	setBool(&dst.PushNotifications, p.PushNotifications)
	setBool(&dst.WeatherAlerts, p.WeatherAlerts)
	setBool(&dst.MarketPriceAlerts, p.MarketPriceAlerts)
	return nil
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// toCrops keeps an incoming id only when it names a row of the list being
// replaced.
func toCrops(in []service.CropInput, owned map[string]bool) ([]entities.Crop, error) {
	out := make([]entities.Crop, 0, len(in))
	for i, c := range in {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, apperr.Validation(fmt.Sprintf("Crop %d is missing a name", i+1))
		}
		status := entities.CropStatus(strings.ToUpper(strings.TrimSpace(c.Status)))
		if status == "" {
			status = entities.CropPlanted
		}
		if !status.Valid() {
			return nil, apperr.Validation(fmt.Sprintf("Invalid crop status %q", c.Status))
		}
		planted, err := parseDate(c.PlantedDate)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("Invalid planted date for %s", name))
		}
		harvest, err := parseDate(c.HarvestDate)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("Invalid harvest date for %s", name))
		}
		if c.Quantity != nil && *c.Quantity < 0 {
			return nil, apperr.Validation(fmt.Sprintf("Quantity for %s cannot be negative", name))
		}
		crop := entities.Crop{
			Name:        name,
			Variety:     strings.TrimSpace(c.Variety),
			PlantedDate: planted,
			HarvestDate: harvest,
			Quantity:    c.Quantity,
			Status:      status,
			Notes:       c.Notes,
		}
		if owned[c.ID] {
			crop.ID = c.ID
			delete(owned, c.ID) // an id may appear once per write
		}
		out = append(out, crop)
	}
	return out, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("bad date %q", s)
}

func cropIDs(crops []entities.Crop) map[string]bool {
	out := make(map[string]bool, len(crops))
	for _, c := range crops {
		out[c.ID] = true
	}
	return out
}

func toProfile(f *entities.Farmer) *service.Profile {
	return &service.Profile{
		ID:          f.ID,
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		Avatar:      f.Avatar,
		Revenue:     f.Revenue,
		LastSync:    f.LastSync,
		Settings:    f.Settings,
		Crops:       f.CurrentCrops(),
		FutureCrops: f.FutureCrops(),
	}
}
