package repository

import (
	"context"
	"errors"
	"time"

	"krishi/entities"
)

var (
	ErrNotFound       = errors.New("farmer not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// ProfileWrite is one atomic profile update. Nil settings and a false
// Replace flag leave the stored rows alone.
type ProfileWrite struct {
	Farmer             *entities.Farmer
	Settings           *entities.FarmerSettings
	Crops              []entities.Crop
	ReplaceCrops       bool
	FutureCrops        []entities.Crop
	ReplaceFutureCrops bool
}

type FarmerRepository interface {
	Create(ctx context.Context, f *entities.Farmer) error
	FindByEmail(ctx context.Context, email string) (*entities.Farmer, error)
	FindByID(ctx context.Context, id string) (*entities.Farmer, error)
	// FindProfile loads the farmer with settings and crops.
	FindProfile(ctx context.Context, id string) (*entities.Farmer, error)
	TouchLastSync(ctx context.Context, id string, at time.Time) error
	SaveProfile(ctx context.Context, w ProfileWrite) error
	Delete(ctx context.Context, id string) error
}
