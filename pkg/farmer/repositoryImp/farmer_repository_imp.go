package repositoryImp

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"krishi/entities"
	"krishi/pkg/farmer/repository"
)

type farmerRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.FarmerRepository { return &farmerRepo{db} }

func (r *farmerRepo) Create(ctx context.Context, f *entities.Farmer) error {
	f.Email = normalizeEmail(f.Email)
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if isDuplicate(err) {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *farmerRepo) FindByEmail(ctx context.Context, email string) (*entities.Farmer, error) {
	var f entities.Farmer
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&f).Error
	return found(&f, err)
}

func (r *farmerRepo) FindByID(ctx context.Context, id string) (*entities.Farmer, error) {
	var f entities.Farmer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	return found(&f, err)
}

func (r *farmerRepo) FindProfile(ctx context.Context, id string) (*entities.Farmer, error) {
	var f entities.Farmer
	err := r.db.WithContext(ctx).
		Preload("Settings").
		Preload("Crops", func(db *gorm.DB) *gorm.DB { return db.Order("is_future, position, created_at") }).
		Where("id = ?", id).
		First(&f).Error
	return found(&f, err)
}

func (r *farmerRepo) TouchLastSync(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entities.Farmer{}).Where("id = ?", id).Update("last_sync", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SaveProfile writes farmer, settings and crop lists in one transaction.
func (r *farmerRepo) SaveProfile(ctx context.Context, w repository.ProfileWrite) error {
	if w.Farmer == nil || w.Farmer.ID == "" {
		return repository.ErrNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.Farmer{}).Where("id = ?", w.Farmer.ID).Updates(map[string]any{
			"name":      w.Farmer.Name,
			"phone":     w.Farmer.Phone,
			"avatar":    w.Farmer.Avatar,
			"revenue":   w.Farmer.Revenue,
			"last_sync": w.Farmer.LastSync,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}

		if w.Settings != nil {
			w.Settings.FarmerID = w.Farmer.ID
			// one settings row per farmer, keyed on farmer_id
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "farmer_id"}},
				UpdateAll: true,
			}).Create(w.Settings).Error; err != nil {
				return err
			}
		}

		if w.ReplaceCrops {
			if err := replaceCrops(tx, w.Farmer.ID, false, w.Crops); err != nil {
				return err
			}
		}
		if w.ReplaceFutureCrops {
			if err := replaceCrops(tx, w.Farmer.ID, true, w.FutureCrops); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *farmerRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Farmer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func replaceCrops(tx *gorm.DB, farmerID string, future bool, crops []entities.Crop) error {
	if err := tx.Where("farmer_id = ? AND is_future = ?", farmerID, future).Delete(&entities.Crop{}).Error; err != nil {
		return err
	}
	if len(crops) == 0 {
		return nil
	}
	for i := range crops {
		crops[i].FarmerID = farmerID
		crops[i].IsFuture = future
		crops[i].Position = i
	}
	return tx.Create(&crops).Error
}

func found(f *entities.Farmer, err error) (*entities.Farmer, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
