package equipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipapi/models"
	"equipapi/pkg/apperr"

	"gorm.io/gorm"
)

// GormRepository stores Equipment rows in Postgres through gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, f Filter) ([]models.Equipment, error) {
	var items []models.Equipment
	q := r.db.WithContext(ctx).Model(&models.Equipment{})
	if f.Quantity != nil {
		q = q.Where("quantity = ?", *f.Quantity)
	}
	if err := q.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("query equipment: %w", err)
	}
	return items, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (models.Equipment, error) {
	var rec models.Equipment
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Equipment{}, apperr.ErrNotFound
		}
		return models.Equipment{}, fmt.Errorf("get equipment %d: %w", id, err)
	}
	return rec, nil
}

func (r *GormRepository) Create(ctx context.Context, rec *models.Equipment) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

// Update writes the mutable columns of rec in a single-row UPDATE. Save is not
// used because it inserts when the row has vanished in between.
func (r *GormRepository) Update(ctx context.Context, rec *models.Equipment) error {
	rec.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"name":           rec.Name,
			"quantity":       rec.Quantity,
			"internal_notes": rec.InternalNotes,
			"updated_at":     rec.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update equipment %d: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Equipment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete equipment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
