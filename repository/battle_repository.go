package repository

import (
	"context"

	"VerseClash/model"

	"gorm.io/gorm"
)

// BattleRepository defines data access for battle records.
//
// The mix pipeline only ever reads BeatURL/VocalsRef and writes the mix
// result columns; it must not depend on any other field being present.
type BattleRepository interface {
	Create(ctx context.Context, battle *model.Battle) error
	GetByID(ctx context.Context, id string) (*model.Battle, error)
	UpdateMixResult(ctx context.Context, id, mixURL string, duration float32) error
	UpdateMixError(ctx context.Context, id, message string) error
	IncrementViewCount(ctx context.Context, id string) error
}

// gormBattleRepository is the GORM implementation.
type gormBattleRepository struct {
	db *gorm.DB
}

// NewGormBattleRepository creates a GORM-backed battle repository.
func NewGormBattleRepository(db *gorm.DB) BattleRepository {
	return &gormBattleRepository{db: db}
}

// Create persists a new battle record.
func (r *gormBattleRepository) Create(ctx context.Context, battle *model.Battle) error {
	return r.db.WithContext(ctx).Create(battle).Error
}

// GetByID returns the battle with the given id, or nil if none exists.
func (r *gormBattleRepository) GetByID(ctx context.Context, id string) (*model.Battle, error) {
	var battle model.Battle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&battle).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &battle, nil
}

// UpdateMixResult records a successful mix. Idempotently overwritable:
// a later successful re-run for the same battle replaces the URL.
func (r *gormBattleRepository) UpdateMixResult(ctx context.Context, id, mixURL string, duration float32) error {
	return r.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"mix_url":   mixURL,
			"mix_error": "",
			"duration":  duration,
		}).Error
}

// UpdateMixError records a failed background mix attempt.
func (r *gormBattleRepository) UpdateMixError(ctx context.Context, id, message string) error {
	return r.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ?", id).
		Update("mix_error", message).Error
}

// IncrementViewCount bumps the view counter for a battle.
func (r *gormBattleRepository) IncrementViewCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Battle{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}
