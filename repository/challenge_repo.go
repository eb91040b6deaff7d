package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// ChallengeRepository is the Postgres-backed question bank.
type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewError(models.KindNotFound, "challenge not found")
		}
		return nil, models.NewError(models.KindInternal, "failed to load challenge: %v", err)
	}
	return &challenge, nil
}

func (r *ChallengeRepository) FindByDifficultyActive(ctx context.Context, difficulty models.Difficulty) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.WithContext(ctx).
		Where("difficulty = ? AND is_active = ?", difficulty, true).
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) ListActive(ctx context.Context) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) Search(ctx context.Context, query string, limit int) ([]models.Challenge, error) {
	var challenges []models.Challenge
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND (title ILIKE ? OR description ILIKE ?)", true, pattern, pattern).
		Limit(limit).
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Challenge{}).Count(&count).Error
	return count, err
}

func (r *ChallengeRepository) Save(ctx context.Context, challenge *models.Challenge) error {
	return r.db.WithContext(ctx).Save(challenge).Error
}
