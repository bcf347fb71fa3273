package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// PreferenceRepo реализует repository.PreferenceRepository
type PreferenceRepo struct {
	db *gorm.DB
}

// NewPreferenceRepo создает новый репозиторий предпочтений
func NewPreferenceRepo(db *gorm.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// GetByUserID возвращает предпочтения пользователя с предметами
func (r *PreferenceRepo) GetByUserID(userID uint) (*entity.SubjectPreference, error) {
	var preference entity.SubjectPreference
	err := r.db.Preload("Subjects").
		Where("user_id = ?", userID).
		First(&preference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &preference, nil
}

// ReplaceSubjects атомарно заменяет набор предметов пользователя.
// Запись предпочтений создается при первом вызове (get-or-create).
func (r *PreferenceRepo) ReplaceSubjects(userID uint, subjects []entity.Subject) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var preference entity.SubjectPreference
		err := tx.Where("user_id = ?", userID).First(&preference).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			preference = entity.SubjectPreference{UserID: userID}
			if err := tx.Create(&preference).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// Полная замена m2m привязки
		return tx.Model(&preference).Association("Subjects").Replace(subjects)
	})
}
