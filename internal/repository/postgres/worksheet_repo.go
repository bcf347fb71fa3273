package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// WorksheetRepo реализует repository.WorksheetRepository
type WorksheetRepo struct {
	db *gorm.DB
}

// NewWorksheetRepo создает новый репозиторий worksheet'ов
func NewWorksheetRepo(db *gorm.DB) *WorksheetRepo {
	return &WorksheetRepo{db: db}
}

// Create создает новый worksheet
func (r *WorksheetRepo) Create(worksheet *entity.Worksheet) error {
	return r.db.Create(worksheet).Error
}

// GetByID возвращает worksheet по ID
func (r *WorksheetRepo) GetByID(id uint) (*entity.Worksheet, error) {
	var worksheet entity.Worksheet
	err := r.db.First(&worksheet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &worksheet, nil
}

// GetBySubjectID возвращает все worksheet'ы предмета.
// Пустой слайс — валидный результат.
func (r *WorksheetRepo) GetBySubjectID(subjectID uint) ([]entity.Worksheet, error) {
	var worksheets []entity.Worksheet
	err := r.db.Where("subject_id = ?", subjectID).Order("id").Find(&worksheets).Error
	if err != nil {
		return nil, err
	}
	return worksheets, nil
}

// Update обновляет worksheet
func (r *WorksheetRepo) Update(worksheet *entity.Worksheet) error {
	return r.db.Save(worksheet).Error
}

// Delete удаляет worksheet
func (r *WorksheetRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Worksheet{}, id).Error
}
