package repository

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// WorksheetRepository определяет методы для работы с worksheet'ами
type WorksheetRepository interface {
	Create(worksheet *entity.Worksheet) error
	GetByID(id uint) (*entity.Worksheet, error)
	// GetBySubjectID возвращает все worksheet'ы предмета.
	// Пустой слайс — валидный результат (у предмета может не быть worksheet'ов).
	GetBySubjectID(subjectID uint) ([]entity.Worksheet, error)
	Update(worksheet *entity.Worksheet) error
	Delete(id uint) error
}
