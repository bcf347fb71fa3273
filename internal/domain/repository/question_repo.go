package repository

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(question *entity.Question) error
	CreateBatch(questions []entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	// GetByWorksheetID возвращает вопросы worksheet'а в порядке отображения.
	// Этот порядок авторитетен для сборки сессии, перемешивание не допускается.
	GetByWorksheetID(worksheetID uint) ([]entity.Question, error)
	GetByIDs(ids []uint) ([]entity.Question, error)
	Update(question *entity.Question) error
	Delete(id uint) error
}
