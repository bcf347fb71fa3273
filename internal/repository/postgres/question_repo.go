package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// CreateBatch создает пакет вопросов
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByWorksheetID возвращает вопросы worksheet'а в порядке отображения.
// display_order — авторитетный порядок для сборки сессии.
func (r *QuestionRepo) GetByWorksheetID(worksheetID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("worksheet_id = ?", worksheetID).
		Order("display_order, id").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByIDs возвращает вопросы по списку ID
func (r *QuestionRepo) GetByIDs(ids []uint) ([]entity.Question, error) {
	var questions []entity.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Update обновляет вопрос
func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Save(question).Error
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Question{}, id).Error
}
