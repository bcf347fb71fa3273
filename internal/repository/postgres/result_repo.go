package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// Upsert сохраняет результат по ключу (test_session_id, subject_id).
// Повторный подсчет грейдера перезаписывает запись, не добавляя дубликат.
func (r *ResultRepo) Upsert(result *entity.Result) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "test_session_id"}, {Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "speed", "worksheet_id", "computed_at",
		}),
	}).Create(result).Error
}

// GetBySession возвращает результаты всех предметов сессии
func (r *ResultRepo) GetBySession(sessionID uint) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("test_session_id = ?", sessionID).
		Order("subject_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	// Пустой слайс — валидный результат, ErrNotFound здесь не нужен
	return results, nil
}

// GetByUser возвращает результаты пользователя с пагинацией
func (r *ResultRepo) GetByUser(userID uint, limit, offset int) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("user_id = ?", userID).
		Order("computed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
