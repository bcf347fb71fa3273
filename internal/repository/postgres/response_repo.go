package postgres

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// ResponseRepo реализует repository.ResponseRepository
type ResponseRepo struct {
	db *gorm.DB
}

// NewResponseRepo создает новый репозиторий ответов
func NewResponseRepo(db *gorm.DB) *ResponseRepo {
	return &ResponseRepo{db: db}
}

// Upsert записывает ответ по ключу (test_session_id, question_id).
// ON CONFLICT по уникальному индексу: повторная отправка перезаписывает
// вариант, флаг правильности и время ответа одной атомарной операцией,
// конкурентные записи разрешаются порядком коммитов (последний выигрывает).
func (r *ResponseRepo) Upsert(response *entity.UserResponse) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "test_session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option", "is_correct", "answered_at",
		}),
	}).Create(response).Error
}

// GetBySession возвращает все ответы пользователя в сессии
func (r *ResponseRepo) GetBySession(sessionID uint, userID uint) ([]entity.UserResponse, error) {
	var responses []entity.UserResponse
	err := r.db.Where("test_session_id = ? AND user_id = ?", sessionID, userID).
		Order("answered_at").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// CountBySession возвращает общее количество ответов в сессии
func (r *ResponseRepo) CountBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.UserResponse{}).
		Where("test_session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
