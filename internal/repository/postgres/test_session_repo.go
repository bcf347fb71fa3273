package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// TestSessionRepo реализует repository.TestSessionRepository
type TestSessionRepo struct {
	db *gorm.DB
}

// NewTestSessionRepo создает новый репозиторий сессий тестирования
func NewTestSessionRepo(db *gorm.DB) *TestSessionRepo {
	return &TestSessionRepo{db: db}
}

// CreateWithQuestions атомарно создает сессию и назначенные ей вопросы.
// GORM сохраняет many2many привязку предметов вместе с сессией.
func (r *TestSessionRepo) CreateWithQuestions(session *entity.TestSession, questions []entity.SessionQuestion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].TestSessionID = session.ID
		}
		return tx.Create(&questions).Error
	})
}

// GetByID возвращает сессию по ID
func (r *TestSessionRepo) GetByID(id uint) (*entity.TestSession, error) {
	var session entity.TestSession
	err := r.db.First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByIDForUser возвращает сессию, только если она принадлежит пользователю.
// Чужая сессия дает тот же ErrNotFound, что и несуществующая.
func (r *TestSessionRepo) GetByIDForUser(id uint, userID uint) (*entity.TestSession, error) {
	var session entity.TestSession
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetWithSubjects возвращает сессию с предзагруженными предметами
func (r *TestSessionRepo) GetWithSubjects(id uint, userID uint) (*entity.TestSession, error) {
	var session entity.TestSession
	err := r.db.Preload("Subjects").
		Where("id = ? AND user_id = ?", id, userID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetSessionQuestions возвращает назначенные вопросы сессии в порядке назначения
func (r *TestSessionRepo) GetSessionQuestions(sessionID uint) ([]entity.SessionQuestion, error) {
	var questions []entity.SessionQuestion
	err := r.db.Preload("Question").
		Where("test_session_id = ?", sessionID).
		Order("position").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetAssignedQuestionIDs возвращает плоский список ID вопросов сессии
func (r *TestSessionRepo) GetAssignedQuestionIDs(sessionID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entity.SessionQuestion{}).
		Where("test_session_id = ?", sessionID).
		Order("position").
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Complete атомарно переводит открытую сессию в completed.
// Check-and-set через условие completed = false: при гонке двух Finalize
// только первый коммит изменит строку, второй получит 0 затронутых строк.
func (r *TestSessionRepo) Complete(sessionID uint, userID uint, endTime time.Time) (int64, error) {
	result := r.db.Model(&entity.TestSession{}).
		Where("id = ? AND user_id = ? AND completed = ?", sessionID, userID, false).
		Updates(map[string]interface{}{
			"completed": true,
			"end_time":  endTime,
		})
	return result.RowsAffected, result.Error
}

// UpdateScore обновляет суммарный балл сессии
func (r *TestSessionRepo) UpdateScore(sessionID uint, score int) error {
	return r.db.Model(&entity.TestSession{}).
		Where("id = ?", sessionID).
		Update("score", score).Error
}

// ListByUser возвращает сессии пользователя, свежие первыми
func (r *TestSessionRepo) ListByUser(userID uint, limit, offset int) ([]entity.TestSession, error) {
	var sessions []entity.TestSession
	err := r.db.Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete удаляет сессию. Вопросы, ответы и результаты сессии
// удаляются каскадно (внешние ключи ON DELETE CASCADE в миграциях).
func (r *TestSessionRepo) Delete(id uint) error {
	return r.db.Delete(&entity.TestSession{}, id).Error
}
