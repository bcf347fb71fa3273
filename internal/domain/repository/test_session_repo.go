package repository

import (
	"time"

	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// TestSessionRepository определяет методы для работы с сессиями тестирования
type TestSessionRepository interface {
	// CreateWithQuestions атомарно создает сессию (вместе с привязкой предметов)
	// и пакет назначенных ей вопросов. Либо создается все, либо ничего.
	CreateWithQuestions(session *entity.TestSession, questions []entity.SessionQuestion) error
	GetByID(id uint) (*entity.TestSession, error)
	// GetByIDForUser возвращает сессию только если она принадлежит пользователю.
	// Чужая и несуществующая сессия неразличимы (обе дают ErrNotFound).
	GetByIDForUser(id uint, userID uint) (*entity.TestSession, error)
	// GetWithSubjects возвращает сессию с предзагруженным набором предметов
	GetWithSubjects(id uint, userID uint) (*entity.TestSession, error)
	// GetSessionQuestions возвращает назначенные вопросы сессии в порядке назначения,
	// с предзагруженными вопросами
	GetSessionQuestions(sessionID uint) ([]entity.SessionQuestion, error)
	// GetAssignedQuestionIDs возвращает плоский список ID вопросов сессии
	// в порядке назначения
	GetAssignedQuestionIDs(sessionID uint) ([]uint, error)
	// Complete атомарно переводит открытую сессию в completed (check-and-set).
	// Возвращает количество измененных строк: 0 означает, что сессия
	// не существует, не принадлежит пользователю или уже завершена.
	Complete(sessionID uint, userID uint, endTime time.Time) (int64, error)
	UpdateScore(sessionID uint, score int) error
	ListByUser(userID uint, limit, offset int) ([]entity.TestSession, error)
	Delete(id uint) error
}
