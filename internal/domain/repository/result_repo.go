package repository

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// ResultRepository определяет методы для работы с результатами
type ResultRepository interface {
	// Upsert сохраняет результат по ключу (test_session_id, subject_id).
	// Повторный подсчет перезаписывает существующую запись, дубликаты
	// не создаются.
	Upsert(result *entity.Result) error
	// GetBySession возвращает результаты всех предметов сессии
	GetBySession(sessionID uint) ([]entity.Result, error)
	// GetByUser возвращает результаты пользователя с пагинацией
	// (история по всем сессиям, свежие первыми)
	GetByUser(userID uint, limit, offset int) ([]entity.Result, error)
}
