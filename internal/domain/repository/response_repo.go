package repository

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// ResponseRepository определяет методы для работы с ответами пользователей
type ResponseRepository interface {
	// Upsert записывает ответ по ключу (test_session_id, question_id).
	// Повторная запись перезаписывает selected_option, is_correct и answered_at,
	// не создавая дубликата. Конкурентные записи по одному ключу
	// сериализуются уникальным индексом: выигрывает последний коммит.
	Upsert(response *entity.UserResponse) error
	// GetBySession возвращает все ответы пользователя в сессии
	GetBySession(sessionID uint, userID uint) ([]entity.UserResponse, error)
	// CountBySession возвращает общее количество ответов в сессии
	CountBySession(sessionID uint) (int64, error)
}
