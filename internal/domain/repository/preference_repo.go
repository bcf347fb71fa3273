package repository

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// PreferenceRepository определяет методы для работы с предпочтениями предметов
type PreferenceRepository interface {
	// GetByUserID возвращает предпочтения пользователя с предзагруженными
	// предметами. ErrNotFound, если пользователь еще не выбирал предметы.
	GetByUserID(userID uint) (*entity.SubjectPreference, error)
	// ReplaceSubjects атомарно заменяет набор предметов пользователя.
	// Создает запись предпочтений, если её еще нет (get-or-create).
	ReplaceSubjects(userID uint, subjects []entity.Subject) error
}
