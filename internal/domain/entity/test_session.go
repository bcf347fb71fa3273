package entity

import (
	"time"
)

// TestSession представляет одну попытку прохождения теста.
// Сессия создается открытой и ровно один раз переводится в completed —
// после этого её набор вопросов и ответы больше не изменяются.
type TestSession struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	StartTime time.Time  `gorm:"not null;autoCreateTime" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Completed bool       `gorm:"not null;default:false;index" json:"completed"`
	Score     int        `gorm:"not null;default:0" json:"score"`
	Subjects  []Subject  `gorm:"many2many:test_session_subjects" json:"subjects,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (TestSession) TableName() string {
	return "test_sessions"
}

// IsCompleted проверяет, завершена ли сессия
func (s *TestSession) IsCompleted() bool {
	return s.Completed
}

// Duration возвращает длительность сессии.
// Для незавершенной сессии возвращает 0.
func (s *TestSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// BelongsTo проверяет принадлежность сессии пользователю
func (s *TestSession) BelongsTo(userID uint) bool {
	return s.UserID == userID
}
