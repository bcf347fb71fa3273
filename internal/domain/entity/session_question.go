package entity

import (
	"time"
)

// SessionQuestion связывает сессию с назначенным ей вопросом.
// Пара (test_session_id, question_id) уникальна; записи создаются
// одним пакетом при старте сессии и после этого неизменяемы.
// Position фиксирует порядок назначения (предмет за предметом,
// внутри предмета — порядок отображения worksheet'а).
type SessionQuestion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TestSessionID uint      `gorm:"not null;index;uniqueIndex:idx_session_question" json:"test_session_id"`
	QuestionID    uint      `gorm:"not null;index;uniqueIndex:idx_session_question" json:"question_id"`
	Position      int       `gorm:"not null;default:0" json:"position"`
	Question      Question  `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (SessionQuestion) TableName() string {
	return "test_session_questions"
}
