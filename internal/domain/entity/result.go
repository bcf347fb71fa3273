package entity

import (
	"time"
)

// Result представляет итог по одному предмету завершенной сессии.
// Создается грейдером только после завершения сессии; повторный пересчет
// перезаписывает запись по ключу (test_session_id, subject_id).
type Result struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	TestSessionID uint      `gorm:"not null;index;uniqueIndex:idx_result_session_subject" json:"test_session_id"`
	SubjectID     uint      `gorm:"not null;index;uniqueIndex:idx_result_session_subject" json:"subject_id"`
	WorksheetID   *uint     `json:"worksheet_id,omitempty"` // NULL, если у предмета не было worksheet'ов
	Score         float64   `gorm:"not null;default:0" json:"score"` // Процент правильных ответов
	Speed         float64   `gorm:"not null;default:0" json:"speed"` // Секунд на вопрос (по всей сессии)
	ComputedAt    time.Time `gorm:"not null" json:"computed_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Result) TableName() string {
	return "results"
}
