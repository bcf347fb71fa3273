package entity

import (
	"time"
)

// UserResponse представляет ответ пользователя на вопрос в рамках сессии.
// На пару (test_session_id, question_id) существует не более одной записи:
// повторная отправка перезаписывает выбранный вариант и флаг правильности
// (семантика upsert, последняя запись выигрывает).
// IsCorrect пересчитывается при каждой записи по CorrectOption вопроса —
// устаревшее значение никогда не переиспользуется.
type UserResponse struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	TestSessionID  uint      `gorm:"not null;index;uniqueIndex:idx_response_session_question" json:"test_session_id"`
	QuestionID     uint      `gorm:"not null;index;uniqueIndex:idx_response_session_question" json:"question_id"`
	SelectedOption string    `gorm:"size:1;not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null;default:false" json:"is_correct"`
	AnsweredAt     time.Time `gorm:"not null" json:"answered_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (UserResponse) TableName() string {
	return "user_responses"
}
