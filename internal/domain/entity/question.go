package entity

import (
	"time"
)

// Буквы вариантов ответа. В каждом вопросе ровно четыре варианта.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// OptionLetters — допустимые буквы вариантов в порядке отображения
var OptionLetters = []string{OptionA, OptionB, OptionC, OptionD}

// Question представляет вопрос с четырьмя вариантами ответа.
// Неизменяем в течение жизни любой сессии, которая на него ссылается.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WorksheetID   uint      `gorm:"not null;index" json:"worksheet_id"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	OptionA       string    `gorm:"size:255;not null" json:"option_a"`
	OptionB       string    `gorm:"size:255;not null" json:"option_b"`
	OptionC       string    `gorm:"size:255;not null" json:"option_c"`
	OptionD       string    `gorm:"size:255;not null" json:"option_d"`
	CorrectOption string    `gorm:"size:1;not null" json:"-"` // Скрыто от клиента до завершения сессии
	DisplayOrder  int       `gorm:"not null;default:0;index" json:"display_order"`
	Image         string    `gorm:"size:255;not null;default:''" json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, совпадает ли выбранная буква с правильным вариантом
func (q *Question) IsCorrect(selectedOption string) bool {
	return selectedOption == q.CorrectOption
}

// OptionText возвращает текст варианта по букве. Пустая строка для неизвестной буквы.
func (q *Question) OptionText(letter string) string {
	switch letter {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// IsValidOptionLetter проверяет, является ли строка допустимой буквой варианта
func IsValidOptionLetter(letter string) bool {
	switch letter {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}
