package entity

import (
	"time"
)

// Worksheet представляет набор вопросов внутри предмета.
// Для каждой сессии случайно выбирается один worksheet на предмет.
type Worksheet struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SubjectID uint       `gorm:"not null;index;uniqueIndex:idx_subject_name" json:"subject_id"`
	Name      string     `gorm:"size:100;not null;uniqueIndex:idx_subject_name" json:"name"`
	FilePath  string     `gorm:"size:255;not null;default:''" json:"-"`
	Questions []Question `gorm:"foreignKey:WorksheetID" json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Worksheet) TableName() string {
	return "worksheets"
}
