package entity

import (
	"time"
)

// SubjectPreference хранит набор предметов, выбранных пользователем.
// Инварианты: ровно сконфигурированное количество предметов, обязательный
// предмет всегда присутствует. Нарушение отклоняется при записи,
// молчаливая коррекция не выполняется.
type SubjectPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Subjects  []Subject `gorm:"many2many:subject_preference_subjects" json:"subjects,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (SubjectPreference) TableName() string {
	return "subject_preferences"
}

// SubjectNames возвращает имена выбранных предметов
func (p *SubjectPreference) SubjectNames() []string {
	names := make([]string, len(p.Subjects))
	for i, s := range p.Subjects {
		names[i] = s.Name
	}
	return names
}

// HasSubject проверяет наличие предмета по имени
func (p *SubjectPreference) HasSubject(name string) bool {
	for _, s := range p.Subjects {
		if s.Name == name {
			return true
		}
	}
	return false
}
