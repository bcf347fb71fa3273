package repository

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// SubjectRepository определяет методы для работы с предметами
type SubjectRepository interface {
	Create(subject *entity.Subject) error
	GetByID(id uint) (*entity.Subject, error)
	GetByName(name string) (*entity.Subject, error)
	// GetByNames возвращает предметы по списку имен.
	// Отсутствующие имена не являются ошибкой — вызывающая сторона
	// сверяет количество найденных с количеством запрошенных.
	GetByNames(names []string) ([]entity.Subject, error)
	List() ([]entity.Subject, error)
	Update(subject *entity.Subject) error
	Delete(id uint) error
}
