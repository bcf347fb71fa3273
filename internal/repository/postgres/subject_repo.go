package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// SubjectRepo реализует repository.SubjectRepository
type SubjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo создает новый репозиторий предметов
func NewSubjectRepo(db *gorm.DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

// Create создает новый предмет
func (r *SubjectRepo) Create(subject *entity.Subject) error {
	return r.db.Create(subject).Error
}

// GetByID возвращает предмет по ID
func (r *SubjectRepo) GetByID(id uint) (*entity.Subject, error) {
	var subject entity.Subject
	err := r.db.First(&subject, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

// GetByName возвращает предмет по имени
func (r *SubjectRepo) GetByName(name string) (*entity.Subject, error) {
	var subject entity.Subject
	err := r.db.Where("name = ?", name).First(&subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

// GetByNames возвращает предметы по списку имен.
// Количество найденных сверяется вызывающей стороной.
func (r *SubjectRepo) GetByNames(names []string) ([]entity.Subject, error) {
	var subjects []entity.Subject
	if len(names) == 0 {
		return subjects, nil
	}
	err := r.db.Where("name IN ?", names).Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// List возвращает все предметы, отсортированные по имени
func (r *SubjectRepo) List() ([]entity.Subject, error) {
	var subjects []entity.Subject
	err := r.db.Order("name").Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// Update обновляет предмет
func (r *SubjectRepo) Update(subject *entity.Subject) error {
	return r.db.Save(subject).Error
}

// Delete удаляет предмет
func (r *SubjectRepo) Delete(id uint) error {
	return r.db.Delete(&entity.Subject{}, id).Error
}
