package service

import (
	"errors"
	"fmt"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	"github.com/yourusername/examhall-api/internal/domain/repository"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// PreferenceService управляет набором предметов пользователя.
// Инвариант: набор всегда содержит обязательный предмет и имеет ровно
// сконфигурированную мощность — нарушение отклоняется, не исправляется.
type PreferenceService struct {
	preferenceRepo repository.PreferenceRepository
	catalog        *CatalogService
	config         *Config
}

// NewPreferenceService создает новый сервис предпочтений
func NewPreferenceService(
	preferenceRepo repository.PreferenceRepository,
	catalog *CatalogService,
	config *Config,
) *PreferenceService {
	return &PreferenceService{
		preferenceRepo: preferenceRepo,
		catalog:        catalog,
		config:         config,
	}
}

// GetPreferences возвращает предпочтения пользователя
func (s *PreferenceService) GetPreferences(userID uint) (*entity.SubjectPreference, error) {
	preference, err := s.preferenceRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNoPreference
		}
		return nil, err
	}
	return preference, nil
}

// SetPreferences заменяет набор предметов пользователя.
// Требования: ровно PreferenceSubjectCount предметов, обязательный предмет
// присутствует, все имена известны каталогу.
func (s *PreferenceService) SetPreferences(userID uint, subjectNames []string) error {
	if len(subjectNames) != s.config.PreferenceSubjectCount {
		return fmt.Errorf("%w: exactly %d subjects must be selected",
			ErrInvalidSelection, s.config.PreferenceSubjectCount)
	}
	if !containsName(subjectNames, s.config.CompulsorySubject) {
		return fmt.Errorf("%w: %s is a compulsory subject",
			ErrInvalidSelection, s.config.CompulsorySubject)
	}
	if hasDuplicateNames(subjectNames) {
		return fmt.Errorf("%w: duplicate subjects in selection", ErrInvalidSelection)
	}

	subjects, err := s.catalog.ResolveSubjects(subjectNames)
	if err != nil {
		return err
	}

	if err := s.preferenceRepo.ReplaceSubjects(userID, subjects); err != nil {
		return fmt.Errorf("failed to save subject preferences: %w", err)
	}
	return nil
}

func containsName(names []string, target string) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}

func hasDuplicateNames(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return true
		}
		seen[name] = struct{}{}
	}
	return false
}
