package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	"github.com/yourusername/examhall-api/internal/domain/repository"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// Ключи кеша каталога. Инвалидация точечная: ключ предметов отдельно,
// worksheet'ы — по ID предмета.
const (
	cacheKeySubjects = "catalog:subjects"
)

func cacheKeyWorksheets(subjectID uint) string {
	return fmt.Sprintf("catalog:worksheets:%d", subjectID)
}

// CatalogService — фасад каталога контента (предметы, worksheet'ы, вопросы).
// Чтение идет через read-through кеш; путь записи каталога обязан явно
// вызывать Invalidate*-методы — неявной подписки на события сохранения нет.
type CatalogService struct {
	subjectRepo   repository.SubjectRepository
	worksheetRepo repository.WorksheetRepository
	questionRepo  repository.QuestionRepository
	cacheRepo     repository.CacheRepository
	config        *Config
}

// NewCatalogService создает новый сервис каталога
func NewCatalogService(
	subjectRepo repository.SubjectRepository,
	worksheetRepo repository.WorksheetRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	config *Config,
) *CatalogService {
	return &CatalogService{
		subjectRepo:   subjectRepo,
		worksheetRepo: worksheetRepo,
		questionRepo:  questionRepo,
		cacheRepo:     cacheRepo,
		config:        config,
	}
}

// ListSubjects возвращает все предметы (read-through кеш)
func (s *CatalogService) ListSubjects() ([]entity.Subject, error) {
	var subjects []entity.Subject
	if err := s.cacheRepo.GetJSON(cacheKeySubjects, &subjects); err == nil {
		return subjects, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		// Недоступный кеш не должен ронять чтение каталога
		log.Printf("[CatalogService] Ошибка чтения кеша предметов: %v", err)
	}

	subjects, err := s.subjectRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	if err := s.cacheRepo.SetJSON(cacheKeySubjects, subjects, s.config.CatalogCacheTTL); err != nil {
		log.Printf("[CatalogService] Ошибка записи кеша предметов: %v", err)
	}
	return subjects, nil
}

// ResolveSubjects сопоставляет имена предметов с записями каталога.
// Возвращает предметы в порядке запрошенных имен. Любое неизвестное имя
// дает ErrUnknownSubject, частичное разрешение не допускается.
func (s *CatalogService) ResolveSubjects(names []string) ([]entity.Subject, error) {
	found, err := s.subjectRepo.GetByNames(names)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subjects: %w", err)
	}

	byName := make(map[string]entity.Subject, len(found))
	for _, subject := range found {
		byName[subject.Name] = subject
	}

	resolved := make([]entity.Subject, 0, len(names))
	for _, name := range names {
		subject, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, name)
		}
		resolved = append(resolved, subject)
	}
	return resolved, nil
}

// WorksheetsBySubject возвращает worksheet'ы предмета (read-through кеш).
// Пустой слайс — валидный результат и тоже кешируется.
func (s *CatalogService) WorksheetsBySubject(subjectID uint) ([]entity.Worksheet, error) {
	key := cacheKeyWorksheets(subjectID)

	var worksheets []entity.Worksheet
	if err := s.cacheRepo.GetJSON(key, &worksheets); err == nil {
		return worksheets, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[CatalogService] Ошибка чтения кеша worksheet'ов предмета %d: %v", subjectID, err)
	}

	worksheets, err := s.worksheetRepo.GetBySubjectID(subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get worksheets for subject %d: %w", subjectID, err)
	}

	if err := s.cacheRepo.SetJSON(key, worksheets, s.config.CatalogCacheTTL); err != nil {
		log.Printf("[CatalogService] Ошибка записи кеша worksheet'ов предмета %d: %v", subjectID, err)
	}
	return worksheets, nil
}

// QuestionsByWorksheet возвращает вопросы worksheet'а в порядке отображения
func (s *CatalogService) QuestionsByWorksheet(worksheetID uint) ([]entity.Question, error) {
	return s.questionRepo.GetByWorksheetID(worksheetID)
}

// InvalidateSubjects сбрасывает кеш списка предметов.
// Вызывается путем записи каталога после изменения предметов.
func (s *CatalogService) InvalidateSubjects() error {
	return s.cacheRepo.Delete(cacheKeySubjects)
}

// InvalidateWorksheets сбрасывает кеш worksheet'ов одного предмета.
// Точечная инвалидация: остальные предметы не затрагиваются.
func (s *CatalogService) InvalidateWorksheets(subjectID uint) error {
	return s.cacheRepo.Delete(cacheKeyWorksheets(subjectID))
}
