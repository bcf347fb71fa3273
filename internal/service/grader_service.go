package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	"github.com/yourusername/examhall-api/internal/domain/repository"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

func cacheKeySessionResults(userID, sessionID uint) string {
	return fmt.Sprintf("results:user:%d:session:%d", userID, sessionID)
}

// SubjectResult — подсчитанный итог одного предмета
type SubjectResult struct {
	SubjectID   uint    `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	WorksheetID *uint   `json:"worksheet_id,omitempty"`
	Score       float64 `json:"score"`
	Speed       float64 `json:"speed"`
}

// FailedQuestion — проваленный вопрос для режима разбора:
// вопрос с вариантами, ответ пользователя и правильная буква.
// Вопросы без ответа сюда не попадают — они учитываются только в score.
type FailedQuestion struct {
	QuestionID     uint   `json:"question_id"`
	Text           string `json:"text"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	Image          string `json:"image,omitempty"`
	SelectedOption string `json:"selected_option"`
	CorrectOption  string `json:"correct_option"`
}

// SessionResults — собранное представление результатов завершенной сессии
type SessionResults struct {
	TestSessionID   uint                        `json:"test_session_id"`
	Subjects        []string                    `json:"subjects"`
	StartTime       time.Time                   `json:"start_time"`
	EndTime         *time.Time                  `json:"end_time"`
	Results         []SubjectResult             `json:"results"`
	FailedQuestions map[string][]FailedQuestion `json:"failed_questions_by_subject"`
}

// SubjectPerformance — агрегат истории результатов пользователя
// по одному предмету
type SubjectPerformance struct {
	SubjectID    uint    `json:"subject_id"`
	SubjectName  string  `json:"subject_name"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
	AverageSpeed float64 `json:"average_speed"`
	BestScore    float64 `json:"best_score"`
	LatestScore  float64 `json:"latest_score"`
}

// PerformanceEntry — одна точка истории для графика динамики
type PerformanceEntry struct {
	TestSessionID uint      `json:"test_session_id"`
	SubjectID     uint      `json:"subject_id"`
	SubjectName   string    `json:"subject_name"`
	Score         float64   `json:"score"`
	Speed         float64   `json:"speed"`
	ComputedAt    time.Time `json:"computed_at"`
}

// PerformanceSummary — сводка успеваемости пользователя по сохраненной
// истории результатов
type PerformanceSummary struct {
	SessionCount int                  `json:"session_count"`
	AverageScore float64              `json:"average_score"`
	AverageSpeed float64              `json:"average_speed"`
	Subjects     []SubjectPerformance `json:"subjects"`
	History      []PerformanceEntry   `json:"history"`
}

// GraderService подсчитывает результаты завершенных сессий.
/// Подсчет идемпотентен: повторный вызов перезаписывает результаты
// по ключу (сессия, предмет), дубликаты не появляются.
type GraderService struct {
	sessionRepo  repository.TestSessionRepository
	responseRepo repository.ResponseRepository
	resultRepo   repository.ResultRepository
	cacheRepo    repository.CacheRepository
	catalog      *CatalogService
	config       *Config
	now          func() time.Time
}

// NewGraderService создает новый сервис подсчета результатов
func NewGraderService(
	sessionRepo repository.TestSessionRepository,
	responseRepo repository.ResponseRepository,
	resultRepo repository.ResultRepository,
	cacheRepo repository.CacheRepository,
	catalog *CatalogService,
	config *Config,
) *GraderService {
	return &GraderService{
		sessionRepo:  sessionRepo,
		responseRepo: responseRepo,
		resultRepo:   resultRepo,
		cacheRepo:    cacheRepo,
		catalog:      catalog,
		config:       config,
		now:          time.Now,
	}
}

// ComputeResults подсчитывает результаты всех предметов завершенной сессии.
// score = 100 * правильные / всего вопросов предмета (0 при нуле вопросов).
// speed = длительность сессии / общее число ответов в сессии (0 при нуле
// ответов) — метрика темпа всей сессии, намеренно не по-предметная.
func (s *GraderService) ComputeResults(userID uint, sessionID uint) ([]entity.Result, error) {
	session, err := s.sessionRepo.GetWithSubjects(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.IsCompleted() {
		return nil, repository.ErrSessionNotCompleted
	}

	sessionQuestions, err := s.sessionRepo.GetSessionQuestions(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session questions: %w", err)
	}
	responses, err := s.responseRepo.GetBySession(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	responseByQuestion := make(map[uint]entity.UserResponse, len(responses))
	for _, response := range responses {
		responseByQuestion[response.QuestionID] = response
	}

	speed := sessionSpeed(session, len(responses))
	computedAt := s.now()

	results := make([]entity.Result, 0, len(session.Subjects))
	totalCorrect := 0
	totalQuestions := 0

	for _, subject := range session.Subjects {
		worksheetIDs, err := s.worksheetIDsOfSubject(subject.ID)
		if err != nil {
			return nil, err
		}

		var contributingWorksheet *uint
		correct := 0
		questionCount := 0
		for _, sq := range sessionQuestions {
			if _, ok := worksheetIDs[sq.Question.WorksheetID]; !ok {
				continue
			}
			questionCount++
			if contributingWorksheet == nil {
				id := sq.Question.WorksheetID
				contributingWorksheet = &id
			}
			// Отсутствие ответа считается неправильным: вопрос входит
			// в знаменатель, но не в числитель
			if response, ok := responseByQuestion[sq.QuestionID]; ok && response.IsCorrect {
				correct++
			}
		}

		score := 0.0
		if questionCount > 0 {
			score = 100 * float64(correct) / float64(questionCount)
		}

		result := entity.Result{
			UserID:        userID,
			TestSessionID: sessionID,
			SubjectID:     subject.ID,
			WorksheetID:   contributingWorksheet,
			Score:         score,
			Speed:         speed,
			ComputedAt:    computedAt,
		}
		if err := s.resultRepo.Upsert(&result); err != nil {
			return nil, fmt.Errorf("failed to save result for subject %d: %w", subject.ID, err)
		}
		results = append(results, result)

		totalCorrect += correct
		totalQuestions += questionCount
	}

	// Суммарный балл сессии — общий процент по всем предметам
	summaryScore := 0
	if totalQuestions > 0 {
		summaryScore = 100 * totalCorrect / totalQuestions
	}
	if err := s.sessionRepo.UpdateScore(sessionID, summaryScore); err != nil {
		return nil, fmt.Errorf("failed to update session score: %w", err)
	}

	// Точечная инвалидация кеша результатов этой сессии
	if err := s.cacheRepo.Delete(cacheKeySessionResults(userID, sessionID)); err != nil {
		log.Printf("[GraderService] Не удалось сбросить кеш результатов сессии %d: %v", sessionID, err)
	}

	log.Printf("[GraderService] Сессия %d подсчитана: %d предметов, суммарный балл %d",
		sessionID, len(results), summaryScore)
	return results, nil
}

// GetSessionResults возвращает результаты и разбор проваленных вопросов
// завершенной сессии (read-through кеш)
func (s *GraderService) GetSessionResults(userID uint, sessionID uint) (*SessionResults, error) {
	session, err := s.sessionRepo.GetWithSubjects(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !session.IsCompleted() {
		return nil, repository.ErrSessionNotCompleted
	}

	cacheKey := cacheKeySessionResults(userID, sessionID)
	var cached SessionResults
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[GraderService] Ошибка чтения кеша результатов сессии %d: %v", sessionID, err)
	}

	storedResults, err := s.resultRepo.GetBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	resultBySubject := make(map[uint]entity.Result, len(storedResults))
	for _, result := range storedResults {
		resultBySubject[result.SubjectID] = result
	}

	failed, err := s.failedQuestionsBySubject(session, userID)
	if err != nil {
		return nil, err
	}

	view := &SessionResults{
		TestSessionID:   sessionID,
		StartTime:       session.StartTime,
		EndTime:         session.EndTime,
		FailedQuestions: failed,
	}
	for _, subject := range session.Subjects {
		view.Subjects = append(view.Subjects, subject.Name)
		if result, ok := resultBySubject[subject.ID]; ok {
			view.Results = append(view.Results, SubjectResult{
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				WorksheetID: result.WorksheetID,
				Score:       result.Score,
				Speed:       result.Speed,
			})
		}
	}

	if err := s.cacheRepo.SetJSON(cacheKey, view, s.config.ResultCacheTTL); err != nil {
		log.Printf("[GraderService] Ошибка записи кеша результатов сессии %d: %v", sessionID, err)
	}
	return view, nil
}

// GetUserPerformance собирает сводку успеваемости пользователя по истории
// результатов: средние балл и темп по всем результатам, агрегаты по каждому
// предмету и точки для графика динамики. Результаты читаются свежие первыми.
func (s *GraderService) GetUserPerformance(userID uint, limit, offset int) (*PerformanceSummary, error) {
	results, err := s.resultRepo.GetByUser(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load results history: %w", err)
	}

	summary := &PerformanceSummary{
		Subjects: []SubjectPerformance{},
		History:  []PerformanceEntry{},
	}
	if len(results) == 0 {
		return summary, nil
	}

	subjects, err := s.catalog.ListSubjects()
	if err != nil {
		return nil, err
	}
	nameByID := make(map[uint]string, len(subjects))
	for _, subject := range subjects {
		nameByID[subject.ID] = subject.Name
	}

	sessions := make(map[uint]struct{})
	perSubject := make(map[uint]*SubjectPerformance)
	subjectOrder := make([]uint, 0)
	totalScore := 0.0
	totalSpeed := 0.0

	for _, result := range results {
		sessions[result.TestSessionID] = struct{}{}
		totalScore += result.Score
		totalSpeed += result.Speed

		agg, ok := perSubject[result.SubjectID]
		if !ok {
			agg = &SubjectPerformance{
				SubjectID:   result.SubjectID,
				SubjectName: nameByID[result.SubjectID],
				// Первый встреченный результат предмета — самый свежий
				LatestScore: result.Score,
			}
			perSubject[result.SubjectID] = agg
			subjectOrder = append(subjectOrder, result.SubjectID)
		}
		agg.Attempts++
		agg.AverageScore += result.Score
		agg.AverageSpeed += result.Speed
		if result.Score > agg.BestScore {
			agg.BestScore = result.Score
		}

		summary.History = append(summary.History, PerformanceEntry{
			TestSessionID: result.TestSessionID,
			SubjectID:     result.SubjectID,
			SubjectName:   nameByID[result.SubjectID],
			Score:         result.Score,
			Speed:         result.Speed,
			ComputedAt:    result.ComputedAt,
		})
	}

	for _, subjectID := range subjectOrder {
		agg := perSubject[subjectID]
		agg.AverageScore /= float64(agg.Attempts)
		agg.AverageSpeed /= float64(agg.Attempts)
		summary.Subjects = append(summary.Subjects, *agg)
	}

	summary.SessionCount = len(sessions)
	summary.AverageScore = totalScore / float64(len(results))
	summary.AverageSpeed = totalSpeed / float64(len(results))
	return summary, nil
}

// failedQuestionsBySubject собирает ответы с correct=false, сгруппированные
// по имени предмета, вместе с вариантами вопроса и правильной буквой
func (s *GraderService) failedQuestionsBySubject(session *entity.TestSession, userID uint) (map[string][]FailedQuestion, error) {
	sessionQuestions, err := s.sessionRepo.GetSessionQuestions(session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session questions: %w", err)
	}
	responses, err := s.responseRepo.GetBySession(session.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	responseByQuestion := make(map[uint]entity.UserResponse, len(responses))
	for _, response := range responses {
		responseByQuestion[response.QuestionID] = response
	}

	failed := make(map[string][]FailedQuestion)
	for _, subject := range session.Subjects {
		worksheetIDs, err := s.worksheetIDsOfSubject(subject.ID)
		if err != nil {
			return nil, err
		}

		// Каждая группа присутствует в ответе даже пустой
		failed[subject.Name] = []FailedQuestion{}
		for _, sq := range sessionQuestions {
			if _, ok := worksheetIDs[sq.Question.WorksheetID]; !ok {
				continue
			}
			response, answered := responseByQuestion[sq.QuestionID]
			if !answered || response.IsCorrect {
				continue
			}
			question := sq.Question
			failed[subject.Name] = append(failed[subject.Name], FailedQuestion{
				QuestionID:     question.ID,
				Text:           question.Text,
				OptionA:        question.OptionA,
				OptionB:        question.OptionB,
				OptionC:        question.OptionC,
				OptionD:        question.OptionD,
				Image:          question.Image,
				SelectedOption: response.SelectedOption,
				CorrectOption:  question.CorrectOption,
			})
		}
	}
	return failed, nil
}

// worksheetIDsOfSubject возвращает множество ID worksheet'ов предмета
// (через кешированный каталог)
func (s *GraderService) worksheetIDsOfSubject(subjectID uint) (map[uint]struct{}, error) {
	worksheets, err := s.catalog.WorksheetsBySubject(subjectID)
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]struct{}, len(worksheets))
	for _, worksheet := range worksheets {
		ids[worksheet.ID] = struct{}{}
	}
	return ids, nil
}

// sessionSpeed возвращает секунды на вопрос по всей сессии
func sessionSpeed(session *entity.TestSession, totalResponses int) float64 {
	if totalResponses == 0 {
		return 0
	}
	return session.Duration().Seconds() / float64(totalResponses)
}
