package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	"github.com/yourusername/examhall-api/internal/domain/repository"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// SubjectAssignment описывает, что досталось одному предмету сессии:
// выбранный worksheet и его вопросы. Worksheet == nil означает, что
// у предмета не было worksheet'ов и он не дал ни одного вопроса.
type SubjectAssignment struct {
	Subject   entity.Subject
	Worksheet *entity.Worksheet
	Questions []entity.Question
}

// StartedSession — результат сборки новой сессии
type StartedSession struct {
	Session             *entity.TestSession
	Assignments         []SubjectAssignment
	AssignedQuestionIDs []uint
}

// ResponseSubmission — один ответ из пакета отправки
type ResponseSubmission struct {
	QuestionID     uint
	SelectedOption string
}

// SubmitOutcome — построчный итог пакетной отправки.
// Невалидные элементы пакета не фатальны: они попадают в Rejected,
// остальные записываются.
type SubmitOutcome struct {
	AcceptedQuestionIDs []uint
	RejectedQuestionIDs []uint
	Finalized           bool
}

// SessionService реализует жизненный цикл сессии тестирования:
// сборку (выбор worksheet'ов и назначение вопросов), запись ответов
// и завершение с передачей управления грейдеру.
type SessionService struct {
	sessionRepo    repository.TestSessionRepository
	responseRepo   repository.ResponseRepository
	questionRepo   repository.QuestionRepository
	preferenceRepo repository.PreferenceRepository
	cacheRepo      repository.CacheRepository
	catalog        *CatalogService
	grader         *GraderService
	config         *Config
	// rng разделяется конкурентными запросами, а rand.Rand не потокобезопасен:
	// каждое обращение идет под rngMu
	rng   *rand.Rand
	rngMu sync.Mutex
	now   func() time.Time
}

// NewSessionService создает новый сервис сессий.
// rng инжектируется явно, чтобы тесты могли зафиксировать выбор worksheet'а;
// nil означает источник, посеянный текущим временем.
func NewSessionService(
	sessionRepo repository.TestSessionRepository,
	responseRepo repository.ResponseRepository,
	questionRepo repository.QuestionRepository,
	preferenceRepo repository.PreferenceRepository,
	cacheRepo repository.CacheRepository,
	catalog *CatalogService,
	grader *GraderService,
	config *Config,
	rng *rand.Rand,
) *SessionService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SessionService{
		sessionRepo:    sessionRepo,
		responseRepo:   responseRepo,
		questionRepo:   questionRepo,
		preferenceRepo: preferenceRepo,
		cacheRepo:      cacheRepo,
		catalog:        catalog,
		grader:         grader,
		config:         config,
		rng:            rng,
		now:            time.Now,
	}
}

// StartSession собирает новую сессию тестирования.
// Выбор предметов строгий: ровно SessionSubjectCount имен, обязательный
// предмет включен вызывающей стороной (молчаливое добавление не выполняется),
// каждый предмет входит в предпочтения пользователя.
func (s *SessionService) StartSession(userID uint, subjectNames []string) (*StartedSession, error) {
	preference, err := s.preferenceRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNoPreference
		}
		return nil, fmt.Errorf("failed to load subject preferences: %w", err)
	}

	if err := s.validateSelection(subjectNames, preference); err != nil {
		return nil, err
	}

	subjects, err := s.catalog.ResolveSubjects(subjectNames)
	if err != nil {
		return nil, err
	}

	// Порядок сборки: предмет за предметом в порядке разрешения имен,
	// внутри предмета — порядок отображения worksheet'а. Никогда не перемешивается.
	assignments := make([]SubjectAssignment, 0, len(subjects))
	assignedIDs := make([]uint, 0)
	sessionQuestions := make([]entity.SessionQuestion, 0)
	position := 0

	for _, subject := range subjects {
		assignment, err := s.assignWorksheet(subject)
		if err != nil {
			return nil, err
		}
		for _, question := range assignment.Questions {
			sessionQuestions = append(sessionQuestions, entity.SessionQuestion{
				QuestionID: question.ID,
				Position:   position,
			})
			assignedIDs = append(assignedIDs, question.ID)
			position++
		}
		assignments = append(assignments, assignment)
	}

	session := &entity.TestSession{
		UserID:    userID,
		StartTime: s.now(),
		Subjects:  subjects,
	}

	// Сессия и назначения создаются в одной транзакции:
	// частично собранная сессия никогда не видна.
	if err := s.sessionRepo.CreateWithQuestions(session, sessionQuestions); err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	log.Printf("[SessionService] Сессия %d создана для пользователя %d: %d предметов, %d вопросов",
		session.ID, userID, len(subjects), len(assignedIDs))

	return &StartedSession{
		Session:             session,
		Assignments:         assignments,
		AssignedQuestionIDs: assignedIDs,
	}, nil
}

// validateSelection проверяет выбор предметов против конфигурации
// и предпочтений пользователя
func (s *SessionService) validateSelection(subjectNames []string, preference *entity.SubjectPreference) error {
	if len(subjectNames) != s.config.SessionSubjectCount {
		return fmt.Errorf("%w: exactly %d subjects must be selected, including %s",
			ErrInvalidSelection, s.config.SessionSubjectCount, s.config.CompulsorySubject)
	}
	if !containsName(subjectNames, s.config.CompulsorySubject) {
		return fmt.Errorf("%w: exactly %d subjects must be selected, including %s",
			ErrInvalidSelection, s.config.SessionSubjectCount, s.config.CompulsorySubject)
	}
	if hasDuplicateNames(subjectNames) {
		return fmt.Errorf("%w: duplicate subjects in selection", ErrInvalidSelection)
	}
	for _, name := range subjectNames {
		if !preference.HasSubject(name) {
			return fmt.Errorf("%w: subject %q is not in user preferences", ErrInvalidSelection, name)
		}
	}
	return nil
}

// assignWorksheet выбирает один worksheet предмета равномерно случайно
// и возвращает его вопросы в порядке отображения.
// Предмет без worksheet'ов пропускается молча — сборка частичной сессии допустима.
func (s *SessionService) assignWorksheet(subject entity.Subject) (SubjectAssignment, error) {
	worksheets, err := s.catalog.WorksheetsBySubject(subject.ID)
	if err != nil {
		return SubjectAssignment{}, err
	}
	if len(worksheets) == 0 {
		log.Printf("[SessionService] У предмета %q нет worksheet'ов, вопросы не назначены", subject.Name)
		return SubjectAssignment{Subject: subject}, nil
	}

	s.rngMu.Lock()
	picked := s.rng.Intn(len(worksheets))
	s.rngMu.Unlock()

	worksheet := worksheets[picked]
	questions, err := s.catalog.QuestionsByWorksheet(worksheet.ID)
	if err != nil {
		return SubjectAssignment{}, err
	}

	return SubjectAssignment{
		Subject:   subject,
		Worksheet: &worksheet,
		Questions: questions,
	}, nil
}

// SubmitResponses записывает пакет ответов в открытую сессию.
// Каждый элемент обрабатывается независимо: невалидный вопрос или буква
// попадает в rejected и логируется, остальные записываются upsert'ом.
// При finalize сессия завершается и результаты подсчитываются синхронно.
func (s *SessionService) SubmitResponses(userID uint, sessionID uint, submissions []ResponseSubmission, finalize bool) (*SubmitOutcome, error) {
	session, err := s.sessionRepo.GetByIDForUser(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, repository.ErrSessionCompleted
	}

	assignedIDs, err := s.sessionRepo.GetAssignedQuestionIDs(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned questions: %w", err)
	}
	assigned := make(map[uint]struct{}, len(assignedIDs))
	for _, id := range assignedIDs {
		assigned[id] = struct{}{}
	}

	outcome := &SubmitOutcome{}
	valid := make([]ResponseSubmission, 0, len(submissions))
	validIDs := make([]uint, 0, len(submissions))

	for _, submission := range submissions {
		if _, ok := assigned[submission.QuestionID]; !ok {
			log.Printf("[SessionService] Вопрос %d не входит в сессию %d, элемент пакета отклонен",
				submission.QuestionID, sessionID)
			outcome.RejectedQuestionIDs = append(outcome.RejectedQuestionIDs, submission.QuestionID)
			continue
		}
		if !entity.IsValidOptionLetter(submission.SelectedOption) {
			log.Printf("[SessionService] Недопустимая буква варианта %q для вопроса %d в сессии %d",
				submission.SelectedOption, submission.QuestionID, sessionID)
			outcome.RejectedQuestionIDs = append(outcome.RejectedQuestionIDs, submission.QuestionID)
			continue
		}
		valid = append(valid, submission)
		validIDs = append(validIDs, submission.QuestionID)
	}

	questions, err := s.questionRepo.GetByIDs(validIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	questionByID := make(map[uint]entity.Question, len(questions))
	for _, question := range questions {
		questionByID[question.ID] = question
	}

	for _, submission := range valid {
		question, ok := questionByID[submission.QuestionID]
		if !ok {
			// Назначенный вопрос исчез из каталога — элемент отклоняется,
			// пакет продолжается
			log.Printf("[SessionService] Вопрос %d не найден в каталоге, элемент пакета отклонен", submission.QuestionID)
			outcome.RejectedQuestionIDs = append(outcome.RejectedQuestionIDs, submission.QuestionID)
			continue
		}

		// Правильность вычисляется синхронно в момент записи,
		// по актуальному CorrectOption вопроса
		response := &entity.UserResponse{
			UserID:         userID,
			TestSessionID:  sessionID,
			QuestionID:     question.ID,
			SelectedOption: submission.SelectedOption,
			IsCorrect:      question.IsCorrect(submission.SelectedOption),
			AnsweredAt:     s.now(),
		}
		if err := s.responseRepo.Upsert(response); err != nil {
			return nil, fmt.Errorf("failed to save response for question %d: %w", question.ID, err)
		}
		outcome.AcceptedQuestionIDs = append(outcome.AcceptedQuestionIDs, question.ID)
	}

	if finalize {
		if len(outcome.AcceptedQuestionIDs) != len(assignedIDs) {
			log.Printf("[SessionService] Сессия %d завершается с %d ответами из %d назначенных вопросов",
				sessionID, len(outcome.AcceptedQuestionIDs), len(assignedIDs))
		}
		if err := s.Finalize(userID, sessionID); err != nil {
			return nil, err
		}
		outcome.Finalized = true
		return outcome, nil
	}

	// Запись могла проиграть гонку конкурентному Finalize: перечитываем флаг,
	// чтобы проигравший вызов завершился ошибкой, а не тихим успехом
	session, err = s.sessionRepo.GetByIDForUser(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, repository.ErrSessionCompleted
	}

	return outcome, nil
}

// Finalize атомарно завершает сессию и синхронно запускает подсчет результатов.
// После успешного возврата результаты каждого предмета сессии доступны на чтение.
// Повторный вызов дает ErrSessionCompleted.
func (s *SessionService) Finalize(userID uint, sessionID uint) error {
	// Короткая распределенная блокировка против одновременного двойного
	// завершения из двух инстансов API
	lockKey := fmt.Sprintf("session:%d:finalize", sessionID)
	lockToken := uuid.NewString()
	locked, err := s.cacheRepo.SetNX(lockKey, lockToken, 30*time.Second)
	if err != nil {
		log.Printf("[SessionService] Блокировка завершения сессии %d недоступна: %v", sessionID, err)
		// Кеш недоступен — полагаемся только на check-and-set в БД
	} else if !locked {
		return repository.ErrSessionCompleted
	} else {
		defer func() {
			// Снятие строго по своему токену: вызов, переживший TTL,
			// не должен удалить блокировку следующего владельца
			released, err := s.cacheRepo.DeleteIfEquals(lockKey, lockToken)
			if err != nil {
				log.Printf("[SessionService] Не удалось снять блокировку завершения сессии %d: %v", sessionID, err)
			} else if !released {
				log.Printf("[SessionService] Блокировка завершения сессии %d истекла до снятия", sessionID)
			}
		}()
	}

	rows, err := s.sessionRepo.Complete(sessionID, userID, s.now())
	if err != nil {
		return fmt.Errorf("failed to complete session %d: %w", sessionID, err)
	}
	if rows == 0 {
		// Ноль строк: сессии нет, она чужая или уже завершена
		if _, err := s.sessionRepo.GetByIDForUser(sessionID, userID); err != nil {
			return err
		}
		return repository.ErrSessionCompleted
	}

	log.Printf("[SessionService] Сессия %d завершена, запускается подсчет результатов", sessionID)

	if _, err := s.grader.ComputeResults(userID, sessionID); err != nil {
		return fmt.Errorf("failed to compute results for session %d: %w", sessionID, err)
	}
	return nil
}
