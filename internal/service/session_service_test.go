package service

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/examhall-api/internal/domain/entity"
	"github.com/yourusername/examhall-api/internal/domain/repository"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
)

// ============================================================================
// Моки репозиториев для тестов сервисов.
// Используются также в grader_service_test.go и preference_service_test.go.
// ============================================================================

// MockSubjectRepository реализует repository.SubjectRepository
type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) Create(subject *entity.Subject) error {
	args := m.Called(subject)
	return args.Error(0)
}

func (m *MockSubjectRepository) GetByID(id uint) (*entity.Subject, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetByName(name string) (*entity.Subject, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetByNames(names []string) ([]entity.Subject, error) {
	args := m.Called(names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) List() ([]entity.Subject, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Subject), args.Error(1)
}

func (m *MockSubjectRepository) Update(subject *entity.Subject) error {
	args := m.Called(subject)
	return args.Error(0)
}

func (m *MockSubjectRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockWorksheetRepository реализует repository.WorksheetRepository
type MockWorksheetRepository struct {
	mock.Mock
}

func (m *MockWorksheetRepository) Create(worksheet *entity.Worksheet) error {
	args := m.Called(worksheet)
	return args.Error(0)
}

func (m *MockWorksheetRepository) GetByID(id uint) (*entity.Worksheet, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Worksheet), args.Error(1)
}

func (m *MockWorksheetRepository) GetBySubjectID(subjectID uint) ([]entity.Worksheet, error) {
	args := m.Called(subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Worksheet), args.Error(1)
}

func (m *MockWorksheetRepository) Update(worksheet *entity.Worksheet) error {
	args := m.Called(worksheet)
	return args.Error(0)
}

func (m *MockWorksheetRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByWorksheetID(worksheetID uint) ([]entity.Question, error) {
	args := m.Called(worksheetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ids []uint) ([]entity.Question, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockTestSessionRepository реализует repository.TestSessionRepository
type MockTestSessionRepository struct {
	mock.Mock
}

func (m *MockTestSessionRepository) CreateWithQuestions(session *entity.TestSession, questions []entity.SessionQuestion) error {
	args := m.Called(session, questions)
	return args.Error(0)
}

func (m *MockTestSessionRepository) GetByID(id uint) (*entity.TestSession, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestSession), args.Error(1)
}

func (m *MockTestSessionRepository) GetByIDForUser(id uint, userID uint) (*entity.TestSession, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestSession), args.Error(1)
}

func (m *MockTestSessionRepository) GetWithSubjects(id uint, userID uint) (*entity.TestSession, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestSession), args.Error(1)
}

func (m *MockTestSessionRepository) GetSessionQuestions(sessionID uint) ([]entity.SessionQuestion, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SessionQuestion), args.Error(1)
}

func (m *MockTestSessionRepository) GetAssignedQuestionIDs(sessionID uint) ([]uint, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockTestSessionRepository) Complete(sessionID uint, userID uint, endTime time.Time) (int64, error) {
	args := m.Called(sessionID, userID, endTime)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTestSessionRepository) UpdateScore(sessionID uint, score int) error {
	args := m.Called(sessionID, score)
	return args.Error(0)
}

func (m *MockTestSessionRepository) ListByUser(userID uint, limit, offset int) ([]entity.TestSession, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TestSession), args.Error(1)
}

func (m *MockTestSessionRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockResponseRepository реализует repository.ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Upsert(response *entity.UserResponse) error {
	args := m.Called(response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetBySession(sessionID uint, userID uint) ([]entity.UserResponse, error) {
	args := m.Called(sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserResponse), args.Error(1)
}

func (m *MockResponseRepository) CountBySession(sessionID uint) (int64, error) {
	args := m.Called(sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockResultRepository реализует repository.ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Upsert(result *entity.Result) error {
	args := m.Called(result)
	return args.Error(0)
}

func (m *MockResultRepository) GetBySession(sessionID uint) ([]entity.Result, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

func (m *MockResultRepository) GetByUser(userID uint, limit, offset int) ([]entity.Result, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

// MockPreferenceRepository реализует repository.PreferenceRepository
type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) GetByUserID(userID uint) (*entity.SubjectPreference, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SubjectPreference), args.Error(1)
}

func (m *MockPreferenceRepository) ReplaceSubjects(userID uint, subjects []entity.Subject) error {
	args := m.Called(userID, subjects)
	return args.Error(0)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) DeleteIfEquals(key string, value interface{}) (bool, error) {
	args := m.Called(key, value)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Вспомогательные фабрики
// ============================================================================

// newPassthroughCache возвращает мок кеша, который всегда промахивается
// и молча принимает записи
func newPassthroughCache() *MockCacheRepository {
	cache := new(MockCacheRepository)
	cache.On("GetJSON", mock.Anything, mock.Anything).Return(apperrors.ErrNotFound)
	cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache.On("Delete", mock.Anything).Return(nil)
	cache.On("DeleteIfEquals", mock.Anything, mock.Anything).Return(true, nil)
	return cache
}

func newTestEngineConfig() *Config {
	return &Config{
		CompulsorySubject:      "English",
		SessionSubjectCount:    4,
		PreferenceSubjectCount: 5,
		CatalogCacheTTL:        15 * time.Minute,
		ResultCacheTTL:         15 * time.Minute,
	}
}

type sessionServiceMocks struct {
	sessionRepo    *MockTestSessionRepository
	responseRepo   *MockResponseRepository
	questionRepo   *MockQuestionRepository
	preferenceRepo *MockPreferenceRepository
	subjectRepo    *MockSubjectRepository
	worksheetRepo  *MockWorksheetRepository
	resultRepo     *MockResultRepository
	cache          *MockCacheRepository
}

func createTestSessionService(seed int64) (*SessionService, *sessionServiceMocks) {
	m := &sessionServiceMocks{
		sessionRepo:    new(MockTestSessionRepository),
		responseRepo:   new(MockResponseRepository),
		questionRepo:   new(MockQuestionRepository),
		preferenceRepo: new(MockPreferenceRepository),
		subjectRepo:    new(MockSubjectRepository),
		worksheetRepo:  new(MockWorksheetRepository),
		resultRepo:     new(MockResultRepository),
		cache:          newPassthroughCache(),
	}
	config := newTestEngineConfig()
	catalog := NewCatalogService(m.subjectRepo, m.worksheetRepo, m.questionRepo, m.cache, config)
	grader := NewGraderService(m.sessionRepo, m.responseRepo, m.resultRepo, m.cache, catalog, config)
	svc := NewSessionService(
		m.sessionRepo, m.responseRepo, m.questionRepo, m.preferenceRepo,
		m.cache, catalog, grader, config,
		rand.New(rand.NewSource(seed)),
	)
	return svc, m
}

func fiveSubjects() []entity.Subject {
	return []entity.Subject{
		{ID: 1, Name: "English"},
		{ID: 2, Name: "Mathematics"},
		{ID: 3, Name: "Physics"},
		{ID: 4, Name: "Chemistry"},
		{ID: 5, Name: "Biology"},
	}
}

func preferenceWithFiveSubjects(userID uint) *entity.SubjectPreference {
	return &entity.SubjectPreference{ID: 1, UserID: userID, Subjects: fiveSubjects()}
}

// ============================================================================
// Тесты для SessionService.StartSession
// ============================================================================

func TestSessionService_StartSession_Success(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	userID := uint(10)
	selection := []string{"English", "Mathematics", "Physics", "Chemistry"}

	m.preferenceRepo.On("GetByUserID", userID).Return(preferenceWithFiveSubjects(userID), nil)
	m.subjectRepo.On("GetByNames", selection).Return(fiveSubjects()[:4], nil)

	// По одному worksheet'у на предмет и по два вопроса в каждом
	questionID := uint(100)
	for subjectID := uint(1); subjectID <= 4; subjectID++ {
		worksheetID := subjectID * 10
		m.worksheetRepo.On("GetBySubjectID", subjectID).Return([]entity.Worksheet{
			{ID: worksheetID, SubjectID: subjectID, Name: "Worksheet 1"},
		}, nil)
		m.questionRepo.On("GetByWorksheetID", worksheetID).Return([]entity.Question{
			{ID: questionID, WorksheetID: worksheetID, DisplayOrder: 0},
			{ID: questionID + 1, WorksheetID: worksheetID, DisplayOrder: 1},
		}, nil)
		questionID += 10
	}

	m.sessionRepo.On("CreateWithQuestions", mock.AnythingOfType("*entity.TestSession"), mock.AnythingOfType("[]entity.SessionQuestion")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*entity.TestSession).ID = 77
		}).
		Return(nil)

	// Act
	started, err := svc.StartSession(userID, selection)

	// Assert
	require.NoError(t, err, "Сборка сессии должна быть успешной")
	assert.Equal(t, uint(77), started.Session.ID)
	assert.Len(t, started.Assignments, 4, "По одному назначению на предмет")
	assert.Equal(t, []uint{100, 101, 110, 111, 120, 121, 130, 131}, started.AssignedQuestionIDs,
		"Вопросы идут предмет за предметом, внутри предмета — в порядке отображения")

	createArgs := m.sessionRepo.Calls[0].Arguments
	sessionQuestions := createArgs.Get(1).([]entity.SessionQuestion)
	require.Len(t, sessionQuestions, 8)
	for i, sq := range sessionQuestions {
		assert.Equal(t, i, sq.Position, "Position фиксирует порядок назначения")
	}
	m.sessionRepo.AssertExpectations(t)
}

func TestSessionService_StartSession_NoPreference(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	m.preferenceRepo.On("GetByUserID", uint(10)).Return(nil, apperrors.ErrNotFound)

	// Act
	started, err := svc.StartSession(10, []string{"English", "Mathematics", "Physics", "Chemistry"})

	// Assert
	assert.ErrorIs(t, err, ErrNoPreference)
	assert.Nil(t, started)
	m.sessionRepo.AssertNotCalled(t, "CreateWithQuestions")
}

func TestSessionService_StartSession_MissingCompulsorySubject(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	m.preferenceRepo.On("GetByUserID", uint(10)).Return(preferenceWithFiveSubjects(10), nil)

	// Act: английского нет в выборе, молчаливое добавление не выполняется
	started, err := svc.StartSession(10, []string{"Mathematics", "Physics", "Chemistry", "Biology"})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Nil(t, started)
	m.sessionRepo.AssertNotCalled(t, "CreateWithQuestions")
}

func TestSessionService_StartSession_WrongSubjectCount(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	m.preferenceRepo.On("GetByUserID", uint(10)).Return(preferenceWithFiveSubjects(10), nil)

	// Act
	started, err := svc.StartSession(10, []string{"English", "Mathematics"})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Nil(t, started)
}

func TestSessionService_StartSession_SubjectOutsidePreferences(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	m.preferenceRepo.On("GetByUserID", uint(10)).Return(preferenceWithFiveSubjects(10), nil)

	// Act: History не входит в предпочтения пользователя
	started, err := svc.StartSession(10, []string{"English", "Mathematics", "Physics", "History"})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Nil(t, started)
}

func TestSessionService_StartSession_DeterministicWorksheetChoice(t *testing.T) {
	// Arrange: два запуска с одинаковым seed выбирают один и тот же worksheet
	const seed = 42
	worksheets := []entity.Worksheet{
		{ID: 10, SubjectID: 1, Name: "Worksheet 1"},
		{ID: 11, SubjectID: 1, Name: "Worksheet 2"},
		{ID: 12, SubjectID: 1, Name: "Worksheet 3"},
	}

	run := func() uint {
		svc, m := createTestSessionService(seed)
		svc.config.SessionSubjectCount = 1
		svc.config.CompulsorySubject = "English"

		m.preferenceRepo.On("GetByUserID", uint(10)).Return(preferenceWithFiveSubjects(10), nil)
		m.subjectRepo.On("GetByNames", []string{"English"}).Return(fiveSubjects()[:1], nil)
		m.worksheetRepo.On("GetBySubjectID", uint(1)).Return(worksheets, nil)
		m.questionRepo.On("GetByWorksheetID", mock.Anything).Return([]entity.Question{}, nil)
		m.sessionRepo.On("CreateWithQuestions", mock.Anything, mock.Anything).Return(nil)

		started, err := svc.StartSession(10, []string{"English"})
		require.NoError(t, err)
		require.NotNil(t, started.Assignments[0].Worksheet)
		return started.Assignments[0].Worksheet.ID
	}

	// Act & Assert
	assert.Equal(t, run(), run(), "Одинаковый seed должен давать одинаковый выбор worksheet'а")
}

func TestSessionService_StartSession_SubjectWithoutWorksheets(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	userID := uint(10)
	selection := []string{"English", "Mathematics", "Physics", "Chemistry"}

	m.preferenceRepo.On("GetByUserID", userID).Return(preferenceWithFiveSubjects(userID), nil)
	m.subjectRepo.On("GetByNames", selection).Return(fiveSubjects()[:4], nil)

	// У Mathematics нет ни одного worksheet'а
	m.worksheetRepo.On("GetBySubjectID", uint(2)).Return([]entity.Worksheet{}, nil)
	for _, subjectID := range []uint{1, 3, 4} {
		m.worksheetRepo.On("GetBySubjectID", subjectID).Return([]entity.Worksheet{
			{ID: subjectID * 10, SubjectID: subjectID, Name: "Worksheet 1"},
		}, nil)
		m.questionRepo.On("GetByWorksheetID", subjectID*10).Return([]entity.Question{
			{ID: subjectID * 100, WorksheetID: subjectID * 10},
		}, nil)
	}
	m.sessionRepo.On("CreateWithQuestions", mock.Anything, mock.Anything).Return(nil)

	// Act
	started, err := svc.StartSession(userID, selection)

	// Assert: предмет без worksheet'ов остается в сессии, но без вопросов
	require.NoError(t, err, "Частичная сессия допустима")
	require.Len(t, started.Assignments, 4)
	assert.Nil(t, started.Assignments[1].Worksheet, "Worksheet предмета без материалов должен быть nil")
	assert.Empty(t, started.Assignments[1].Questions)
	assert.Len(t, started.AssignedQuestionIDs, 3)
}

func TestSessionService_StartSession_ConcurrentStarts(t *testing.T) {
	// Arrange: один сервис, конкурентные сборки сессий делят общий rng;
	// под -race тест ловит несинхронизированный доступ к его состоянию
	svc, m := createTestSessionService(7)
	svc.config.SessionSubjectCount = 1

	worksheets := []entity.Worksheet{
		{ID: 10, SubjectID: 1, Name: "Worksheet 1"},
		{ID: 11, SubjectID: 1, Name: "Worksheet 2"},
		{ID: 12, SubjectID: 1, Name: "Worksheet 3"},
	}
	m.preferenceRepo.On("GetByUserID", mock.AnythingOfType("uint")).Return(preferenceWithFiveSubjects(10), nil)
	m.subjectRepo.On("GetByNames", []string{"English"}).Return(fiveSubjects()[:1], nil)
	m.worksheetRepo.On("GetBySubjectID", uint(1)).Return(worksheets, nil)
	m.questionRepo.On("GetByWorksheetID", mock.Anything).Return([]entity.Question{}, nil)
	m.sessionRepo.On("CreateWithQuestions", mock.Anything, mock.Anything).Return(nil)

	// Act
	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.StartSession(10, []string{"English"})
		}(i)
	}
	wg.Wait()

	// Assert
	for i, err := range errs {
		require.NoError(t, err, "Конкурентная сборка #%d должна быть успешной", i)
	}
}

// ============================================================================
// Тесты для SessionService.SubmitResponses
// ============================================================================

func TestSessionService_SubmitResponses_UpsertAndRejects(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	userID := uint(10)
	sessionID := uint(77)
	openSession := &entity.TestSession{ID: sessionID, UserID: userID, StartTime: time.Now()}

	m.sessionRepo.On("GetByIDForUser", sessionID, userID).Return(openSession, nil)
	m.sessionRepo.On("GetAssignedQuestionIDs", sessionID).Return([]uint{100, 101, 102}, nil)
	m.questionRepo.On("GetByIDs", []uint{100}).Return([]entity.Question{
		{ID: 100, CorrectOption: entity.OptionA},
	}, nil)
	m.responseRepo.On("Upsert", mock.AnythingOfType("*entity.UserResponse")).Return(nil)

	submissions := []ResponseSubmission{
		{QuestionID: 100, SelectedOption: "A"},  // валидный, правильный
		{QuestionID: 101, SelectedOption: "E"},  // недопустимая буква
		{QuestionID: 999, SelectedOption: "B"},  // не входит в сессию
	}

	// Act
	outcome, err := svc.SubmitResponses(userID, sessionID, submissions, false)

	// Assert
	require.NoError(t, err, "Невалидные элементы пакета не должны ронять запрос")
	assert.Equal(t, []uint{100}, outcome.AcceptedQuestionIDs)
	assert.ElementsMatch(t, []uint{101, 999}, outcome.RejectedQuestionIDs)
	assert.False(t, outcome.Finalized)

	// Правильность вычислена в момент записи
	saved := m.responseRepo.Calls[0].Arguments.Get(0).(*entity.UserResponse)
	assert.True(t, saved.IsCorrect)
	assert.Equal(t, "A", saved.SelectedOption)
	m.responseRepo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestSessionService_SubmitResponses_CompletedSession(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	endTime := time.Now()
	completed := &entity.TestSession{ID: 77, UserID: 10, Completed: true, EndTime: &endTime}
	m.sessionRepo.On("GetByIDForUser", uint(77), uint(10)).Return(completed, nil)

	// Act
	outcome, err := svc.SubmitResponses(10, 77, []ResponseSubmission{{QuestionID: 100, SelectedOption: "A"}}, false)

	// Assert
	assert.ErrorIs(t, err, repository.ErrSessionCompleted)
	assert.Nil(t, outcome)
	m.responseRepo.AssertNotCalled(t, "Upsert")
}

func TestSessionService_SubmitResponses_LosesRaceToFinalize(t *testing.T) {
	// Arrange: сессия открыта при первой проверке, но завершена конкурентным
	// Finalize к моменту перечитывания
	svc, m := createTestSessionService(1)
	userID := uint(10)
	sessionID := uint(77)
	openSession := &entity.TestSession{ID: sessionID, UserID: userID}
	endTime := time.Now()
	completedSession := &entity.TestSession{ID: sessionID, UserID: userID, Completed: true, EndTime: &endTime}

	m.sessionRepo.On("GetByIDForUser", sessionID, userID).Return(openSession, nil).Once()
	m.sessionRepo.On("GetByIDForUser", sessionID, userID).Return(completedSession, nil).Once()
	m.sessionRepo.On("GetAssignedQuestionIDs", sessionID).Return([]uint{100}, nil)
	m.questionRepo.On("GetByIDs", []uint{100}).Return([]entity.Question{{ID: 100, CorrectOption: entity.OptionA}}, nil)
	m.responseRepo.On("Upsert", mock.Anything).Return(nil)

	// Act
	outcome, err := svc.SubmitResponses(userID, sessionID, []ResponseSubmission{{QuestionID: 100, SelectedOption: "A"}}, false)

	// Assert: проигравшая запись не завершается тихим успехом
	assert.ErrorIs(t, err, repository.ErrSessionCompleted)
	assert.Nil(t, outcome)
}

// ============================================================================
// Тесты для SessionService.Finalize
// ============================================================================

func TestSessionService_Finalize_AlreadyCompleted(t *testing.T) {
	// Arrange: check-and-set ничего не изменил, сессия при этом существует
	svc, m := createTestSessionService(1)
	endTime := time.Now()
	completed := &entity.TestSession{ID: 77, UserID: 10, Completed: true, EndTime: &endTime}

	m.cache.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	m.sessionRepo.On("Complete", uint(77), uint(10), mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	m.sessionRepo.On("GetByIDForUser", uint(77), uint(10)).Return(completed, nil)

	// Act
	err := svc.Finalize(10, 77)

	// Assert
	assert.ErrorIs(t, err, repository.ErrSessionCompleted)
	m.resultRepo.AssertNotCalled(t, "Upsert")
}

func TestSessionService_Finalize_UnknownSession(t *testing.T) {
	// Arrange
	svc, m := createTestSessionService(1)
	m.cache.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	m.sessionRepo.On("Complete", uint(404), uint(10), mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	m.sessionRepo.On("GetByIDForUser", uint(404), uint(10)).Return(nil, apperrors.ErrNotFound)

	// Act
	err := svc.Finalize(10, 404)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionService_Finalize_ReleasesLockByOwnToken(t *testing.T) {
	// Arrange: успешное завершение; блокировка должна сниматься ровно тем
	// токеном, который был записан в SetNX, а не безусловным Delete
	svc, m := createTestSessionService(1)
	userID := uint(10)
	sessionID := uint(77)
	completed := completedSessionFixture(sessionID, userID, nil)

	var lockToken interface{}
	cache := new(MockCacheRepository)
	cache.On("GetJSON", mock.Anything, mock.Anything).Return(apperrors.ErrNotFound)
	cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache.On("Delete", mock.Anything).Return(nil)
	cache.On("SetNX", "session:77:finalize", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			lockToken = args.Get(1)
		}).
		Return(true, nil)
	cache.On("DeleteIfEquals", "session:77:finalize", mock.Anything).Return(true, nil)
	svc.cacheRepo = cache
	svc.grader.cacheRepo = cache

	m.sessionRepo.On("Complete", sessionID, userID, mock.AnythingOfType("time.Time")).Return(int64(1), nil)
	m.sessionRepo.On("GetWithSubjects", sessionID, userID).Return(completed, nil)
	m.sessionRepo.On("GetSessionQuestions", sessionID).Return([]entity.SessionQuestion{}, nil)
	m.responseRepo.On("GetBySession", sessionID, userID).Return([]entity.UserResponse{}, nil)
	m.sessionRepo.On("UpdateScore", sessionID, 0).Return(nil)

	// Act
	err := svc.Finalize(userID, sessionID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, lockToken)
	cache.AssertCalled(t, "DeleteIfEquals", "session:77:finalize", lockToken)
	cache.AssertNotCalled(t, "Delete", "session:77:finalize")
}

func TestSessionService_Finalize_LockHeldByAnotherCall(t *testing.T) {
	// Arrange: распределенная блокировка занята конкурентным завершением
	svc, m := createTestSessionService(1)
	m.cache.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	// Act
	err := svc.Finalize(10, 77)

	// Assert
	assert.ErrorIs(t, err, repository.ErrSessionCompleted)
	m.sessionRepo.AssertNotCalled(t, "Complete")
}
