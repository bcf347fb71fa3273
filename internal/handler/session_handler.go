package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/examhall-api/internal/domain/repository"
	"github.com/yourusername/examhall-api/internal/handler/dto"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
	"github.com/yourusername/examhall-api/internal/service"
)

// SessionHandler обрабатывает запросы жизненного цикла сессии тестирования
type SessionHandler struct {
	sessionService *service.SessionService
	graderService  *service.GraderService
}

// NewSessionHandler создает новый обработчик сессий
func NewSessionHandler(
	sessionService *service.SessionService,
	graderService *service.GraderService,
) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		graderService:  graderService,
	}
}

// StartSessionRequest представляет запрос на сборку новой сессии
type StartSessionRequest struct {
	Subjects []string `json:"subjects" binding:"required,min=1"`
}

// StartSession собирает новую сессию: по одному случайному worksheet'у
// на каждый выбранный предмет
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	started, err := h.sessionService.StartSession(userID, req.Subjects)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	log.Printf("[SessionHandler] Собрана сессия #%d для пользователя #%d (%d вопросов)",
		started.Session.ID, userID, len(started.AssignedQuestionIDs))

	c.JSON(http.StatusCreated, dto.NewStartSessionResponse(started))
}

// SubmitResponsesRequest представляет пакет ответов сессии
type SubmitResponsesRequest struct {
	TestSessionID uint `json:"test_session_id" binding:"required"`
	Responses     []struct {
		QuestionID     uint   `json:"question_id" binding:"required"`
		SelectedOption string `json:"selected_option" binding:"required,len=1"`
	} `json:"responses" binding:"required,min=1"`
	Finalize *bool `json:"finalize"` // nil трактуется как true
}

// SubmitResponses записывает пакет ответов. Повторный ответ на вопрос
// перезаписывает предыдущий. По умолчанию пакет завершает сессию.
func (h *SessionHandler) SubmitResponses(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req SubmitResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submissions := make([]service.ResponseSubmission, 0, len(req.Responses))
	for _, r := range req.Responses {
		submissions = append(submissions, service.ResponseSubmission{
			QuestionID:     r.QuestionID,
			SelectedOption: r.SelectedOption,
		})
	}

	finalize := true
	if req.Finalize != nil {
		finalize = *req.Finalize
	}

	outcome, err := h.sessionService.SubmitResponses(userID, req.TestSessionID, submissions, finalize)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubmitResponsesResponse(outcome))
}

// FinalizeSession завершает сессию без новых ответов
func (h *SessionHandler) FinalizeSession(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	sessionID := c.MustGet("sessionID").(uint) // Получаем из контекста

	if err := h.sessionService.Finalize(userID, sessionID); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Test session completed."})
}

// GetResults возвращает результаты завершенной сессии с разбором
// проваленных вопросов по предметам
func (h *SessionHandler) GetResults(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	sessionID := c.MustGet("sessionID").(uint) // Получаем из контекста

	results, err := h.graderService.GetSessionResults(userID, sessionID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResultsResponse(results))
}

// GetPerformance возвращает сводку успеваемости текущего пользователя:
// средние балл и темп, агрегаты по предметам и историю для графика
func (h *SessionHandler) GetPerformance(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	summary, err := h.graderService.GetUserPerformance(userID, limit, offset)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPerformanceResponse(summary))
}

// handleSessionError обрабатывает ошибки жизненного цикла сессии
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNoPreference) ||
		errors.Is(err, service.ErrInvalidSelection) ||
		errors.Is(err, service.ErrUnknownSubject) ||
		errors.Is(err, repository.ErrSessionNotCompleted) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, repository.ErrSessionCompleted) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in SessionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
