package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/examhall-api/internal/handler/dto"
	apperrors "github.com/yourusername/examhall-api/internal/pkg/errors"
	"github.com/yourusername/examhall-api/internal/service"
)

// SubjectHandler обрабатывает запросы каталога предметов и предпочтений
type SubjectHandler struct {
	catalogService    *service.CatalogService
	preferenceService *service.PreferenceService
}

// NewSubjectHandler создает новый обработчик предметов
func NewSubjectHandler(
	catalogService *service.CatalogService,
	preferenceService *service.PreferenceService,
) *SubjectHandler {
	return &SubjectHandler{
		catalogService:    catalogService,
		preferenceService: preferenceService,
	}
}

// ListSubjects возвращает полный каталог предметов
func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalogService.ListSubjects()
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSubjectListResponse(subjects))
}

// GetPreferences возвращает выбранные предметы текущего пользователя
func (h *SubjectHandler) GetPreferences(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	preference, err := h.preferenceService.GetPreferences(userID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPreferenceResponse(preference))
}

// SetPreferencesRequest представляет запрос на сохранение предпочтений
type SetPreferencesRequest struct {
	Subjects []string `json:"subjects" binding:"required,min=1"`
}

// SetPreferences сохраняет набор предпочитаемых предметов пользователя.
// Набор заменяется целиком, частичное редактирование не поддерживается.
func (h *SubjectHandler) SetPreferences(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var req SetPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.preferenceService.SetPreferences(userID, req.Subjects); err != nil {
		h.handleSubjectError(c, err)
		return
	}

	preference, err := h.preferenceService.GetPreferences(userID)
	if err != nil {
		h.handleSubjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPreferenceResponse(preference))
}

// handleSubjectError обрабатывает ошибки каталога и предпочтений
func (h *SubjectHandler) handleSubjectError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnknownSubject) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, service.ErrInvalidSelection) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, service.ErrNoPreference) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in SubjectHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
