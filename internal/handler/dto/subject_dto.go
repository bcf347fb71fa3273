package dto

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// SubjectResponse представляет предмет в формате для ответа клиенту
type SubjectResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewSubjectListResponse создает DTO для списка предметов
func NewSubjectListResponse(subjects []entity.Subject) []SubjectResponse {
	resp := make([]SubjectResponse, len(subjects))
	for i, subject := range subjects {
		resp[i] = SubjectResponse{ID: subject.ID, Name: subject.Name}
	}
	return resp
}

// PreferenceResponse представляет предпочтения пользователя
type PreferenceResponse struct {
	SelectedSubjects []SubjectResponse `json:"selected_subjects"`
}

// NewPreferenceResponse создает DTO для предпочтений
func NewPreferenceResponse(preference *entity.SubjectPreference) *PreferenceResponse {
	return &PreferenceResponse{
		SelectedSubjects: NewSubjectListResponse(preference.Subjects),
	}
}
