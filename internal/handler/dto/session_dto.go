package dto

import (
	"time"

	"github.com/yourusername/examhall-api/internal/domain/entity"
	"github.com/yourusername/examhall-api/internal/handler/helper"
	"github.com/yourusername/examhall-api/internal/service"
)

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// Правильный вариант сюда не сериализуется — он виден только
// в разборе проваленных вопросов завершенной сессии.
type QuestionResponse struct {
	ID           uint                    `json:"id"`
	WorksheetID  uint                    `json:"worksheet_id"`
	Text         string                  `json:"text"`
	Options      []helper.QuestionOption `json:"options"`
	DisplayOrder int                     `json:"display_order"`
	Image        string                  `json:"image,omitempty"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:           q.ID,
		WorksheetID:  q.WorksheetID,
		Text:         q.Text,
		Options:      helper.ConvertOptionsToObjects(q),
		DisplayOrder: q.DisplayOrder,
		Image:        q.Image,
	}
}

// WorksheetAssignmentResponse описывает выбранный worksheet предмета
type WorksheetAssignmentResponse struct {
	WorksheetID    *uint              `json:"worksheet_id"`
	WorksheetTitle string             `json:"worksheet_title"`
	Questions      []QuestionResponse `json:"questions"`
}

// SubjectAssignmentResponse описывает один предмет сессии с его worksheet'ом
type SubjectAssignmentResponse struct {
	ID         uint                          `json:"id"`
	Name       string                        `json:"name"`
	Worksheets []WorksheetAssignmentResponse `json:"worksheets"`
}

// StartSessionResponse — ответ на создание сессии
type StartSessionResponse struct {
	TestSessionID       uint                        `json:"test_session_id"`
	Subjects            []SubjectAssignmentResponse `json:"subjects"`
	AssignedQuestionIDs []uint                      `json:"assigned_question_ids"`
}

// NewStartSessionResponse создает DTO для собранной сессии
func NewStartSessionResponse(started *service.StartedSession) *StartSessionResponse {
	resp := &StartSessionResponse{
		TestSessionID:       started.Session.ID,
		AssignedQuestionIDs: started.AssignedQuestionIDs,
	}
	if resp.AssignedQuestionIDs == nil {
		resp.AssignedQuestionIDs = []uint{}
	}

	for _, assignment := range started.Assignments {
		worksheet := WorksheetAssignmentResponse{Questions: []QuestionResponse{}}
		if assignment.Worksheet != nil {
			id := assignment.Worksheet.ID
			worksheet.WorksheetID = &id
			worksheet.WorksheetTitle = assignment.Worksheet.Name
			for i := range assignment.Questions {
				worksheet.Questions = append(worksheet.Questions, NewQuestionResponse(&assignment.Questions[i]))
			}
		} else {
			worksheet.WorksheetTitle = "No worksheets available"
		}

		resp.Subjects = append(resp.Subjects, SubjectAssignmentResponse{
			ID:         assignment.Subject.ID,
			Name:       assignment.Subject.Name,
			Worksheets: []WorksheetAssignmentResponse{worksheet},
		})
	}
	return resp
}

// SubmitResponsesResponse — построчный итог пакетной отправки
type SubmitResponsesResponse struct {
	Detail              string `json:"detail"`
	AcceptedQuestionIDs []uint `json:"accepted_question_ids"`
	RejectedQuestionIDs []uint `json:"rejected_question_ids"`
	Finalized           bool   `json:"finalized"`
}

// NewSubmitResponsesResponse создает DTO для итога отправки
func NewSubmitResponsesResponse(outcome *service.SubmitOutcome) *SubmitResponsesResponse {
	resp := &SubmitResponsesResponse{
		Detail:              "Test session responses submitted successfully.",
		AcceptedQuestionIDs: outcome.AcceptedQuestionIDs,
		RejectedQuestionIDs: outcome.RejectedQuestionIDs,
		Finalized:           outcome.Finalized,
	}
	if resp.AcceptedQuestionIDs == nil {
		resp.AcceptedQuestionIDs = []uint{}
	}
	if resp.RejectedQuestionIDs == nil {
		resp.RejectedQuestionIDs = []uint{}
	}
	return resp
}

// PerformanceResponse — сводка успеваемости пользователя
type PerformanceResponse struct {
	SessionCount int                          `json:"session_count"`
	AverageScore float64                      `json:"average_score"`
	AverageSpeed float64                      `json:"average_speed"`
	Subjects     []service.SubjectPerformance `json:"subjects"`
	History      []service.PerformanceEntry   `json:"history"`
}

// NewPerformanceResponse создает DTO для сводки успеваемости
func NewPerformanceResponse(summary *service.PerformanceSummary) *PerformanceResponse {
	resp := &PerformanceResponse{
		SessionCount: summary.SessionCount,
		AverageScore: summary.AverageScore,
		AverageSpeed: summary.AverageSpeed,
		Subjects:     summary.Subjects,
		History:      summary.History,
	}
	if resp.Subjects == nil {
		resp.Subjects = []service.SubjectPerformance{}
	}
	if resp.History == nil {
		resp.History = []service.PerformanceEntry{}
	}
	return resp
}

// SessionResultsResponse — результаты завершенной сессии с разбором
// проваленных вопросов по предметам
type SessionResultsResponse struct {
	TestSessionID   uint                                `json:"test_session_id"`
	Subjects        []string                            `json:"subjects"`
	StartTime       time.Time                           `json:"start_time"`
	EndTime         *time.Time                          `json:"end_time"`
	Results         []service.SubjectResult             `json:"results"`
	FailedQuestions map[string][]service.FailedQuestion `json:"failed_questions_by_subject"`
}

// NewSessionResultsResponse создает DTO для результатов сессии
func NewSessionResultsResponse(results *service.SessionResults) *SessionResultsResponse {
	resp := &SessionResultsResponse{
		TestSessionID:   results.TestSessionID,
		Subjects:        results.Subjects,
		StartTime:       results.StartTime,
		EndTime:         results.EndTime,
		Results:         results.Results,
		FailedQuestions: results.FailedQuestions,
	}
	if resp.Subjects == nil {
		resp.Subjects = []string{}
	}
	if resp.Results == nil {
		resp.Results = []service.SubjectResult{}
	}
	return resp
}
