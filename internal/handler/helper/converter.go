package helper

import (
	"github.com/yourusername/examhall-api/internal/domain/entity"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// ConvertOptionsToObjects разворачивает четыре колонки вариантов вопроса
// в массив объектов {letter, text} в порядке A–D
func ConvertOptionsToObjects(q *entity.Question) []QuestionOption {
	converted := make([]QuestionOption, 0, len(entity.OptionLetters))
	for _, letter := range entity.OptionLetters {
		converted = append(converted, QuestionOption{
			Letter: letter,
			Text:   q.OptionText(letter),
		})
	}
	return converted
}
