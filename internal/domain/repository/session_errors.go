package repository

import "errors"

var (
	// ErrSessionCompleted означает, что сессия уже завершена и дальнейшие
	// записи ответов или повторное завершение невозможны.
	ErrSessionCompleted = errors.New("test session is already completed")
	// ErrSessionNotCompleted означает, что операция требует завершенной сессии
	// (например, подсчет результатов), а сессия еще открыта.
	ErrSessionNotCompleted = errors.New("test session is not completed yet")
)
