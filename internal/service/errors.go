package service

import "errors"

// Определяем кастомные ошибки для сервисов
var (
	// ErrNoPreference означает, что пользователь еще не выбрал предметы.
	ErrNoPreference = errors.New("user has not selected subject preferences")

	// ErrInvalidSelection означает, что выбор предметов нарушает правила:
	// неверное количество, отсутствует обязательный предмет или предмет
	// не входит в предпочтения пользователя.
	ErrInvalidSelection = errors.New("invalid subject selection")

	// ErrUnknownSubject означает, что одно или несколько имен предметов
	// не найдены в каталоге.
	ErrUnknownSubject = errors.New("unknown subject")
)
