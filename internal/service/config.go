package service

import (
	"time"
)

// Config содержит настройки тестового движка
type Config struct {
	// CompulsorySubject — обязательный предмет, присутствующий в любом выборе
	CompulsorySubject string
	// SessionSubjectCount — точное количество предметов в одной сессии
	SessionSubjectCount int
	// PreferenceSubjectCount — точное количество предметов в предпочтениях пользователя
	PreferenceSubjectCount int
	// CatalogCacheTTL — время жизни кеша справочных данных (предметы, worksheet'ы)
	CatalogCacheTTL time.Duration
	// ResultCacheTTL — время жизни кеша собранных результатов сессии
	ResultCacheTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		CompulsorySubject:      "English",
		SessionSubjectCount:    4,
		PreferenceSubjectCount: 5,
		CatalogCacheTTL:        15 * time.Minute,
		ResultCacheTTL:         15 * time.Minute,
	}
}
