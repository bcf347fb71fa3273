package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем каталога и результатов
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
	// DeleteIfEquals удаляет ключ, только если его текущее значение совпадает
	// с переданным. Возвращает true, если ключ был удален. Парная операция
	// к SetNX: блокировку снимает только её владелец по своему токену.
	DeleteIfEquals(key string, value interface{}) (bool, error)
}
