package errors

import "errors"

var (
	// ErrCacheMiss возвращается, когда значение не найдено в кэше
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrNotFound возвращается хранилищем, когда запись отсутствует
	ErrNotFound = errors.New("storage: record not found")
)
