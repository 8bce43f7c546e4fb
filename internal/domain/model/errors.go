package model

import "errors"

// Sentinel-ошибки доменного уровня. Проверяются через errors.Is.
var (
	// ErrNotFound — запись с указанным id не найдена
	ErrNotFound = errors.New("not found")
	// ErrInvalidCollection — имя коллекции вне allow-list
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrValidation — некорректные входные данные
	ErrValidation = errors.New("validation error")
)
