package model

import "errors"

var (
	// ErrValidation возвращается при некорректных или отсутствующих входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound возвращается, если товар или покупка не найдены.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCode возвращается, если код скидки не существует.
	ErrInvalidCode = errors.New("invalid discount code")
	// ErrCapacityExceeded возвращается, если на событии не осталось мест.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidTransition возвращается при попытке завершить покупку не в статусе pending.
	ErrInvalidTransition = errors.New("invalid payment status transition")
	// ErrStoreUnavailable оборачивает ошибки ввода-вывода хранилища.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnauthorized возвращается, если операция требует прав администратора.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict возвращается при попытке создать дубликат.
	ErrConflict = errors.New("already exists")
)
