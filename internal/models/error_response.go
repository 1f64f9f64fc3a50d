package models

import "net/http"

type ErrorKind string // Вид бизнес-ошибки

const (
	ValidationError ErrorKind = "ValidationError" // Некорректные или неполные входные данные
	PermissionError ErrorKind = "PermissionError" // У актора нет нужной роли
	StateError      ErrorKind = "StateError"      // Операция недопустима в текущем статусе
	ConflictError   ErrorKind = "ConflictError"   // Нарушение уникальности
	NotFoundError   ErrorKind = "NotFoundError"   // Объект не найден
	InternalError   ErrorKind = "InternalError"   // Внутренняя ошибка, наружу без деталей
)

// ErrorResponse описывает ошибку с видом, кодом и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
}

// NewErrorResponse создает новую ошибку с видом, кодом и сообщением.
func NewErrorResponse(statusCode int, kind ErrorKind, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kind,
		Message:    message,
	}
}

// NewValidationError создает ошибку валидации входных данных.
func NewValidationError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, ValidationError, message)
}

// NewPermissionError создает ошибку недостатка прав.
func NewPermissionError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusForbidden, PermissionError, message)
}

// NewStateError создает ошибку недопустимого состояния.
func NewStateError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusConflict, StateError, message)
}

// NewConflictError создает ошибку нарушения уникальности.
func NewConflictError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusConflict, ConflictError, message)
}

// NewNotFoundError создает ошибку отсутствия объекта.
func NewNotFoundError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusNotFound, NotFoundError, message)
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}
