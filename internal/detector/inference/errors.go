package inference

import (
	"errors"
	"fmt"
)

// ============================================================
// Service errors
// ============================================================

var (
	ErrServiceConfiguration = errors.New("inference service is not configured")
	ErrServiceAuth          = errors.New("inference service rejected the API key")
	ErrServiceAccessDenied  = errors.New("inference service denied access")
	ErrServiceCallFailed    = errors.New("inference service call failed")
)

// ServiceError несёт вид ошибки (один из Err* выше), HTTP статус апстрима и
// текст ошибки, который вернул сервис.
type ServiceError struct {
	Kind    error
	Status  int
	Details string
	Err     error
}

func (e *ServiceError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// kindForStatus: 401 ключ, 403 квота или доступ, прочее общий сбой.
func kindForStatus(status int) error {
	switch status {
	case 401:
		return ErrServiceAuth
	case 403:
		return ErrServiceAccessDenied
	default:
		return ErrServiceCallFailed
	}
}
