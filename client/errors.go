package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Error is returned for every non-2xx response.
type Error struct {
	StatusCode int
	Message    string
}

func (err *Error) Error() string {
	return fmt.Sprintf("remarks api responded with status %d: %s", err.StatusCode, err.Message)
}

func (err *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return err.StatusCode == http.StatusBadRequest
	case ErrNotFound:
		return err.StatusCode == http.StatusNotFound
	case ErrConflict:
		return err.StatusCode == http.StatusConflict
	case ErrInternal:
		return err.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}
