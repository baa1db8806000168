package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// CustomError carries an HTTP status and the text shown to the user.
type CustomError struct {
	Code    int
	Title   string
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Code: %d, Message: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

func (e *CustomError) Unwrap() error { return e.Err }

func New(code int, message string) error {
	return &CustomError{Code: code, Title: "Error", Message: message}
}

// Wrap attaches a user-facing title and message to err.
func Wrap(code int, title, message string, err error) error {
	return &CustomError{Code: code, Title: title, Message: message, Err: err}
}

func BadRequest(message string) error { return New(http.StatusBadRequest, message) }

func NotFound(message string) error { return New(http.StatusNotFound, message) }

// AsCustomError finds a CustomError in err's chain. Other errors become a 500.
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return &CustomError{Code: http.StatusInternalServerError, Title: "Error", Message: err.Error(), Err: err}
}
