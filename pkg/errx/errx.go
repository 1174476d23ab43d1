package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	SystemErrorMessage   = "internal server error"
	BadRequestMessage    = "invalid request"
	RedisErrorMessage    = "redis operation failed"
	RedisNotFoundMessage = "redis key not found"
)

// AppError carries an HTTP status and a client-safe message alongside the cause.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

func BadRequest(err error) *AppError {
	msg := BadRequestMessage
	if err != nil {
		msg = err.Error()
	}
	return New(err, http.StatusBadRequest, msg)
}

// WrapRedis maps go-redis failures onto AppError. redis.Nil becomes 404.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// Resolve returns the status and message to expose for err.
func Resolve(err error) (int, string) {
	var app *AppError
	if errors.As(err, &app) {
		return app.Status, app.Message
	}
	return http.StatusInternalServerError, SystemErrorMessage
}
