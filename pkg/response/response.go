package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError is a terminal request failure carrying its HTTP status.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

// NewBadRequest reports malformed input (Validation).
func NewBadRequest(msg string) *AppError {
	return newAppError(http.StatusBadRequest, msg)
}

func NewBadRequestf(format string, args ...interface{}) *AppError {
	return NewBadRequest(fmt.Sprintf(format, args...))
}

// NewUnauthorized reports a missing, invalid or expired credential.
func NewUnauthorized(msg string) *AppError {
	return newAppError(http.StatusUnauthorized, msg)
}

func NewForbidden(msg string) *AppError {
	return newAppError(http.StatusForbidden, msg)
}

func NewForbiddenf(format string, args ...interface{}) *AppError {
	return NewForbidden(fmt.Sprintf(format, args...))
}

func NewNotFound(msg string) *AppError {
	return newAppError(http.StatusNotFound, msg)
}

// NewConflict reports a violated workflow or membership precondition.
func NewConflict(msg string) *AppError {
	return newAppError(http.StatusConflict, msg)
}

func NewServerError(msg string) *AppError {
	return newAppError(http.StatusInternalServerError, msg)
}

// StatusOf returns the HTTP status carried by err, or 500 for foreign errors.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// NoContent sends a 204 with an empty body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response. An *AppError keeps its status and message;
// anything else becomes a generic 500 so internals are not leaked.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Code:    http.StatusInternalServerError,
		Message: "internal server error",
	})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, NewBadRequest(msg))
}

func Unauthorized(c *gin.Context, msg string) {
	Error(c, NewUnauthorized(msg))
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, NewForbidden(msg))
}

func NotFound(c *gin.Context, msg string) {
	Error(c, NewNotFound(msg))
}
