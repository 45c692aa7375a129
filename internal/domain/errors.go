package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeValidation  ErrCode = "validation_error"
	CodeNotFound    ErrCode = "not_found"
	CodeForbidden   ErrCode = "forbidden"
	CodeConflict    ErrCode = "conflict"
	CodeIntegration ErrCode = "integration_error"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func (e *AppError) Unwrap() error { return e.Err }

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrNotFound(msg string) error    { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error   { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrConflict(msg string) error    { return &AppError{Code: CodeConflict, Message: msg} }
func ErrIntegration(msg string) error { return &AppError{Code: CodeIntegration, Message: msg} }

// WrapIntegration marks a collaborator failure, keeping the cause for errors.Is.
func WrapIntegration(msg string, cause error) error {
	return &AppError{Code: CodeIntegration, Message: msg, Err: cause}
}

// CodeOf returns the AppError code carried by err, or "" for foreign errors.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
