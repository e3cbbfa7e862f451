// internal/app/system/apperr/apperr.go

// Package apperr defines the status-coded errors the API surfaces to
// clients. Every domain failure is one of these values; anything else is
// rendered as a generic system error so internal detail never leaks.
package apperr

import (
	"errors"
	"net/http"
)

// Client-facing message keys. The wording is part of the API contract and
// matches what existing clients already display.
const (
	MsgUserAlreadyExists  = "User already exists"
	MsgUserNotExists      = "User not found"
	MsgUserNotVerified    = "Email is not verified yet. Please check your email."
	MsgInvalidOTP         = "Invalid OTP"
	MsgOTPExpired         = "OTP has expired"
	MsgInvalidPassword    = "Invalid password"
	MsgInvalidOldPassword = "Invalid old password"
	MsgInvalidToken       = "Invalid token"
	MsgTokenExpired       = "Token has expired"
	MsgUnauthorized       = "Unauthorized user"
	MsgSystemError        = "System error"
)

// Error is a domain failure carrying the HTTP status it renders with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New constructs a status-coded error.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

var (
	ErrUserExists         = New(http.StatusConflict, MsgUserAlreadyExists)
	ErrUserNotFound       = New(http.StatusNotFound, MsgUserNotExists)
	ErrNotVerified        = New(http.StatusNotAcceptable, MsgUserNotVerified)
	ErrResetNotVerified   = New(http.StatusConflict, MsgUserNotVerified)
	ErrInvalidOTP         = New(http.StatusNotFound, MsgInvalidOTP)
	ErrOTPExpired         = New(http.StatusConflict, MsgOTPExpired)
	ErrInvalidPassword    = New(http.StatusConflict, MsgInvalidPassword)
	ErrInvalidOldPassword = New(http.StatusConflict, MsgInvalidOldPassword)
	ErrInvalidToken       = New(http.StatusUnauthorized, MsgInvalidToken)
	ErrTokenExpired       = New(http.StatusUnauthorized, MsgTokenExpired)
	ErrUnauthorized       = New(http.StatusUnauthorized, MsgUnauthorized)
	ErrSystem             = New(http.StatusInternalServerError, MsgSystemError)
)

// From maps any error onto a client-safe *Error. Typed domain errors pass
// through unchanged; everything else collapses to ErrSystem.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrSystem
}
