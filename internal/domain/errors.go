package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy the HTTP layer maps to status codes.
// Services wrap these with context via fmt.Errorf("...: %w", Err...); callers
// test with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	ErrForbidden = errors.New("forbidden")
	ErrExpired   = errors.New("expired")
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

func Invalidf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalid)...)
}

func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

func Expiredf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrExpired)...)
}
