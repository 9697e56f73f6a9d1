package core

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)
