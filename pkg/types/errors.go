package types

import "errors"

// Store errors.
var (
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidID           = errors.New("invalid entity ID")
	ErrInvalidData         = errors.New("invalid entity data")
	ErrTableNotFound       = errors.New("table not found")
	ErrInvalidFilter       = errors.New("invalid filter")
	ErrConstraintViolation = errors.New("storage constraint violation")
	ErrStoreClosed         = errors.New("store is closed")
	ErrAlreadyAttached     = errors.New("store is already attached")
)

// Entity errors.
var (
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidEmotion = errors.New("invalid emotion")
	ErrEmptyText      = errors.New("text must not be empty")
)
