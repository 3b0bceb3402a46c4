package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for nil or incomplete records.
	ErrInvalidInput = errors.New("invalid input")
)
