// Package repository holds what the store backends share.
package repository

import "errors"

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate key")
