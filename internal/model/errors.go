package model

import "errors"

var (
	ErrNoSelections      = errors.New("image has no selections")
	ErrSelectionNotFound = errors.New("selection not found")
	ErrIndexOutOfRange   = errors.New("selection index out of range")
	ErrImageNotFound     = errors.New("image not found")
)
