package drivers

import "errors"

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("object not found")
