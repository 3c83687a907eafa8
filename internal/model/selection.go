package model

import (
	"fmt"

	"github.com/sashko-guz/splitter/internal/geometry"
)

// ImageID is the arena handle of an Image inside a Session
type ImageID uint64

// SelectionID identifies a Selection within its owning Image
type SelectionID uint64

// Selection is a region of an image. Owner is a handle, resolved through
// Session.Owner or compared against Image.ID.
type Selection struct {
	ID    SelectionID
	Owner ImageID
	Rect  geometry.Rectangle
}

func (s Selection) String() string {
	return fmt.Sprintf("Selection(%d, %s)", s.ID, s.Rect)
}
