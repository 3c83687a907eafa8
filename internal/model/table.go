package model

import (
	"context"
	"fmt"
	"strconv"
)

// Role selects which rendering of a cell is requested
type Role int

const (
	RoleDisplay Role = iota
	RoleToolTip
)

// TableSource is read-only row/column access for list views
type TableSource interface {
	RowCount() int
	ColumnCount() int
	Header(col int) string
	// ValueAt returns false when the cell has nothing for role
	ValueAt(row, col int, role Role) (string, bool)
}

var imageColumns = []string{"IMAGE", "SIZE", "SELECTIONS", "OUTPUT DIR"}

// ImageTable lists a snapshot of the open images
type ImageTable struct {
	images []*Image
	sizes  [][2]int
}

// NewImageTable snapshots the session. Sizes come from the cache filled on Open.
func NewImageTable(ctx context.Context, s *Session) *ImageTable {
	images := s.Images()
	t := &ImageTable{images: images, sizes: make([][2]int, len(images))}
	for i, img := range images {
		if w, h, err := img.Size(ctx); err == nil {
			t.sizes[i] = [2]int{w, h}
		}
	}
	return t
}

func (t *ImageTable) RowCount() int    { return len(t.images) }
func (t *ImageTable) ColumnCount() int { return len(imageColumns) }

func (t *ImageTable) Header(col int) string {
	if col < 0 || col >= len(imageColumns) {
		return ""
	}
	return imageColumns[col]
}

func (t *ImageTable) ValueAt(row, col int, role Role) (string, bool) {
	if row < 0 || row >= len(t.images) {
		return "", false
	}
	img := t.images[row]

	switch role {
	case RoleDisplay:
		switch col {
		case 0:
			return img.Path, true
		case 1:
			return fmt.Sprintf("%dx%d", t.sizes[row][0], t.sizes[row][1]), true
		case 2:
			return strconv.Itoa(img.SelectionCount()), true
		case 3:
			return img.OutputDir(), true
		}
	case RoleToolTip:
		if col == 0 {
			return img.String(), true
		}
	}
	return "", false
}

var selectionColumns = []string{"#", "X1", "Y1", "X2", "Y2", "WIDTH", "HEIGHT", "OUTPUT"}

// SelectionTable lists the selections of one image in output order
type SelectionTable struct {
	image      *Image
	selections []Selection
}

func NewSelectionTable(img *Image) *SelectionTable {
	return &SelectionTable{image: img, selections: img.Selections()}
}

func (t *SelectionTable) RowCount() int    { return len(t.selections) }
func (t *SelectionTable) ColumnCount() int { return len(selectionColumns) }

func (t *SelectionTable) Header(col int) string {
	if col < 0 || col >= len(selectionColumns) {
		return ""
	}
	return selectionColumns[col]
}

func (t *SelectionTable) ValueAt(row, col int, role Role) (string, bool) {
	if row < 0 || row >= len(t.selections) {
		return "", false
	}
	sel := t.selections[row]
	tl, br := sel.Rect.TopLeft(), sel.Rect.BottomRight()
	index := row + 1

	switch role {
	case RoleDisplay:
		switch col {
		case 0:
			return strconv.Itoa(index), true
		case 1:
			return strconv.Itoa(tl.X), true
		case 2:
			return strconv.Itoa(tl.Y), true
		case 3:
			return strconv.Itoa(br.X), true
		case 4:
			return strconv.Itoa(br.Y), true
		case 5:
			return strconv.Itoa(sel.Rect.Width()), true
		case 6:
			return strconv.Itoa(sel.Rect.Height()), true
		case 7:
			return t.image.OutputName(index), true
		}
	case RoleToolTip:
		switch col {
		case 0:
			return sel.String(), true
		case 7:
			return t.image.OutputPath(index), true
		}
	}
	return "", false
}
