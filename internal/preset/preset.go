// Package preset parses selection descriptors and resolves them against image dimensions.
//
// A descriptor is four tokens x1 y1 x2 y2. Each token is [+|-]<integer> or [+|-]<number>%,
// where percentages scale the matching image dimension. The first anchor (x1, y1) is absolute,
// or measured from the right/bottom border when negative; "-0" means the border itself.
// The second anchor (x2, y2) is absolute when unsigned, and relative to the first anchor when
// it carries a "+" or resolves to a negative value or to a literal "-0".
//
// Resolution does not clamp. Coordinates outside the image are returned as computed.
package preset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sashko-guz/splitter/internal/geometry"
)

// Preset is a selection descriptor supplied before the image size is known
type Preset struct {
	X1, Y1, X2, Y2 string
}

// Parse builds a Preset from exactly four tokens, validating each one
func Parse(tokens ...string) (Preset, error) {
	if len(tokens) != 4 {
		return Preset{}, fmt.Errorf("%w: selection expects 4 coordinates (x1 y1 x2 y2), got %d", ErrMalformed, len(tokens))
	}

	p := Preset{X1: tokens[0], Y1: tokens[1], X2: tokens[2], Y2: tokens[3]}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(tokens ...string) Preset {
	p, err := Parse(tokens...)
	if err != nil {
		panic(err)
	}
	return p
}

// FromRectangle synthesizes an absolute descriptor that resolves back to r on any image.
// Rectangles with a negative top-left corner have no absolute spelling, since a negative
// first anchor counts from the far border.
func FromRectangle(r geometry.Rectangle) (Preset, error) {
	tl, br := r.TopLeft(), r.BottomRight()
	if tl.X < 0 || tl.Y < 0 {
		return Preset{}, fmt.Errorf("%w: %s has negative coordinates", ErrNotRepresentable, r)
	}
	return Preset{
		X1: strconv.Itoa(tl.X),
		Y1: strconv.Itoa(tl.Y),
		X2: strconv.Itoa(br.X),
		Y2: strconv.Itoa(br.Y),
	}, nil
}

func (p Preset) tokens() [4]string {
	return [4]string{p.X1, p.Y1, p.X2, p.Y2}
}

// Validate checks every token against the grammar without resolving
func (p Preset) Validate() error {
	for i, raw := range p.tokens() {
		if _, err := ParseToken(raw); err != nil {
			return fmt.Errorf("coordinate %d: %w", i+1, err)
		}
	}
	return nil
}

// Resolve converts the descriptor into a normalized rectangle in the pixel space of an
// image with the given size.
func (p Preset) Resolve(width, height int) (geometry.Rectangle, error) {
	if width <= 0 || height <= 0 {
		return geometry.Rectangle{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	var toks [4]Token
	for i, raw := range p.tokens() {
		tok, err := ParseToken(raw)
		if err != nil {
			return geometry.Rectangle{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		toks[i] = tok
	}

	x1 := toks[0].resolveFirst(width)
	y1 := toks[1].resolveFirst(height)
	x2 := toks[2].resolveSecond(width, x1)
	y2 := toks[3].resolveSecond(height, y1)

	return geometry.NewRectangle(geometry.Pt(x1, y1), geometry.Pt(x2, y2)), nil
}

func (p Preset) String() string {
	t := p.tokens()
	return strings.Join(t[:], " ")
}
