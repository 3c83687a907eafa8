package preset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformed is returned for a coordinate token that does not match [+|-]<integer> or [+|-]<number>%
	ErrMalformed = errors.New("malformed coordinate")

	// ErrInvalidDimensions is returned when resolving against a non-positive image size
	ErrInvalidDimensions = errors.New("invalid image dimensions")

	// ErrNotRepresentable is returned when a rectangle cannot be written as an absolute descriptor
	ErrNotRepresentable = errors.New("rectangle not representable as a selection")
)

// maxMagnitude is the exclusive bound on token magnitudes, well below int64 overflow once scaled and offset
const maxMagnitude = 1 << 31

// Token is one parsed coordinate of a selection descriptor.
// Raw keeps the original text: "-0" and "0" parse to the same number but anchor differently.
type Token struct {
	Raw     string
	Sign    byte // '+', '-' or 0 when no sign was written
	Percent bool

	integer int64   // value including sign, when !Percent
	percent float64 // value including sign, when Percent
}

// ParseToken validates a single coordinate token
func ParseToken(raw string) (Token, error) {
	tok := Token{Raw: raw}
	body := raw

	if body == "" {
		return Token{}, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	if body[0] == '+' || body[0] == '-' {
		tok.Sign = body[0]
		body = body[1:]
	}

	if strings.HasSuffix(body, "%") {
		tok.Percent = true
		body = body[:len(body)-1]
	}

	if body == "" {
		return Token{}, fmt.Errorf("%w: %q has no digits", ErrMalformed, raw)
	}

	digits, dots := 0, 0
	for _, ch := range body {
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '.' && tok.Percent:
			dots++
		default:
			return Token{}, fmt.Errorf("%w: %q must be an integer or a percentage", ErrMalformed, raw)
		}
	}
	if digits == 0 || dots > 1 {
		return Token{}, fmt.Errorf("%w: %q is not a number", ErrMalformed, raw)
	}

	if tok.Percent {
		v, err := strconv.ParseFloat(body, 64)
		if err != nil || math.IsInf(v, 0) || v >= maxMagnitude {
			return Token{}, fmt.Errorf("%w: %q is out of range", ErrMalformed, raw)
		}
		if tok.Sign == '-' {
			v = -v
		}
		tok.percent = v
		return tok, nil
	}

	v, err := strconv.ParseInt(body, 10, 64)
	if err != nil || v >= maxMagnitude {
		return Token{}, fmt.Errorf("%w: %q is out of range", ErrMalformed, raw)
	}
	if tok.Sign == '-' {
		v = -v
	}
	tok.integer = v
	return tok, nil
}

// Value returns the signed pixel magnitude of the token for an image dimension.
// Percentages are scaled and rounded half to even; integers are returned unchanged.
func (t Token) Value(dimension int) int {
	if t.Percent {
		return int(math.RoundToEven(float64(dimension) * t.percent / 100))
	}
	return int(t.integer)
}

// negativeZero reports whether the token was written as "-0" (or "-0%", "-0.0%", ...)
func (t Token) negativeZero(value int) bool {
	return value == 0 && t.Sign == '-'
}

// resolveFirst resolves a first-anchor coordinate.
// Negative values, and a literal negative zero, count back from the far border.
func (t Token) resolveFirst(dimension int) int {
	v := t.Value(dimension)
	if v < 0 || t.negativeZero(v) {
		// v is non-positive here, so this subtracts from the border
		v = dimension + v
	}
	return v
}

// resolveSecond resolves a second-anchor coordinate.
// Signed values (and any negative value) are offsets from the first anchor;
// unsigned non-negative values are absolute.
func (t Token) resolveSecond(dimension, anchor int) int {
	v := t.Value(dimension)
	if v < 0 || t.Sign == '+' || t.negativeZero(v) {
		v = anchor + v
	}
	return v
}

func (t Token) String() string {
	return t.Raw
}
