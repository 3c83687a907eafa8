package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashko-guz/splitter/internal/geometry"
)

var resolveCases = []struct {
	name          string
	preset        Preset
	width, height int
	expected      geometry.Rectangle
}{
	// positive absolute coordinates
	{"absolute", Preset{"100", "50", "300", "400"}, 1000, 1000, geometry.Rect(100, 50, 300, 400)},
	{"absolute percentage second", Preset{"100", "50", "20%", "400"}, 1000, 1000, geometry.Rect(100, 50, 200, 400)},
	{"all percentages", Preset{"100%", "50%", "10%", "5%"}, 1000, 1000, geometry.Rect(100, 50, 1000, 500)},

	// negative first anchors count from the far border
	{"both first negative", Preset{"-100", "-50", "300", "400"}, 1000, 1000, geometry.Rect(300, 400, 900, 950)},
	{"one first negative", Preset{"-100", "50", "300", "400"}, 1000, 1000, geometry.Rect(300, 50, 900, 400)},
	{"negative percentages", Preset{"-10%", "-50%", "300", "0"}, 1000, 1000, geometry.Rect(300, 0, 900, 500)},

	// negative zero anchors at the far border, plain zero at the near border
	{"negative zero percent", Preset{"-0%", "-100", "300", "0"}, 1000, 1000, geometry.Rect(300, 0, 1000, 900)},
	{"negative zero", Preset{"-0", "-100", "300", "0"}, 1000, 1000, geometry.Rect(300, 0, 1000, 900)},
	{"both negative zero", Preset{"-0", "-0", "50", "50"}, 1000, 1000, geometry.Rect(50, 50, 1000, 1000)},
	{"zero and negative zero", Preset{"0", "-0", "50", "50"}, 1000, 1000, geometry.Rect(0, 50, 50, 1000)},

	// signed second anchors are relative to the first anchor
	{"relative positive", Preset{"100", "50", "+300", "+100"}, 1000, 1000, geometry.Rect(100, 50, 400, 150)},
	{"relative negative", Preset{"500", "400", "-300", "+200"}, 1000, 1000, geometry.Rect(200, 400, 500, 600)},
	{"relative negative percent", Preset{"500", "350", "-10%", "+200"}, 1000, 1000, geometry.Rect(400, 350, 500, 550)},
	{"relative from border anchor", Preset{"-60%", "-400", "-300", "+200"}, 1000, 1000, geometry.Rect(100, 600, 400, 800)},

	// edge cases
	{"second absolute below first", Preset{"500", "500", "100", "100"}, 1000, 1000, geometry.Rect(100, 100, 500, 500)},
	{"second negative zero is the anchor", Preset{"100", "200", "-0", "-0%"}, 1000, 1000, geometry.Rect(100, 200, 100, 200)},
	{"second plus zero is the anchor", Preset{"100", "200", "+0", "+0%"}, 1000, 1000, geometry.Rect(100, 200, 100, 200)},
	{"non-square image", Preset{"-25%", "10%", "+50%", "-0"}, 800, 600, geometry.Rect(600, 60, 1000, 60)},
	{"not clamped", Preset{"-1200", "0", "+5000", "2000"}, 1000, 1000, geometry.Rect(-200, 0, 4800, 2000)},
	{"percentage rounds half to even", Preset{"2.5%", "3.5%", "+0.5%", "-1.5%"}, 100, 100, geometry.Rect(2, 2, 2, 4)},
	{"fractional negative zero percent", Preset{"-0.0%", "+0", "-0", "0"}, 100, 100, geometry.Rect(100, 0, 100, 0)},
}

func TestResolve(t *testing.T) {
	for _, tc := range resolveCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.preset.Resolve(tc.width, tc.height)
			require.NoError(t, err)
			assert.Equal(t, tc.expected.TopLeft(), got.TopLeft())
			assert.Equal(t, tc.expected.BottomRight(), got.BottomRight())
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	p := MustParse("-60%", "-400", "-300", "+200")
	first, err := p.Resolve(1000, 1000)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := p.Resolve(1000, 1000)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestResolveRejectsBadDimensions(t *testing.T) {
	p := MustParse("0", "0", "10", "10")
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, 10}} {
		_, err := p.Resolve(size[0], size[1])
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{"", "+", "-", "%", "-%", "abc", "1.5", "10px", "1e2%", "1.2.3%", "++1", "5 ", " 5", "inf%", "nan%", "0x10", "99999999999999999999", "2147483648", "-2147483648", "2147483648%"}
	for _, raw := range bad {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseToken(raw)
			assert.ErrorIs(t, err, ErrMalformed)

			_, err = Parse("0", "0", raw, "10")
			assert.ErrorIs(t, err, ErrMalformed)

			_, err = Preset{"0", "0", "10", raw}.Resolve(100, 100)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseTokenMagnitudeBound(t *testing.T) {
	tok, err := ParseToken("2147483647")
	require.NoError(t, err)
	assert.Equal(t, 2147483647, tok.Value(10))

	_, err = ParseToken("-2147483647")
	require.NoError(t, err)

	_, err = ParseToken("2147483648")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPresetString(t *testing.T) {
	p := MustParse("-0", "10%", "+5", "-20")
	assert.Equal(t, "-0 10% +5 -20", p.String())
}

func TestParseTokenCount(t *testing.T) {
	_, err := Parse("1", "2", "3")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = Parse("1", "2", "3", "4", "5")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseToken(t *testing.T) {
	tok, err := ParseToken("-0")
	require.NoError(t, err)
	assert.Equal(t, byte('-'), tok.Sign)
	assert.False(t, tok.Percent)
	assert.Equal(t, 0, tok.Value(1000))

	tok, err = ParseToken("+12.5%")
	require.NoError(t, err)
	assert.Equal(t, byte('+'), tok.Sign)
	assert.True(t, tok.Percent)
	assert.Equal(t, 25, tok.Value(200))

	tok, err = ParseToken(".5%")
	require.NoError(t, err)
	assert.Equal(t, 5, tok.Value(1000))

	tok, err = ParseToken("300")
	require.NoError(t, err)
	assert.Equal(t, byte(0), tok.Sign)
	assert.Equal(t, 300, tok.Value(1))
	assert.Equal(t, "300", tok.String())
}

func TestFromRectangleRoundTrip(t *testing.T) {
	r := geometry.Rect(300, 400, 100, 50)
	p, err := FromRectangle(r)
	require.NoError(t, err)
	assert.Equal(t, "100 50 300 400", p.String())

	for _, size := range [][2]int{{1000, 1000}, {50, 50}, {1, 1}} {
		got, err := p.Resolve(size[0], size[1])
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err = FromRectangle(geometry.Rect(-5, 0, 10, 10))
	assert.ErrorIs(t, err, ErrNotRepresentable)
}
