package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashko-guz/splitter/internal/config"
	"github.com/sashko-guz/splitter/internal/model"
	"github.com/sashko-guz/splitter/internal/preset"
)

func testConfig() *config.Config {
	return &config.Config{OutputQuality: 90, ProcessorBackend: "imaging", Workers: 4}
}

func TestSplitSelectionArgs(t *testing.T) {
	rest, presets, err := SplitSelectionArgs([]string{
		"-V", "--selection", "-100", "0", "+50", "50%", "a.png", "-s", "0", "0", "-0", "-0", "b.png",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"-V", "a.png", "b.png"}, rest)
	assert.Equal(t, []preset.Preset{
		preset.MustParse("-100", "0", "+50", "50%"),
		preset.MustParse("0", "0", "-0", "-0"),
	}, presets)
}

func TestSplitSelectionArgsStopsAtDoubleDash(t *testing.T) {
	rest, presets, err := SplitSelectionArgs([]string{"a.png", "--", "-s", "b.png"})
	require.NoError(t, err)
	assert.Empty(t, presets)
	assert.Equal(t, []string{"a.png", "--", "-s", "b.png"}, rest)
}

func TestSplitSelectionArgsErrors(t *testing.T) {
	_, _, err := SplitSelectionArgs([]string{"-s", "1", "2", "3"})
	assert.ErrorIs(t, err, ErrUsage)

	_, _, err = SplitSelectionArgs([]string{"--selection", "1", "2", "x", "4"})
	assert.ErrorIs(t, err, preset.ErrMalformed)
}

func TestParse(t *testing.T) {
	opts, err := Parse([]string{
		"a.png", "-o", "/out", "-s", "0", "0", "50%", "50%", "-quality", "75", "b.png", "-dry-run",
	}, testConfig(), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.png", "b.png"}, opts.Images)
	assert.Equal(t, "/out", opts.OutputDir)
	assert.Equal(t, 75, opts.Quality)
	assert.True(t, opts.DryRun)
	assert.True(t, opts.List)
	assert.Equal(t, "imaging", opts.Backend)
	assert.Equal(t, 4, opts.Workers)
	require.Len(t, opts.Presets, 1)
}

func TestParseAliases(t *testing.T) {
	opts, err := Parse([]string{"-verbose", "-output-dir", "out", "-backend", "vips", "x.jpg"}, testConfig(), io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.Verbose)
	assert.Equal(t, "out", opts.OutputDir)
	assert.Equal(t, "vips", opts.Backend)
	assert.False(t, opts.List)
}

func TestParseVersionAndCacheFlags(t *testing.T) {
	opts, err := Parse([]string{"-v"}, testConfig(), io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.Version)
	assert.False(t, opts.Verbose)

	opts, err = Parse([]string{"-version", "-clear-cache", "a.png"}, testConfig(), io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.Version)
	assert.True(t, opts.ClearCache)
}

func TestParseDoubleDash(t *testing.T) {
	opts, err := Parse([]string{"-V", "a.png", "--", "-weird.png"}, testConfig(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "-weird.png"}, opts.Images)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]string{"-quality", "0"}, testConfig(), io.Discard)
	assert.ErrorIs(t, err, ErrUsage)

	_, err = Parse([]string{"-workers", "0"}, testConfig(), io.Discard)
	assert.ErrorIs(t, err, ErrUsage)

	_, err = Parse([]string{"-nope"}, testConfig(), io.Discard)
	assert.Error(t, err)

	var out bytes.Buffer
	_, err = Parse([]string{"-h"}, testConfig(), &out)
	assert.True(t, errors.Is(err, flag.ErrHelp))
	assert.Contains(t, out.String(), "--selection X1 Y1 X2 Y2")
}

type dims map[string][2]int

func (d dims) Dimensions(_ context.Context, key string) (int, int, error) {
	s := d[key]
	return s[0], s[1], nil
}

func TestRenderSession(t *testing.T) {
	ctx := context.Background()
	s := model.NewSession(dims{"/in/a.png": {100, 50}, "/in/b.png": {10, 10}}, nil,
		preset.MustParse("0", "0", "50%", "100%"),
	)
	a, err := s.Open(ctx, "/in/a.png")
	require.NoError(t, err)
	b, err := s.Open(ctx, "/in/b.png")
	require.NoError(t, err)
	_, err = b.RemoveSelectionAt(1)
	require.NoError(t, err)

	var out bytes.Buffer
	err = RenderSession(&out,
		model.NewImageTable(ctx, s),
		[]*model.SelectionTable{model.NewSelectionTable(a), model.NewSelectionTable(b)},
		[]string{a.Path, b.Path},
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "IMAGE      SIZE    SELECTIONS  OUTPUT DIR", lines[0])
	assert.Equal(t, "/in/a.png  100x50  1           /in", lines[1])
	assert.Equal(t, "/in/b.png  10x10   0           /in", lines[2])
	assert.Contains(t, out.String(), "a_00001.png")
	assert.Contains(t, out.String(), "(no selections)")

	var sel bytes.Buffer
	require.NoError(t, RenderTable(&sel, model.NewSelectionTable(a)))
	assert.Equal(t,
		"#  X1  Y1  X2  Y2  WIDTH  HEIGHT  OUTPUT\n"+
			"1  0   0   50  50  50     50      a_00001.png\n",
		sel.String())
}
