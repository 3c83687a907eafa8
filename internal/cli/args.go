package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/sashko-guz/splitter/internal/config"
	"github.com/sashko-guz/splitter/internal/preset"
)

var ErrUsage = errors.New("usage error")

// Options is the parsed command line
type Options struct {
	Images     []string
	Presets    []preset.Preset
	OutputDir  string
	List       bool
	DryRun     bool
	Verbose    bool
	Version    bool
	Quality    int
	Lossless   bool
	Backend    string
	Workers    int
	ClearCache bool
}

func isSelectionFlag(arg string) bool {
	switch arg {
	case "-s", "--s", "-selection", "--selection":
		return true
	}
	return false
}

// SplitSelectionArgs lifts every "--selection X1 Y1 X2 Y2" (or -s) out of args
// and returns the remaining arguments with the parsed presets. Tokens such as
// "-100" would otherwise be taken for flags. Arguments after "--" are left alone.
func SplitSelectionArgs(args []string) ([]string, []preset.Preset, error) {
	rest := make([]string, 0, len(args))
	var presets []preset.Preset

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		if !isSelectionFlag(arg) {
			rest = append(rest, arg)
			continue
		}

		if len(args)-i-1 < 4 {
			return nil, nil, fmt.Errorf("%w: %s needs 4 values X1 Y1 X2 Y2, got %d", ErrUsage, arg, len(args)-i-1)
		}
		p, err := preset.Parse(args[i+1 : i+5]...)
		if err != nil {
			return nil, nil, fmt.Errorf("%s %s: %w", arg, strings.Join(args[i+1:i+5], " "), err)
		}
		presets = append(presets, p)
		i += 4
	}
	return rest, presets, nil
}

// Parse reads argv (without the program name). Defaults come from cfg.
func Parse(args []string, cfg *config.Config, output io.Writer) (*Options, error) {
	rest, presets, err := SplitSelectionArgs(args)
	if err != nil {
		return nil, err
	}

	opts := &Options{Presets: presets}

	fs := flag.NewFlagSet("splitter", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.OutputDir, "o", "", "output directory for every image (default: next to each source)")
	fs.StringVar(&opts.OutputDir, "output-dir", "", "same as -o")
	fs.BoolVar(&opts.List, "list", false, "print images and selections as tables")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "resolve and list selections without writing files")
	fs.BoolVar(&opts.Verbose, "V", false, "show debug messages")
	fs.BoolVar(&opts.Verbose, "verbose", false, "same as -V")
	fs.BoolVar(&opts.Version, "v", false, "print version and exit")
	fs.BoolVar(&opts.Version, "version", false, "same as -v")
	fs.IntVar(&opts.Quality, "quality", cfg.OutputQuality, "JPEG/WebP output quality (1-100)")
	fs.BoolVar(&opts.Lossless, "lossless", cfg.OutputLossless, "WebP lossless output")
	fs.StringVar(&opts.Backend, "backend", cfg.ProcessorBackend, "cropping backend: imaging|vips (vips cannot write bmp)")
	fs.IntVar(&opts.Workers, "workers", cfg.Workers, "images exported in parallel")
	fs.BoolVar(&opts.ClearCache, "clear-cache", false, "empty storage caches before reading")
	fs.Usage = func() {
		fmt.Fprintf(output, "usage: splitter [flags] [--selection X1 Y1 X2 Y2]... IMAGE...\n\n")
		fmt.Fprintf(output, "Cuts every IMAGE into one file per selection, named <stem>_<NNNNN><suffix>.\n")
		fmt.Fprintf(output, "Coordinates are pixels or percentages (50%%). Negative or -0 first coordinates count\n")
		fmt.Fprintf(output, "from the right/bottom border; signed second coordinates are relative to the first.\n\n")
		fs.PrintDefaults()
	}

	// flag stops at the first positional argument, so images may be interleaved with flags
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		remaining := fs.Args()
		consumed := len(rest) - len(remaining)
		if consumed > 0 && rest[consumed-1] == "--" {
			opts.Images = append(opts.Images, remaining...)
			break
		}
		if len(remaining) == 0 {
			break
		}
		opts.Images = append(opts.Images, remaining[0])
		rest = remaining[1:]
	}

	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, fmt.Errorf("%w: -quality must be between 1 and 100, got %d", ErrUsage, opts.Quality)
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("%w: -workers must be positive, got %d", ErrUsage, opts.Workers)
	}
	if opts.DryRun {
		opts.List = true
	}
	return opts, nil
}
