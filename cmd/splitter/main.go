package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cshum/vipsgen/vips"
	"github.com/joho/godotenv"

	"github.com/sashko-guz/splitter/internal/cli"
	"github.com/sashko-guz/splitter/internal/config"
	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/model"
	"github.com/sashko-guz/splitter/internal/processor"
	"github.com/sashko-guz/splitter/internal/storage"
	"github.com/sashko-guz/splitter/internal/worker"
)

var appLog = logger.For("Splitter")

// set with -ldflags "-X main.version=..."
var version = "dev"

const (
	exitOK     = 0
	exitSetup  = 1
	exitExport = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger.SetOutput(os.Stderr)

	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevelFromString(cfg.LogLevel)

	opts, err := cli.Parse(args, cfg, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		appLog.Errorf("%v", err)
		return exitSetup
	}
	if opts.Version {
		fmt.Printf("splitter %s\n", version)
		return exitOK
	}
	if opts.Verbose {
		logger.SetLevel(logger.LevelDebug)
	}
	if len(opts.Images) == 0 {
		appLog.Errorf("No images given, see -h")
		return exitSetup
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cropper, err := processor.New(opts.Backend)
	if err != nil {
		appLog.Errorf("%v", err)
		return exitSetup
	}
	if cropper.Name() == "vips" {
		vips.Startup(&vips.Config{ConcurrencyLevel: cfg.VipsConcurrency})
		defer vips.Shutdown()
		appLog.Debugf("libvips started, concurrency %d", cfg.VipsConcurrency)
	}

	storageConfig, err := storage.LoadStorageConfig(cfg.StorageConfigPath)
	if err != nil {
		appLog.Errorf("Failed to load storage config: %v", err)
		return exitSetup
	}
	if cfg.SourceStorage != "" {
		storageConfig.Source = cfg.SourceStorage
	}
	if cfg.OutputStorage != "" {
		storageConfig.Output = cfg.OutputStorage
	}
	if err := storageConfig.Validate(); err != nil {
		appLog.Errorf("Invalid storage config: %v", err)
		return exitSetup
	}

	storages, err := storage.InitializeStorages(ctx, storageConfig)
	if err != nil {
		appLog.Errorf("Failed to initialize storage: %v", err)
		return exitSetup
	}
	defer storage.CloseAll(storages)

	if opts.ClearCache {
		if err := storage.ClearCaches(storages); err != nil {
			appLog.Warnf("Failed to clear storage caches: %v", err)
		}
	}

	source, _ := storage.Pick(storages, storageConfig.Source)
	output, _ := storage.Pick(storages, storageConfig.Output)

	prober, err := processor.NewProber(cropper, source, cfg.DimensionCacheSize)
	if err != nil {
		appLog.Errorf("%v", err)
		return exitSetup
	}
	exporter := processor.NewExporter(cropper, source, output, processor.EncodeOptions{
		Quality:  opts.Quality,
		Lossless: opts.Lossless,
	})

	session := model.NewSession(prober, exporter, opts.Presets...)
	session.SetOutputDir(opts.OutputDir)

	keys := opts.Images
	if sourceIsLocal(storageConfig) {
		keys = make([]string, len(opts.Images))
		for i, p := range opts.Images {
			keys[i] = model.ExpandHome(p)
		}
	}

	appLog.Infof("Opening %d image(s) with %d preset(s), backend %s", len(keys), len(opts.Presets), cropper.Name())
	images, openErr := session.OpenAll(ctx, keys)
	if len(images) == 0 {
		appLog.Errorf("No image could be opened")
		return exitSetup
	}

	if opts.List {
		if err := list(ctx, session); err != nil {
			appLog.Errorf("%v", err)
			return exitSetup
		}
	}
	if opts.DryRun {
		if openErr != nil {
			return exitExport
		}
		return exitOK
	}

	if failed := export(ctx, session, opts.Workers); failed > 0 || openErr != nil {
		return exitExport
	}
	return exitOK
}

func sourceIsLocal(cfg *storage.StorageConfig) bool {
	for _, item := range cfg.Storages {
		if item.Name == cfg.Source {
			return item.Driver == storage.DriverLocal
		}
	}
	return false
}

func list(ctx context.Context, session *model.Session) error {
	images := session.Images()
	tables := make([]*model.SelectionTable, len(images))
	paths := make([]string, len(images))
	for i, img := range images {
		tables[i] = model.NewSelectionTable(img)
		paths[i] = img.Path
	}
	return cli.RenderSession(os.Stdout, model.NewImageTable(ctx, session), tables, paths)
}

// export writes and closes every image on the worker pool and returns the
// number of images with at least one failed file
func export(ctx context.Context, session *model.Session, workers int) int {
	q := worker.NewQueue(ctx, session, workers)

	images := session.Images()
	paths := make(map[model.ImageID]string, len(images))
	for _, img := range images {
		paths[img.ID] = img.Path
	}
	go func() {
		for _, img := range images {
			if !q.Submit(worker.Task{Kind: worker.KindClose, ImageID: img.ID, Save: true}) {
				break
			}
		}
		q.Close()
	}()

	var written, failed int
	for res := range q.Results() {
		for _, report := range res.Reports {
			written += len(report.Written)
		}
		if res.Err != nil {
			failed++
			appLog.Errorf("Export of %s: %v", paths[res.Task.ImageID], res.Err)
		}
	}

	if ctx.Err() != nil {
		appLog.Warnf("Interrupted, %d image(s) left unsaved", session.Len())
	}
	appLog.Infof("Wrote %d file(s) from %d image(s), %d with errors", written, len(images), failed)
	return failed
}
