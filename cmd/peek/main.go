package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	apppkg "github.com/kk-code-lab/peek/internal/app"
	"github.com/kk-code-lab/peek/internal/cache"
	"github.com/kk-code-lab/peek/internal/config"
	"github.com/kk-code-lab/peek/internal/logging"
	"github.com/kk-code-lab/peek/internal/plugin"
	"github.com/kk-code-lab/peek/internal/pool"
	"github.com/kk-code-lab/peek/internal/preview"
	"github.com/kk-code-lab/peek/internal/previewer"
	"github.com/kk-code-lab/peek/internal/watch"
)

func printHelp(w io.Writer) {
	fmt.Fprint(w, `peek - Terminal file manager with asynchronous previews

USAGE:
    peek [OPTIONS] [DIR]

OPTIONS:
    -h, --help             Show this help message and exit
    -c, --config PATH      Read configuration from PATH
    -p, --preview PATH     Print the preview of PATH to stdout and exit
`)
}

type cliOptions struct {
	help     bool
	config   string
	preview  string
	startDir string
}

var errUsage = errors.New("invalid usage")

func parseArgs(args []string) (cliOptions, error) {
	var opts cliOptions
	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%w: %s needs a value", errUsage, name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		var err error
		switch {
		case arg == "-h" || arg == "--help":
			opts.help = true
		case arg == "-c" || arg == "--config":
			opts.config, err = value(&i, arg)
		case strings.HasPrefix(arg, "--config="):
			opts.config = strings.TrimPrefix(arg, "--config=")
		case arg == "-p" || arg == "--preview":
			opts.preview, err = value(&i, arg)
		case strings.HasPrefix(arg, "--preview="):
			opts.preview = strings.TrimPrefix(arg, "--preview=")
		case strings.HasPrefix(arg, "-") && arg != "-":
			err = fmt.Errorf("%w: unknown option %s", errUsage, arg)
		default:
			if opts.startDir != "" {
				err = fmt.Errorf("%w: unexpected argument %s", errUsage, arg)
			}
			opts.startDir = arg
		}
		if err != nil {
			return cliOptions{}, err
		}
	}
	return opts, nil
}

func main() {
	// UTF-8 fallback keeps non-ASCII names readable on odd locales.
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printHelp(os.Stderr)
		os.Exit(2)
	}
	if opts.help {
		printHelp(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

func run(ctx context.Context, opts cliOptions) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	if opts.preview != "" {
		logger := logging.New(os.Stderr, cfg.Log.Level)
		return printPreview(ctx, os.Stdout, cfg, logger, opts.preview)
	}

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	logger, logFile, err := logging.Open(logPath, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	diag := logging.NewDiagnostics(logger.WithPrefix("status"), 0)
	defer diag.Close()

	factory, builder := newBuilder(ctx, cfg, logger, diag)
	defer func() {
		if err := factory.Artifacts().Cleanup(); err != nil {
			logger.Warn("thumbnail cleanup failed", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	workers := pool.New(cfg.WorkerCount(), logger.WithPrefix("pool"))
	defer func() {
		// Running builds see the cancellation; queued ones are discarded.
		cancel()
		workers.Close()
	}()

	holder := cache.New(ctx, builder, workers, cache.Options{
		Capacity:        cfg.Preview.CacheCapacity,
		ThumbnailWindow: cfg.Preview.ThumbnailWindow,
		Logger:          logger.WithPrefix("cache"),
		Diagnostics:     diag,
	})
	router := previewer.New(ctx, builder, 0, logger.WithPrefix("router"), diag)

	var dirWatcher apppkg.DirWatcher
	watcher, err := watch.New(holder, watch.DefaultDebounce, logger.WithPrefix("watch"))
	if err != nil {
		diag.Report(log.WarnLevel, "file watching disabled", "err", err)
	} else {
		defer func() {
			_ = watcher.Close()
		}()
		dirWatcher = watcher
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}

	app, err := apppkg.New(apppkg.Options{
		Screen:      screen,
		StartDir:    opts.startDir,
		Cache:       holder,
		SecondPane:  router,
		Watcher:     dirWatcher,
		Pool:        workers,
		Diagnostics: diag,
		Logger:      logger.WithPrefix("app"),
		Commands:    cfg.Commands,
		Tick:        cfg.Render.Tick,
		HideHidden:  cfg.Preview.HideHidden,
	})
	if err != nil {
		screen.Fini()
		return err
	}

	if watcher != nil {
		watcher.OnChange = app.ListingChanged
		go watcher.Run(ctx)
	}

	logger.Info("started", "dir", app.GetCurrentPath(), "workers", cfg.WorkerCount(), "plugins", len(cfg.Plugins))
	app.Run(ctx)
	logger.Info("stopped", "stats", fmt.Sprintf("%+v", workers.Stats()))
	return nil
}

func newBuilder(ctx context.Context, cfg *config.Config, logger *log.Logger, diag *logging.Diagnostics) (*preview.Factory, *preview.Builder) {
	factory := preview.NewFactory(preview.Options{
		TempDir:           cfg.Preview.TempDir,
		TextMaxBytes:      cfg.Preview.TextMaxBytes,
		SyntaxMaxBytes:    cfg.Preview.SyntaxMaxBytes,
		SyntaxStyle:       cfg.Preview.SyntaxStyle,
		TreeDepth:         cfg.Preview.TreeDepth,
		TreeMaxLines:      cfg.Preview.TreeMaxLines,
		HideHidden:        cfg.Preview.HideHidden,
		HelperTimeout:     cfg.Preview.HelperTimeout,
		VideoThumbnailTTL: cfg.Preview.VideoThumbnailTTL,
	}, logger.WithPrefix("factory"))
	registry := plugin.LoadAll(ctx, cfg.Plugins, logger.WithPrefix("plugin"), diag)
	return factory, preview.NewBuilder(factory, registry, diag, logger.WithPrefix("builder"))
}

// printPreview builds one preview synchronously and writes it as text.
func printPreview(ctx context.Context, w io.Writer, cfg *config.Config, logger *log.Logger, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	_, builder := newBuilder(ctx, cfg, logger, logging.NewDiagnostics(logger, 0))
	p := builder.Build(ctx, preview.Request{Path: abs, Flags: preview.Flags{RefreshThumbnail: true}})

	title := p.Title()
	if title == "" {
		title = abs
	}
	fmt.Fprintf(w, "%s [%s]\n", title, p.Kind())

	if e, ok := p.(*preview.Empty); ok {
		if e.Reason() != "" {
			fmt.Fprintln(w, e.Reason())
		}
		return nil
	}
	for i := 0; i < preview.PlainRows(p); i++ {
		fmt.Fprintln(w, preview.PlainLine(p, i))
	}
	if t, ok := p.(*preview.Thumbnail); ok {
		if t.Len() > 0 {
			fmt.Fprintf(w, "pages: %d\n", t.Len())
		}
		if t.Image() != "" {
			fmt.Fprintf(w, "thumbnail: %s\n", t.Image())
		}
	}
	return nil
}
