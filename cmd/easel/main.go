package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/easelhq/easel/canvas"
	"github.com/easelhq/easel/catalog"
	"github.com/easelhq/easel/config"
	"github.com/easelhq/easel/engine"
	"github.com/easelhq/easel/event"
	"github.com/easelhq/easel/session"
	"github.com/easelhq/easel/web"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to an easel.yaml config file")
		sampleID   = flag.String("sample", "", "Catalogue sample to load on start")
		listOnly   = flag.Bool("samples", false, "List the sample catalogue and exit")
		serveMode  = flag.Bool("serve", false, "Serve the web front end instead of the terminal UI")
		headless   = flag.Bool("headless", false, "Drive the sketch over stdio, without a UI")
		debugMode  = flag.Bool("debug", false, "Debug logging (to easel-debug.log in interactive mode)")
	)
	flag.Parse()

	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Usage: easel [flags] [sketch.wasm]")
		fmt.Fprintln(os.Stderr, "       easel -sample <id>")
		fmt.Fprintln(os.Stderr, "       easel -samples")
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *configPath, *sampleID, *listOnly, *serveMode, *headless, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(programArg, configPath, sampleID string, listOnly, serveMode, headlessMode, debugMode bool) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debugMode {
		cfg.LogLevel = "debug"
	}

	// Mode selection. Piped output means there is no terminal to paint.
	interactive := !serveMode && !headlessMode
	if interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		interactive, headlessMode = false, true
	}

	logger, err := buildLogger(cfg.LogLevel, interactive)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	engine.SetLogger(logger)

	cat, err := openCatalogue(ctx, cfg.Catalogue.Source)
	if err != nil {
		return err
	}
	if listOnly {
		return printSamples(cat)
	}

	// Resolve the program to run and the sample to preload, if any.
	var sample *catalog.Sample
	if sampleID != "" {
		s, err := cat.Lookup(sampleID)
		if err != nil {
			return err
		}
		sample = &s
	}
	programSource := programArg
	if programSource == "" && sample != nil {
		programSource = sample.Module
	}
	if programSource == "" {
		// Fall back to the first sample that ships compiled bytecode.
		for _, s := range cat.List() {
			if s.Module != "" {
				s := s
				sample, programSource = &s, s.Module
				break
			}
		}
	}
	if programSource == "" {
		return fmt.Errorf("nothing to run: pass a sketch.wasm or -sample with a compiled module")
	}

	eng, err := engine.New(ctx, &engine.Config{MemoryLimitPages: cfg.Engine.MemoryPages})
	if err != nil {
		return err
	}
	defer eng.Close(ctx)

	programs := &programLoader{engine: eng}
	launcher, err := programs.Load(ctx, programSource)
	if err != nil {
		return err
	}

	// Shared drawing state. Every front end reads the same framebuffer.
	background, ok := canvas.ParseColor(cfg.Canvas.Background)
	if !ok {
		background = canvas.DefaultBackground
	}
	transform := canvas.NewTransform(cfg.Canvas.LogicalWidth, cfg.Canvas.LogicalHeight, cfg.Canvas.Factor)
	w, h := transform.PhysicalSize()
	frame := canvas.NewFramebuffer(w, h, background)

	interval := time.Duration(cfg.Animation.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}

	clock := &event.HeldClock{}
	var (
		panel    *web.PanelState
		tuiPanel *widgetPanel
		controls event.Controls = event.NopControls{}
	)
	switch {
	case serveMode:
		panel = &web.PanelState{}
		controls = panel
	case interactive:
		tuiPanel = &widgetPanel{}
		controls = tuiPanel
	}

	sess, err := session.New(session.Options{
		Launcher: launcher,
		Canvas:   canvas.New(transform, frame, logger),
		Clock:    clock,
		Controls: controls,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := eng.InstallHost(ctx, sess); err != nil {
		return err
	}
	if sample != nil {
		sess.LoadSource(sample.Source)
	}

	switch {
	case serveMode:
		srv := web.New(web.Options{
			Session:  sess,
			Catalog:  cat,
			Frame:    frame,
			Clock:    clock,
			Panel:    panel,
			Programs: programs,
			Addr:     cfg.Serve.Addr,
			Interval: interval,
			Logger:   logger,
		})
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)

	case headlessMode:
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runHeadless(ctx, sess, clock, interval, logger)

	default:
		return runInteractive(ctx, uiOptions{
			Session:  sess,
			Catalog:  cat,
			Frame:    frame,
			Clock:    clock,
			Panel:    tuiPanel,
			Programs: programs,
			Interval: interval,
			Program:  programSource,
			Sample:   sample,
		})
	}
}

// buildLogger keeps the terminal clean in interactive mode: logs go to a
// file at debug level and nowhere otherwise.
func buildLogger(level string, interactive bool) (*zap.Logger, error) {
	if interactive && level != "debug" {
		return zap.NewNop(), nil
	}
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if l, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(l)
	}
	if interactive {
		cfg.OutputPaths = []string{"easel-debug.log"}
		cfg.ErrorOutputPaths = cfg.OutputPaths
	}
	return cfg.Build()
}

func openCatalogue(ctx context.Context, source string) (*catalog.Catalog, error) {
	if source == "" {
		return catalog.Default(), nil
	}
	return catalog.Open(ctx, source)
}

func printSamples(cat *catalog.Catalog) error {
	table := tablewriter.NewTable(os.Stdout)
	table.Header("ID", "Title", "Course", "Program")
	for _, s := range cat.List() {
		if err := table.Append([]string{s.ID, s.Title, s.Course, s.Module}); err != nil {
			return err
		}
	}
	return table.Render()
}

// programLoader compiles bytecode through the shared engine.
type programLoader struct {
	engine *engine.Engine
}

var _ web.ProgramLoader = (*programLoader)(nil)

func (l *programLoader) Load(ctx context.Context, source string) (session.Launcher, error) {
	p, err := l.engine.LoadProgram(ctx, source)
	if err != nil {
		return nil, err
	}
	return session.ProgramLauncher(p), nil
}
