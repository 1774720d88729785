package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"pluswm/internal/ipc"
	"pluswm/internal/spawn"
	"pluswm/internal/wm"
	"pluswm/internal/x11"
	"pluswm/pkg/config"
	"pluswm/pkg/logger"
	"pluswm/pkg/notify"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	displayName := flag.String("display", "", "X display to manage (default $DISPLAY)")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pluswm %s\n", version)
		return
	}

	// Setup logging level
	logLevel := zerolog.InfoLevel
	if *debug {
		logLevel = zerolog.DebugLevel
	}

	// Initialize logger first for early logging
	log, err := logger.NewLogger(
		logger.WithConsole(),
		logger.WithLevel(logLevel),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting pluswm",
		"version", version,
		"pid", os.Getpid(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"debug", *debug)

	cfg, err := config.FindConfig(*configPath, log)
	if err != nil {
		log.Fatal("Failed to load configuration", err, "provided_path", *configPath)
	}

	if cfg.LogFile() != "" {
		fileLog, err := logger.NewLogger(
			logger.WithConsole(),
			logger.WithLevel(log.Level()),
			logger.WithFile(cfg.LogFile()),
		)
		if err != nil {
			log.Error("Failed to open configured log file", err, "path", cfg.LogFile())
		} else {
			log.Close()
			log = fileLog
		}
	}
	defer log.Close()

	log.Info("Configuration loaded successfully",
		"path", cfg.Path(),
		"modkey", cfg.ModKey(),
		"keybind_count", len(cfg.Keybinds()),
		"button_count", len(cfg.Buttons()))

	if err := run(cfg, *displayName, log); err != nil {
		log.Error("Window manager stopped with an error", err)
		log.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, displayName string, log *logger.Logger) error {
	notifier := notify.NewNotifyService(log)

	table := wm.NewActionTable()
	keys, buttons, err := wm.CompileBindings(cfg, table)
	if err != nil {
		return fmt.Errorf("compile bindings: %w", err)
	}

	display, err := x11.Open(displayName, log)
	if err != nil {
		return err
	}
	defer display.Close()

	resolver := wm.NewKeyBindingResolver(keys, buttons, display.NumLockMask)
	manager := wm.NewManager(display, cfg, spawn.New(log, notifier), log)
	dispatcher := wm.NewDispatcher(display, manager, table, resolver, log)

	if err := dispatcher.Setup(); err != nil {
		if errors.Is(err, wm.ErrAnotherWM) {
			if nerr := notifier.Notify("pluswm", "Another window manager is already running"); nerr != nil {
				log.Warn("Failed to show notification", "error", nerr)
			}
		}
		return err
	}

	socketPath := ipc.SocketPath(cfg.SocketPath())
	server, err := ipc.Listen(socketPath, ipc.InjectHandler(display, 5*time.Second), log)
	if err != nil {
		log.Error("Control socket unavailable", err, "path", socketPath)
	} else {
		go server.Serve()
		defer server.Close()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		display.Inject(wm.Shutdown{Reason: sig.String()})
	}()

	err = dispatcher.Run()
	if errors.Is(err, wm.ErrClosed) {
		log.Warn("Display connection closed")
		return nil
	}
	return err
}
