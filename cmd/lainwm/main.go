package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lainwm/lainwm/internal/config"
	"github.com/lainwm/lainwm/internal/daemon"
	"github.com/lainwm/lainwm/internal/hotkeys"
	"github.com/lainwm/lainwm/internal/interaction"
	"github.com/lainwm/lainwm/internal/ipc"
	"github.com/lainwm/lainwm/internal/launcher"
	"github.com/lainwm/lainwm/internal/platform"
	"github.com/lainwm/lainwm/internal/runtimepath"
	"github.com/lainwm/lainwm/internal/wm"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "clients":
		os.Exit(runClients(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lainwm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the window manager (foreground)")
	fmt.Fprintln(w, "  status              Show window manager status")
	fmt.Fprintln(w, "  monitors            List monitors")
	fmt.Fprintln(w, "  clients             List managed windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write the default configuration")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'lainwm <command> --help' for command-specific options.")
}

// queryFlags parses the flags shared by status, monitors and clients.
func queryFlags(name, usage string, args []string) (asJSON bool, code int, ok bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lainwm %s [--json]\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, usage)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return false, 0, false
		}
		return false, 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return false, 2, false
	}
	return *jsonOut || !stdoutIsTerminal(), 0, true
}

func runStatus(args []string) int {
	asJSON, code, ok := queryFlags("status", "Show window manager status via IPC.", args)
	if !ok {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		return writeJSON(os.Stdout, status)
	}
	printStatus(os.Stdout, status)
	return 0
}

func runMonitors(args []string) int {
	asJSON, code, ok := queryFlags("monitors", "List monitors in discovery order.", args)
	if !ok {
		return code
	}

	monitors, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		return writeJSON(os.Stdout, monitors)
	}
	printMonitors(os.Stdout, monitors)
	return 0
}

func runClients(args []string) int {
	asJSON, code, ok := queryFlags("clients", "List managed windows.", args)
	if !ok {
		return code
	}

	clients, err := ipc.NewClient().GetClients()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if asJSON {
		return writeJSON(os.Stdout, clients)
	}
	printClients(os.Stdout, clients)
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  lainwm config init [--path PATH] [--force]")
		fmt.Fprintln(os.Stderr, "  lainwm config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  lainwm config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  lainwm config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/lainwm/config.yaml)")
		force := fs.Bool("force", false, "Overwrite an existing file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		target := *path
		if target == "" {
			p, err := config.DefaultConfigPath()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			target = p
		}
		if _, err := os.Stat(target); err == nil && !*force {
			fmt.Fprintf(os.Stderr, "%s already exists (use --force to overwrite)\n", target)
			return 1
		}

		cfg := config.DefaultConfig()
		var err error
		if *path == "" {
			err = cfg.Save()
		} else {
			err = cfg.SaveTo(target)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("config: wrote %s\n", target)
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/lainwm/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, err := res.Config.Bindings(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/lainwm/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/lainwm/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/lainwm/config.yaml)")
	display := fs.String("display", "", "X display to manage (overrides config and $DISPLAY)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lainwm run [--path PATH] [--display :N]")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	// Load configuration
	res, err := loadConfig(*path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config
	if *display != "" {
		cfg.Display = *display
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	bindings, err := cfg.Bindings()
	if err != nil {
		log.Fatalf("Invalid key bindings: %v", err)
	}

	// Connect to display server
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	var helper hotkeys.Launcher
	l, err := launcher.New(launcher.Options{
		Command: cfg.Launcher.Command,
		Args:    cfg.Launcher.Args,
		Wait:    cfg.Launcher.Wait,
		Display: cfg.Display,
	}, logger.With("component", "launcher"))
	switch {
	case err == nil:
		helper = l
		name, _ := l.Command()
		logger.Info("launcher resolved", "command", name)
	case errors.Is(err, launcher.ErrNoLauncher):
		logger.Warn("launch chord disabled", "error", err)
	default:
		log.Fatalf("Failed to configure launcher: %v", err)
	}

	driver := wm.New(backend, helper, wm.Options{
		NewWindowWidth:  cfg.NewWindow.Width,
		NewWindowHeight: cfg.NewWindow.Height,
		Interaction: interaction.Options{
			MoveButton:   platform.Button(cfg.MoveButton),
			ResizeButton: platform.Button(cfg.ResizeButton),
			WarpPointer:  cfg.WarpPointer,
		},
		Bindings: bindings,
	}, logger)

	if err := backend.Setup(platform.SetupOptions{
		Chords:  driver.Chords(),
		Buttons: cfg.ButtonBindings(),
	}); err != nil {
		if errors.Is(err, platform.ErrTransportUnavailable) || errors.Is(err, platform.ErrNotWindowManager) {
			log.Fatalf("Failed to take over display: %v", err)
		}
		logger.Warn("some bindings could not be grabbed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start IPC server
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}
	ipcServer, err := ipc.NewServer(socketPath, driver, logger.With("component", "ipc"))
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.ReconcileInterval(),
		Logger:   logger.With("component", "reconciler"),
	}, driver)
	if cfg.ReconcileInterval() > 0 {
		go reconciler.Run(ctx)
	}

	// SIGHUP forces a stale-client pass even when the periodic one is off.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				removed := reconciler.ReconcileNow(ctx)
				logger.Info("reconciled on SIGHUP", "removed", len(removed))
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			cancel()
			return
		}
	}()

	logger.Info("entering event loop", "display", cfg.Display, "socket", socketPath)
	if err := driver.Run(ctx); err != nil {
		logger.Error("event loop stopped", "error", err)
		return 1
	}
	return 0
}
