// Package launcher starts the helper program bound to the launch chord.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrNoLauncher is returned when "auto" finds nothing in PATH.
var ErrNoLauncher = errors.New("no launcher found in PATH")

// Options configure the helper process.
type Options struct {
	// Command is a program name or "auto".
	Command string
	Args    []string
	// Wait blocks Launch until the helper exits.
	Wait bool
	// Display overrides DISPLAY for the child when non-empty.
	Display string
}

// Launcher spawns the configured helper.
type Launcher struct {
	command string
	args    []string
	wait    bool
	display string
	logger  *slog.Logger
}

// New resolves the command, detecting one when it is "auto" or empty.
func New(opts Options, logger *slog.Logger) (*Launcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	command := strings.TrimSpace(opts.Command)
	args := append([]string(nil), opts.Args...)
	if command == "" || strings.EqualFold(command, "auto") {
		name, detected, err := Detect()
		if err != nil {
			return nil, err
		}
		command = name
		if len(args) == 0 {
			args = detected
		}
	}
	return &Launcher{
		command: command,
		args:    args,
		wait:    opts.Wait,
		display: opts.Display,
		logger:  logger,
	}, nil
}

// Command returns the resolved program and its arguments.
func (l *Launcher) Command() (string, []string) {
	return l.command, append([]string(nil), l.args...)
}

// Launch starts the helper. Unless Wait is set the child is reaped in the
// background and Launch returns immediately.
func (l *Launcher) Launch() error {
	cmd := exec.Command(l.command, l.args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if l.display != "" {
		cmd.Env = append(os.Environ(), "DISPLAY="+l.display)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.command, err)
	}
	l.logger.Info("launched helper", "command", l.command, "pid", cmd.Process.Pid)

	if l.wait {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("%s exited: %w", l.command, err)
		}
		return nil
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.Debug("helper exited", "command", l.command, "error", err)
		}
	}()
	return nil
}
