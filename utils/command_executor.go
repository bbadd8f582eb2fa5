package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/shell"
)

// DefaultCommandTimeout bounds external tools run without an explicit timeout.
const DefaultCommandTimeout = 2 * time.Minute

// CommandRunner runs external programs. Converters depend on it so tests can
// substitute a fake.
type CommandRunner interface {
	// Run executes name with args in dir and returns its combined output.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// CommandExecutor runs external tools (pandoc, libreoffice, viewers).
type CommandExecutor struct {
	Timeout time.Duration
}

var _ CommandRunner = (*CommandExecutor)(nil)

// NewCommandExecutor creates a new command executor with the given timeout.
// A non-positive timeout uses DefaultCommandTimeout.
func NewCommandExecutor(timeout time.Duration) *CommandExecutor {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &CommandExecutor{Timeout: timeout}
}

// Run executes the command and captures stdout and stderr together. The
// command is killed when the timeout elapses.
func (ce *CommandExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("empty command provided")
	}

	ctx, cancel := context.WithTimeout(ctx, ce.Timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return out.Bytes(), fmt.Errorf("%s timed out after %s", name, ce.Timeout)
	}
	if err != nil {
		return out.Bytes(), fmt.Errorf("%s failed: %w", name, err)
	}
	return out.Bytes(), nil
}

// ExecuteInteractive runs the command attached to the terminal and waits for
// it to exit. It is used for viewers such as less.
func (ce *CommandExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	if name == "" {
		return errors.New("empty command provided")
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}
	return nil
}

// SplitCommand splits a configured command line with shell quoting rules.
// Environment variables are expanded.
func SplitCommand(command string) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, nil
	}
	fields, err := shell.Fields(command, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", command, err)
	}
	return fields, nil
}
