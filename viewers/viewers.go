// Package viewers opens rendered documents with the first available viewer.
package viewers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/templates"
	"github.com/meysamhadeli/buroca/utils"
)

// FilePlaceholder in a viewer command is replaced by the document path.
// Commands without it get the path as last argument.
const FilePlaceholder = "{file}"

// DefaultViewers are the viewer commands tried per document format.
var DefaultViewers = map[string][]string{
	"pdf": {"evince", "okular"},
	"md":  {"less"},
}

// Launcher starts viewer programs.
type Launcher interface {
	LookPath(name string) (string, error)
	Launch(ctx context.Context, name string, args ...string) error
}

type execLauncher struct {
	executor *utils.CommandExecutor
}

func (l execLauncher) LookPath(name string) (string, error) { return exec.LookPath(name) }

func (l execLauncher) Launch(ctx context.Context, name string, args ...string) error {
	return l.executor.ExecuteInteractive(ctx, name, args...)
}

// Options configures a Chain.
type Options struct {
	Viewers  map[string][]string
	Launcher Launcher
	// Out receives terminal previews.
	Out    io.Writer
	Theme  string
	Width  int
	Logger *log.Logger
}

// Chain tries the viewers configured for a format in order and stops at the
// first one that works. Missing programs are skipped; when none is left the
// document is previewed in the terminal.
type Chain struct {
	viewers  map[string][]string
	launcher Launcher
	out      io.Writer
	theme    string
	width    int
	logger   *log.Logger
}

func NewChain(opts *Options) *Chain {
	if opts == nil {
		opts = &Options{}
	}
	c := &Chain{
		viewers:  opts.Viewers,
		launcher: opts.Launcher,
		out:      opts.Out,
		theme:    opts.Theme,
		width:    opts.Width,
		logger:   opts.Logger,
	}
	if c.viewers == nil {
		c.viewers = DefaultViewers
	}
	if c.launcher == nil {
		c.launcher = execLauncher{executor: utils.NewCommandExecutor(0)}
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Show displays file.
func (c *Chain) Show(ctx context.Context, file string) error {
	if _, err := os.Stat(file); err != nil {
		return err
	}
	format := templates.FormatOf(file)

	for _, command := range c.viewers[format] {
		err := c.execute(ctx, command, file)
		if errors.Is(err, errs.ErrSkipViewer) {
			c.logger.Debug("viewer not available", "viewer", command)
			continue
		}
		return err
	}

	return c.preview(ctx, file, format)
}

func (c *Chain) execute(ctx context.Context, command, file string) error {
	fields, err := utils.SplitCommand(command)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return errs.ErrSkipViewer
	}
	if _, err := c.launcher.LookPath(fields[0]); err != nil {
		return fmt.Errorf("%s: %w", fields[0], errs.ErrSkipViewer)
	}

	args := fields[1:]
	replaced := false
	for i, arg := range args {
		if strings.Contains(arg, FilePlaceholder) {
			args[i] = strings.ReplaceAll(arg, FilePlaceholder, file)
			replaced = true
		}
	}
	if !replaced {
		args = append(args, file)
	}

	c.logger.Info("running viewer", "viewer", fields[0], "file", file)
	return c.launcher.Launch(ctx, fields[0], args...)
}

func (c *Chain) preview(ctx context.Context, file, format string) error {
	if !utils.CanPreview(format) {
		return fmt.Errorf("no viewer available for %s documents", format)
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return utils.RenderPreview(ctx, c.out, string(content), format, c.theme, c.width)
}
