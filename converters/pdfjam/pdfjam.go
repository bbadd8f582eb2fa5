// Package pdfjam joins pdf files with pdfjam.
package pdfjam

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/converters/contracts"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/utils"
)

// Joiner concatenates pdf files into one.
type Joiner struct {
	Binary string
	Runner utils.CommandRunner
	Logger *log.Logger
}

var _ contracts.IJoiner = (*Joiner)(nil)

func NewJoiner(binary string, runner utils.CommandRunner, logger *log.Logger) *Joiner {
	if binary == "" {
		binary = "pdfjam"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Joiner{Binary: binary, Runner: runner, Logger: logger}
}

// Join writes the pages of files, in order, to dest.
func (j *Joiner) Join(ctx context.Context, files []string, dest string) error {
	if len(files) == 0 {
		return errors.New("no files to join")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	args := append([]string{"-q", "-o", dest, "--"}, files...)
	j.Logger.Info("joining pdf files", "count", len(files), "dest", dest)

	output, err := j.Runner.Run(ctx, "", j.Binary, args...)
	if err == nil {
		_, err = os.Stat(dest)
	}
	if err != nil {
		return &errs.ConversionError{Source: files[0], Destination: dest, From: "pdf", To: "pdf", Output: string(output), Err: err}
	}
	return nil
}
