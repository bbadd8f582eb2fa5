package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/config"
	"github.com/meysamhadeli/buroca/converters"
	"github.com/meysamhadeli/buroca/reports"
	"github.com/meysamhadeli/buroca/resources"
	"github.com/meysamhadeli/buroca/templates"
	"github.com/meysamhadeli/buroca/utils"
	"github.com/meysamhadeli/buroca/viewers"
	"github.com/spf13/cobra"
)

// RootDependencies are built once per command from the configuration.
type RootDependencies struct {
	Config       *config.Config
	ConfigPath   string
	Logger       *log.Logger
	Cwd          string
	Base         string
	Store        *resources.Store
	Renderer     *templates.Renderer
	Converter    *converters.Registry
	Orchestrator *reports.Orchestrator
	Viewers      *viewers.Chain
}

var rootCmd = &cobra.Command{
	Use:   "buroca",
	Short: "Generate documents from templates and structured data.",
	Long: `buroca renders the templates of a project against the data it holds:
shared resources in data/<group>.<ext>, per-entity resources in
data/<group>/<entity>.<ext>. Reports are written to reports/ and can be
converted to pdf, joined and previewed.`,
	SilenceUsage: true,
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads the configuration and wires the dependencies.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, cfgPath, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "buroca"})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	if cfgPath != "" {
		logger.Debug("loaded configuration", "file", cfgPath)
	}

	base := cfg.Project
	if !filepath.IsAbs(base) {
		base = filepath.Join(cwd, base)
	}

	pandocArgs, err := utils.SplitCommand(cfg.Converters.PandocArgs)
	if err != nil {
		return nil, err
	}

	store, err := resources.NewStore(base, &resources.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	converter := converters.NewDefaultRegistry(converters.Options{
		Pandoc:      cfg.Converters.Pandoc,
		PandocArgs:  pandocArgs,
		PDFEngine:   cfg.Converters.PDFEngine,
		LibreOffice: cfg.Converters.LibreOffice,
		PDFJam:      cfg.Converters.PDFJam,
		Timeout:     cfg.Converters.Timeout,
		Logger:      logger,
	})
	renderer := templates.NewRenderer(&templates.Options{Converter: converter, Logger: logger})

	return &RootDependencies{
		Config:       cfg,
		ConfigPath:   cfgPath,
		Logger:       logger,
		Cwd:          cwd,
		Base:         base,
		Store:        store,
		Renderer:     renderer,
		Converter:    converter,
		Orchestrator: reports.NewOrchestrator(store, renderer, logger),
		Viewers: viewers.NewChain(&viewers.Options{
			Viewers: cfg.Viewers,
			Theme:   cfg.Theme,
			Logger:  logger,
		}),
	}, nil
}

// projectPath resolves name inside dir of the project unless it already
// names a path.
func (d *RootDependencies) projectPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if filepath.Base(name) == name {
		return filepath.Join(d.Base, dir, name)
	}
	return filepath.Join(d.Cwd, name)
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(config.DefaultConfig.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
