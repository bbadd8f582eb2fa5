package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFileName is the name of the configuration file without extension.
const ConfigFileName = "buroca-config"

// EnvPrefix prefixes environment overrides, e.g. BUROCA_THEME.
const EnvPrefix = "BUROCA"

// configExtensions are tried in order when looking for the configuration file.
var configExtensions = []string{"yml", "yaml", "json", "cue"}

// Config represents the structure of the configuration file
type Config struct {
	Version    string              `mapstructure:"version"`
	Project    string              `mapstructure:"project"`
	LogLevel   string              `mapstructure:"log_level"`
	Theme      string              `mapstructure:"theme"`
	Converters ConvertersConfig    `mapstructure:"converters"`
	Viewers    map[string][]string `mapstructure:"viewers"`
	Watch      WatchConfig         `mapstructure:"watch"`
}

// ConvertersConfig selects the external conversion tools.
type ConvertersConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Pandoc      string        `mapstructure:"pandoc"`
	PandocArgs  string        `mapstructure:"pandoc_args"`
	PDFEngine   string        `mapstructure:"pdf_engine"`
	LibreOffice string        `mapstructure:"libreoffice"`
	PDFJam      string        `mapstructure:"pdfjam"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:  "0.4.0",
	Project:  ".",
	LogLevel: "info",
	Theme:    "dracula",
	Converters: ConvertersConfig{
		Timeout:     2 * time.Minute,
		Pandoc:      "pandoc",
		PDFEngine:   "xelatex",
		LibreOffice: "libreoffice",
		PDFJam:      "pdfjam",
	},
	Viewers: map[string][]string{
		"pdf": {"evince", "okular"},
		"md":  {"less"},
	},
	Watch: WatchConfig{Debounce: 300 * time.Millisecond},
}

// LoadConfigs reads the configuration from defaults, the configuration file,
// BUROCA_* environment variables and the flags of rootCmd, each overriding
// the previous. The file is the --config flag or buroca-config.* in cwd.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var cfgFile string
	if rootCmd != nil {
		cfgFile, _ = rootCmd.Flags().GetString("config")
	}
	if cfgFile == "" {
		cfgFile = findConfigFile(cwd)
	} else if _, err := os.Stat(cfgFile); err != nil {
		return nil, "", fmt.Errorf("config file not found: %s", cfgFile)
	}

	if cfgFile != "" {
		if err := readConfigFile(v, cfgFile); err != nil {
			return nil, "", fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if rootCmd != nil {
		if err := bindFlags(v, rootCmd.Flags()); err != nil {
			return nil, "", err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, "", fmt.Errorf("unable to decode configuration: %w", err)
	}
	return &config, cfgFile, nil
}

func findConfigFile(cwd string) string {
	for _, ext := range configExtensions {
		path := filepath.Join(cwd, ConfigFileName+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func readConfigFile(v *viper.Viper, path string) error {
	configType := GetConfigFileType(path)
	if configType == "cue" {
		return loadCUEIntoViper(v, path)
	}
	if configType == "" {
		return fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
	}
	v.SetConfigFile(path)
	v.SetConfigType(configType)
	return v.ReadInConfig()
}

// loadCUEIntoViper evaluates a CUE configuration file and merges it.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return err
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	var configMap map[string]interface{}
	if err := value.Decode(&configMap); err != nil {
		return err
	}
	return v.MergeConfigMap(configMap)
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("project", DefaultConfig.Project)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("converters.timeout", DefaultConfig.Converters.Timeout)
	v.SetDefault("converters.pandoc", DefaultConfig.Converters.Pandoc)
	v.SetDefault("converters.pandoc_args", DefaultConfig.Converters.PandocArgs)
	v.SetDefault("converters.pdf_engine", DefaultConfig.Converters.PDFEngine)
	v.SetDefault("converters.libreoffice", DefaultConfig.Converters.LibreOffice)
	v.SetDefault("converters.pdfjam", DefaultConfig.Converters.PDFJam)
	v.SetDefault("viewers", DefaultConfig.Viewers)
	v.SetDefault("watch.debounce", DefaultConfig.Watch.Debounce)
}

// bindEnv binds nested keys, which AutomaticEnv only finds once they are
// known to viper.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"project", "log_level", "theme",
		"converters.timeout", "converters.pandoc", "converters.pandoc_args",
		"converters.pdf_engine", "converters.libreoffice", "converters.pdfjam",
		"watch.debounce",
	} {
		_ = v.BindEnv(key)
	}
}

// bindFlags binds the CLI flags to configuration values. Only flags set on
// the command line override the configuration file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{
		"project":               "project",
		"log_level":             "log_level",
		"theme":                 "theme",
		"converters.pdf_engine": "pdf_engine",
		"converters.timeout":    "timeout",
	} {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	if verbose, err := flags.GetBool("verbose"); err == nil && verbose {
		v.Set("log_level", "debug")
	}
	return nil
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a configuration file (yml, json or cue).")
	rootCmd.PersistentFlags().StringP("project", "p", DefaultConfig.Project, "Project directory holding data/, templates/ and reports/.")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level (debug, info, warn, error).")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Shortcut for --log_level debug.")
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Chroma style used for terminal previews (e.g. 'dracula', 'monokai').")
	rootCmd.PersistentFlags().String("pdf_engine", DefaultConfig.Converters.PDFEngine, "LaTeX engine pandoc uses for pdf output.")
	rootCmd.PersistentFlags().Duration("timeout", DefaultConfig.Converters.Timeout, "Timeout of each external conversion.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".cue":
		return "cue"
	}
	return ""
}
