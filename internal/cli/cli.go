// Package cli implements the stackbom command-line interface.
//
// The CLI is built on cobra. Every flag can also be set through the
// environment (STACKBOM_ prefix, dashes become underscores) or a
// .stackbom.yaml file in the working directory or $XDG_CONFIG_HOME/stackbom;
// explicit flags win over both.
//
// # Commands
//
//   - generate: write a CycloneDX document for a project directory
//   - graph: draw the dependency graph as DOT, SVG, PDF or PNG
//   - serve: run the HTTP API
//   - ecosystems: list supported ecosystems
//   - cache: manage the lookup cache
//   - version, completion
//
// # Exit codes
//
// [ExitCode] maps errors onto process exit codes: 130 for an interrupted
// run, 3 when no ecosystem was detected, 1 otherwise.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/stackbom/pkg/buildinfo"
	"github.com/matzehuels/stackbom/pkg/errors"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stackbom"

	// envPrefix prefixes environment overrides, e.g. STACKBOM_TOKEN.
	envPrefix = "STACKBOM"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitError           = 1
	ExitNothingDetected = 3
	ExitInterrupted     = 130
)

// ExitCode returns the process exit code for the error a command returned.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errors.ErrCodeNothingDetected):
		return ExitNothingDetected
	default:
		return ExitError
	}
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *viper.Viper

	out io.Writer
}

// New creates a new CLI instance with a default logger. Command output that
// is not logging (documents, DOT text) goes to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: newConfig(),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output, mainly for tests.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool
	var configFile string

	root := &cobra.Command{
		Use:           appName,
		Short:         "Stackbom generates CycloneDX SBOMs from lockfiles",
		Long:          `Stackbom detects the package ecosystems of a project directory, reads their lockfiles, and writes one CycloneDX bill of materials covering all of them.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
				registerTraceHooks(c.Logger)
			}
			if err := loadConfig(c.Config, configFile); err != nil {
				return err
			}
			if used := c.Config.ConfigFileUsed(); used != "" {
				c.Logger.Debug("loaded config", "file", used)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default .stackbom.yaml)")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.ecosystemsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackbom/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns $XDG_CONFIG_HOME/stackbom or ~/.config/stackbom.
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
