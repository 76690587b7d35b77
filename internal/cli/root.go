// Package cli provides the command-line interface for doctrack.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/doctrack/doctrack/internal/config"
	"github.com/doctrack/doctrack/internal/container"
	"github.com/doctrack/doctrack/internal/observability"
	"github.com/doctrack/doctrack/internal/security"
)

// skipConfig marks commands that run without loading the configuration.
const skipConfig = "doctrack/skip-config"

var (
	// Version information set by main.
	versionInfo struct {
		Version string
		Commit  string
		Date    string
	}

	// Global flags
	cfgFile    string
	outputJSON bool
	noColor    bool
	logLevel   string

	// Global config
	cfg *config.Config

	// Logger
	logger *log.Logger

	// app is the container opened by the running command, closed by Cleanup.
	app *container.Container

	// Styles
	styles = struct {
		Title   lipgloss.Style
		Success lipgloss.Style
		Error   lipgloss.Style
		Warning lipgloss.Style
		Info    lipgloss.Style
		Subtle  lipgloss.Style
		Bold    lipgloss.Style
	}{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "doctrack",
	Short: "Doctoral trajectory workflow engine",
	Long: `doctrack follows doctoral students from admission to the public defense.

It serves the workflow over HTTP, delivers the notifications and history
entries staged by every change, and exposes the state machine for review.

Get started with 'doctrack serve'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		for c := cmd; c != nil; c = c.Parent() {
			if c.Annotations[skipConfig] == "true" {
				return nil
			}
		}
		return initConfig(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context for graceful shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// JSON format and log level are configured in initConfig
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: doctrack.yaml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(machineCmd)
}

// loadAndValidateConfig loads and validates the configuration. The
// --log-level flag of cmd overrides the file when set.
func loadAndValidateConfig(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.WithConfigPath(cfgFile)
	}
	if err := loader.Viper().BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// configureLogger applies the log settings and installs the logger as the
// slog default, so every package logs through it.
func configureLogger() {
	if outputJSON || cfg.Log.Format == "json" {
		logger.SetFormatter(log.JSONFormatter)
	} else if noColor {
		logger.SetFormatter(log.TextFormatter)
	}

	switch cfg.Log.Level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.SetOutput(security.NewMaskedWriter(os.Stderr, security.NewMasker(cfg.Log.RedactPersonalData)))

	slog.SetDefault(slog.New(logger))
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command) error {
	if err := loadAndValidateConfig(cmd); err != nil {
		return err
	}
	configureLogger()
	return nil
}

// openContainer builds the application container from the loaded config.
// Cleanup closes it.
func openContainer(ctx context.Context) (*container.Container, error) {
	if app != nil {
		return app, nil
	}
	c, err := container.NewInitialized(ctx, cfg,
		container.WithMetrics(observability.NewMetrics(versionInfo.Version)))
	if err != nil {
		return nil, err
	}
	app = c
	return app, nil
}

// Cleanup closes any open resources. Should be called before program exit.
func Cleanup() {
	if app != nil {
		if err := app.Close(); err != nil {
			logger.Error("failed to close resources", "error", err)
		}
		app = nil
	}
}
