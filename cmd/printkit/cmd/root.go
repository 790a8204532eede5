package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/printkit/internal/config"
	"github.com/MeKo-Tech/printkit/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli holds the state shared by one command tree.
type cli struct {
	// Configuration file path.
	cfgFile string
	v       *viper.Viper
	loader  *config.Loader
	cfg     *config.Config
}

// NewRootCommand builds the printkit command tree. Each call returns an
// independent tree with its own flag and configuration state.
func NewRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}
	c.loader = config.NewLoaderWithViper(c.v)

	rootCmd := &cobra.Command{
		Use:   "printkit",
		Short: "Print shop toolkit: EAN-13 barcode font encoding, numbering and test tones",
		Long: `printkit turns 12 or 13 digit EAN-13 codes into the 15 character strings
used with EAN-13 barcode fonts, and ships two helpers for print jobs.

This tool provides:
- EAN-13 symbolic encoding for single codes, files and stdin
- Concurrent batch encoding with text, JSON, CSV and YAML output
- Numbering CSVs for stacked and cut ticket sheets
- ffmpeg commands for test tones
- An HTTP and WebSocket API

Examples:
  printkit ean13 123456789012
  printkit batch codes.txt --format json
  printkit numbering --quantity 500 --per-sheet 4
  printkit tone --wave square --freq 1000
  printkit serve --port 8080`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), c.cfg)
			return nil
		},
	}

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/printkit, /etc/printkit)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	_ = c.v.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = c.v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		newEAN13Command(c),
		newBatchCommand(c),
		newNumberingCommand(c),
		newToneCommand(c),
		newServeCommand(c),
		newConfigCommand(c),
	)

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, environment and bound flags.
func (c *cli) loadConfig() error {
	var err error
	if c.cfgFile != "" {
		c.cfg, err = c.loader.LoadWithFile(c.cfgFile)
	} else {
		c.cfg, err = c.loader.Load()
	}
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	return nil
}

// conf returns the loaded configuration, falling back to defaults for
// commands run without the root pre-run hook.
func (c *cli) conf() *config.Config {
	if c.cfg == nil {
		if err := c.loadConfig(); err != nil {
			cfg := config.DefaultConfig()
			return &cfg
		}
	}
	return c.cfg
}

// setupLogging installs a JSON slog handler writing to w.
func setupLogging(w io.Writer, cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
