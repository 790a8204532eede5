package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [paths...]",
		Short: "Encode EAN-13 codes from files and directories in parallel",
		Long: `Encode every code found in the given files and directories using a bounded
pool of workers. Text files hold one code per line (blank lines and # comments
are skipped); CSV files contribute their first column. Use "-" or no paths to
read from stdin. Results keep the input order.

Examples:
  printkit batch codes.txt
  printkit batch labels/ --recursive --workers 8
  printkit batch a.txt b.csv --format json --output results.json
  printkit batch codes.txt --stop-on-error --stats`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, c, args)
		},
	}

	cmd.Flags().BoolP("recursive", "r", false, "process directories recursively")
	cmd.Flags().StringSlice("include", batch.DefaultIncludePatterns, "include file patterns")
	cmd.Flags().StringSlice("exclude", nil, "exclude file patterns")
	cmd.Flags().IntP("workers", "w", 0, "number of parallel workers (default from config)")
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv, yaml)")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().Bool("stop-on-error", false, "abort on the first invalid code")
	cmd.Flags().Bool("fail-on-invalid", false, "exit with an error when any code failed to encode")
	cmd.Flags().Bool("stats", false, "print processing statistics to stderr")
	cmd.Flags().BoolP("quiet", "q", false, "suppress informational output")

	return cmd
}

// batchOptions collects batch flags resolved against the configuration.
type batchOptions struct {
	config        batch.Config
	format        string
	outputFile    string
	failOnInvalid bool
	stats         bool
	quiet         bool
}

func resolveBatchOptions(cmd *cobra.Command, c *cli) (batchOptions, error) {
	cfg := c.conf()
	opts := batchOptions{config: cfg.ToBatchConfig()}

	opts.format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		opts.format, _ = cmd.Flags().GetString("format")
	}
	if err := batch.ValidateFormat(opts.format); err != nil {
		return opts, err
	}

	if cmd.Flags().Changed("workers") {
		opts.config.Workers, _ = cmd.Flags().GetInt("workers")
		if opts.config.Workers <= 0 {
			return opts, fmt.Errorf("invalid workers: %d (must be positive)", opts.config.Workers)
		}
	}
	if cmd.Flags().Changed("recursive") {
		opts.config.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if stop, _ := cmd.Flags().GetBool("stop-on-error"); stop {
		opts.config.ContinueOnError = false
	}
	opts.config.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	opts.config.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")

	opts.outputFile, _ = cmd.Flags().GetString("output")
	opts.failOnInvalid, _ = cmd.Flags().GetBool("fail-on-invalid")
	opts.stats, _ = cmd.Flags().GetBool("stats")
	opts.quiet, _ = cmd.Flags().GetBool("quiet")
	return opts, nil
}

func runBatch(cmd *cobra.Command, c *cli, args []string) error {
	opts, err := resolveBatchOptions(cmd, c)
	if err != nil {
		return err
	}

	codes, err := collectCodes(cmd, args, opts.config)
	if err != nil {
		return err
	}
	slog.Debug("Starting batch", "codes", len(codes), "workers", opts.config.Workers)

	res, err := batch.Process(cmd.Context(), codes, opts.config)
	if err != nil {
		return err
	}

	if err := res.WriteResults(cmd.OutOrStdout(), opts.format, opts.outputFile, opts.quiet); err != nil {
		return err
	}

	stats := res.Stats()
	if opts.stats && !opts.quiet {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), stats.StatsText())
	}
	if opts.failOnInvalid && stats.Failed > 0 {
		return fmt.Errorf("%d of %d codes failed to encode", stats.Failed, stats.Total)
	}
	return nil
}

// collectCodes reads codes from stdin when args is empty or "-", otherwise
// from the discovered input files.
func collectCodes(cmd *cobra.Command, args []string, cfg batch.Config) ([]string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		codes, err := batch.ReadCodes(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		if len(codes) == 0 {
			return nil, batch.ErrNoCodes
		}
		return codes, nil
	}

	files, err := batch.DiscoverFiles(args, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files found")
	}
	slog.Debug("Discovered input files", "count", len(files))

	codes, err := batch.ReadFiles(files)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, batch.ErrNoCodes
	}
	return codes, nil
}
