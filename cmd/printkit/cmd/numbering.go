package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/printkit/internal/numbering"
	"github.com/spf13/cobra"
)

func newNumberingCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numbering",
		Short: "Generate a numbering CSV for stacked and cut ticket sheets",
		Long: `Generate a CSV of numbers laid out so that printed sheets, once stacked and
cut, come out in sequence. Each row is one sheet; column k of sheet s holds
start + s + sheets*k. The quantity is rounded up to fill whole sheets and blocks.

Examples:
  printkit numbering --quantity 500 --per-sheet 4
  printkit numbering -n 1000 --per-sheet 5 --per-block 50 --start 1001 -o tickets.csv
  printkit numbering -n 12 --per-sheet 3 --placeholders --leading-zeros
  printkit numbering -n 12 --per-sheet 3 --format json`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNumbering(cmd, c)
		},
	}

	cmd.Flags().IntP("quantity", "n", 0, "number of items to number (1-100000)")
	cmd.Flags().Int("per-sheet", 4, "items per sheet (1-100)")
	cmd.Flags().Int("start", 1, "first number (1-100000)")
	cmd.Flags().Int("per-block", 1, "sheets per block (1-10000)")
	cmd.Flags().Bool("placeholders", false, "add an N1..Nn header row")
	cmd.Flags().Bool("leading-zeros", false, "zero-pad numbers to the width of the last one")
	cmd.Flags().StringP("format", "f", "csv", "output format (csv, json)")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("quantity")

	return cmd
}

func runNumbering(cmd *cobra.Command, c *cli) error {
	cfg := c.conf()
	quantity, _ := cmd.Flags().GetInt("quantity")
	nc := cfg.ToNumberingConfig(quantity)

	if cmd.Flags().Changed("per-sheet") {
		nc.PerSheet, _ = cmd.Flags().GetInt("per-sheet")
	}
	if cmd.Flags().Changed("start") {
		nc.Start, _ = cmd.Flags().GetInt("start")
	}
	if cmd.Flags().Changed("per-block") {
		nc.PerBlock, _ = cmd.Flags().GetInt("per-block")
	}
	if cmd.Flags().Changed("placeholders") {
		nc.Placeholders, _ = cmd.Flags().GetBool("placeholders")
	}
	if cmd.Flags().Changed("leading-zeros") {
		nc.LeadingZeros, _ = cmd.Flags().GetBool("leading-zeros")
	}

	plan, err := numbering.NewPlan(nc)
	if err != nil {
		return err
	}
	slog.Debug("Numbering plan", "sheets", plan.Sheets, "final", plan.Final, "end", plan.End, "blocks", plan.Blocks)

	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")

	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := plan.WriteCSV(&buf); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		out := struct {
			numbering.Plan
			Rows [][]string `json:"rows"`
		}{plan, plan.Rows()}
		if err := enc.Encode(out); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: csv, json)", format)
	}

	if err := writeOutput(cmd.OutOrStdout(), outputFile, buf.String()); err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), plan.Summary())
	return nil
}
