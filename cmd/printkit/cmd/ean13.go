package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/printkit/internal/barcode"
	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/spf13/cobra"
)

func newEAN13Command(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ean13 [codes...]",
		Short: "Encode EAN-13 codes into barcode font symbols",
		Long: `Encode 12 or 13 digit EAN-13 codes into the 15 character string rendered
by an EAN-13 barcode font. A 13th digit is accepted but ignored: the check
digit is always recomputed. A warning is logged when it differs.

With no arguments, codes are read from stdin, one per line.

Examples:
  printkit ean13 123456789012
  printkit ean13 4006381333931 --details
  printkit ean13 123456789012 000000000000 --format json
  cat codes.txt | printkit ean13`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEAN13(cmd, c, args)
		},
	}

	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv, yaml)")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().Bool("details", false, "print payload, checksum and parity pattern in text mode")
	cmd.Flags().Bool("warn-mismatch", true, "log a warning when a supplied check digit is wrong")

	return cmd
}

func runEAN13(cmd *cobra.Command, c *cli, args []string) error {
	cfg := c.conf()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	if err := batch.ValidateFormat(format); err != nil {
		return err
	}

	warn := cfg.EAN13.WarnMismatch
	if cmd.Flags().Changed("warn-mismatch") {
		warn, _ = cmd.Flags().GetBool("warn-mismatch")
	}

	outputFile, _ := cmd.Flags().GetString("output")
	details, _ := cmd.Flags().GetBool("details")

	codes := args
	if len(codes) == 0 {
		var err error
		codes, err = batch.ReadCodes(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(codes) == 0 {
			return errors.New("no codes given: pass codes as arguments or on stdin")
		}
	}

	if format != batch.FormatText {
		bc := cfg.ToBatchConfig()
		bc.ContinueOnError = false
		bc.WarnMismatch = warn
		res, err := batch.Process(cmd.Context(), codes, bc)
		if err != nil {
			return err
		}
		return res.WriteResults(cmd.OutOrStdout(), format, outputFile, false)
	}

	var out strings.Builder
	for _, code := range codes {
		if err := writeEAN13Line(&out, code, details, warn); err != nil {
			return err
		}
	}
	return writeOutput(cmd.OutOrStdout(), outputFile, out.String())
}

// writeEAN13Line encodes one code and appends its text rendering to w.
func writeEAN13Line(w io.Writer, code string, details, warn bool) error {
	d, err := barcode.InspectEAN13(code)
	if err != nil {
		return err
	}
	symbols, err := barcode.EncodeEAN13(code)
	if err != nil {
		return err
	}
	if d.Mismatch && warn {
		slog.Warn("Supplied check digit differs from computed one",
			"input", strings.TrimSpace(code), "supplied", d.Supplied, "computed", d.Checksum, "code", d.Code)
	}

	if details {
		_, err = fmt.Fprintf(w, "%s\tcode=%s\tchecksum=%d\tpattern=%s\t%s\n", d.Payload, d.Code, d.Checksum, d.Pattern, symbols)
		return err
	}
	_, err = fmt.Fprintln(w, symbols)
	return err
}
