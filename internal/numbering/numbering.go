// Package numbering plans sequential ticket numbering for sheet printing.
//
// Items are numbered so that a stack of printed sheets, cut into piles,
// yields consecutive numbers in every pile: column k of sheet s carries
// Start + s + Sheets*k.
package numbering

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Limits accepted by Validate.
const (
	MaxQuantity = 100000
	MaxPerSheet = 100
	MaxStart    = 100000
	MaxPerBlock = 10000
)

// ErrInvalidConfig is matched by every *ValidationError.
var ErrInvalidConfig = errors.New("numbering: invalid configuration")

// ValidationError reports a field outside its accepted range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("numbering: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidConfig }

// Config describes a numbering job.
type Config struct {
	Quantity     int  `json:"quantity" yaml:"quantity"`
	PerSheet     int  `json:"per_sheet" yaml:"per_sheet"`
	Start        int  `json:"start" yaml:"start"`
	PerBlock     int  `json:"per_block" yaml:"per_block"`
	Placeholders bool `json:"placeholders" yaml:"placeholders"`
	LeadingZeros bool `json:"leading_zeros" yaml:"leading_zeros"`
}

// DefaultConfig returns a single-block job starting at 1.
func DefaultConfig() Config {
	return Config{Quantity: 100, PerSheet: 4, Start: 1, PerBlock: 1}
}

// Validate checks every field against its limits.
func (c Config) Validate() error {
	checks := []struct {
		field    string
		value    int
		min, max int
	}{
		{"quantity", c.Quantity, 1, MaxQuantity},
		{"per_sheet", c.PerSheet, 1, MaxPerSheet},
		{"start", c.Start, 1, MaxStart},
		{"per_block", c.PerBlock, 1, MaxPerBlock},
	}
	for _, ch := range checks {
		if ch.value < ch.min || ch.value > ch.max {
			return &ValidationError{
				Field:  ch.field,
				Reason: fmt.Sprintf("must be an integer between %d and %d, got %d", ch.min, ch.max, ch.value),
			}
		}
	}
	return nil
}

// Plan is a validated numbering layout.
type Plan struct {
	Config Config `json:"config"`

	// Sheets is rounded up to a whole number of blocks.
	Sheets int `json:"sheets"`
	// Final is the quantity actually printed, Sheets*PerSheet.
	Final int `json:"final_quantity"`
	End   int `json:"end_number"`
	// Blocks is Sheets/PerBlock.
	Blocks   int  `json:"blocks"`
	Adjusted bool `json:"adjusted"`
}

// NewPlan validates cfg and computes the layout.
func NewPlan(cfg Config) (Plan, error) {
	if err := cfg.Validate(); err != nil {
		return Plan{}, err
	}

	sheets := ceilDiv(ceilDiv(cfg.Quantity, cfg.PerSheet), cfg.PerBlock) * cfg.PerBlock
	final := sheets * cfg.PerSheet
	return Plan{
		Config:   cfg,
		Sheets:   sheets,
		Final:    final,
		End:      cfg.Start + final - 1,
		Blocks:   sheets / cfg.PerBlock,
		Adjusted: final != cfg.Quantity,
	}, nil
}

// Number returns the number printed at column col of sheet (both 0-based).
func (p Plan) Number(sheet, col int) int {
	return p.Config.Start + sheet + p.Sheets*col
}

// Header returns the placeholder column names N1..N<PerSheet>.
func (p Plan) Header() []string {
	h := make([]string, p.Config.PerSheet)
	for i := range h {
		h[i] = "N" + strconv.Itoa(i+1)
	}
	return h
}

// Rows returns one row per sheet, formatted as they appear in the CSV.
func (p Plan) Rows() [][]string {
	width := len(strconv.Itoa(p.End))
	rows := make([][]string, p.Sheets)
	for s := range rows {
		row := make([]string, p.Config.PerSheet)
		for k := range row {
			n := strconv.Itoa(p.Number(s, k))
			if p.Config.LeadingZeros && len(n) < width {
				n = strings.Repeat("0", width-len(n)) + n
			}
			row[k] = n
		}
		rows[s] = row
	}
	return rows
}

// WriteCSV writes the optional header and all rows with CRLF line endings.
func (p Plan) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if p.Config.Placeholders {
		if err := cw.Write(p.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := cw.WriteAll(p.Rows()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Summary describes the plan for confirmation before printing.
func (p Plan) Summary() string {
	var b strings.Builder
	if p.Adjusted {
		fmt.Fprintf(&b, "The items quantity has been adjusted to %d\n", p.Final)
	}
	fmt.Fprintf(&b, "End number: %d\n", p.End)
	fmt.Fprintf(&b, "Sheets to print: %d\n", p.Sheets)
	if p.Config.PerBlock > 1 {
		fmt.Fprintf(&b, "Number of blocks: %d\n", p.Blocks)
	}
	return b.String()
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
