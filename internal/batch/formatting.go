package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// report is the serialised shape of a Result.
type report struct {
	ID    string `json:"id" yaml:"id"`
	Items []Item `json:"items" yaml:"items"`
	Stats Stats  `json:"summary" yaml:"summary"`
}

// Format renders the result in the given output format.
func (r *Result) Format(format string) (string, error) {
	switch format {
	case FormatJSON:
		return r.formatJSON()
	case FormatCSV:
		return r.formatCSV()
	case FormatYAML:
		return r.formatYAML()
	case FormatText, "":
		return r.formatText(), nil
	default:
		return "", ValidateFormat(format)
	}
}

func (r *Result) report() report {
	return report{ID: r.ID, Items: r.Items, Stats: r.Stats()}
}

func (r *Result) formatJSON() (string, error) {
	bts, err := json.MarshalIndent(r.report(), "", "  ")
	return string(bts), err
}

func (r *Result) formatYAML() (string, error) {
	bts, err := yaml.Marshal(r.report())
	return string(bts), err
}

func (r *Result) formatCSV() (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{"index", "input", "code", "symbols", "check_digit_mismatch", "error"}); err != nil {
		return "", err
	}
	for _, it := range r.Items {
		row := []string{
			strconv.Itoa(it.Index),
			strings.TrimSpace(it.Input),
			it.Code,
			it.Symbols,
			strconv.FormatBool(it.Mismatch),
			it.Error,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

// formatText writes one "input<TAB>symbols" line per item.
func (r *Result) formatText() string {
	var output strings.Builder
	for _, it := range r.Items {
		in := strings.TrimSpace(it.Input)
		if !it.OK() {
			fmt.Fprintf(&output, "%s\terror: %s\n", in, it.Error)
			continue
		}
		fmt.Fprintf(&output, "%s\t%s\n", in, it.Symbols)
	}
	return output.String()
}

// WriteResults writes the formatted result to outputFile, or to w when
// outputFile is empty. The "Results written" notice also goes to w.
func (r *Result) WriteResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.Format(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
		return nil
	}

	_, _ = fmt.Fprint(w, output)
	return nil
}

// StatsText renders Stats for terminal output.
func (s Stats) StatsText() string {
	var b strings.Builder
	b.WriteString("\nProcessing Statistics:\n")
	fmt.Fprintf(&b, "  Total codes: %d\n", s.Total)
	fmt.Fprintf(&b, "  Encoded: %d\n", s.Encoded)
	fmt.Fprintf(&b, "  Failed: %d\n", s.Failed)
	fmt.Fprintf(&b, "  Check digit mismatches: %d\n", s.Mismatched)
	fmt.Fprintf(&b, "  Workers: %d\n", s.Workers)
	fmt.Fprintf(&b, "  Duration: %v\n", s.Duration.Round(time.Microsecond))
	fmt.Fprintf(&b, "  Throughput: %.1f codes/sec\n", s.Throughput)
	return b.String()
}
