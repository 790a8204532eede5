package batch

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCodes reads one code per line. Blank lines and lines starting with '#'
// are skipped; surrounding whitespace is kept for the encoder to trim.
func ReadCodes(r io.Reader) ([]string, error) {
	var codes []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		codes = append(codes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read codes: %w", err)
	}
	return codes, nil
}

// ReadCSVCodes reads the first column of every CSV record. A first record
// whose first cell holds no digits is treated as a header.
func ReadCSVCodes(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var codes []string
	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv codes: %w", err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if first && isHeaderCell(rec[0]) {
			continue
		}
		codes = append(codes, rec[0])
	}
	return codes, nil
}

// ReadFiles reads codes from every path, choosing the CSV reader by extension.
func ReadFiles(paths []string) ([]string, error) {
	var codes []string
	for _, path := range paths {
		f, err := os.Open(path) //nolint:gosec // G304: paths come from the command line
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		var got []string
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			got, err = ReadCSVCodes(f)
		} else {
			got, err = ReadCodes(f)
		}
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		codes = append(codes, got...)
	}
	return codes, nil
}

// isHeaderCell reports whether a first-row cell is a column title rather than
// a code. Any digit makes it a code, so malformed codes still reach the encoder.
func isHeaderCell(s string) bool {
	return !strings.ContainsAny(s, "0123456789")
}
