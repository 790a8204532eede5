package cmd

import (
	"fmt"
	"io"
	"os"
)

// writeOutput writes content to outputFile, or to w when outputFile is empty.
func writeOutput(w io.Writer, outputFile, content string) error {
	if outputFile == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
	return nil
}
