package barcode

import (
	"errors"
	"fmt"
	"strings"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatEAN13
)

// ErrUnsupportedFormat is returned when no encoder exists for a symbology.
var ErrUnsupportedFormat = errors.New("barcode: unsupported format")

// String returns the canonical lowercase name of the format.
func (f Format) String() string {
	switch f {
	case FormatEAN13:
		return "ean13"
	default:
		return "unknown"
	}
}

// ParseFormat maps user supplied symbology names to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ean13", "ean-13":
		return FormatEAN13, true
	default:
		return FormatUnknown, false
	}
}

// Symbols is an encoded symbolic barcode. It is a plain value and never
// changes once produced.
type Symbols string

// String implements fmt.Stringer.
func (s Symbols) String() string { return string(s) }

// Encoder turns a textual payload into its symbolic representation.
type Encoder interface {
	Format() Format
	Encode(input string) (Symbols, error)
}

// NewEncoder returns the encoder for the given format.
func NewEncoder(f Format) (Encoder, error) {
	switch f {
	case FormatEAN13:
		return EAN13{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}
