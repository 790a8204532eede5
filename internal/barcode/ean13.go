package barcode

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// EAN13PayloadLen is the number of digits that carry data.
	EAN13PayloadLen = 12

	// EAN13SymbolsLen is the length of every encoded EAN-13 string:
	// first digit, 6 left symbols, center guard, 5 right symbols, check symbol, end guard.
	EAN13SymbolsLen = 1 + 6 + 1 + 5 + 1 + 1

	// CenterGuard separates the left and right halves.
	CenterGuard = '*'

	// EndGuard terminates the symbol.
	EndGuard = '+'
)

// ErrInvalidInput is returned for anything that is not 12 or 13 decimal
// digits after trimming surrounding whitespace.
var ErrInvalidInput = errors.New("barcode: invalid EAN-13 input")

type charSet int

const (
	setA charSet = iota // left half, odd parity
	setB                // left half, even parity
	setC                // right half
)

// charSets maps a digit value to its font symbol, one alphabet per set.
// No symbol appears in more than one set.
var charSets = [3]string{
	setA: "ABCDEFGHIJ",
	setB: "KLMNOPQRST",
	setC: "abcdefghij",
}

// parityPatterns selects Set-A or Set-B for the six left digits, indexed by
// the value of the first digit.
var parityPatterns = [10]string{
	"AAAAAA", "AABABB", "AABBAB", "AABBBA", "ABAABB",
	"ABBAAB", "ABBBAA", "ABABAB", "ABABBA", "ABBABA",
}

// EAN13 is the EAN-13 Encoder. The zero value is ready to use.
type EAN13 struct{}

// Format implements Encoder.
func (EAN13) Format() Format { return FormatEAN13 }

// Encode implements Encoder.
func (EAN13) Encode(input string) (Symbols, error) { return EncodeEAN13(input) }

// EncodeEAN13 converts 12 or 13 digits into the 15 character symbolic form.
// A 13th digit is accepted but ignored: the check digit is always recomputed.
func EncodeEAN13(input string) (Symbols, error) {
	payload, _, err := ean13Payload(input)
	if err != nil {
		return "", err
	}

	check := checksum(payload)
	pattern := parityPatterns[payload[0]-'0']

	var out [EAN13SymbolsLen]byte
	out[0] = payload[0]
	for i := range 6 {
		set := setB
		if pattern[i] == 'A' {
			set = setA
		}
		out[1+i] = charSets[set][payload[1+i]-'0']
	}
	out[7] = CenterGuard
	for i := range 5 {
		out[8+i] = charSets[setC][payload[7+i]-'0']
	}
	out[13] = charSets[setC][check]
	out[14] = EndGuard

	return Symbols(out[:]), nil
}

// EAN13Checksum returns the check digit for a 12 digit payload.
func EAN13Checksum(payload string) (int, error) {
	if len(payload) != EAN13PayloadLen || !allDigits(payload) {
		return 0, fmt.Errorf("%w: checksum needs exactly %d digits, got %q", ErrInvalidInput, EAN13PayloadLen, payload)
	}
	return checksum(payload), nil
}

// ParityPattern returns the A/B pattern selected by a leading digit.
func ParityPattern(first int) (string, error) {
	if first < 0 || first > 9 {
		return "", fmt.Errorf("%w: leading digit %d out of range", ErrInvalidInput, first)
	}
	return parityPatterns[first], nil
}

// EAN13Details describes how an input would be encoded.
type EAN13Details struct {
	Payload  string `json:"payload"`
	Checksum int    `json:"checksum"`
	Pattern  string `json:"pattern"`
	// Code is the payload followed by the computed check digit.
	Code string `json:"code"`
	// Supplied is the 13th digit given by the caller, or -1.
	Supplied int `json:"supplied_check_digit"`
	// Mismatch reports a supplied check digit that differs from Checksum.
	Mismatch bool `json:"check_digit_mismatch"`
}

// InspectEAN13 validates input like EncodeEAN13 and reports the intermediate
// values, including whether a supplied check digit disagrees with the
// recomputed one. It never changes what EncodeEAN13 produces.
func InspectEAN13(input string) (EAN13Details, error) {
	payload, supplied, err := ean13Payload(input)
	if err != nil {
		return EAN13Details{}, err
	}
	check := checksum(payload)
	return EAN13Details{
		Payload:  payload,
		Checksum: check,
		Pattern:  parityPatterns[payload[0]-'0'],
		Code:     payload + string(rune('0'+check)),
		Supplied: supplied,
		Mismatch: supplied >= 0 && supplied != check,
	}, nil
}

// ean13Payload trims and validates input, returning the 12 digit payload and
// the supplied 13th digit (-1 when absent).
func ean13Payload(input string) (string, int, error) {
	digits := strings.TrimSpace(input)
	if n := len(digits); n < EAN13PayloadLen || n > EAN13PayloadLen+1 || !allDigits(digits) {
		return "", -1, fmt.Errorf("%w: want 12 or 13 digits, got %q", ErrInvalidInput, input)
	}
	supplied := -1
	if len(digits) == EAN13PayloadLen+1 {
		supplied = int(digits[EAN13PayloadLen] - '0')
	}
	return digits[:EAN13PayloadLen], supplied, nil
}

// checksum weights even positions by 1 and odd positions by 3.
// payload must be 12 ASCII digits.
func checksum(payload string) int {
	sum := 0
	for i := range len(payload) {
		d := int(payload[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

func allDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
