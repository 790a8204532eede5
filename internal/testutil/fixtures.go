package testutil

// EAN13Vector is a known EAN-13 input with its expected encoding.
type EAN13Vector struct {
	Input    string
	Code     string // payload plus computed check digit
	Checksum int
	Symbols  string
}

// EAN13Vectors are hand-verified encodings shared across package tests.
var EAN13Vectors = []EAN13Vector{
	{Input: "123456789012", Code: "1234567890128", Checksum: 8, Symbols: "1CDOFQR*ijabci+"},
	{Input: "000000000000", Code: "0000000000000", Checksum: 0, Symbols: "0AAAAAA*aaaaaa+"},
	{Input: "900000000000", Code: "9000000000001", Checksum: 1, Symbols: "9AKKAKA*aaaaab+"},
	{Input: "400638133393", Code: "4006381333931", Checksum: 1, Symbols: "4AKGDSL*dddjdb+"},
	{Input: "5901234123457", Code: "5901234123457", Checksum: 7, Symbols: "5JKLCDO*bcdefh+"},
}

// InvalidEAN13Inputs must all be rejected by the encoder.
var InvalidEAN13Inputs = []string{"12345", "12345678901X", "", "12345678901234"}
