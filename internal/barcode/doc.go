// Package barcode encodes numeric payloads into symbolic barcode strings.
//
// A symbolic string is not an image: every character stands for one bar-width
// pattern and is turned into bars by a barcode font at print time. EAN-13 is
// the only symbology implemented.
//
// Example:
//
//	s, err := barcode.EncodeEAN13("123456789012")
//	// s == "1CDOFQR*ijabci+"
package barcode
