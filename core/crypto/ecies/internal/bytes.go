package internal

// ZeroPad left-pads b with zeros to length. Longer input is returned as is.
func ZeroPad(b []byte, length int) []byte {
	if len(b) >= length {
		return b
	}

	result := make([]byte, length)
	copy(result[length-len(b):], b)
	return result
}

// PackDigits packs a string of decimal digits two per byte, high nibble
// first, after prefixing a '0' when the digit count is odd. "12345" becomes
// 0x01 0x23 0x45. Non-digit characters are not expected and map to their low
// nibble.
func PackDigits(digits string) []byte {
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		hi := digits[2*i] & 0x0f
		lo := digits[2*i+1] & 0x0f
		out[i] = hi<<4 | lo
	}
	return out
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	clear(b)
}
