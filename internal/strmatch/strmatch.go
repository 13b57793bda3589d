// Package strmatch provides ASCII case-insensitive string comparison used by
// device name rules.
//
// Only the bytes 'A'..'Z' are folded. No locale-aware casing and no Unicode
// normalization is applied: driver strings are compared byte by byte after
// folding, so "Ä" and "ä" are distinct.
package strmatch

// lower folds a single ASCII byte to lower case.
func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// EqualFold reports whether a and b are equal under ASCII case folding.
// Strings of different lengths are never equal.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

// ContainsFold reports whether needle occurs anywhere in haystack under
// ASCII case folding. An empty needle always matches.
func ContainsFold(haystack, needle string) bool {
	return IndexFold(haystack, needle) >= 0
}

// IndexFold returns the byte offset of the first case-insensitive occurrence
// of needle in haystack, or -1 if there is none.
func IndexFold(haystack, needle string) int {
	n := len(needle)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(haystack); i++ {
		if EqualFold(haystack[i:i+n], needle) {
			return i
		}
	}
	return -1
}

// ToLower returns s with 'A'..'Z' folded to lower case. Other bytes,
// including every byte of a multi-byte UTF-8 sequence, are unchanged.
func ToLower(s string) string {
	for i := 0; i < len(s); i++ {
		if lower(s[i]) != s[i] {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = lower(b[j])
			}
			return string(b)
		}
	}
	return s
}
