package form

import (
	"strings"
	"unicode/utf8"
)

const (
	idPrefix       = "TRAIN"
	maxIDSuffixLen = 5
)

// ValidateCreate checks a creation snapshot. Rules run in order and the
// first failure is returned.
func ValidateCreate(s Snapshot) error {
	if !s.Filled(FieldID, FieldFname, FieldGender, FieldPlace, FieldClass, FieldStatus) {
		return ErrMissingFields
	}
	return ValidateTrainID(s.Value(FieldID))
}

// ValidateChange checks a status change snapshot. The ID format is not
// re-checked here.
func ValidateChange(s Snapshot) error {
	if !s.Filled(FieldID, FieldNewStatus) {
		return ErrMissingFields
	}
	return nil
}

// ValidateTrainID applies the prefix and suffix rules to a non-empty ID.
// The suffix may hold at most five characters and must read as a number;
// the 0-999 range in the message is not enforced.
func ValidateTrainID(id string) error {
	if !strings.HasPrefix(id, idPrefix) {
		return ErrInvalidIDPrefix
	}
	suffix := id[len(idPrefix):]
	if utf8.RuneCountInString(suffix) > maxIDSuffixLen || !isNumeric(suffix) {
		return ErrInvalidIDSuffix
	}
	return nil
}

// isNumeric follows the browser's numeric string grammar: surrounding
// whitespace is ignored, blank reads as zero, and signed decimals,
// exponents, Infinity and 0x/0o/0b integers are accepted.
func isNumeric(s string) bool {
	s = strings.TrimFunc(s, isSpace)
	if s == "" {
		return true
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return allDigits(s[2:], 16)
		case 'o', 'O':
			return allDigits(s[2:], 8)
		case 'b', 'B':
			return allDigits(s[2:], 2)
		}
	}

	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "Infinity" {
		return true
	}

	i, intDigits := scanDigits(s, 0)
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i, fracDigits = scanDigits(s, i+1)
	}
	if intDigits == 0 && fracDigits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		var expDigits int
		i, expDigits = scanDigits(s, i)
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

func scanDigits(s string, i int) (int, int) {
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i, i - start
}

func allDigits(s string, base int) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		var d int
		switch {
		case r >= '0' && r <= '9':
			d = int(r - '0')
		case r >= 'a' && r <= 'f':
			d = int(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = int(r-'A') + 10
		default:
			return false
		}
		if d >= base {
			return false
		}
	}
	return true
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r', 0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}
