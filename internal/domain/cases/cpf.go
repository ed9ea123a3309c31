package cases

import "strings"

const cpfLength = 11

// NormalizeCPF strips every non-digit and left-pads with zeros to 11 digits.
// Inputs with no digits or more than 11 digits are rejected.
func NormalizeCPF(raw string) (string, error) {
	var b strings.Builder
	b.Grow(cpfLength)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", Validation("cpf has no digits")
	}
	if len(digits) > cpfLength {
		return "", Validation("cpf has %d digits, want at most %d", len(digits), cpfLength)
	}
	return strings.Repeat("0", cpfLength-len(digits)) + digits, nil
}
