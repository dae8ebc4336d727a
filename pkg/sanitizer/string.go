package sanitizer

import "strings"

// TrimAndNormalize trims s and folds every whitespace run into one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeNotes is TrimAndNormalize applied per line, so line breaks survive.
func NormalizeNotes(notes string) string {
	lines := strings.Split(strings.TrimSpace(notes), "\n")
	for i := range lines {
		lines[i] = TrimAndNormalize(lines[i])
	}
	return strings.Join(lines, "\n")
}
