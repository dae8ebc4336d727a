package sanitizer

// NormalizeSlotLabels keeps label order, dropping blanks and repeats. The
// result is never nil so it encodes as [] rather than null.
func NormalizeSlotLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, raw := range labels {
		label := TrimAndNormalize(raw)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
