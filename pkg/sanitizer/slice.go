package sanitizer

func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)

		if normalized == "" {
			continue
		}

		if seen[normalized] {
			continue
		}

		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

// NormalizeIDs trims ids. Blanks and duplicates are kept in place so
// validation reports them against the caller's own positions.
func NormalizeIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = SanitizeIdentifier(id)
	}
	return result
}

func NormalizeQualifications(qualifications []string) []string {
	return NormalizeStringSlice(qualifications, SanitizeLabel)
}
