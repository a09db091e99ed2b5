package utils

import "strings"

func NormalizeType(interviewType string) string {
	return strings.ToLower(strings.TrimSpace(interviewType))
}

func NormalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

// NormalizeTechstack trims entries and drops blanks and case-insensitive duplicates
func NormalizeTechstack(techs []string) []string {
	seen := make(map[string]bool, len(techs))
	out := make([]string, 0, len(techs))
	for _, tech := range techs {
		tech = strings.TrimSpace(tech)
		key := strings.ToLower(tech)
		if tech == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tech)
	}
	return out
}

// StripFences removes a surrounding markdown code fence from model output
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
