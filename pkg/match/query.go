package match

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const relaxedPrefixLen = 30

// ExtractValue returns the part of a "Key: Value" target after the first
// colon. Targets without a colon, or with nothing after it, are returned
// trimmed.
func ExtractValue(target string) string {
	target = strings.TrimSpace(target)
	idx := strings.Index(target, ":")
	if idx < 0 {
		return target
	}
	if value := strings.TrimSpace(target[idx+1:]); value != "" {
		return value
	}
	return strings.TrimSpace(target[:idx])
}

// Relaxations returns progressively looser variants of a query: the first
// sentence or first 30 characters, the query with non alphanumerics removed,
// then its first three and first two words. Variants equal to the query or
// to an earlier variant are skipped.
func Relaxations(query string) []string {
	query = strings.TrimSpace(query)
	seen := map[string]bool{query: true, "": true}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(truncate(firstSentence(query), relaxedPrefixLen))
	add(alphanumeric(query))

	words := strings.Fields(alphanumeric(query))
	if len(words) > 3 {
		add(strings.Join(words[:3], " "))
	}
	if len(words) > 2 {
		add(strings.Join(words[:2], " "))
	}
	return out
}

func firstSentence(s string) string {
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next == len(s) || unicode.IsSpace(rune(s[next])) {
			return s[:next]
		}
	}
	return s
}

// truncate cuts s to at most n runes, backing off to a word boundary when
// one exists in the kept prefix
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		return cut[:idx]
	}
	return cut
}

func alphanumeric(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
