package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// AcceptThreshold is the lowest score treated as a match
const AcceptThreshold = 40.0

// Rule names the ladder step that produced a score
type Rule string

const (
	RuleNone      Rule = ""
	RuleExact     Rule = "exact"
	RulePrecise   Rule = "precise"
	RuleFlexible  Rule = "flexible"
	RuleToken     Rule = "token"
	RulePartial   Rule = "partial"
	RulePhrase    Rule = "phrase"
	RuleSubstring Rule = "substring"
	RuleContained Rule = "contained"
	RuleOrdered   Rule = "ordered"
	RuleOverlap   Rule = "overlap"
)

const (
	maxOrderedGap     = 2
	partialOverlap    = 0.7
	flexibleMinRatio  = 0.7
	containedMinRatio = 0.6
	overlapMinRatio   = 0.7
)

// Result is the outcome of scoring one candidate
type Result struct {
	Match bool
	Score float64
	Rule  Rule
}

func accept(score float64, rule Rule) Result {
	return Result{Match: score >= AcceptThreshold, Score: score, Rule: rule}
}

var noMatch = Result{}

// forms holds the normalization variants of one string
type forms struct {
	normalized string   // lowercase, punctuation stripped, spaces collapsed
	precise    string   // lowercase, dash and space runs collapsed
	flexible   string   // lowercase, all whitespace and dashes removed
	words      []string // fields of normalized
}

func newForms(s string) forms {
	s = strings.ToLower(norm.NFKC.String(s))
	f := forms{
		normalized: normalize(s),
		precise:    precise(s),
		flexible:   flexible(s),
	}
	f.words = strings.Fields(f.normalized)
	return f
}

// Score compares a search string against candidate OCR text.
//
// The ladder is tried top down and the first rule that fires wins:
// normalized equality (100), punctuation preserving equality (98),
// separator free containment for searches with digits (85-90), single word
// token (95) or partial (80) hits, multi word phrase (96), substring (80-85)
// and contained (75) hits, ordered words with small gaps (50-75) and finally
// word overlap (40-49). Scores below AcceptThreshold are never a match.
func Score(search, candidate string) Result {
	s, c := newForms(search), newForms(candidate)

	if s.normalized != "" && s.normalized == c.normalized {
		return accept(100, RuleExact)
	}
	if s.precise != "" && s.precise == c.precise {
		return accept(98, RulePrecise)
	}
	if r, ok := scoreFlexible(search, s, c); ok {
		return r
	}
	if len(s.words) == 0 || len(c.words) == 0 {
		return noMatch
	}
	if len(s.words) == 1 {
		return scoreSingleWord(s.words[0], c.words)
	}
	if r, ok := scoreMultiWord(s, c); ok {
		return r
	}

	r, stop := scoreOrdered(s.words, c.words)
	if stop || r.Match {
		return r
	}
	return scoreOverlap(s.words, c.words)
}

// scoreFlexible handles IDs and dates whose separators drift between OCR and
// the extracted value, e.g. "1 - 0 1" against "1-01".
func scoreFlexible(raw string, s, c forms) (Result, bool) {
	if !strings.ContainsFunc(raw, unicode.IsDigit) || s.flexible == "" || c.flexible == "" {
		return noMatch, false
	}
	if s.flexible == c.flexible {
		return accept(90, RuleFlexible), true
	}

	sl, cl := runeLen(s.flexible), runeLen(c.flexible)
	if float64(cl) < flexibleMinRatio*float64(sl) {
		return noMatch, false
	}
	if !strings.Contains(c.flexible, s.flexible) && !strings.Contains(s.flexible, c.flexible) {
		return noMatch, false
	}
	ratio := float64(min(sl, cl)) / float64(max(sl, cl))
	return accept(85+5*ratio, RuleFlexible), true
}

func scoreSingleWord(word string, candidate []string) Result {
	for _, w := range candidate {
		if w == word {
			return accept(95, RuleToken)
		}
	}
	for _, w := range candidate {
		if partialMatch(word, w) {
			return accept(80, RulePartial)
		}
	}
	return noMatch
}

func scoreMultiWord(s, c forms) (Result, bool) {
	if containsPhrase(c.words, s.words) {
		return accept(96, RulePhrase), true
	}

	if idx := strings.Index(c.normalized, s.normalized); idx >= 0 {
		end := idx + len(s.normalized)
		atStart := idx == 0 || c.normalized[idx-1] == ' '
		atEnd := end == len(c.normalized) || c.normalized[end] == ' '
		// Both edges on a boundary is already a phrase match.
		if atStart || atEnd {
			return accept(85, RuleSubstring), true
		}
		return accept(80, RuleSubstring), true
	}

	if strings.Contains(s.normalized, c.normalized) &&
		float64(runeLen(c.normalized)) >= containedMinRatio*float64(runeLen(s.normalized)) {
		return accept(75, RuleContained), true
	}
	return noMatch, false
}

// scoreOrdered looks for the search words in order inside the candidate.
// Every placement whose gaps are all at most maxOrderedGap is considered and
// the best scoring one wins. It returns stop=true when the words occur in
// order but no placement keeps the gaps small enough.
func scoreOrdered(search, candidate []string) (Result, bool) {
	if len(search) == 0 || !inOrder(search, candidate) {
		return noMatch, false
	}

	best := -1.0
	positions := make([]int, len(search))
	var place func(k int)
	place = func(k int) {
		if k == len(search) {
			best = max(best, orderedScore(positions))
			return
		}
		from, to := 0, len(candidate)-1
		if k > 0 {
			from = positions[k-1] + 1
			to = min(to, positions[k-1]+1+maxOrderedGap)
		}
		for i := from; i <= to; i++ {
			if candidate[i] == search[k] {
				positions[k] = i
				place(k + 1)
			}
		}
	}
	place(0)

	if best < 0 {
		return noMatch, true
	}
	return accept(best, RuleOrdered), false
}

// inOrder reports whether every search word occurs in the candidate in
// order, regardless of the gaps between them
func inOrder(search, candidate []string) bool {
	next := 0
	for _, w := range search {
		found := false
		for ; next < len(candidate); next++ {
			if candidate[next] == w {
				found = true
				next++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// orderedScore rewards few skipped words and long contiguous runs
func orderedScore(positions []int) float64 {
	totalGaps, run, maxRun := 0, 1, 1
	for i := 1; i < len(positions); i++ {
		gap := positions[i] - positions[i-1] - 1
		totalGaps += gap
		if gap == 0 {
			run++
		} else {
			run = 1
		}
		maxRun = max(maxRun, run)
	}
	return max(50, 75-8*float64(totalGaps)+2*float64(maxRun))
}

func scoreOverlap(search, candidate []string) Result {
	distinct := make(map[string]bool)
	for _, w := range search {
		distinct[w] = true
	}
	tokens := make(map[string]bool)
	for _, w := range candidate {
		tokens[w] = true
	}

	found := 0
	for w := range distinct {
		if tokens[w] {
			found++
			continue
		}
		for _, cw := range candidate {
			if partialMatch(w, cw) {
				found++
				break
			}
		}
	}

	ratio := float64(found) / float64(len(distinct))
	if ratio < overlapMinRatio {
		return noMatch
	}
	return accept(40+30*(ratio-overlapMinRatio), RuleOverlap)
}

// partialMatch reports whether one word contains the other and the shorter
// covers at least 70% of the longer
func partialMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return false
	}
	la, lb := runeLen(a), runeLen(b)
	return float64(min(la, lb))/float64(max(la, lb)) >= partialOverlap
}

func containsPhrase(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, w := range needle {
			if haystack[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

func normalize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func precise(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if isDash(r) {
			sb.WriteRune('-')
			continue
		}
		sb.WriteRune(r)
	}
	fields := strings.Fields(sb.String())
	out := strings.Join(fields, " ")
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.ReplaceAll(out, " - ", "-")
	out = strings.ReplaceAll(out, " -", "-")
	return strings.ReplaceAll(out, "- ", "-")
}

func flexible(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || isDash(r) {
			return -1
		}
		return r
	}, s)
}

func isDash(r rune) bool {
	switch r {
	case '-', '‐', '‑', '‒', '–', '—', '−':
		return true
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
