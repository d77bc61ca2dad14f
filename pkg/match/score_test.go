package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreLadder(t *testing.T) {
	tests := []struct {
		name      string
		search    string
		candidate string
		score     float64
		rule      Rule
	}{
		{"normalized equality", "Invoice Number", "invoice  number!", 100, RuleExact},
		{"punctuation only", "-", "—", 98, RulePrecise},
		{"dash spacing", "INV - 001", "inv-001", 98, RulePrecise},
		{"flexible equality", "1 - 0 1", "1-01", 90, RuleFlexible},
		{"single word token", "total", "Grand Total Due", 95, RuleToken},
		{"single word partial", "invoice", "Invoices received", 80, RulePartial},
		{"phrase", "amount due", "Total amount due today", 96, RulePhrase},
		{"substring at one boundary", "mount due", "Total amount due", 85, RuleSubstring},
		{"substring inside words", "nvoice numbe", "invoice number x", 80, RuleSubstring},
		{"search contains candidate", "total amount due now", "Total amount due", 75, RuleContained},
		{"ordered with one gap", "total due", "total amount due", 69, RuleOrdered},
		{"ordered with two gaps", "account holder name", "account primary holder the first name", 53, RuleOrdered},
		{"ordered past a repeated word", "total balance due", "total x y z total balance a due", 71, RuleOrdered},
		{"overlap", "alpha beta gamma delta", "delta gamma beta zeta", 41.5, RuleOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.search, tt.candidate)
			assert.True(t, got.Match)
			assert.InDelta(t, tt.score, got.Score, 0.001)
			assert.Equal(t, tt.rule, got.Rule)
		})
	}
}

func TestScoreOrderedGapTooWide(t *testing.T) {
	got, stop := scoreOrdered([]string{"total", "due"}, []string{"total", "a", "b", "c", "due"})
	assert.False(t, got.Match)
	assert.True(t, stop)

	got, stop = scoreOrdered([]string{"total", "due"}, []string{"due", "total"})
	assert.False(t, got.Match)
	assert.False(t, stop, "words out of order fall through to overlap")

	got, stop = scoreOrdered([]string{"net", "pay", "due"}, []string{"net", "a", "b", "c", "net", "pay", "x", "due"})
	assert.True(t, got.Match)
	assert.False(t, stop)
	assert.InDelta(t, 71, got.Score, 0.001)
	assert.Equal(t, RuleOrdered, got.Rule)
}

func TestScoreFlexibleContainment(t *testing.T) {
	got := Score("04/12/1980", "Date of Birth: 04/12/1980")
	assert.True(t, got.Match)
	assert.Equal(t, RuleFlexible, got.Rule)
	assert.GreaterOrEqual(t, got.Score, 85.0)
	assert.Less(t, got.Score, 90.0)
}

func TestScoreFlexibleNeedsDigits(t *testing.T) {
	got := Score("total amount", "Total Amount Due")
	assert.Equal(t, RulePhrase, got.Rule)
	assert.Equal(t, 96.0, got.Score)
}

func TestScoreGapTooLargeIsNoMatch(t *testing.T) {
	got := Score("total due", "total a b c due")
	assert.False(t, got.Match)
	assert.Zero(t, got.Score)
}

func TestScoreBelowThreshold(t *testing.T) {
	tests := [][2]string{
		{"alpha beta gamma", "alpha zeta"},
		{"", "anything"},
		{"something", ""},
		{"member id a1029384", "member id"},
	}
	for _, tt := range tests {
		got := Score(tt[0], tt[1])
		assert.False(t, got.Match, "%q vs %q", tt[0], tt[1])
		assert.Less(t, got.Score, AcceptThreshold)
	}
}

func TestExtractValue(t *testing.T) {
	assert.Equal(t, "A1029384", ExtractValue("Member ID: A1029384"))
	assert.Equal(t, "12:30", ExtractValue("Time: 12:30"))
	assert.Equal(t, "plain", ExtractValue(" plain "))
	assert.Equal(t, "Total", ExtractValue("Total:"))
}

func TestRelaxations(t *testing.T) {
	got := Relaxations("Total amount due 150.00. Please pay by Friday!")
	assert.Equal(t, []string{
		"Total amount due 150.00.",
		"Total amount due 150 00 Please pay by Friday",
		"Total amount due",
		"Total amount",
	}, got)

	assert.Empty(t, Relaxations("short"))
	assert.Equal(t, []string{"a very long sentence without", "a very long", "a very"},
		Relaxations("a very long sentence without any stops at all"))
}
