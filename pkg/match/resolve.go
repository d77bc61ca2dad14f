package match

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/ocr"
)

// Stage identifies which resolver pass produced a candidate
type Stage int

const (
	StageLine Stage = iota
	StageWindow
	StageWord
	StagePhrase
	StageLenient
)

func (s Stage) String() string {
	switch s {
	case StageLine:
		return "line"
	case StageWindow:
		return "window"
	case StageWord:
		return "word"
	case StagePhrase:
		return "phrase"
	case StageLenient:
		return "lenient"
	}
	return "unknown"
}

// Candidate is a scored span of OCR tokens on one page
type Candidate struct {
	PageNumber  int
	BoundingBox any // Raw box, or the merged geometry.Polygon for multi token spans
	PageWidth   float64
	PageHeight  float64
	Unit        geometry.Unit
	Text        string
	Score       float64
	Rule        Rule
	Stage       Stage
	Query       string // Query variant that produced the candidate
}

// Options configures a Resolver
type Options struct {
	Threshold   float64            // Minimum accepted score (default AcceptThreshold)
	MaxWindow   int                // Largest multi line window (default 5)
	PhraseSlack int                // Extra words tried during phrase reconstruction (default 2)
	Logger      logrus.FieldLogger // Debug logging (default discards)
}

// DefaultOptions returns the resolver defaults
func DefaultOptions() Options {
	return Options{
		Threshold:   AcceptThreshold,
		MaxWindow:   5,
		PhraseSlack: 2,
	}
}

// Resolver finds the best matching span of OCR tokens for a query.
// It holds no state between calls.
type Resolver struct {
	opts Options
	log  logrus.FieldLogger
}

// New creates a Resolver, filling zero options with defaults
func New(opts Options) *Resolver {
	def := DefaultOptions()
	if opts.Threshold < AcceptThreshold {
		opts.Threshold = def.Threshold
	}
	if opts.MaxWindow < 2 {
		opts.MaxWindow = def.MaxWindow
	}
	if opts.PhraseSlack <= 0 {
		opts.PhraseSlack = def.PhraseSlack
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Resolver{opts: opts, log: log}
}

// Resolve runs the line, window, word and phrase passes for one query and
// returns the first accepted candidate, or nothing.
func (r *Resolver) Resolve(ix *ocr.Index, query string) []Candidate {
	query = strings.TrimSpace(query)
	if ix.Empty() || query == "" {
		return nil
	}

	passes := []struct {
		stage Stage
		run   func() (Candidate, bool)
	}{
		{StageLine, func() (Candidate, bool) { return r.bestToken(ix.Lines, query, StageLine) }},
		{StageWindow, func() (Candidate, bool) { return r.bestWindow(ix, query) }},
		{StageWord, func() (Candidate, bool) { return r.bestToken(ix.Words, query, StageWord) }},
		{StagePhrase, func() (Candidate, bool) { return r.bestPhrase(ix, query) }},
	}

	for _, p := range passes {
		c, ok := p.run()
		if !ok {
			continue
		}
		if !r.accepted(c) {
			continue
		}
		r.log.WithFields(logrus.Fields{
			"query": query,
			"stage": p.stage.String(),
			"rule":  string(c.Rule),
			"score": c.Score,
			"page":  c.PageNumber,
		}).Debug("match resolved")
		return []Candidate{c}
	}
	return nil
}

// Locate resolves a target the way a caller holding an extracted field
// would: the full target first, then the value (the explicit one, or the part
// after the first colon), then relaxed variants of the value, and finally a
// lenient per word scan.
func (r *Resolver) Locate(ix *ocr.Index, target, value string) []Candidate {
	target = strings.TrimSpace(target)
	value = strings.TrimSpace(value)
	if value == "" {
		value = ExtractValue(target)
	}
	if ix.Empty() || (target == "" && value == "") {
		return nil
	}

	queries := []string{target}
	if value != target {
		queries = append(queries, value)
	}
	base := value
	if base == "" {
		base = target
	}
	queries = append(queries, Relaxations(base)...)

	for _, q := range queries {
		if q == "" {
			continue
		}
		if c := r.Resolve(ix, q); len(c) > 0 {
			return c
		}
		r.log.WithField("query", q).Debug("no match, relaxing query")
	}

	if c, ok := r.lenient(ix, base); ok && r.accepted(c) {
		return []Candidate{c}
	}
	return nil
}

// Highlights converts candidates into resolved highlights, dropping any
// whose geometry cannot be parsed or whose score is below the threshold.
func (r *Resolver) Highlights(cands []Candidate) []geometry.ResolvedHighlight {
	var out []geometry.ResolvedHighlight
	for _, c := range cands {
		if !r.accepted(c) {
			continue
		}
		poly, ok := geometry.ParseBox(c.BoundingBox)
		if !ok {
			r.log.WithField("page", c.PageNumber).Debug("dropping candidate with malformed bounding box")
			continue
		}
		out = append(out, geometry.ResolvedHighlight{
			PageNumber: c.PageNumber,
			Polygon:    poly,
			SourceUnit: c.Unit,
			PageWidth:  c.PageWidth,
			PageHeight: c.PageHeight,
			Text:       c.Text,
			Score:      c.Score,
		})
	}
	return out
}

func (r *Resolver) accepted(c Candidate) bool {
	return c.Score >= r.opts.Threshold
}

// better reports whether a beats b: higher score, then shorter text.
// Equal candidates keep document order.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return utf8.RuneCountInString(a.Text) < utf8.RuneCountInString(b.Text)
}

func (r *Resolver) bestToken(tokens []ocr.Token, query string, stage Stage) (Candidate, bool) {
	var best Candidate
	found := false
	for _, t := range tokens {
		res := Score(query, t.Text)
		if !res.Match {
			continue
		}
		c := fromToken(t, res, stage, query)
		if !found || better(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

// bestWindow joins 2..MaxWindow consecutive lines of a block. Smaller
// windows are tried first and the first size with a match wins.
func (r *Resolver) bestWindow(ix *ocr.Index, query string) (Candidate, bool) {
	for size := 2; size <= r.opts.MaxWindow; size++ {
		var best Candidate
		found := false
		for block := range ix.Blocks {
			lines := ix.BlockLines(block)
			for i := 0; i+size <= len(lines); i++ {
				c, ok := span(lines[i:i+size], query, StageWindow)
				if ok && (!found || better(c, best)) {
					best, found = c, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return Candidate{}, false
}

// bestPhrase slides windows of len(query words) up to PhraseSlack more
// words across each block's words.
func (r *Resolver) bestPhrase(ix *ocr.Index, query string) (Candidate, bool) {
	n := len(strings.Fields(query))
	if n == 0 {
		return Candidate{}, false
	}
	var best Candidate
	found := false
	for block := range ix.Blocks {
		words := ix.BlockWords(block)
		for size := max(n, 2); size <= n+r.opts.PhraseSlack; size++ {
			for i := 0; i+size <= len(words); i++ {
				c, ok := span(words[i:i+size], query, StagePhrase)
				if ok && (!found || better(c, best)) {
					best, found = c, true
				}
			}
		}
	}
	return best, found
}

// lenient scores each query word on its own against every word token
func (r *Resolver) lenient(ix *ocr.Index, query string) (Candidate, bool) {
	var best Candidate
	found := false
	for _, w := range strings.Fields(alphanumeric(query)) {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		c, ok := r.bestToken(ix.Words, w, StageLenient)
		if ok && (!found || better(c, best)) {
			best, found = c, true
		}
	}
	if found {
		best.Stage = StageLenient
		best.Query = query
	}
	return best, found
}

// span scores the joined text of consecutive tokens and merges their boxes
func span(tokens []ocr.Token, query string, stage Stage) (Candidate, bool) {
	texts := make([]string, len(tokens))
	for i, t := range tokens {
		texts[i] = t.Text
	}
	text := strings.Join(texts, " ")
	res := Score(query, text)
	if !res.Match {
		return Candidate{}, false
	}

	var rects []geometry.Rect
	for _, t := range tokens {
		if poly, ok := geometry.ParseBox(t.BoundingBox); ok {
			rects = append(rects, poly.Bounds())
		}
	}
	merged, ok := geometry.Union(rects...)
	if !ok {
		return Candidate{}, false
	}

	c := fromToken(tokens[0], res, stage, query)
	c.Text = text
	c.BoundingBox = merged.Polygon()
	return c, true
}

func fromToken(t ocr.Token, res Result, stage Stage, query string) Candidate {
	return Candidate{
		PageNumber:  t.PageNumber,
		BoundingBox: t.BoundingBox,
		PageWidth:   t.PageWidth,
		PageHeight:  t.PageHeight,
		Unit:        t.Unit,
		Text:        t.Text,
		Score:       res.Score,
		Rule:        res.Rule,
		Stage:       stage,
		Query:       query,
	}
}
