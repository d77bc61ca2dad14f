package ocr

import (
	"strings"

	"github.com/gardar/ocrhighlight/pkg/geometry"
)

// Index is the normalized, page scoped view of an OCR result
type Index struct {
	Blocks []Block // Blocks in document order
	Lines  []Token // Every line in document order
	Words  []Token // Every word in document order
}

// Block is a run of lines and words that share a page
type Block struct {
	PageNumber int     // 1-based page number
	PageWidth  float64 // Page width in the producer's unit
	PageHeight float64 // Page height in the producer's unit
	Unit       string  // Unit declared by the producer, if any
	Lines      []Line  // Text lines in reading order
	Words      []Word  // Words in reading order
}

// ResolvedUnit returns the declared unit or a guess from the page size
func (b Block) ResolvedUnit() geometry.Unit {
	return geometry.ResolveUnit(b.Unit, b.PageWidth, b.PageHeight)
}

// words returns the block's words without duplicating line words when the
// producer lists them at both levels.
func (b Block) words() []Word {
	if len(b.Words) > 0 {
		return b.Words
	}
	var out []Word
	for _, l := range b.Lines {
		out = append(out, l.Words...)
	}
	return out
}

// Line is a line of recognized text
type Line struct {
	Text        string // Line text (joined word text when the producer gave none)
	BoundingBox any    // Raw box as decoded from the producer
	Words       []Word // Words on this line
}

// Word is a single recognized word
type Word struct {
	Text        string  // Word text
	BoundingBox any     // Raw box as decoded from the producer
	Confidence  float64 // Recognition confidence, producer scale
}

// Kind distinguishes line tokens from word tokens
type Kind int

const (
	KindLine Kind = iota
	KindWord
)

func (k Kind) String() string {
	if k == KindWord {
		return "word"
	}
	return "line"
}

// Token is a leaf record of the index
type Token struct {
	Kind        Kind
	PageNumber  int
	Block       int // Index into Index.Blocks
	Position    int // Position of the line or word within its block
	Text        string
	BoundingBox any
	PageWidth   float64
	PageHeight  float64
	Unit        geometry.Unit
}

// Empty reports whether the index has nothing to search
func (ix *Index) Empty() bool {
	return ix == nil || (len(ix.Lines) == 0 && len(ix.Words) == 0)
}

// Pages returns the distinct page numbers in document order
func (ix *Index) Pages() []int {
	if ix == nil {
		return nil
	}
	seen := make(map[int]bool)
	var pages []int
	for _, b := range ix.Blocks {
		if !seen[b.PageNumber] {
			seen[b.PageNumber] = true
			pages = append(pages, b.PageNumber)
		}
	}
	return pages
}

// BlockLines returns the line tokens of one block
func (ix *Index) BlockLines(block int) []Token {
	var out []Token
	for _, t := range ix.Lines {
		if t.Block == block {
			out = append(out, t)
		}
	}
	return out
}

// BlockWords returns the word tokens of one block
func (ix *Index) BlockWords(block int) []Token {
	var out []Token
	for _, t := range ix.Words {
		if t.Block == block {
			out = append(out, t)
		}
	}
	return out
}

// Text joins every line of the index, one line per row and a blank row
// between pages.
func (ix *Index) Text() string {
	if ix == nil {
		return ""
	}
	var sb strings.Builder
	page := 0
	for i, t := range ix.Lines {
		if i > 0 && t.PageNumber != page {
			sb.WriteString("\n")
		}
		page = t.PageNumber
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Add appends a block and records its tokens
func (ix *Index) Add(b Block) {
	for i := range b.Lines {
		if strings.TrimSpace(b.Lines[i].Text) == "" && len(b.Lines[i].Words) > 0 {
			b.Lines[i].Text = joinWords(b.Lines[i].Words)
		}
	}

	blockIdx := len(ix.Blocks)
	ix.Blocks = append(ix.Blocks, b)
	unit := b.ResolvedUnit()

	for i, l := range b.Lines {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		ix.Lines = append(ix.Lines, Token{
			Kind:        KindLine,
			PageNumber:  b.PageNumber,
			Block:       blockIdx,
			Position:    i,
			Text:        l.Text,
			BoundingBox: l.BoundingBox,
			PageWidth:   b.PageWidth,
			PageHeight:  b.PageHeight,
			Unit:        unit,
		})
	}

	for i, w := range b.words() {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		ix.Words = append(ix.Words, Token{
			Kind:        KindWord,
			PageNumber:  b.PageNumber,
			Block:       blockIdx,
			Position:    i,
			Text:        w.Text,
			BoundingBox: w.BoundingBox,
			PageWidth:   b.PageWidth,
			PageHeight:  b.PageHeight,
			Unit:        unit,
		})
	}
}

func joinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
