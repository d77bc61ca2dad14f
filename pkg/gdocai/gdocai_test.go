package gdocai

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/match"
)

const sampleText = "Name: Jane Doe\nMember ID: A1029384\n"

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func layout(start, end int64, x1, y1, x2, y2 float32) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: anchor(start, end),
		Confidence: 0.9,
		BoundingPoly: &documentaipb.BoundingPoly{
			NormalizedVertices: []*documentaipb.NormalizedVertex{
				{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
			},
		},
	}
}

func sampleDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Text: sampleText,
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			Dimension:  &documentaipb.Document_Page_Dimension{Width: 1000, Height: 2000, Unit: "pixels"},
			Blocks: []*documentaipb.Document_Page_Block{
				{Layout: layout(0, 35, 0.1, 0.1, 0.6, 0.17)},
			},
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: layout(0, 15, 0.1, 0.1, 0.5, 0.12)},
				{Layout: layout(15, 35, 0.1, 0.15, 0.6, 0.17)},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				{Layout: layout(0, 6, 0.1, 0.1, 0.2, 0.12)},
				{Layout: layout(6, 11, 0.22, 0.1, 0.35, 0.12)},
				{Layout: layout(11, 15, 0.37, 0.1, 0.5, 0.12)},
			},
			FormFields: []*documentaipb.Document_Page_FormField{
				{FieldName: layout(0, 5, 0.1, 0.1, 0.2, 0.12), FieldValue: layout(6, 14, 0.22, 0.1, 0.5, 0.12)},
				{FieldName: layout(0, 0, 0, 0, 0, 0), FieldValue: layout(6, 14, 0.22, 0.1, 0.5, 0.12)},
			},
		}},
		Entities: []*documentaipb.Document_Entity{
			{
				Type: "member",
				Properties: []*documentaipb.Document_Entity{{
					Type:        "id",
					MentionText: "A1029384",
					PageAnchor: &documentaipb.Document_PageAnchor{
						PageRefs: []*documentaipb.Document_PageAnchor_PageRef{{Page: 0}},
					},
				}},
			},
			{Type: "plan"},
		},
	}
}

func TestLoad(t *testing.T) {
	data, err := protojson.Marshal(sampleDocument())
	require.NoError(t, err)

	doc, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, sampleText, doc.Text)
	require.Len(t, doc.Pages, 1)

	_, err = Load([]byte(`{"text": "no pages"}`))
	assert.Error(t, err)

	_, err = Load([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Load([]byte(`{"text": "x", "pages": [{"pageNumber": 1}], "someFutureField": true}`))
	assert.NoError(t, err, "unknown fields are ignored")
}

func TestToIndex(t *testing.T) {
	ix := ToIndex(sampleDocument())

	require.Len(t, ix.Blocks, 1)
	require.Len(t, ix.Lines, 2)
	assert.Equal(t, "Name: Jane Doe", ix.Lines[0].Text)
	assert.Equal(t, "Member ID: A1029384", ix.Lines[1].Text)
	assert.Equal(t, geometry.UnitPixel, ix.Lines[0].Unit)
	assert.Equal(t, 1000.0, ix.Lines[0].PageWidth)
	assert.Equal(t, 2000.0, ix.Lines[0].PageHeight)

	var words []string
	for _, w := range ix.Words {
		words = append(words, w.Text)
	}
	assert.Equal(t, []string{"Name:", "Jane", "Doe"}, words)

	poly, ok := geometry.ParseBox(ix.Lines[1].BoundingBox)
	require.True(t, ok)
	r := poly.Bounds()
	assert.InDelta(t, 100, r.X1, 0.01)
	assert.InDelta(t, 300, r.Y1, 0.01)
	assert.InDelta(t, 600, r.X2, 0.01)
	assert.InDelta(t, 340, r.Y2, 0.01)

	assert.True(t, ToIndex(nil).Empty())
}

func TestToIndexKeepsLinesOutsideBlocks(t *testing.T) {
	doc := sampleDocument()
	doc.Pages[0].Blocks = nil

	ix := ToIndex(doc)
	assert.Len(t, ix.Blocks, 1)
	assert.Len(t, ix.Lines, 2)

	doc.Pages[0].Lines = nil
	ix = ToIndex(doc)
	assert.Empty(t, ix.Lines)
	assert.Len(t, ix.Words, 3, "tokens are searchable without lines")
}

func TestLocateInDocumentAI(t *testing.T) {
	ix := ToIndex(sampleDocument())
	r := match.New(match.DefaultOptions())

	hs := r.Highlights(r.Locate(ix, "Member ID: A1029384", ""))
	require.Len(t, hs, 1)
	assert.Equal(t, 1, hs[0].PageNumber)
	assert.Equal(t, geometry.UnitPixel, hs[0].SourceUnit)
	assert.InDelta(t, 300, hs[0].Rect().Y1, 0.01)
}

func TestExtractFields(t *testing.T) {
	fields := ExtractFields(sampleDocument())

	require.Len(t, fields, 2)
	assert.Equal(t, Field{Name: "Name", Value: "Jane Doe", Page: 1, Source: SourceForm}, fields[0])
	assert.Equal(t, Field{Name: "member/id", Value: "A1029384", Page: 1, Source: SourceEntity}, fields[1])
	assert.Equal(t, "Name: Jane Doe", fields[0].Target())
	assert.Equal(t, "Jane", Field{Value: "Jane"}.Target())

	assert.Nil(t, ExtractFields(nil))
}

func TestFieldMap(t *testing.T) {
	m := FieldMap([]Field{
		{Name: "Phone", Value: "555-0100"},
		{Name: "Phone", Value: "555-0199"},
		{Name: "Phone", Value: "555-0100"},
		{Name: "Name", Value: "Jane Doe"},
		{Name: "Name", Value: "Jane Doe"},
	})

	assert.Equal(t, []string{"555-0100", "555-0199"}, m["Phone"])
	assert.Equal(t, "Jane Doe", m["Name"])
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(sampleDocument())
	require.NoError(t, err)

	doc, err := Load([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, sampleText, doc.Text)

	out, err = ToJSON(map[string]string{"Name": "Jane Doe"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Name": "Jane Doe"}`, out)
}
