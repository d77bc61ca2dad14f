package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrhighlight/pkg/gdocai"
	"github.com/gardar/ocrhighlight/pkg/geometry"
	"github.com/gardar/ocrhighlight/pkg/match"
	"github.com/gardar/ocrhighlight/pkg/ocr"
)

// matchResult is one resolved match as printed by locate and fields
type matchResult struct {
	Target string      `json:"target"`
	Found  bool        `json:"found"`
	Page   int         `json:"page,omitempty"`
	Score  float64     `json:"score,omitempty"`
	Stage  string      `json:"stage,omitempty"`
	Rule   string      `json:"rule,omitempty"`
	Query  string      `json:"query,omitempty"`
	Text   string      `json:"text,omitempty"`
	Unit   string      `json:"unit,omitempty"`
	Box    *[4]float64 `json:"box,omitempty"`
}

func (a *app) locateCmd() *cobra.Command {
	var (
		value   string
		docPath string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "locate <target>",
		Short: "Print the best OCR match for a target",
		Long: `Resolve a target against the OCR result and print the page, score and
bounding box of the best match. "Key: Value" targets fall back to the value
and to relaxed variants of it when the full target is not found.

Examples:
  ocrhighlight locate --ocr scan.json "Date of Birth: 04/12/1980"
  ocrhighlight locate --doc report.pdf "Total due" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := a.indexFor(docPath)
			if err != nil {
				return err
			}

			resolver := match.New(a.cfg.resolverOptions(a.log))
			res := locate(resolver, ix, args[0], value)

			if asJSON {
				out, err := gdocai.ToJSON(res)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, out)
			} else {
				printMatch(a.out, a.colors(), res)
			}
			if !res.Found {
				return fmt.Errorf("no match for %q", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", `Value part of a "Key: Value" target (default: text after the first colon)`)
	cmd.Flags().StringVar(&docPath, "doc", "", "Source PDF, used for its text layer when --ocr is not set")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")
	return cmd
}

// indexFor loads the OCR index, opening the document only when one is given
func (a *app) indexFor(docPath string) (*ocr.Index, error) {
	in, err := a.inputFor(docPath)
	if err != nil {
		return nil, err
	}
	return in.index, nil
}

func (a *app) inputFor(docPath string) (*ocrInput, error) {
	if docPath == "" {
		return a.loadOCR(nil)
	}
	doc, err := a.loadDocument(docPath)
	if err != nil {
		return nil, err
	}
	return a.loadOCR(doc)
}

// locate resolves one target and describes the best match
func locate(r *match.Resolver, ix *ocr.Index, target, value string) matchResult {
	res := matchResult{Target: target}

	cands := r.Locate(ix, target, value)
	hs := r.Highlights(cands)
	if len(hs) == 0 {
		return res
	}

	c, h := cands[0], hs[0]
	box := h.Rect()
	res.Found = true
	res.Page = h.PageNumber
	res.Score = h.Score
	res.Stage = c.Stage.String()
	res.Rule = string(c.Rule)
	res.Query = c.Query
	res.Text = h.Text
	res.Unit = h.SourceUnit.String()
	res.Box = &[4]float64{box.X1, box.Y1, box.X2, box.Y2}
	return res
}

// highlightsFor resolves every target and collects the highlights
func highlightsFor(r *match.Resolver, ix *ocr.Index, targets []string, values []string) []geometry.ResolvedHighlight {
	var out []geometry.ResolvedHighlight
	for i, target := range targets {
		value := ""
		if i < len(values) {
			value = values[i]
		}
		out = append(out, r.Highlights(r.Locate(ix, target, value))...)
	}
	return out
}

func printMatch(w io.Writer, p palette, res matchResult) {
	if !res.Found {
		fmt.Fprintf(w, "%s %q\n", p.bad.Sprint("no match"), res.Target)
		return
	}
	fmt.Fprintf(w, "%s %s  %s  %q\n",
		p.page.Sprintf("p.%-4d", res.Page),
		p.score(res.Score).Sprintf("[%3.0f%%]", res.Score),
		p.label.Sprintf("%s/%s", res.Stage, res.Rule),
		res.Text,
	)
	fmt.Fprintf(w, "       box [%.1f, %.1f, %.1f, %.1f] %s\n",
		res.Box[0], res.Box[1], res.Box[2], res.Box[3], res.Unit)
}
