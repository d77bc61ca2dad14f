package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrhighlight/pkg/gdocai"
	"github.com/gardar/ocrhighlight/pkg/match"
)

// fieldResult is a Document AI field and where it was found
type fieldResult struct {
	Name   string      `json:"name"`
	Value  string      `json:"value"`
	Page   int         `json:"page,omitempty"`
	Source string      `json:"source"`
	Match  matchResult `json:"match"`
}

func (a *app) fieldsCmd() *cobra.Command {
	var (
		docPath string
		asJSON  bool
		asMap   bool
	)

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Locate every Document AI form field and entity",
		Long: `List the form fields and custom extractor entities of a Document AI result
and locate each "Name: Value" pair in the OCR layout of the same result.

Examples:
  ocrhighlight fields --ocr docai.json
  ocrhighlight fields --ocr docai.json --json
  ocrhighlight fields --ocr docai.json --map`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.inputFor(docPath)
			if err != nil {
				return err
			}
			if in.docai == nil {
				return fmt.Errorf("fields needs Document AI input, got %s", in.format)
			}

			fields := gdocai.ExtractFields(in.docai)
			if asMap {
				out, err := gdocai.ToJSON(gdocai.FieldMap(fields))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, out)
				return nil
			}

			resolver := match.New(a.cfg.resolverOptions(a.log))
			rows := make([]fieldResult, 0, len(fields))
			for _, f := range fields {
				rows = append(rows, fieldResult{
					Name:   f.Name,
					Value:  f.Value,
					Page:   f.Page,
					Source: f.Source,
					Match:  locate(resolver, in.index, f.Target(), f.Value),
				})
			}

			if asJSON {
				out, err := gdocai.ToJSON(rows)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, out)
				return nil
			}
			printFields(a.out, a.colors(), rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "Source document (optional)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the fields and matches as JSON")
	cmd.Flags().BoolVar(&asMap, "map", false, "Print the fields as a name to value JSON map")
	return cmd
}

func printFields(w io.Writer, p palette, rows []fieldResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, p.label.Sprint("FIELD\tVALUE\tPAGE\tSCORE\tBOX"))

	found := 0
	for _, r := range rows {
		if !r.Match.Found {
			fmt.Fprintf(tw, "%s\t%s\t-\t%s\t-\n", r.Name, r.Value, p.bad.Sprint("  none"))
			continue
		}
		found++
		b := r.Match.Box
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t[%.0f, %.0f, %.0f, %.0f]\n",
			r.Name, r.Value, r.Match.Page,
			p.score(r.Match.Score).Sprintf("%5.1f%%", r.Match.Score),
			b[0], b[1], b[2], b[3])
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d of %d fields located\n", found, len(rows))
}
