package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrhighlight/pkg/gdocai"
	"github.com/gardar/ocrhighlight/pkg/match"
	"github.com/gardar/ocrhighlight/pkg/pdfmark"
	"github.com/gardar/ocrhighlight/pkg/surface"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		output    string
		layer     string
		startPage int
		force     bool
		debug     bool
		dumpPDF   bool
		fields    bool
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "export <document> [target...]",
		Short: "Write a PDF with the matches on a highlight layer",
		Long: `Resolve each target and write a PDF with the matches filled on an optional
content layer per page, so PDF readers can toggle the highlights. PDFs keep
their original pages; images become a one page PDF at 96 DPI.

A PDF that already has a highlight layer is refused unless --force is set.

Examples:
  ocrhighlight export --ocr scan.json -o out.pdf scan.pdf "Name: Jane Doe" "Member ID: A1029384"
  ocrhighlight export --ocr docai.json --fields -o out.pdf form.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(args[0])
			if err != nil {
				return err
			}
			in, err := a.loadOCR(doc)
			if err != nil {
				return err
			}

			targets := args[1:]
			values := make([]string, len(targets))
			if fields {
				if in.docai == nil {
					return fmt.Errorf("--fields needs Document AI input")
				}
				for _, f := range gdocai.ExtractFields(in.docai) {
					targets = append(targets, f.Target())
					values = append(values, f.Value)
				}
			}
			if len(targets) == 0 {
				return fmt.Errorf("no targets: pass one or more targets or --fields")
			}

			resolver := match.New(a.cfg.resolverOptions(a.log))
			hs := highlightsFor(resolver, in.index, targets, values)
			if len(hs) == 0 {
				return fmt.Errorf("none of the %d targets matched", len(targets))
			}

			cfg := a.cfg.exportConfig(a.log)
			cfg.Force = force
			cfg.StartPage = startPage
			cfg.Debug = debug
			cfg.DumpPDF = dumpPDF
			if layer != "" {
				cfg.LayerName = layer
			}

			var out []byte
			if doc.Type == surface.TypePDF {
				out, err = pdfmark.ApplyHighlights(doc.Data, hs, cfg)
			} else {
				if force {
					a.log.Warn("--force only applies to PDF input, ignoring it")
				}
				out, err = pdfmark.AssembleWithHighlights([][]byte{doc.Data}, hs, cfg)
			}
			if err != nil {
				return err
			}

			if err := writeOutput(output, out, overwrite); err != nil {
				return err
			}

			p := a.colors()
			fmt.Fprintf(a.out, "%s %d of %d targets highlighted in %s\n",
				p.good.Sprint("✔"), len(hs), len(targets), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF path (required)")
	cmd.Flags().StringVar(&layer, "layer", "", "Base name of the highlight layer (default from config)")
	cmd.Flags().IntVar(&startPage, "start-page", 1, "PDF page that OCR page 1 corresponds to")
	cmd.Flags().BoolVar(&force, "force", false, "Write highlights even if a highlight layer already exists")
	cmd.Flags().BoolVar(&debug, "debug", false, "Outline each highlight in red")
	cmd.Flags().BoolVar(&dumpPDF, "dump-pdf", false, "Log the PDF structure at debug level")
	cmd.Flags().BoolVar(&fields, "fields", false, "Highlight every Document AI form field and entity")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite the output file if it already exists")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
