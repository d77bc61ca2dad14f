package main

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/gardar/ocrhighlight/pkg/viewer"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		value     string
		output    string
		zoom      float64
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "render <document> <target>",
		Short: "Render the page with the match highlighted to a PNG",
		Long: `Open the document, resolve the target, draw the highlight on the page that
contains it and write the page as a PNG. PDF pages are rasterized at 72 DPI
times the zoom; images are scaled by the zoom.

Examples:
  ocrhighlight render --ocr scan.json -o page.png scan.pdf "Member ID: A1029384"
  ocrhighlight render --ocr photo.hocr --zoom 0.5 -o small.png photo.jpg "Invoice"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(args[0])
			if err != nil {
				return err
			}
			in, err := a.loadOCR(doc)
			if err != nil {
				return err
			}

			opts := a.cfg.viewerOptions(a.log)
			if cmd.Flags().Changed("zoom") {
				opts.Zoom = zoom
			}
			v, err := viewer.Open(doc, in.index, opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := v.Close(); err != nil {
					a.log.WithError(err).Warn("Failed to close viewer")
				}
			}()

			hs, err := v.SearchValue(cmd.Context(), args[1], value)
			if err != nil {
				return err
			}
			if len(hs) == 0 {
				return fmt.Errorf("no match for %q", args[1])
			}
			v.Settle()

			page := hs[0].PageNumber
			img, err := v.Snapshot(page)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return fmt.Errorf("failed to encode PNG: %w", err)
			}
			if err := writeOutput(output, buf.Bytes(), overwrite); err != nil {
				return err
			}

			p := a.colors()
			fmt.Fprintf(a.out, "%s page %d rendered to %s\n", p.good.Sprint("✔"), page, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", `Value part of a "Key: Value" target`)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG path (required)")
	cmd.Flags().Float64Var(&zoom, "zoom", 1, "Zoom factor (default from config)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite the output file if it already exists")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// writeOutput writes data to path, refusing to replace an existing file
// unless overwrite is set.
func writeOutput(path string, data []byte, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("output file %s already exists, use --overwrite to replace it", path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check output file: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
