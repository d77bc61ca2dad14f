package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app holds the state shared by every command
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	ocrPath    string
	ocrFormat  string
	mimeType   string
	noColor    bool

	cfg Config
	log *logrus.Logger
	out io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:   "ocrhighlight",
		Short: "Locate text in OCR results and highlight it on the source document",
		Long: `ocrhighlight finds the region of a document that matches a target string using
the document's OCR result, then prints, renders or exports the highlight.

The OCR result may be a generic OCR JSON (page arrays, text blocks, Azure
analyzeResult), hOCR, or Google Document AI JSON. PDFs with a text layer
need no OCR result at all.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to the YAML config file (default $"+envConfig+")")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $"+envLogLevel+" or config)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json (default config)")
	pf.StringVar(&a.ocrPath, "ocr", "", "Path to the OCR result")
	pf.StringVar(&a.ocrFormat, "ocr-format", formatAuto, "OCR format: auto, json, hocr, gdocai, pdftext")
	pf.StringVar(&a.mimeType, "mime", "", "Declared MIME type of the document (default: extension, then content)")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		a.locateCmd(),
		a.renderCmd(),
		a.exportCmd(),
		a.fieldsCmd(),
	)
	return root
}

// setup loads .env, the config file and the logger before any command runs
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := loadConfig(firstNonEmpty(a.configPath, os.Getenv(envConfig)))
	if err != nil {
		return err
	}

	log, err := newLogger(
		firstNonEmpty(a.logLevel, os.Getenv(envLogLevel), cfg.Log.Level),
		firstNonEmpty(a.logFormat, cfg.Log.Format),
		cmd.ErrOrStderr(),
	)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.out = cmd.OutOrStdout()
	return nil
}

// colors returns a palette that is only active on a terminal
func (a *app) colors() palette {
	enabled := !a.noColor && isTerminal(a.out)
	p := palette{
		page:  color.New(color.FgCyan),
		good:  color.New(color.FgGreen),
		fair:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed),
		label: color.New(color.FgWhite, color.Bold),
	}
	for _, c := range []*color.Color{p.page, p.good, p.fair, p.bad, p.label} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

type palette struct {
	page  *color.Color
	good  *color.Color
	fair  *color.Color
	bad   *color.Color
	label *color.Color
}

// score picks the colour for a match score
func (p palette) score(s float64) *color.Color {
	switch {
	case s >= 85:
		return p.good
	case s >= 60:
		return p.fair
	}
	return p.bad
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
