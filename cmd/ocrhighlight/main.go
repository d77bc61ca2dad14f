// ocrhighlight is a command-line tool for locating text in OCR results and highlighting it on the
// source document.
//
// It resolves a target string (typically an extracted "Field: Value" pair) against the OCR
// tokens of a document using a structural fuzzy matcher, converts the matched OCR coordinates
// to the document's own coordinate space, and then prints, renders or exports the result.
//
// Usage:
//
//	ocrhighlight <command> [flags]
//
// Commands:
//
//	locate   Print the best match for a target
//	render   Render the page with the match highlighted to a PNG
//	export   Write a PDF with the matches on a highlight layer
//	fields   Locate every Document AI form field and entity
//
// Global flags:
//
//	--ocr string          Path to the OCR result (JSON, hOCR or Document AI JSON)
//	--ocr-format string   auto, json, hocr, gdocai or pdftext (default auto)
//	--mime string         Declared MIME type of the document
//	--config string       Path to the YAML config file (default $OCRHIGHLIGHT_CONFIG)
//	--log-level string    debug, info, warn or error (default $OCRHIGHLIGHT_LOG_LEVEL)
//	--log-format string   text or json
//
// A .env file in the working directory is loaded before the environment is read.
//
// Examples:
//
// Locate a field in an OCR result:
//
//	ocrhighlight locate --ocr scan.json "Date of Birth: 04/12/1980"
//
// Render the highlighted page of a PDF at twice the size:
//
//	ocrhighlight render --ocr scan.json --zoom 2 -o page.png scan.pdf "Member ID: A1029384"
//
// Export every Document AI field as a PDF highlight layer:
//
//	ocrhighlight export --ocr docai.json --fields -o highlighted.pdf form.pdf
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
