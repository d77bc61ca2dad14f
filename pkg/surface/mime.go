package surface

import (
	"bytes"
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFileType is returned when no tier can identify the document
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Type is a supported document type
type Type int

const (
	TypeUnknown Type = iota
	TypePDF
	TypePNG
	TypeJPEG
	TypeGIF
	TypeWEBP
)

// MIME returns the canonical MIME type
func (t Type) MIME() string {
	switch t {
	case TypePDF:
		return "application/pdf"
	case TypePNG:
		return "image/png"
	case TypeJPEG:
		return "image/jpeg"
	case TypeGIF:
		return "image/gif"
	case TypeWEBP:
		return "image/webp"
	}
	return ""
}

func (t Type) String() string {
	if m := t.MIME(); m != "" {
		return m
	}
	return "unknown"
}

// IsImage reports whether the type is a raster image
func (t Type) IsImage() bool {
	return t == TypePNG || t == TypeJPEG || t == TypeGIF || t == TypeWEBP
}

var mimeTypes = map[string]Type{
	"application/pdf":   TypePDF,
	"application/x-pdf": TypePDF,
	"image/png":         TypePNG,
	"image/jpeg":        TypeJPEG,
	"image/jpg":         TypeJPEG,
	"image/pjpeg":       TypeJPEG,
	"image/gif":         TypeGIF,
	"image/webp":        TypeWEBP,
}

var extensions = map[string]Type{
	".pdf":  TypePDF,
	".png":  TypePNG,
	".jpg":  TypeJPEG,
	".jpeg": TypeJPEG,
	".jpe":  TypeJPEG,
	".gif":  TypeGIF,
	".webp": TypeWEBP,
}

// ResolveType identifies a document from, in order, the declared MIME type,
// the filename extension and the leading bytes.
func ResolveType(declared, filename string, data []byte) (Type, error) {
	if declared != "" {
		if media, _, err := mime.ParseMediaType(declared); err == nil {
			if t, ok := mimeTypes[strings.ToLower(media)]; ok {
				return t, nil
			}
		}
	}
	if filename != "" {
		if t, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
			return t, nil
		}
	}
	if t := Sniff(data); t != TypeUnknown {
		return t, nil
	}
	return TypeUnknown, ErrUnsupportedFileType
}

// Sniff identifies a document by its magic bytes
func Sniff(b []byte) Type {
	switch {
	case bytes.HasPrefix(b, []byte("%PDF")):
		return TypePDF
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47}):
		return TypePNG
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return TypeJPEG
	case bytes.HasPrefix(b, []byte("GIF8")):
		return TypeGIF
	case len(b) >= 12 && bytes.Equal(b[:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return TypeWEBP
	}
	return TypeUnknown
}
