package extract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/charmap"

	"chatbotrag/src/core/chunking"
)

const (
	TypePlainText = "text/plain"
	TypeMarkdown  = "text/markdown"
	TypePDF       = "application/pdf"
	TypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeMSWord    = "application/msword"
	TypeOctet     = "application/octet-stream"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrNoText          = errors.New("no text could be extracted")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var typesByExtension = map[string]string{
	".txt":      TypePlainText,
	".text":     TypePlainText,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
}

// Extractor turns uploaded file bytes into plain text documents.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract decodes data according to its content type. When the declared type
// is missing or generic, the type is resolved from the file extension and then
// by sniffing the content.
func (e *Extractor) Extract(_ context.Context, filename, contentType string, data []byte) (chunking.Document, error) {
	if len(data) == 0 {
		return chunking.Document{}, fmt.Errorf("%s: %w", filename, ErrEmptyFile)
	}

	fileType := ResolveType(filename, contentType, data)

	var (
		content string
		err     error
	)
	switch fileType {
	case TypePlainText, TypeMarkdown:
		content = decodeText(data)
	case TypePDF:
		content, err = extractPDF(data)
	case TypeDOCX, TypeMSWord:
		content, err = extractDOCX(data)
		fileType = TypeDOCX
	default:
		if !isText(data) {
			return chunking.Document{}, fmt.Errorf("%s (%s): %w", filename, fileType, ErrUnsupportedType)
		}
		content = decodeText(data)
	}
	if err != nil {
		return chunking.Document{}, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	if strings.TrimSpace(content) == "" {
		return chunking.Document{}, fmt.Errorf("%s: %w", filename, ErrNoText)
	}

	return chunking.Document{
		Filename: filename,
		Content:  content,
		Type:     fileType,
	}, nil
}

// ResolveType returns the media type (without parameters) used to pick a decoder.
func ResolveType(filename, contentType string, data []byte) string {
	if mediaType := baseType(contentType); mediaType != "" && mediaType != TypeOctet {
		return mediaType
	}

	if t, ok := typesByExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}

	return baseType(mimetype.Detect(data).String())
}

func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is(TypePlainText) {
			return true
		}
	}
	return false
}

// decodeText reads data as UTF-8 and falls back to Latin-1 for anything else.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
