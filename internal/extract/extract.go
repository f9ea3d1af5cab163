// Package extract turns uploaded .txt and .pdf files into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/apperr"
)

// DefaultMaxBytes is the upload size cap.
const DefaultMaxBytes = 5 << 20

var allowedExtensions = map[string]bool{
	".txt": true,
	".pdf": true,
}

// Allowed reports whether filename has a supported extension.
func Allowed(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Extractor stages uploads in a temporary file and extracts their text. The
// temporary file is removed before FromUpload returns.
type Extractor struct {
	dir      string
	maxBytes int64
	logger   *zap.Logger
}

// New returns an Extractor. An empty dir means the OS temp directory.
func New(dir string, maxBytes int64, logger *zap.Logger) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{dir: dir, maxBytes: maxBytes, logger: logger}
}

func (e *Extractor) MaxBytes() int64 {
	return e.maxBytes
}

func (e *Extractor) FromUpload(filename string, r io.Reader) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", apperr.Input("Nenhum arquivo selecionado")
	}
	if !Allowed(filename) {
		return "", apperr.Input("Formato de arquivo não permitido. Use .txt ou .pdf")
	}
	ext := strings.ToLower(filepath.Ext(filename))

	if e.dir != "" {
		if err := os.MkdirAll(e.dir, 0o700); err != nil {
			return "", apperr.Internal("Erro ao preparar upload", err)
		}
	}
	f, err := os.CreateTemp(e.dir, "upload-*"+ext)
	if err != nil {
		return "", apperr.Internal("Erro ao preparar upload", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Error("Failed to remove upload", zap.Error(err), zap.String("path", path))
		}
	}()

	n, err := io.Copy(f, io.LimitReader(r, e.maxBytes+1))
	closeErr := f.Close()
	if err != nil {
		return "", apperr.Extraction("Erro ao receber arquivo", err)
	}
	if closeErr != nil {
		return "", apperr.Extraction("Erro ao receber arquivo", closeErr)
	}
	if n > e.maxBytes {
		return "", apperr.Input(fmt.Sprintf("Arquivo excede o limite de %dMB", e.maxBytes>>20))
	}

	switch ext {
	case ".pdf":
		return readPDF(path)
	default:
		return readText(path)
	}
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.Extraction("Erro ao ler arquivo", err)
	}
	if !utf8.Valid(data) {
		return "", apperr.Extraction("Erro ao ler arquivo", fmt.Errorf("file is not valid UTF-8"))
	}
	return string(data), nil
}

func readPDF(path string) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", apperr.Extraction("Erro ao ler PDF", fmt.Errorf("%v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", apperr.Extraction("Erro ao ler PDF", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", apperr.Extraction("Erro ao ler PDF", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", apperr.Extraction("Erro ao ler PDF", err)
	}
	return buf.String(), nil
}
