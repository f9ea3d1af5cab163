package extract

import (
	"bytes"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/mail-triage/internal/apperr"
	"github.com/xaenox/mail-triage/internal/extract/extracttest"
)

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload must not outlive extraction")
}

func TestFromUploadText(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 0, nil)

	text, err := e.FromUpload("pedido.TXT", strings.NewReader("Olá, preciso de ajuda com o boleto."))
	require.NoError(t, err)
	assert.Equal(t, "Olá, preciso de ajuda com o boleto.", text)
	assertDirEmpty(t, dir)
}

func TestFromUploadPDF(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 0, nil)

	text, err := e.FromUpload("mail.pdf", bytes.NewReader(extracttest.PDF("Preciso de ajuda com o ticket")))
	require.NoError(t, err)
	assert.Equal(t, "Preciso de ajuda com o ticket", strings.TrimSpace(text))
	assertDirEmpty(t, dir)
}

func TestFromUploadRejectsExtension(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 0, nil)

	for _, name := range []string{"contrato.docx", "script", "foto.png.exe"} {
		_, err := e.FromUpload(name, strings.NewReader("conteúdo"))
		require.Error(t, err)
		assert.True(t, apperr.IsInput(err), name)
		assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(err))
	}
	assertDirEmpty(t, dir)
}

func TestFromUploadEmptyName(t *testing.T) {
	_, err := New(t.TempDir(), 0, nil).FromUpload("", strings.NewReader("x"))
	assert.True(t, apperr.IsInput(err))
}

func TestFromUploadTooLarge(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 16, nil)

	_, err := e.FromUpload("big.txt", bytes.NewReader(bytes.Repeat([]byte("a"), 17)))
	assert.True(t, apperr.IsInput(err))
	assertDirEmpty(t, dir)

	text, err := e.FromUpload("exact.txt", bytes.NewReader(bytes.Repeat([]byte("a"), 16)))
	require.NoError(t, err)
	assert.Len(t, text, 16)
}

func TestFromUploadUnreadable(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 0, nil)

	tests := []struct {
		name string
		file string
		body []byte
	}{
		{name: "corrupt pdf", file: "email.pdf", body: []byte("%PDF-1.4 not really a pdf")},
		{name: "invalid utf-8", file: "email.txt", body: []byte{0xff, 0xfe, 0xfd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FromUpload(tt.file, bytes.NewReader(tt.body))
			require.Error(t, err)
			assert.False(t, apperr.IsInput(err))
			assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
			assertDirEmpty(t, dir)
		})
	}
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("a.txt"))
	assert.True(t, Allowed("A.PDF"))
	assert.False(t, Allowed("a.docx"))
	assert.False(t, Allowed("txt"))
}
