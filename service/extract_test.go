package service

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTextTXT(t *testing.T) {
	text, err := ExtractText("contract.txt", []byte("This agreement covers data processing.\n"))

	require.NoError(t, err)
	assert.Equal(t, "This agreement covers data processing.", text)
}

func TestExtractTextTXTInvalidUTF8(t *testing.T) {
	_, err := ExtractText("contract.txt", []byte{0xff, 0xfe, 0xfd})

	assert.Error(t, err)
}

func TestExtractTextDOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph of the contract.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph about </w:t></w:r><w:r><w:t>breach notification.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := ExtractText("contract.docx", buildDOCX(t, docXML))

	require.NoError(t, err)
	assert.Contains(t, text, "First paragraph of the contract.")
	assert.Contains(t, text, "Second paragraph about breach notification.")
	// Paragraphs must stay separated so segmentation can split them
	assert.Contains(t, text, "contract.\n\n")
}

func TestExtractTextDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractText("contract.docx", buf.Bytes())

	assert.Error(t, err)
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	_, err := ExtractText("contract.xlsx", []byte("irrelevant"))

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractTextEmptyDocument(t *testing.T) {
	_, err := ExtractText("contract.txt", []byte("   \n\t  "))

	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtractTextCorruptDOCX(t *testing.T) {
	_, err := ExtractText("contract.docx", []byte("not a zip archive"))

	assert.Error(t, err)
}
