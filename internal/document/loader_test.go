package document

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Artículo 1</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t xml:space="preserve">Las multas </w:t></w:r><w:r><w:t>son de 50%</w:t></w:r></w:p>
    <w:p><w:r><w:t>Ver</w:t><w:tab/><w:t>Capítulo IV</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoadDocx(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML,
	})

	text, err := l.Load("Ley.DOCX", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Artículo 1. Las multas son de 50%. Ver\tCapítulo IV", text)
}

func TestLoadDocxNestedParagraph(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)
	data := buildDocx(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>Antes</w:t></w:r>` +
			`<w:r><w:pict><w:txbxContent><w:p><w:r><w:t>caja</w:t></w:r></w:p></w:txbxContent></w:pict></w:r>` +
			`<w:r><w:t>después</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Fin</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	text, err := l.Load("caja.docx", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Antes caja después. Fin", text)
}

func TestLoadDocxWithoutBody(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)
	data := buildDocx(t, map[string]string{"word/styles.xml": `<w:styles/>`})

	_, err := l.Load("vacio.docx", bytes.NewReader(data))
	assert.Error(t, err)
}

func TestLoadDocxNotZip(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)

	_, err := l.Load("roto.docx", strings.NewReader("no es un zip"))
	assert.Error(t, err)
}

// buildPDF собирает минимальный pdf: по одному потоку содержимого на страницу
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, content := range pages {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestLoadPDF(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)
	data := buildPDF(t,
		"BT /F1 12 Tf 72 720 Td 14 TL (Ley 39/2015) Tj T* (Art. 15) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Fin) Tj ET",
	)

	text, err := l.Load("Ley.PDF", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Ley 39/2015 Art. 15 Fin", text)
}

func TestLoadPDFBroken(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)

	_, err := l.Load("roto.pdf", strings.NewReader("%PDF-1.4\nno es un pdf"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadText(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)

	text, err := l.Load("nota.txt", strings.NewReader("\xef\xbb\xbfHola, señor"))
	require.NoError(t, err)
	assert.Equal(t, "Hola, señor", text)
}

func TestLoadTextInvalidUTF8(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)

	_, err := l.Load("latin1.txt", bytes.NewReader([]byte{'a', 0xf1, 'o'}))
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestLoadUnsupported(t *testing.T) {
	l := NewLoader(zap.NewNop(), 0)

	for _, name := range []string{"ley.odt", "ley.doc", "sin_extension"} {
		t.Run(name, func(t *testing.T) {
			_, err := l.Load(name, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}

func TestLoadTooLarge(t *testing.T) {
	l := NewLoader(zap.NewNop(), 4)

	_, err := l.Load("grande.txt", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	text, err := l.Load("justo.txt", strings.NewReader("1234"))
	require.NoError(t, err)
	assert.Equal(t, "1234", text)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.txt"))
	assert.True(t, Supported("A.Docx"))
	assert.True(t, Supported("a.pdf"))
	assert.False(t, Supported("a.odt"))
}
