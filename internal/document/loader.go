// Package document извлекает текст из загруженных документов
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFormat возвращается для форматов, которые не умеем читать
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат документа")
	// ErrTooLarge возвращается, если документ больше лимита
	ErrTooLarge = errors.New("документ слишком большой")
	// ErrInvalidEncoding возвращается для текстовых файлов не в UTF-8
	ErrInvalidEncoding = errors.New("текст не в кодировке UTF-8")
)

const (
	extTXT  = ".txt"
	extDOCX = ".docx"
	extPDF  = ".pdf"

	docxBody = "word/document.xml"
	// paragraphSeparator соединяет абзацы docx, чтобы синтезатор делал паузу
	paragraphSeparator = ". "
)

// Loader читает текст документов по расширению имени файла
type Loader struct {
	logger   *zap.Logger
	maxBytes int64
}

// NewLoader создает загрузчик. maxBytes <= 0 снимает ограничение размера.
func NewLoader(logger *zap.Logger, maxBytes int64) *Loader {
	return &Loader{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// Supported сообщает, умеет ли загрузчик читать файл с таким именем
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case extTXT, extDOCX, extPDF:
		return true
	default:
		return false
	}
}

// Load возвращает текст документа name из r
func (l *Loader) Load(name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !Supported(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	data, err := l.readAll(r)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения документа %s: %w", name, err)
	}

	var text string
	switch ext {
	case extTXT:
		text, err = plainText(data)
	case extDOCX:
		text, err = docxText(data)
	case extPDF:
		text, err = pdfText(data)
	}
	if err != nil {
		return "", fmt.Errorf("ошибка извлечения текста из %s: %w", name, err)
	}

	l.logger.Debug("текст документа извлечен",
		zap.String("name", name),
		zap.Int("bytes", len(data)),
		zap.Int("chars", utf8.RuneCountInString(text)))

	return text, nil
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}
	return string(data), nil
}

// docxText собирает текст абзацев word/document.xml
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ошибка открытия docx: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("в docx нет %s", docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("ошибка открытия %s: %w", docxBody, err)
	}
	defer rc.Close()

	paragraphs, err := parseParagraphs(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, paragraphSeparator), nil
}

// pdfText склеивает текст страниц, переводы строк заменяются пробелами
func pdfText(data []byte) (text string, err error) {
	// Разбор битых файлов в библиотеке может паниковать
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("ошибка разбора pdf: %v", r)
		}
	}()

	pr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ошибка открытия pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= pr.NumPage(); i++ {
		page := pr.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("ошибка чтения страницы %d: %w", i, err)
		}

		content = strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(content))
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(content)
	}

	return b.String(), nil
}

// parseParagraphs проходит по токенам WordprocessingML: w:p - абзац,
// w:t - текст, w:tab и w:br - пробельные символы. Пустые абзацы пропускаются.
// Вложенные абзацы (надписи внутри абзаца) входят во внешний абзац.
func parseParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка разбора xml документа: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				} else {
					current.WriteByte(' ')
				}
				depth++
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth > 0 {
					depth--
				}
				if depth > 0 {
					current.WriteByte(' ')
					continue
				}
				if p := strings.TrimSpace(current.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
