package textnorm

import (
	"fmt"

	"golang.org/x/text/language"

	"doc-reader/internal/numwords"
)

// Lexicon содержит слова, которыми язык озвучивает символы и разделители
type Lexicon struct {
	Slash   string // "/"
	Percent string // "%"
	Point   string // "." внутри ссылок и дробей
	Comma   string // десятичная запятая

	// ArticleKeywords - формы слова "статья" после свертки регистра и диакритики
	ArticleKeywords map[string]struct{}

	// LetterNames - произношение заглавных букв для аббревиатур
	LetterNames map[rune]string
}

var spanishLexicon = Lexicon{
	Slash:   "barra",
	Percent: "porciento",
	Point:   "punto",
	Comma:   "coma",
	ArticleKeywords: map[string]struct{}{
		"art":       {},
		"arts":      {},
		"artic":     {},
		"articulo":  {},
		"articulos": {},
	},
	LetterNames: map[rune]string{
		'A': "á", 'B': "bé", 'C': "cé", 'D': "dé", 'E': "é", 'F': "efe",
		'G': "gé", 'H': "ache", 'I': "í", 'J': "jota", 'K': "ká", 'L': "ele",
		'M': "eme", 'N': "ene", 'O': "ó", 'P': "pé", 'Q': "cú", 'R': "erre",
		'S': "ese", 'T': "té", 'U': "ú", 'V': "uve", 'W': "uve doble",
		'X': "equis", 'Y': "i griega", 'Z': "zeta",
	},
}

// lexiconFor возвращает словарь символов и тег языка для кода BCP 47
func lexiconFor(code string) (Lexicon, language.Tag, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return Lexicon{}, language.Und, fmt.Errorf("%w: %q", numwords.ErrUnsupportedLanguage, code)
	}

	base, _ := tag.Base()
	switch base.String() {
	case "es":
		return spanishLexicon, tag, nil
	default:
		return Lexicon{}, language.Und, fmt.Errorf("%w: %q", numwords.ErrUnsupportedLanguage, code)
	}
}
