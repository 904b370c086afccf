package textnorm

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"doc-reader/internal/numwords"
)

// SplitRule - разделитель внутри числа и слово, которым он читается
type SplitRule struct {
	Sep  rune
	Word string
}

var (
	// fractionRe - ссылки на законы и дроби с буквальной "/": 39/2015, 1/2, 12/05/2020.
	// Запятая в дробь не входит и читается дальше как десятичная.
	fractionRe = regexp.MustCompile(`\d+(?:/\d+(?:\.\d+)*)+`)
	// articleRe - "Art. 15", "artículo 3.2"; ключевое слово проверяется отдельно.
	// "artículos 10,11" - список, номер заканчивается на запятой.
	articleRe = regexp.MustCompile(`(?i)(art\pL*)(\.?\s+)(\d+(?:\.\d+)*)`)
	// wordTokenRe - слово в смысле \b с учетом Unicode
	wordTokenRe = regexp.MustCompile(`[\pL\pN_]+`)
	// plainNumberRe - число с разделителями разрядов и десятичной запятой
	plainNumberRe = regexp.MustCompile(`\d*(?:[.,]\d+)+|\d+`)
	digitsRe      = regexp.MustCompile(`\d+`)
)

// numberRewriter переписывает числовые выражения словами
type numberRewriter struct {
	speller numwords.Speller
	lex     Lexicon

	fractionSplits []SplitRule
	articleSplits  []SplitRule
	plainSplits    []SplitRule
}

func newNumberRewriter(speller numwords.Speller, lex Lexicon) *numberRewriter {
	return &numberRewriter{
		speller: speller,
		lex:     lex,
		fractionSplits: []SplitRule{
			{Sep: '.', Word: " " + lex.Point + " "},
			{Sep: '/', Word: " " + lex.Slash + " "},
		},
		articleSplits: []SplitRule{
			{Sep: '.', Word: " " + lex.Point + " "},
		},
		plainSplits: []SplitRule{
			{Sep: ',', Word: " " + lex.Comma + " "},
		},
	}
}

// rewriteFractions обрабатывает дроби и ссылки на нормативные акты.
// Вызывается до раскрытия символов, пока "/" еще в тексте.
func (r *numberRewriter) rewriteFractions(text string) string {
	return fractionRe.ReplaceAllStringFunc(text, func(m string) string {
		return r.processNumber(m, "", r.fractionSplits)
	})
}

// rewriteArticles переписывает номер после слова "artículo" и его сокращений
func (r *numberRewriter) rewriteArticles(text string) string {
	return replaceSubmatches(articleRe, text, func(m []string, prev rune) (string, bool) {
		keyword, sep, numeral := m[1], m[2], m[3]
		if isWordRune(prev) {
			return "", false
		}
		if _, ok := r.lex.ArticleKeywords[foldKeyword(keyword)]; !ok {
			return "", false
		}
		return keyword + sep + r.processNumber(numeral, "", r.articleSplits), true
	})
}

// rewriteRomans заменяет римские числа десятичной записью
func (r *numberRewriter) rewriteRomans(text string) string {
	return wordTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		if !isRomanNumeral(token) {
			return token
		}
		return romanToDigits(token)
	})
}

// rewritePlain читает оставшиеся числа: точки - разделители разрядов, запятая - десятичная.
// Число, приклеенное к букве, отделяется пробелом: "MP3" -> "MP tres".
func (r *numberRewriter) rewritePlain(text string) string {
	matches := plainNumberRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, loc := range matches {
		start, end := loc[0], loc[1]
		words := r.processNumber(text[start:end], ".", r.plainSplits)

		b.WriteString(text[last:start])
		if prev, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && unicode.IsLetter(prev) && !strings.HasPrefix(words, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(words)
		if next, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && unicode.IsLetter(next) && !strings.HasSuffix(words, " ") {
			b.WriteByte(' ')
		}
		last = end
	}
	b.WriteString(text[last:])

	return b.String()
}

// processNumber удаляет символы deleteChars, заменяет разделители словами и
// читает каждую группу цифр отдельно
func (r *numberRewriter) processNumber(number, deleteChars string, splits []SplitRule) string {
	if number == "" {
		return ""
	}

	if deleteChars != "" && strings.ContainsAny(number, deleteChars) {
		number = strings.Map(func(c rune) rune {
			if strings.ContainsRune(deleteChars, c) {
				return -1
			}
			return c
		}, number)
	}

	hasSplit := false
	for _, sp := range splits {
		if strings.ContainsRune(number, sp.Sep) {
			hasSplit = true
			break
		}
	}
	if !hasSplit {
		return r.spell(number)
	}

	for _, sp := range splits {
		number = strings.ReplaceAll(number, string(sp.Sep), sp.Word)
	}
	return digitsRe.ReplaceAllStringFunc(number, r.spell)
}

// spell читает группу цифр. Слишком длинные числа читаются по цифрам.
func (r *numberRewriter) spell(digits string) string {
	words, err := r.speller.Cardinal(digits)
	if err == nil {
		return words
	}
	if !errors.Is(err, numwords.ErrOutOfRange) {
		return digits
	}

	parts := make([]string, 0, len(digits))
	for _, d := range digits {
		w, err := r.speller.Cardinal(string(d))
		if err != nil {
			return digits
		}
		parts = append(parts, w)
	}
	return strings.Join(parts, " ")
}

// foldKeyword убирает диакритику и регистр: "ARTÍCULO" -> "articulo"
func foldKeyword(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Fold().String(folded)
}

// replaceSubmatches заменяет совпадения re результатом fn. fn получает
// подгруппы и руну перед совпадением; false оставляет совпадение как есть.
func replaceSubmatches(re *regexp.Regexp, text string, fn func(m []string, prev rune) (string, bool)) string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, loc := range matches {
		start, end := loc[0], loc[1]

		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = text[loc[2*g]:loc[2*g+1]]
			}
		}

		prev := rune(-1)
		if start > 0 {
			prev, _ = utf8.DecodeLastRuneInString(text[:start])
		}

		b.WriteString(text[last:start])
		if repl, ok := fn(groups, prev); ok {
			b.WriteString(repl)
		} else {
			b.WriteString(text[start:end])
		}
		last = end
	}
	b.WriteString(text[last:])

	return b.String()
}
