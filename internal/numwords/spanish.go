package numwords

import (
	"fmt"
	"strconv"
	"strings"
)

// groupDigits - размер группы длинной шкалы (10^6)
const groupDigits = 6

var spanishUnits = [...]string{
	"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
	"diez", "once", "doce", "trece", "catorce", "quince",
	"dieciséis", "diecisiete", "dieciocho", "diecinueve",
	"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro",
	"veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
}

var spanishTens = [...]string{
	"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa",
}

var spanishHundreds = [...]string{
	"", "ciento", "doscientos", "trescientos", "cuatrocientos",
	"quinientos", "seiscientos", "setecientos", "ochocientos", "novecientos",
}

// spanishScales - названия степеней 10^(6k), единственное и множественное число
var spanishScales = [...][2]string{
	{"", ""},
	{"millón", "millones"},
	{"billón", "billones"},
	{"trillón", "trillones"},
	{"cuatrillón", "cuatrillones"},
	{"quintillón", "quintillones"},
	{"sextillón", "sextillones"},
	{"septillón", "septillones"},
	{"octillón", "octillones"},
	{"nonillón", "nonillones"},
	{"decillón", "decillones"},
}

// Spanish реализует Speller для испанского языка
type Spanish struct{}

// NewSpanish создает испанский Speller
func NewSpanish() *Spanish {
	return &Spanish{}
}

var _ Speller = (*Spanish)(nil)

// Cardinal возвращает испанское количественное числительное.
// Ведущие нули отбрасываются, "000" читается как "cero".
func (s *Spanish) Cardinal(digits string) (string, error) {
	if digits == "" {
		return "", nil
	}
	if err := validateDigits(digits); err != nil {
		return "", err
	}

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return spanishUnits[0], nil
	}
	if len(digits) > groupDigits*len(spanishScales) {
		return "", fmt.Errorf("%w: %d цифр", ErrOutOfRange, len(digits))
	}

	// Разбиваем на группы по 6 цифр справа налево
	var groups []int
	for end := len(digits); end > 0; end -= groupDigits {
		start := end - groupDigits
		if start < 0 {
			start = 0
		}
		g, err := strconv.Atoi(digits[start:end])
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidNumeral, digits)
		}
		groups = append(groups, g)
	}

	words := make([]string, 0, len(groups)*2)
	for k := len(groups) - 1; k >= 0; k-- {
		g := groups[k]
		if g == 0 {
			continue
		}
		if k == 0 {
			words = append(words, spanishBelowMillion(g, false))
			continue
		}
		if g == 1 {
			words = append(words, "un "+spanishScales[k][0])
		} else {
			words = append(words, spanishBelowMillion(g, true)+" "+spanishScales[k][1])
		}
	}

	return strings.Join(words, " "), nil
}

// spanishBelowMillion читает число 1..999999. apocope включает усеченную
// форму ("un", "veintiún") перед существительным шкалы.
func spanishBelowMillion(n int, apocope bool) string {
	thousands, rest := n/1000, n%1000

	var parts []string
	switch {
	case thousands == 1:
		parts = append(parts, "mil")
	case thousands > 1:
		parts = append(parts, spanishBelowThousand(thousands, true)+" mil")
	}
	if rest > 0 {
		parts = append(parts, spanishBelowThousand(rest, apocope))
	}

	return strings.Join(parts, " ")
}

// spanishBelowThousand читает число 1..999
func spanishBelowThousand(n int, apocope bool) string {
	if n == 100 {
		return "cien"
	}

	hundreds, rest := n/100, n%100

	var parts []string
	if hundreds > 0 {
		parts = append(parts, spanishHundreds[hundreds])
	}

	if rest > 0 {
		var w string
		if rest < len(spanishUnits) {
			w = spanishUnits[rest]
		} else {
			w = spanishTens[rest/10]
			if rest%10 > 0 {
				w += " y " + spanishUnits[rest%10]
			}
		}

		if apocope {
			switch {
			case rest == 21:
				w = "veintiún"
			case rest%10 == 1 && rest != 11:
				w = strings.TrimSuffix(w, "uno") + "un"
			}
		}
		parts = append(parts, w)
	}

	return strings.Join(parts, " ")
}
