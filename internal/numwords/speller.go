// Package numwords преобразует записи чисел в слова.
//
// Сейчас поддерживается только испанский язык: количественные числительные
// по длинной шкале (mil, millón, billón, ...), как их читает синтезатор речи.
package numwords

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

var (
	// ErrUnsupportedLanguage возвращается для языка без реализации
	ErrUnsupportedLanguage = errors.New("язык не поддерживается")
	// ErrInvalidNumeral возвращается, если в записи есть не только цифры
	ErrInvalidNumeral = errors.New("некорректная запись числа")
	// ErrOutOfRange возвращается для чисел длиннее поддерживаемой шкалы
	ErrOutOfRange = errors.New("число вне допустимого диапазона")
)

// Speller превращает строку из цифр в количественное числительное
type Speller interface {
	// Cardinal возвращает числительное для строки из цифр. Пустая строка
	// возвращается как есть.
	Cardinal(digits string) (string, error)
}

// ForLanguage возвращает Speller для кода языка (BCP 47, например "es" или "es-AR")
func ForLanguage(code string) (Speller, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	base, _ := tag.Base()
	switch base.String() {
	case "es":
		return NewSpanish(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
}

// validateDigits проверяет, что строка состоит только из ASCII цифр
func validateDigits(digits string) error {
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidNumeral, digits)
		}
	}
	return nil
}
