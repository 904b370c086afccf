package textnorm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidRoman возвращается для символов вне таблицы римских цифр
var ErrInvalidRoman = errors.New("некорректное римское число")

// romanValues - значения римских цифр
var romanValues = map[byte]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

// romanNumeralRe - каноническая запись римского числа целым токеном
var romanNumeralRe = regexp.MustCompile(`^M{0,4}(?:CM|CD|D?C{0,3})(?:XC|XL|L?X{0,3})(?:IX|IV|V?I{0,3})$`)

// RomanToInt переводит римское число в целое. Символ, меньший следующего,
// вычитается, остальные прибавляются. Неизвестные символы дают ошибку.
func RomanToInt(roman string) (int, error) {
	total := 0
	for i := 0; i < len(roman); i++ {
		v, ok := romanValues[roman[i]]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRoman, roman)
		}
		if i+1 < len(roman) {
			if next, ok := romanValues[roman[i+1]]; ok && v < next {
				total -= v
				continue
			}
		}
		total += v
	}
	return total, nil
}

// romanToDigits возвращает десятичную запись римского числа.
// Пустая строка и некорректный ввод возвращают пустую строку.
func romanToDigits(roman string) string {
	if roman == "" {
		return ""
	}
	n, err := RomanToInt(roman)
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}

// isRomanNumeral проверяет, что токен целиком является римским числом
func isRomanNumeral(token string) bool {
	return token != "" && romanNumeralRe.MatchString(token)
}
