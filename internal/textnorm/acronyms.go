package textnorm

import "strings"

const (
	minAcronymLen = 2
	maxAcronymLen = 5
)

// spellAcronyms читает по буквам слова из 2-5 заглавных латинских букв: "ONU" -> "ó ene ú"
func spellAcronyms(text string, letters map[rune]string) string {
	return wordTokenRe.ReplaceAllStringFunc(text, func(token string) string {
		if len(token) < minAcronymLen || len(token) > maxAcronymLen {
			return token
		}

		names := make([]string, 0, len(token))
		for _, r := range token {
			name, ok := letters[r]
			if !ok {
				return token
			}
			names = append(names, name)
		}
		return strings.Join(names, " ")
	})
}
