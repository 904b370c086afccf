package textnorm

import (
	"unicode"
	"unicode/utf8"
)

// trieNode - узел префиксного дерева ключей словаря
type trieNode struct {
	children map[rune]*trieNode
	value    string
	terminal bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// insert добавляет ключ или перезаписывает его значение
func (n *trieNode) insert(key, value string) {
	node := n
	for _, r := range key {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode()
			node.children[r] = child
		}
		node = child
	}
	node.value = value
	node.terminal = true
}

// longestMatch ищет самый длинный ключ, начинающийся в text[start:] и
// стоящий на границах слова. prev - руна перед start (или -1).
// Возвращает позицию конца совпадения в байтах.
func (n *trieNode) longestMatch(text string, start int, prev rune) (int, string, bool) {
	first, _ := utf8.DecodeRuneInString(text[start:])
	if isWordRune(first) && isWordRune(prev) {
		return 0, "", false
	}

	var (
		bestEnd   int
		bestValue string
		found     bool
	)

	node := n
	for i := start; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		child, ok := node.children[r]
		if !ok {
			break
		}
		node = child
		i += size

		if !node.terminal {
			continue
		}
		if i < len(text) && isWordRune(r) {
			next, _ := utf8.DecodeRuneInString(text[i:])
			if isWordRune(next) {
				continue
			}
		}
		bestEnd, bestValue, found = i, node.value, true
	}

	return bestEnd, bestValue, found
}

// isWordRune повторяет определение символа слова для \b с учетом Unicode
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
