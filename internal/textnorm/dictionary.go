package textnorm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Dictionary - словарь замен "фраза -> произношение".
// Ключи чувствительны к регистру, при пересечении побеждает самый длинный ключ.
// Безопасен для конкурентного чтения при одном писателе.
type Dictionary struct {
	mu      sync.RWMutex
	entries map[string]string
	root    *trieNode
}

// NewDictionary создает словарь из набора пар
func NewDictionary(entries map[string]string) *Dictionary {
	d := &Dictionary{
		entries: make(map[string]string, len(entries)),
		root:    newTrieNode(),
	}
	d.merge(entries)
	return d
}

// LoadDictionary читает словарь из плоского JSON объекта.
// Отсутствие файла возвращается как ошибка, совместимая с fs.ErrNotExist.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения словаря замен %s: %w", path, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("ошибка разбора словаря замен %s: %w", path, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("словарь замен %s должен быть JSON объектом", path)
	}

	return NewDictionary(entries), nil
}

// Apply заменяет все вхождения ключей целыми словами
func (d *Dictionary) Apply(text string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.entries) == 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	prev := rune(-1)
	for i := 0; i < len(text); {
		if end, value, ok := d.root.longestMatch(text, i, prev); ok {
			b.WriteString(value)
			prev, _ = utf8.DecodeLastRuneInString(text[i:end])
			i = end
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		prev = r
		i += size
	}

	return b.String()
}

// Update добавляет пары, перезаписывая существующие ключи
func (d *Dictionary) Update(entries map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.merge(entries)
}

func (d *Dictionary) merge(entries map[string]string) {
	for k, v := range entries {
		if k == "" {
			continue
		}
		d.entries[k] = v
		d.root.insert(k, v)
	}
}

// Len возвращает количество ключей
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Snapshot возвращает копию словаря
func (d *Dictionary) Snapshot() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]string, len(d.entries))
	for k, v := range d.entries {
		out[k] = v
	}
	return out
}

// Save записывает словарь в UTF-8 JSON без экранирования не-ASCII символов.
// Ключи идут по возрастанию длины, как их применяет обработчик.
func (d *Dictionary) Save(path string) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи словаря замен %s: %w", path, err)
	}
	return nil
}

// MarshalJSON кодирует словарь в стабильном порядке ключей
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	entries := d.Snapshot()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
		if li != lj {
			return li < lj
		}
		return keys[i] < keys[j]
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := writeJSONString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteString(": ")
		if err := writeJSONString(&buf, entries[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// writeJSONString пишет строку JSON без HTML-экранирования
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("ошибка кодирования строки словаря: %w", err)
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
