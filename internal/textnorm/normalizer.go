// Package textnorm превращает текст документа в строку для синтезатора речи:
// словарь замен, раскрытие символов, чтение чисел словами и нижний регистр.
package textnorm

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"doc-reader/internal/numwords"
)

// ErrNoConversionsPath возвращается при сохранении, если путь к словарю не задан
var ErrNoConversionsPath = errors.New("не задан путь для сохранения словаря замен")

// Config содержит настройки нормализатора
type Config struct {
	Language        string // код языка BCP 47, например "es"
	ConversionsPath string // JSON файл словаря замен, может отсутствовать
	SpellAcronyms   bool   // читать аббревиатуры по буквам
}

// Normalizer выполняет проходы нормализации по порядку
type Normalizer struct {
	cfg     Config
	logger  *zap.Logger
	tag     language.Tag
	lex     Lexicon
	dict    *Dictionary
	symbols *strings.Replacer
	numbers *numberRewriter
}

// New создает нормализатор и загружает словарь замен.
// Отсутствующий словарь не является ошибкой, поврежденный - является.
func New(cfg Config, logger *zap.Logger) (*Normalizer, error) {
	speller, err := numwords.ForLanguage(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("ошибка выбора языка чисел: %w", err)
	}

	lex, tag, err := lexiconFor(cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("ошибка выбора языка символов: %w", err)
	}

	dict, err := loadOrEmpty(cfg.ConversionsPath, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("нормализатор текста инициализирован",
		zap.String("language", tag.String()),
		zap.Int("conversions", dict.Len()),
		zap.Bool("spell_acronyms", cfg.SpellAcronyms))

	return &Normalizer{
		cfg:    cfg,
		logger: logger,
		tag:    tag,
		lex:    lex,
		dict:   dict,
		symbols: strings.NewReplacer(
			"/", " "+lex.Slash+" ",
			"%", " "+lex.Percent,
		),
		numbers: newNumberRewriter(speller, lex),
	}, nil
}

func loadOrEmpty(path string, logger *zap.Logger) (*Dictionary, error) {
	if path == "" {
		logger.Warn("путь к словарю замен не задан, словарь пуст")
		return NewDictionary(nil), nil
	}

	dict, err := LoadDictionary(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("словарь замен не найден, работаем с пустым словарем",
			zap.String("path", path))
		return NewDictionary(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return dict, nil
}

// Process возвращает нормализованный текст для синтеза речи
func (n *Normalizer) Process(text string) string {
	if text == "" {
		return ""
	}

	text = n.dict.Apply(text)
	text = n.numbers.rewriteFractions(text)
	text = n.symbols.Replace(text)
	text = n.numbers.rewriteArticles(text)
	text = n.numbers.rewriteRomans(text)
	text = n.numbers.rewritePlain(text)
	if n.cfg.SpellAcronyms {
		text = spellAcronyms(text, n.lex.LetterNames)
	}

	return cases.Lower(n.tag).String(text)
}

// UpdateConversions добавляет пары в словарь на время сессии
func (n *Normalizer) UpdateConversions(pairs map[string]string) {
	n.dict.Update(pairs)
	n.logger.Info("словарь замен обновлен",
		zap.Int("updated", len(pairs)),
		zap.Int("total", n.dict.Len()))
}

// SaveConversions сохраняет словарь. Пустой path означает путь из конфигурации.
func (n *Normalizer) SaveConversions(path string) error {
	if path == "" {
		path = n.cfg.ConversionsPath
	}
	if path == "" {
		return ErrNoConversionsPath
	}

	if err := n.dict.Save(path); err != nil {
		return err
	}

	n.logger.Info("словарь замен сохранен",
		zap.String("path", path),
		zap.Int("total", n.dict.Len()))
	return nil
}

// ConversionsPath возвращает путь к файлу словаря из конфигурации
func (n *Normalizer) ConversionsPath() string {
	return n.cfg.ConversionsPath
}

// Conversions возвращает копию текущего словаря
func (n *Normalizer) Conversions() map[string]string {
	return n.dict.Snapshot()
}

// Language возвращает тег языка нормализатора
func (n *Normalizer) Language() language.Tag {
	return n.tag
}
