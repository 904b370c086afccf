package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"doc-reader/internal/config"
	"doc-reader/internal/document"
	"doc-reader/internal/reader"
	"doc-reader/internal/tts"
)

const (
	// Лимиты безопасности
	MaxFileSize   = 20 * 1024 * 1024 // Telegram Bot API не отдает файлы больше 20MB
	MaxTextLength = 4000             // Максимальная длина текста сообщения

	// Rate limiting
	MaxRequestsPerMinute = 20
	RateLimitWindow      = time.Minute
)

// Sender - часть tgbotapi.BotAPI, которой пользуется обработчик
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Config содержит настройки бота
type Config struct {
	DefaultVoice string
	AdminIDs     []int64
}

// Handler представляет обработчик сообщений Telegram
type Handler struct {
	bot         Sender
	reader      *reader.Service
	cfg         Config
	logger      *zap.Logger
	rateLimiter *RateLimiter
	settings    *settingsStore
	httpClient  *http.Client
}

// NewHandler создает новый обработчик
func NewHandler(bot Sender, svc *reader.Service, cfg Config, logger *zap.Logger) *Handler {
	return &Handler{
		bot:         bot,
		reader:      svc,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: NewRateLimiter(MaxRequestsPerMinute, RateLimitWindow),
		settings:    newSettingsStore(),
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// HandleUpdate обрабатывает входящее обновление
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.Chat == nil {
		return nil
	}

	if message.From != nil && !h.rateLimiter.IsAllowed(message.From.ID) {
		h.logger.Warn("rate limit exceeded", zap.Int64("user_id", message.From.ID))
		return h.sendMessage(message.Chat.ID, msgRateLimited)
	}

	h.logger.Debug("получено обновление",
		zap.Int64("chat_id", message.Chat.ID),
		zap.Int("text_length", len(message.Text)))

	switch {
	case message.IsCommand():
		return h.handleCommand(ctx, message)
	case message.Document != nil:
		return h.handleDocument(ctx, message)
	case strings.TrimSpace(message.Text) != "":
		return h.handleText(ctx, message)
	default:
		return nil
	}
}

// handleCommand обрабатывает команды
func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		return h.sendMessage(chatID, msgStart)
	case "help":
		return h.sendHTML(chatID, msgHelp)
	case "speed":
		return h.handleSpeedCommand(chatID, args)
	case "voice":
		return h.handleVoiceCommand(chatID, args)
	case "voices":
		return h.handleVoicesCommand(chatID)
	case "conv":
		return h.handleConvCommand(ctx, message, args)
	case "conversions":
		return h.sendMessage(chatID, formatConversions(h.reader.Conversions()))
	case "save":
		return h.handleSaveCommand(ctx, message)
	default:
		return h.sendMessage(chatID, msgUnknown)
	}
}

func (h *Handler) handleSpeedCommand(chatID int64, args string) error {
	speed, err := parseSpeed(args)
	if err != nil {
		return h.sendMessage(chatID, msgSpeedUsage)
	}

	h.settings.setSpeed(chatID, speed)
	return h.sendMessage(chatID, msgSpeedSet(speed))
}

func (h *Handler) handleVoiceCommand(chatID int64, args string) error {
	voices, err := h.reader.Speakers()
	if err != nil {
		h.logger.Error("ошибка получения списка голосов", zap.Error(err))
		return h.sendMessage(chatID, msgSynthFailed)
	}

	for _, v := range voices {
		if v == args {
			h.settings.setVoice(chatID, v)
			return h.sendMessage(chatID, msgVoiceSet(v))
		}
	}
	return h.sendMessage(chatID, msgVoiceNotFound)
}

func (h *Handler) handleVoicesCommand(chatID int64) error {
	voices, err := h.reader.Speakers()
	if err != nil {
		h.logger.Error("ошибка получения списка голосов", zap.Error(err))
		return h.sendMessage(chatID, msgSynthFailed)
	}
	return h.sendMessage(chatID, msgVoices(voices))
}

func (h *Handler) handleConvCommand(ctx context.Context, message *tgbotapi.Message, args string) error {
	chatID := message.Chat.ID
	if !h.isAdmin(message.From) {
		return h.sendMessage(chatID, msgForbidden)
	}

	pairs, err := parseConversions(args)
	if err != nil {
		return h.sendMessage(chatID, msgConvUsage)
	}

	if err := h.reader.UpdateConversions(ctx, pairs, false); err != nil {
		h.logger.Error("ошибка обновления словаря", zap.Error(err))
		return h.sendMessage(chatID, msgSaveFailed)
	}

	h.logger.Info("словарь обновлен через бота",
		zap.Int64("chat_id", chatID),
		zap.Int("pairs", len(pairs)))
	return h.sendMessage(chatID, msgConvUpdated(len(pairs), len(h.reader.Conversions())))
}

func (h *Handler) handleSaveCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if !h.isAdmin(message.From) {
		return h.sendMessage(chatID, msgForbidden)
	}

	if err := h.reader.SaveConversions(ctx); err != nil {
		h.logger.Error("ошибка сохранения словаря", zap.Error(err))
		_ = h.sendMessage(chatID, msgSaveFailed)
		return err
	}
	return h.sendMessage(chatID, msgSaved)
}

// handleText отвечает нормализованным текстом и его озвучкой
func (h *Handler) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	normalized := h.reader.Normalize(reader.SourceBot, truncateRunes(message.Text, MaxTextLength))
	if strings.TrimSpace(normalized) == "" {
		return h.sendMessage(chatID, msgEmptyText)
	}

	if err := h.sendMessage(chatID, truncateRunes(normalized, MaxTextLength)); err != nil {
		return err
	}

	audio, err := h.reader.Synthesize(ctx, normalized, h.settings.options(chatID, h.cfg.DefaultVoice))
	if err != nil {
		if errors.Is(err, tts.ErrEmptyText) {
			return h.sendMessage(chatID, msgEmptyText)
		}
		h.logger.Error("ошибка озвучки текста", zap.Int64("chat_id", chatID), zap.Error(err))
		_ = h.sendMessage(chatID, msgSynthFailed)
		return err
	}

	msg := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{
		Name:  "lectura.wav",
		Bytes: audio.Data,
	})
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки аудио", zap.Error(err))
		return err
	}
	return nil
}

// handleDocument скачивает документ и присылает его озвучку
func (h *Handler) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	doc := message.Document

	if !document.Supported(doc.FileName) {
		return h.sendMessage(chatID, msgUnsupportedFormat(doc.FileName))
	}
	if doc.FileSize > MaxFileSize {
		return h.sendMessage(chatID, msgTooLarge)
	}

	_ = h.sendMessage(chatID, msgProcessingDoc)

	url, err := h.bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		h.logger.Error("ошибка получения файла от Telegram", zap.Error(err))
		_ = h.sendMessage(chatID, msgDocFailed)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error("ошибка скачивания документа", zap.Error(err))
		_ = h.sendMessage(chatID, msgDocFailed)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_ = h.sendMessage(chatID, msgDocFailed)
		return fmt.Errorf("скачивание документа вернуло статус %d", resp.StatusCode)
	}

	artifact, err := h.reader.ReadDocument(ctx, doc.FileName, resp.Body, h.settings.options(chatID, h.cfg.DefaultVoice))
	if err != nil {
		switch {
		case errors.Is(err, document.ErrTooLarge):
			return h.sendMessage(chatID, msgTooLarge)
		case errors.Is(err, tts.ErrEmptyText):
			return h.sendMessage(chatID, msgEmptyText)
		}
		_ = h.sendMessage(chatID, msgDocFailed)
		return err
	}

	msg := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(artifact.Path))
	msg.Caption = "🔊 " + filepath.Base(artifact.Path)
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки аудио", zap.Error(err))
		return err
	}
	return nil
}

func (h *Handler) isAdmin(user *tgbotapi.User) bool {
	if len(h.cfg.AdminIDs) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	for _, id := range h.cfg.AdminIDs {
		if id == user.ID {
			return true
		}
	}
	return false
}

func (h *Handler) sendMessage(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		h.logger.Error("ошибка отправки сообщения",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
	return err
}

func (h *Handler) sendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Warn("ошибка отправки HTML сообщения, отправляем как обычный текст", zap.Error(err))
		return h.sendMessage(chatID, text)
	}
	return nil
}

// parseConversions разбирает "clave=valor; otra=otro" (пары через ";" или перевод строки)
func parseConversions(args string) (map[string]string, error) {
	pairs := make(map[string]string)
	fields := strings.FieldsFunc(args, func(r rune) bool { return r == ';' || r == '\n' })

	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			continue
		}
		key, value, ok := strings.Cut(field, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("некорректная пара %q", field)
		}
		pairs[key] = strings.TrimSpace(value)
	}

	if len(pairs) == 0 {
		return nil, errors.New("нет пар для обновления")
	}
	return pairs, nil
}

// parseSpeed принимает "1.25" и "1,25"
func parseSpeed(args string) (float64, error) {
	speed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(args), ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if speed < config.MinSpeed || speed > config.MaxSpeed {
		return 0, fmt.Errorf("%w: %.2f", tts.ErrInvalidSpeed, speed)
	}
	return speed, nil
}

func formatConversions(conversions map[string]string) string {
	if len(conversions) == 0 {
		return msgNoConversions
	}

	keys := make([]string, 0, len(conversions))
	for k := range conversions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s → %s\n", k, conversions[k])
	}
	return truncateRunes(strings.TrimSuffix(b.String(), "\n"), MaxTextLength)
}

// truncateRunes обрезает строку до max символов, не разрывая UTF-8
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}
