package bot

import (
	"fmt"
	"strings"
)

const (
	msgStart = `👋 Привет! Я озвучиваю тексты и документы на испанском.

Отправьте текст, и я верну его в виде, готовом для чтения, вместе с аудио.
Отправьте файл .txt, .docx или .pdf, и я пришлю его озвучку.

/help - список команд`

	msgHelp = `📖 <b>Команды</b>

/speed 1.25 - скорость речи (от 0.25 до 4)
/voice имя - голос из /voices
/voices - доступные голоса
/conv clave=valor; otra=otro - добавить замены в словарь
/save - сохранить словарь
/conversions - показать словарь`

	msgRateLimited   = "⚠️ Слишком много запросов. Подождите минуту."
	msgUnknown       = "Неизвестная команда. /help - список команд."
	msgForbidden     = "⛔ Менять словарь могут только администраторы."
	msgEmptyText     = "После нормализации текст пуст, озвучивать нечего."
	msgSynthFailed   = "❌ Не удалось озвучить текст. Попробуйте позже."
	msgDocFailed     = "❌ Не удалось озвучить документ."
	msgTooLarge      = "Файл слишком большой."
	msgSaved         = "💾 Словарь сохранен."
	msgSaveFailed    = "❌ Не удалось сохранить словарь."
	msgConvUsage     = "Формат: /conv clave=valor; otra=otro"
	msgSpeedUsage    = "Формат: /speed 1.25 (от 0.25 до 4)"
	msgVoiceNotFound = "Такого голоса нет. Список: /voices"
	msgProcessingDoc = "📄 Озвучиваю документ..."
	msgNoConversions = "Словарь замен пуст."
)

func msgUnsupportedFormat(name string) string {
	return fmt.Sprintf("Формат файла %s не поддерживается. Отправьте .txt, .docx или .pdf.", name)
}

func msgConvUpdated(added, total int) string {
	return fmt.Sprintf("✅ Добавлено замен: %d. Всего в словаре: %d.\n/save - сохранить словарь", added, total)
}

func msgSpeedSet(speed float64) string {
	return fmt.Sprintf("✅ Скорость речи: %.2f", speed)
}

func msgVoiceSet(voice string) string {
	return fmt.Sprintf("✅ Голос: %s", voice)
}

func msgVoices(voices []string) string {
	return "🎙 Доступные голоса:\n" + strings.Join(voices, "\n")
}
