package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doc-reader/internal/config"
)

var (
	// ErrEmptyText возвращается, если после нормализации нечего озвучивать
	ErrEmptyText = errors.New("пустой текст для синтеза")
	// ErrInvalidSpeed возвращается для скорости вне допустимого диапазона
	ErrInvalidSpeed = errors.New("недопустимая скорость речи")
)

// ContentTypeWAV - тип содержимого, который возвращают все провайдеры
const ContentTypeWAV = "audio/wav"

// Request описывает одну озвучку
type Request struct {
	Text  string
	Speed float64 // 0 означает скорость по умолчанию
	Voice string  // имя голоса из каталога спикеров, "" или "Default" - голос модели
}

// Audio - результат синтеза
type Audio struct {
	Data        []byte
	ContentType string
	Provider    string
	Cached      bool
}

// Synthesizer преобразует текст в речь
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Audio, error)
}

// Validate проверяет запрос и подставляет скорость по умолчанию
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if r.Speed == 0 {
		r.Speed = config.DefaultSpeed
	}
	if r.Speed < config.MinSpeed || r.Speed > config.MaxSpeed {
		return fmt.Errorf("%w: %.2f", ErrInvalidSpeed, r.Speed)
	}
	return nil
}
