package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIService синтезирует речь через OpenAI audio/speech.
// Голоса из каталога спикеров не применяются, используется голос OpenAI.
type OpenAIService struct {
	logger *zap.Logger
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAIService создает сервис с ключом API
func NewOpenAIService(logger *zap.Logger, apiKey, model, voice string) *OpenAIService {
	return NewOpenAIServiceWithClient(logger, openai.NewClient(apiKey), model, voice)
}

// NewOpenAIServiceWithClient создает сервис с готовым клиентом
func NewOpenAIServiceWithClient(logger *zap.Logger, client *openai.Client, model, voice string) *OpenAIService {
	return &OpenAIService{
		logger: logger,
		client: client,
		model:  openai.SpeechModel(model),
		voice:  openai.SpeechVoice(voice),
	}
}

// Synthesize преобразует текст в аудио через OpenAI
func (s *OpenAIService) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("генерируем аудио через OpenAI",
		zap.String("model", string(s.model)),
		zap.Int("text_length", len(req.Text)),
		zap.Float64("speed", req.Speed))

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          req.Text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          req.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка синтеза речи OpenAI: %w", err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	return &Audio{Data: audioData, ContentType: ContentTypeWAV, Provider: "openai"}, nil
}
