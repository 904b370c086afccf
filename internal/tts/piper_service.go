package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// PiperService синтезирует речь через HTTP API Piper
type PiperService struct {
	logger   *zap.Logger
	baseURL  string
	language string
	speakers *SpeakerDir
	client   *http.Client
}

// NewPiperService создает новый Piper TTS сервис
func NewPiperService(logger *zap.Logger, baseURL, language string, speakers *SpeakerDir, timeout time.Duration) *PiperService {
	return &PiperService{
		logger:   logger,
		baseURL:  baseURL,
		language: language,
		speakers: speakers,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize преобразует текст в аудио через Piper TTS
func (s *PiperService) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("генерируем аудио через Piper TTS",
		zap.Int("text_length", len(req.Text)),
		zap.Float64("speed", req.Speed),
		zap.String("voice", req.Voice))

	audioData, err := s.generateAudio(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	s.logger.Info("аудио успешно сгенерировано",
		zap.Int("audio_size", len(audioData)))

	return &Audio{Data: audioData, ContentType: ContentTypeWAV, Provider: "piper"}, nil
}

// generateAudio отправляет запрос к Piper TTS API и получает аудио
func (s *PiperService) generateAudio(ctx context.Context, req Request) ([]byte, error) {
	url := fmt.Sprintf("%s/synthesize-raw", s.baseURL)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("text", req.Text)
	_ = writer.WriteField("language", s.language)
	// Piper задает темп через length_scale: больше - медленнее
	_ = writer.WriteField("length_scale", strconv.FormatFloat(1/req.Speed, 'f', 3, 64))
	if speaker := s.speakers.Resolve(req.Voice); speaker != "" {
		_ = writer.WriteField("speaker_wav", speaker)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("неожиданный статус от Piper TTS: %d, тело: %s", resp.StatusCode, respBody)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	return audioData, nil
}
