package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// CoquiService синтезирует речь через tts-server Coqui (XTTS).
// Сервер не поддерживает скорость, она только логируется.
type CoquiService struct {
	logger   *zap.Logger
	baseURL  string
	language string
	speakers *SpeakerDir
	client   *http.Client
}

// NewCoquiService создает новый Coqui TTS сервис
func NewCoquiService(logger *zap.Logger, baseURL, language string, speakers *SpeakerDir, timeout time.Duration) *CoquiService {
	return &CoquiService{
		logger:   logger,
		baseURL:  baseURL,
		language: language,
		speakers: speakers,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize преобразует текст в аудио через Coqui TTS
func (s *CoquiService) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("text", req.Text)
	q.Set("language_id", s.language)
	if speaker := s.speakers.Resolve(req.Voice); speaker != "" {
		q.Set("speaker_wav", speaker)
	}
	endpoint := fmt.Sprintf("%s/api/tts?%s", s.baseURL, q.Encode())

	s.logger.Info("генерируем аудио через Coqui TTS",
		zap.Int("text_length", len(req.Text)),
		zap.Float64("speed", req.Speed),
		zap.String("voice", req.Voice))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Coqui TTS вернул ошибку %d: %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	return &Audio{Data: audioData, ContentType: ContentTypeWAV, Provider: "coqui"}, nil
}
