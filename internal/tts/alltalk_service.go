package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// allTalkDefaultVoice - голос из стандартной поставки AllTalk
const allTalkDefaultVoice = "female_01.wav"

// AllTalkService синтезирует речь через AllTalk TTS (XTTS).
// Голоса берутся из каталога voices самого сервера.
type AllTalkService struct {
	logger     *zap.Logger
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewAllTalkService создает новый AllTalk TTS сервис
func NewAllTalkService(logger *zap.Logger, baseURL, language string, timeout time.Duration) *AllTalkService {
	return &AllTalkService{
		logger:   logger,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize преобразует текст в аудио через AllTalk TTS
func (s *AllTalkService) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("генерируем аудио через AllTalk TTS",
		zap.Int("text_length", len(req.Text)),
		zap.Float64("speed", req.Speed),
		zap.String("voice", req.Voice))

	audioData, err := s.generateAudio(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	return &Audio{Data: audioData, ContentType: ContentTypeWAV, Provider: "alltalk"}, nil
}

// generateAudio просит сервер сгенерировать файл и скачивает его
func (s *AllTalkService) generateAudio(ctx context.Context, req Request) ([]byte, error) {
	data := url.Values{}
	data.Set("text_input", req.Text)
	data.Set("text_filtering", "standard")
	data.Set("character_voice_gen", allTalkVoice(req.Voice))
	data.Set("narrator_enabled", "false")
	data.Set("text_not_inside", "character")
	data.Set("language", s.language)
	data.Set("speed", strconv.FormatFloat(req.Speed, 'f', 2, 64))
	data.Set("output_file_name", "doc_reader")
	data.Set("output_file_timestamp", "true")
	data.Set("autoplay", "false")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/tts-generate", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("AllTalk TTS вернул ошибку %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Status        string `json:"status"`
		OutputFileURL string `json:"output_file_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	if response.Status != "generate-success" {
		return nil, fmt.Errorf("AllTalk TTS вернул статус: %s", response.Status)
	}

	return s.downloadAudioFile(ctx, s.resolveURL(response.OutputFileURL))
}

// resolveURL дополняет относительный путь до файла адресом сервера
func (s *AllTalkService) resolveURL(fileURL string) string {
	if strings.HasPrefix(fileURL, "/") {
		return s.baseURL + fileURL
	}
	return fileURL
}

// downloadAudioFile скачивает аудио файл по URL
func (s *AllTalkService) downloadAudioFile(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса для скачивания: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка скачивания аудио файла: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ошибка скачивания аудио: статус %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	return buf.Bytes(), nil
}

// allTalkVoice переводит имя голоса в имя файла в каталоге voices сервера
func allTalkVoice(voice string) string {
	if voice == "" || voice == DefaultVoice {
		return allTalkDefaultVoice
	}

	name := filepath.Base(voice)
	if !strings.EqualFold(filepath.Ext(name), speakerExt) {
		name += speakerExt
	}
	return name
}
