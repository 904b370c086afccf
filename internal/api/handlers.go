package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"doc-reader/internal/document"
	"doc-reader/internal/reader"
	"doc-reader/internal/textnorm"
	"doc-reader/internal/tts"
	"doc-reader/pkg/models"
)

// multipartMemory - сколько загрузки держать в памяти, остальное во временных файлах
const multipartMemory = 8 << 20

// Handler обрабатывает запросы API
type Handler struct {
	reader       *reader.Service
	logger       *zap.Logger
	defaultVoice string
	maxUpload    int64
}

// NewHandler создает обработчик API
func NewHandler(svc *reader.Service, logger *zap.Logger, defaultVoice string, maxUpload int64) *Handler {
	return &Handler{
		reader:       svc,
		logger:       logger,
		defaultVoice: defaultVoice,
		maxUpload:    maxUpload,
	}
}

// GetConversions обрабатывает GET /v1/conversions
func (h *Handler) GetConversions(w http.ResponseWriter, r *http.Request) {
	conversions := h.reader.Conversions()
	respondJSON(w, http.StatusOK, models.ConversionsResponse{
		Conversions: conversions,
		Total:       len(conversions),
	})
}

// UpdateConversions обрабатывает PUT /v1/conversions[?save=true]
func (h *Handler) UpdateConversions(w http.ResponseWriter, r *http.Request) {
	var pairs map[string]string
	if err := json.NewDecoder(r.Body).Decode(&pairs); err != nil {
		respondError(w, http.StatusBadRequest, "тело должно быть JSON объектом строк")
		return
	}
	if len(pairs) == 0 {
		respondError(w, http.StatusBadRequest, "нет пар для обновления")
		return
	}

	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))

	if err := h.reader.UpdateConversions(r.Context(), pairs, save); err != nil {
		h.fail(w, r, err)
		return
	}

	conversions := h.reader.Conversions()
	respondJSON(w, http.StatusOK, models.ConversionsResponse{
		Conversions: conversions,
		Total:       len(conversions),
		Saved:       save,
	})
}

// Process обрабатывает POST /v1/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	respondJSON(w, http.StatusOK, models.ProcessResponse{
		Text: h.reader.Normalize(reader.SourceAPI, req.Text),
	})
}

// Speech обрабатывает POST /v1/speech и возвращает audio/wav
func (h *Handler) Speech(w http.ResponseWriter, r *http.Request) {
	var req models.SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	audio, err := h.reader.Speak(r.Context(), reader.SourceAPI, req.Text, h.readOptions(req.Speed, req.Voice))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

// ReadDocuments обрабатывает POST /v1/documents (multipart, поле files)
func (h *Handler) ReadDocuments(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "загрузка превышает лимит")
			return
		}
		respondError(w, http.StatusBadRequest, "ожидается multipart/form-data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "не переданы файлы в поле files")
		return
	}

	speed := 0.0
	if raw := r.FormValue("speed"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "некорректная скорость")
			return
		}
		speed = v
	}

	docs := make([]reader.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.fail(w, r, fmt.Errorf("ошибка открытия %s: %w", fh.Filename, err))
			return
		}
		defer f.Close()
		docs = append(docs, reader.Document{Name: fh.Filename, Body: f})
	}

	artifacts, err := h.reader.ReadDocuments(r.Context(), docs, h.readOptions(speed, r.FormValue("voice")))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, models.DocumentsResponse{Artifacts: artifacts})
}

// GetAudio обрабатывает GET /v1/audio/{name}
func (h *Handler) GetAudio(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	if !strings.EqualFold(filepath.Ext(name), ".wav") {
		respondError(w, http.StatusNotFound, "аудио не найдено")
		return
	}

	path := filepath.Join(h.reader.OutputDir(), name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "аудио не найдено")
		return
	}

	w.Header().Set("Content-Type", tts.ContentTypeWAV)
	http.ServeFile(w, r, path)
}

// ListSpeakers обрабатывает GET /v1/speakers
func (h *Handler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.reader.Speakers()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.SpeakersResponse{
		Speakers: speakers,
		Default:  h.defaultVoice,
	})
}

func (h *Handler) readOptions(speed float64, voice string) reader.ReadOptions {
	if voice == "" {
		voice = h.defaultVoice
	}
	return reader.ReadOptions{Speed: speed, Voice: voice}
}

// fail переводит ошибку в HTTP статус. Неожиданные ошибки уходят в Sentry.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("ошибка обработки запроса", zap.String("path", r.URL.Path), zap.Error(err))
		captureError(r, err)
		respondError(w, status, "внутренняя ошибка сервера")
		return
	}

	h.logger.Warn("некорректный запрос", zap.String("path", r.URL.Path), zap.Error(err))
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, document.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, document.ErrInvalidEncoding),
		errors.Is(err, tts.ErrEmptyText),
		errors.Is(err, tts.ErrInvalidSpeed):
		return http.StatusBadRequest
	case errors.Is(err, textnorm.ErrNoConversionsPath):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: message})
}
