package models

import (
	"time"
)

// Conversion - пара словаря замен, хранимая в базе данных
type Conversion struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Artifact описывает аудиофайл, озвученный из документа
type Artifact struct {
	ID        string    `json:"id" db:"id"`
	Document  string    `json:"document" db:"document"` // имя исходного файла
	Path      string    `json:"path" db:"path"`         // путь к .wav в каталоге вывода
	Voice     string    `json:"voice" db:"voice"`
	Speed     float64   `json:"speed" db:"speed"`
	Size      int64     `json:"size" db:"size"`
	Cached    bool      `json:"cached" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProcessRequest - запрос на нормализацию текста
type ProcessRequest struct {
	Text string `json:"text"`
}

// SpeechRequest - запрос на озвучку текста
type SpeechRequest struct {
	Text  string  `json:"text"`
	Speed float64 `json:"speed,omitempty"`
	Voice string  `json:"voice,omitempty"`
}

// ProcessResponse - нормализованный текст
type ProcessResponse struct {
	Text string `json:"text"`
}

// ConversionsResponse - текущий словарь замен
type ConversionsResponse struct {
	Conversions map[string]string `json:"conversions"`
	Total       int               `json:"total"`
	Saved       bool              `json:"saved,omitempty"`
}

// DocumentsResponse - результат озвучки загруженных документов
type DocumentsResponse struct {
	Artifacts []*Artifact `json:"artifacts"`
}

// SpeakersResponse - доступные голоса
type SpeakersResponse struct {
	Speakers []string `json:"speakers"`
	Default  string   `json:"default"`
}

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}
