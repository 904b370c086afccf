package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doc-reader/internal/document"
	"doc-reader/internal/metrics"
	"doc-reader/internal/reader"
	"doc-reader/internal/textnorm"
	"doc-reader/internal/tts"
	"doc-reader/pkg/models"
)

// echoSynthesizer возвращает нормализованный текст вместо аудио
type echoSynthesizer struct{}

func (echoSynthesizer) Synthesize(_ context.Context, req tts.Request) (*tts.Audio, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &tts.Audio{Data: []byte(req.Text), ContentType: tts.ContentTypeWAV, Provider: "echo"}, nil
}

type testServer struct {
	router    http.Handler
	dictPath  string
	outputDir string
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()

	dir := t.TempDir()
	dictPath := filepath.Join(dir, "text_conversions.json")
	require.NoError(t, os.WriteFile(dictPath, []byte(`{"Sr.": "señor"}`), 0644))

	speakerDir := filepath.Join(dir, "speakers")
	require.NoError(t, os.Mkdir(speakerDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(speakerDir, "ana.wav"), []byte("x"), 0644))

	logger := zap.NewNop()
	normalizer, err := textnorm.New(textnorm.Config{Language: "es", ConversionsPath: dictPath}, logger)
	require.NoError(t, err)

	m := metrics.New(logger)
	outputDir := filepath.Join(dir, "output")
	svc := reader.NewService(logger, document.NewLoader(logger, 0), normalizer, echoSynthesizer{},
		tts.NewSpeakerDir(speakerDir), m, nil, nil,
		reader.Options{OutputDir: outputDir, MaxConcurrency: 2, Provider: "echo"})

	h := NewHandler(svc, logger, tts.DefaultVoice, 1<<20)
	return &testServer{
		router:    NewRouter(h, metrics.NewHandler(m, logger), cfg, logger),
		dictPath:  dictPath,
		outputDir: outputDir,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestProcess(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(t, http.MethodPost, "/v1/process", []byte(`{"text":"El Art. 15 establece multas de 1.500,50 pesos"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ProcessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "el art. quince establece multas de mil quinientos coma cincuenta pesos", resp.Text)
}

func TestProcessBadBody(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(t, http.MethodPost, "/v1/process", []byte(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeech(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(t, http.MethodPost, "/v1/speech", []byte(`{"text":"Ver Capítulo IV","speed":2}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tts.ContentTypeWAV, rec.Header().Get("Content-Type"))
	assert.Equal(t, "ver capítulo cuatro", rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/speech", []byte(`{"text":"hola","speed":9}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/speech", []byte(`{"text":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversions(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(t, http.MethodGet, "/v1/conversions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ConversionsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, map[string]string{"Sr.": "señor"}, resp.Conversions)
	assert.Equal(t, 1, resp.Total)

	rec = s.do(t, http.MethodPut, "/v1/conversions", []byte(`{"Dr.": "doctor"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
	assert.False(t, resp.Saved)

	data, err := os.ReadFile(s.dictPath)
	require.NoError(t, err)
	assert.Equal(t, `{"Sr.": "señor"}`, string(data))

	rec = s.do(t, http.MethodPut, "/v1/conversions?save=true", []byte(`{"Ud.": "usted"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	data, err = os.ReadFile(s.dictPath)
	require.NoError(t, err)
	assert.Equal(t, `{"Dr.": "doctor", "Sr.": "señor", "Ud.": "usted"}`, string(data))
}

func TestConversionsInvalid(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	for _, body := range []string{`{"a": 1}`, `[]`, `{}`} {
		rec := s.do(t, http.MethodPut, "/v1/conversions", []byte(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func TestReadDocuments(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	body, ct := multipartBody(t, map[string]string{
		"ley.txt":  "Ley 39/2015",
		"nota.txt": "50% de descuento",
	}, map[string]string{"speed": "1.25", "voice": "ana"})

	rec := s.do(t, http.MethodPost, "/v1/documents", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.DocumentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Artifacts, 2)
	for _, a := range resp.Artifacts {
		assert.Equal(t, 1.25, a.Speed)
		assert.Equal(t, "ana", a.Voice)
		assert.FileExists(t, a.Path)
	}

	rec = s.do(t, http.MethodGet, "/v1/audio/ley.wav", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ley treinta y nueve barra dos mil quince", rec.Body.String())
}

func TestReadDocumentsErrors(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	body, ct := multipartBody(t, map[string]string{"ley.odt": "PK"}, nil)
	rec := s.do(t, http.MethodPost, "/v1/documents", body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	body, ct = multipartBody(t, nil, map[string]string{"speed": "1"})
	rec = s.do(t, http.MethodPost, "/v1/documents", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, map[string]string{"a.txt": "hola"}, map[string]string{"speed": "rápido"})
	rec = s.do(t, http.MethodPost, "/v1/documents", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, map[string]string{"grande.txt": strings.Repeat("a", 2<<20)}, nil)
	rec = s.do(t, http.MethodPost, "/v1/documents", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGetAudioNotFound(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/audio/nada.wav", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/audio/secreto.json", nil, "").Code)
}

func TestListSpeakers(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	rec := s.do(t, http.MethodGet, "/v1/speakers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SpeakersResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"Default", "ana"}, resp.Speakers)
	assert.Equal(t, "Default", resp.Default)
}

func TestAPIKeyAuth(t *testing.T) {
	s := newTestServer(t, RouterConfig{APIKey: "secreto"})

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/speakers", nil, "").Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/speakers", nil)
	req.Header.Set("X-API-Key", "otro")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/speakers", nil)
	req.Header.Set("Authorization", "Bearer secreto")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// /health не требует ключа
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil, "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	s.do(t, http.MethodPost, "/v1/process", []byte(`{"text":"hola"}`), "application/json")

	rec := s.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `normalizations_total{source="api"} 1`)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, allowedOrigins(""))
	assert.Equal(t, []string{"*"}, allowedOrigins(" , "))
	assert.Equal(t, []string{"https://a.es", "https://b.es"}, allowedOrigins("https://a.es, https://b.es"))
}

func TestCORSCredentials(t *testing.T) {
	assert.False(t, corsOptions("").AllowCredentials)
	assert.True(t, corsOptions("https://a.es").AllowCredentials)

	preflight := func(s *testServer, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/v1/speakers", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(newTestServer(t, RouterConfig{}), "https://evil.example")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight(newTestServer(t, RouterConfig{CorsAllowedOrigins: "https://a.es"}), "https://a.es")
	assert.Equal(t, "https://a.es", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{fmt.Errorf("a.odt: %w", document.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{document.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{tts.ErrInvalidSpeed, http.StatusBadRequest},
		{textnorm.ErrNoConversionsPath, http.StatusConflict},
		{fmt.Errorf("база недоступна"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFor(tt.err))
		})
	}
}

func TestSentryRecoverer(t *testing.T) {
	h := SentryRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
