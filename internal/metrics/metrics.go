package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Имена метрик для IncrementCounter, SetGauge и ObserveHistogram
const (
	DocumentsProcessed    = "documents_processed_total"
	Normalizations        = "normalizations_total"
	TTSRequests           = "tts_requests_total"
	ConversionUpdates     = "conversion_updates_total"
	ArtifactsRemoved      = "audio_artifacts_removed_total"
	ConversionEntries     = "conversion_entries"
	NormalizationDuration = "normalization_duration"
	TTSDuration           = "tts_duration"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Счетчики
	documentsProcessed *prometheus.CounterVec
	normalizations     *prometheus.CounterVec
	ttsRequests        *prometheus.CounterVec
	conversionUpdates  *prometheus.CounterVec
	artifactsRemoved   prometheus.Counter

	// Гистограммы
	normalizationDuration *prometheus.HistogramVec
	ttsDuration           *prometheus.HistogramVec

	// Gauge метрики
	conversionEntries prometheus.Gauge

	mu sync.RWMutex
}

// New создает метрики в собственном реестре
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		documentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: DocumentsProcessed,
				Help: "Количество обработанных документов",
			},
			[]string{"format", "status"}, // format: txt, docx, pdf; status: success, failed
		),

		normalizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: Normalizations,
				Help: "Количество нормализаций текста",
			},
			[]string{"source"}, // api, bot, reader, cli
		),

		ttsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: TTSRequests,
				Help: "Количество запросов к синтезатору речи",
			},
			[]string{"provider", "status"},
		),

		conversionUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: ConversionUpdates,
				Help: "Изменения словаря замен",
			},
			[]string{"action"}, // update, save
		),

		artifactsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: ArtifactsRemoved,
				Help: "Количество удаленных старых аудиофайлов",
			},
		),

		normalizationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    NormalizationDuration + "_seconds",
				Help:    "Время нормализации текста в секундах",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"source"},
		),

		ttsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    TTSDuration + "_seconds",
				Help:    "Время синтеза речи в секундах",
				Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),

		conversionEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: ConversionEntries,
				Help: "Количество ключей в словаре замен",
			},
		),
	}

	m.registry.MustRegister(
		m.documentsProcessed,
		m.normalizations,
		m.ttsRequests,
		m.conversionUpdates,
		m.artifactsRemoved,
		m.normalizationDuration,
		m.ttsDuration,
		m.conversionEntries,
	)

	return m
}

// IncrementCounter увеличивает счетчик
func (m *Metrics) IncrementCounter(name string, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counter *prometheus.CounterVec

	switch name {
	case DocumentsProcessed:
		counter = m.documentsProcessed
	case Normalizations:
		counter = m.normalizations
	case TTSRequests:
		counter = m.ttsRequests
	case ConversionUpdates:
		counter = m.conversionUpdates
	case ArtifactsRemoved:
		m.artifactsRemoved.Inc()
		return
	default:
		m.logger.Error("неизвестная метрика", zap.String("name", name))
		return
	}

	counter.WithLabelValues(labels...).Inc()
	m.logger.Debug("метрика увеличена", zap.String("metric", name), zap.Strings("labels", labels))
}

// SetGauge устанавливает значение gauge метрики
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case ConversionEntries:
		m.conversionEntries.Set(value)
	default:
		m.logger.Error("неизвестная gauge метрика", zap.String("name", name))
		return
	}

	m.logger.Debug("метрика установлена", zap.String("metric", name), zap.Float64("value", value))
}

// ObserveHistogram добавляет наблюдение в гистограмму
func (m *Metrics) ObserveHistogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case NormalizationDuration:
		m.normalizationDuration.WithLabelValues(labels...).Observe(value)
	case TTSDuration:
		m.ttsDuration.WithLabelValues(labels...).Observe(value)
	default:
		m.logger.Error("неизвестная гистограмма", zap.String("name", name))
		return
	}
}

// RecordNormalization записывает одну нормализацию текста
func (m *Metrics) RecordNormalization(source string, elapsed time.Duration) {
	m.IncrementCounter(Normalizations, source)
	m.ObserveHistogram(NormalizationDuration, elapsed.Seconds(), source)
}

// RecordTTS записывает запрос к синтезатору
func (m *Metrics) RecordTTS(provider string, success bool, elapsed time.Duration) {
	m.IncrementCounter(TTSRequests, provider, status(success))
	m.ObserveHistogram(TTSDuration, elapsed.Seconds(), provider)
}

// RecordDocument записывает обработку документа
func (m *Metrics) RecordDocument(format string, success bool) {
	m.IncrementCounter(DocumentsProcessed, format, status(success))
}

// RecordConversions записывает изменение словаря и его размер
func (m *Metrics) RecordConversions(action string, total int) {
	m.IncrementCounter(ConversionUpdates, action)
	m.SetGauge(ConversionEntries, float64(total))
}

// RecordArtifactsRemoved записывает удаленные аудиофайлы
func (m *Metrics) RecordArtifactsRemoved(count int) {
	for i := 0; i < count; i++ {
		m.IncrementCounter(ArtifactsRemoved)
	}
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}
