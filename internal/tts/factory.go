package tts

import (
	"fmt"

	"go.uber.org/zap"

	"doc-reader/internal/config"
)

// New создает синтезатор по TTS_PROVIDER
func New(cfg config.TTSConfig, language string, logger *zap.Logger) (Synthesizer, error) {
	speakers := NewSpeakerDir(cfg.SpeakerDir)

	switch cfg.Provider {
	case config.ProviderPiper:
		return NewPiperService(logger, cfg.BaseURL, language, speakers, cfg.Timeout), nil
	case config.ProviderCoqui:
		return NewCoquiService(logger, cfg.BaseURL, language, speakers, cfg.Timeout), nil
	case config.ProviderAllTalk:
		return NewAllTalkService(logger, cfg.BaseURL, language, cfg.Timeout), nil
	case config.ProviderOpenAI:
		return NewOpenAIService(logger, cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIVoice), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый TTS провайдер: %s", cfg.Provider)
	}
}
