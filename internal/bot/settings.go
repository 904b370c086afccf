package bot

import (
	"sync"
	"time"

	"doc-reader/internal/reader"
)

// settingsTTL - через сколько неиспользуемые настройки чата сбрасываются
const settingsTTL = 24 * time.Hour

// ChatSettings содержит выбранные в чате скорость и голос
type ChatSettings struct {
	Speed        float64
	Voice        string
	LastActivity time.Time
}

// IsStale проверяет, не устарели ли настройки
func (cs *ChatSettings) IsStale(now time.Time) bool {
	return now.Sub(cs.LastActivity) > settingsTTL
}

// settingsStore хранит настройки по chat_id
type settingsStore struct {
	mu    sync.Mutex
	chats map[int64]*ChatSettings
	now   func() time.Time
}

func newSettingsStore() *settingsStore {
	return &settingsStore{
		chats: make(map[int64]*ChatSettings),
		now:   time.Now,
	}
}

// options возвращает параметры озвучки чата, пустые значения заменяет defaultVoice
func (s *settingsStore) options(chatID int64, defaultVoice string) reader.ReadOptions {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := reader.ReadOptions{Voice: defaultVoice}
	cs, ok := s.chats[chatID]
	if !ok {
		return opts
	}
	if cs.IsStale(s.now()) {
		delete(s.chats, chatID)
		return opts
	}

	cs.LastActivity = s.now()
	opts.Speed = cs.Speed
	if cs.Voice != "" {
		opts.Voice = cs.Voice
	}
	return opts
}

func (s *settingsStore) setSpeed(chatID int64, speed float64) {
	s.update(chatID, func(cs *ChatSettings) { cs.Speed = speed })
}

func (s *settingsStore) setVoice(chatID int64, voice string) {
	s.update(chatID, func(cs *ChatSettings) { cs.Voice = voice })
}

func (s *settingsStore) update(chatID int64, fn func(cs *ChatSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.chats[chatID]
	if !ok || cs.IsStale(s.now()) {
		cs = &ChatSettings{}
		s.chats[chatID] = cs
	}
	fn(cs)
	cs.LastActivity = s.now()
}
