package tts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultVoice - голос модели без образца спикера
const DefaultVoice = "Default"

const speakerExt = ".wav"

// SpeakerDir - каталог образцов голосов <имя>.wav
type SpeakerDir struct {
	dir string
}

// NewSpeakerDir создает каталог спикеров. Пустой dir означает только голос по умолчанию.
func NewSpeakerDir(dir string) *SpeakerDir {
	return &SpeakerDir{dir: dir}
}

// List возвращает "Default" и имена образцов без расширения
func (d *SpeakerDir) List() ([]string, error) {
	voices := []string{DefaultVoice}
	if d == nil || d.dir == "" {
		return voices, nil
	}

	entries, err := os.ReadDir(d.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return voices, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога спикеров %s: %w", d.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), speakerExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)

	return append(voices, names...), nil
}

// Resolve возвращает путь к образцу голоса или "" для голоса по умолчанию.
// Расширение .wav добавляется, если его нет.
func (d *SpeakerDir) Resolve(voice string) string {
	if d == nil || d.dir == "" || voice == "" || voice == DefaultVoice {
		return ""
	}

	name := filepath.Base(voice)
	if !strings.EqualFold(filepath.Ext(name), speakerExt) {
		name += speakerExt
	}
	return filepath.Join(d.dir, name)
}
