package textnorm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"doc-reader/internal/numwords"
)

func newTestNormalizer(t *testing.T, conversions string) *Normalizer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "text_conversions.json")
	if conversions != "" {
		require.NoError(t, os.WriteFile(path, []byte(conversions), 0644))
	}

	n, err := New(Config{Language: "es", ConversionsPath: path}, zap.NewNop())
	require.NoError(t, err)
	return n
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func TestProcess(t *testing.T) {
	n := newTestNormalizer(t, "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "статья и число с разделителями",
			input:    "El Art. 15 establece multas de 1.500,50 pesos",
			expected: "el art. quince establece multas de mil quinientos coma cincuenta pesos",
		},
		{
			name:     "римское число",
			input:    "Ver Capítulo IV",
			expected: "ver capítulo cuatro",
		},
		{
			name:     "процент",
			input:    "50% de descuento",
			expected: "cincuenta porciento de descuento",
		},
		{
			name:     "ссылка на закон",
			input:    "Ley 39/2015",
			expected: "ley treinta y nueve barra dos mil quince",
		},
		{
			name:     "дата через косую черту",
			input:    "el 12/05/2020",
			expected: "el doce barra cinco barra dos mil veinte",
		},
		{
			name:     "простая дробь",
			input:    "de 1/2 kilo",
			expected: "de uno barra dos kilo",
		},
		{
			name:     "artículo с точкой внутри номера",
			input:    "El Artículo 3.2 dice",
			expected: "el artículo tres punto dos dice",
		},
		{
			name:     "ARTICULO без диакритики",
			input:    "ARTICULO 7",
			expected: "articulo siete",
		},
		{
			name:     "точка в статье читается, в числе - нет",
			input:    "Art. 1.500 y 1.500",
			expected: "art. uno punto quinientos y mil quinientos",
		},
		{
			name:     "век римскими цифрами",
			input:    "Siglo XXI",
			expected: "siglo veintiuno",
		},
		{
			name:     "миллионы",
			input:    "1.500.000 habitantes",
			expected: "un millón quinientos mil habitantes",
		},
		{
			name:     "десятичная запятая",
			input:    "pi vale 3,14",
			expected: "pi vale tres coma catorce",
		},
		{
			name:     "точка в конце предложения остается",
			input:    "Pág. 12.",
			expected: "pág. doce.",
		},
		{
			name:     "список статей через запятую",
			input:    "artículos 10,11 y 12",
			expected: "artículos diez coma once y doce",
		},
		{
			name:     "сокращение статей с десятичной запятой",
			input:    "Arts. 3,5 y 7",
			expected: "arts. tres coma cinco y siete",
		},
		{
			name:     "запятая после дроби",
			input:    "1/2,5",
			expected: "uno barra dos coma cinco",
		},
		{
			name:     "слово, похожее на art, не трогается",
			input:    "Arte 5",
			expected: "arte cinco",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Process(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.False(t, hasDigit(got), "в результате остались цифры: %q", got)
		})
	}
}

func TestProcessPlainNumberBoundaries(t *testing.T) {
	n := newTestNormalizer(t, "")

	// Точка всегда считается разделителем разрядов
	assert.Equal(t, "la versión veinte", n.Process("la versión 2.0"))
	// Каждая запятая читается отдельно
	assert.Equal(t, "uno coma dos coma tres", n.Process("1,2,3"))
	// Ведущие нули отбрасываются, как в num2words
	assert.Equal(t, "uno coma cinco", n.Process("1,05"))
	// Цифры, приклеенные к буквам, читаются отдельным словом
	assert.Equal(t, "mp tres", n.Process("MP3"))
	assert.Equal(t, "tres d", n.Process("3D"))
}

func TestProcessEmpty(t *testing.T) {
	n := newTestNormalizer(t, "")
	assert.Equal(t, "", n.Process(""))
}

func TestProcessIdempotentOnNormalizedText(t *testing.T) {
	n := newTestNormalizer(t, `{"Sr.": "señor", "DNI": "de ene í"}`)

	text := "el artículo quince establece multas de mil quinientos coma cincuenta pesos"
	assert.Equal(t, text, n.Process(text))
	assert.Equal(t, text, n.Process(n.Process(text)))
}

func TestProcessCaseNormalization(t *testing.T) {
	n := newTestNormalizer(t, "")

	got := n.Process("ÉL COMPRÓ ÁRBOLES en ÑUÑOA Úbeda")
	assert.Equal(t, "él compró árboles en ñuñoa úbeda", got)
	assert.Equal(t, strings.ToLower(got), got)
}

func TestProcessDictionaryWholeWords(t *testing.T) {
	n := newTestNormalizer(t, `{"nation": "nación"}`)

	assert.Equal(t, "international", n.Process("international"))
	assert.Equal(t, "the nación", n.Process("the nation"))
}

func TestProcessLongestKeyWins(t *testing.T) {
	n := newTestNormalizer(t, `{"art": "artículo", "art. 5": "quinto"}`)

	assert.Equal(t, "quinto", n.Process("art. 5"))
	assert.Equal(t, "artículo. cincuenta", n.Process("art. 50"))
}

func TestProcessDictionaryBeforeNumbers(t *testing.T) {
	n := newTestNormalizer(t, `{"Km": "kilómetros", "nº": "número"}`)

	assert.Equal(t, "el número siete a tres kilómetros", n.Process("el nº 7 a 3 Km"))
}

func TestProcessSpellAcronyms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	n, err := New(Config{Language: "es", ConversionsPath: path, SpellAcronyms: true}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "la ó ene ú y la ó té á ene", n.Process("La ONU y la OTAN"))
	// Римские числа обрабатываются раньше аббревиатур
	assert.Equal(t, "tomo cuatro", n.Process("Tomo IV"))
}

func TestNewMissingConversions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "text_conversions.json")

	n, err := New(Config{Language: "es", ConversionsPath: path}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, n.Conversions())
}

func TestNewMalformedConversions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text_conversions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"art": `), 0644))

	_, err := New(Config{Language: "es", ConversionsPath: path}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewUnsupportedLanguage(t *testing.T) {
	_, err := New(Config{Language: "fr"}, zap.NewNop())
	assert.ErrorIs(t, err, numwords.ErrUnsupportedLanguage)
}

func TestUpdateAndSaveConversions(t *testing.T) {
	n := newTestNormalizer(t, `{"art": "art"}`)

	n.UpdateConversions(map[string]string{"art": "artículo", "art. 5": "quinto", "<b>": "negrita"})
	assert.Equal(t, "artículo siete", n.Process("art 7"))

	path := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, n.SaveConversions(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"<b>": "negrita", "art": "artículo", "art. 5": "quinto"}`, string(data))

	reloaded, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, n.Conversions(), reloaded.Snapshot())
}

func TestSaveConversionsDefaultPath(t *testing.T) {
	n := newTestNormalizer(t, `{"Sr.": "señor"}`)

	require.NoError(t, n.SaveConversions(""))

	reloaded, err := LoadDictionary(n.cfg.ConversionsPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Sr.": "señor"}, reloaded.Snapshot())
}

func TestSaveConversionsWithoutPath(t *testing.T) {
	n, err := New(Config{Language: "es"}, zap.NewNop())
	require.NoError(t, err)

	assert.ErrorIs(t, n.SaveConversions(""), ErrNoConversionsPath)
}

func TestSaveConversionsUnwritable(t *testing.T) {
	n := newTestNormalizer(t, `{"Sr.": "señor"}`)
	n.UpdateConversions(map[string]string{"Dr.": "doctor"})

	err := n.SaveConversions(filepath.Join(t.TempDir(), "missing-dir", "out.json"))
	assert.Error(t, err)
	assert.Equal(t, map[string]string{"Sr.": "señor", "Dr.": "doctor"}, n.Conversions())
}
