package textenc

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecode_UTF8Passthrough(t *testing.T) {
	res, err := Decode([]byte(`{"title":"Привет"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Привет"}`, res.Text)
	assert.Equal(t, "utf-8", res.Encoding)
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"a":1}`)...)
	text, err := DecodeString(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
}

func TestDecode_UTF16LEWithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	raw, err := enc.NewEncoder().Bytes([]byte(`{"topics":[]}`))
	require.NoError(t, err)

	res, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"topics":[]}`, res.Text)
	assert.Equal(t, "utf-16le", res.Encoding)
}

func TestDecode_Latin1Fallback(t *testing.T) {
	src := `{"articles":[{"title":"Le café de la gare","topic":"cuisine","source":"café.md"},` +
		`{"title":"Une journée très agréable à Genève","topic":"voyages","source":"genève.md"}],` +
		`"topics":[{"slug":"cuisine","title":"Cuisine française"},{"slug":"voyages","title":"Voyages et séjours"}]}`
	raw, err := charmap.Windows1252.NewEncoder().Bytes([]byte(src))
	require.NoError(t, err)
	require.False(t, utf8.Valid(raw))

	text, err := DecodeString(raw)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, "café")
}
