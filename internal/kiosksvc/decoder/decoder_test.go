package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

const magic = models.DefaultMagicTimestamp

func feedString(t *testing.T, d *KeyboardDecoder, s string) {
	t.Helper()
	byChar := map[rune]string{}
	for code, ch := range Keymap {
		byChar[rune(ch[0])] = code
	}
	feed := func(code string) {
		ev, err := d.Feed(code)
		require.NoError(t, err)
		require.Nil(t, ev)
	}
	for _, r := range s {
		if r == '_' {
			feed(KeyLeftShift)
			feed("KEY_MINUS")
			continue
		}
		code, ok := byChar[r]
		require.Truef(t, ok, "no keycode for %q", r)
		feed(code)
	}
}

func TestKeyboardDecoderFrame(t *testing.T) {
	d := NewKeyboardDecoder(magic)
	feedString(t, d, `{"customer_uuid":"bd832dfc-f986-49a9-b028-5915a45b3bb1","timestamp":1736503200}`)

	ev, err := d.Feed(KeyEnter)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "bd832dfc-f986-49a9-b028-5915a45b3bb1", ev.Identifier)
	assert.Equal(t, int64(1736503200), ev.ClaimedTimestamp)
	assert.Equal(t, models.SourceKeyboard, ev.Source)
}

func TestKeyboardDecoderStutteredBrace(t *testing.T) {
	d := NewKeyboardDecoder(magic)
	// scanners sometimes repeat the opening brace
	feedString(t, d, `{{{"customer_uuid":"abc","timestamp":5}`)

	ev, err := d.Feed(KeyEnter)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "abc", ev.Identifier)
}

func TestKeyboardDecoderMalformedFrameDiscarded(t *testing.T) {
	d := NewKeyboardDecoder(magic)
	feedString(t, d, `{"customer_uuid"`)

	ev, err := d.Feed(KeyEnter)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Nil(t, ev)

	// buffer was discarded, a clean frame decodes afterwards
	feedString(t, d, `{"customer_uuid":"abc","timestamp":5}`)
	ev, err = d.Feed(KeyEnter)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "abc", ev.Identifier)
}

func TestKeyboardDecoderUnknownKeycodesIgnored(t *testing.T) {
	d := NewKeyboardDecoder(magic)
	_, err := d.Feed("KEY_LEFTSHIFT")
	require.NoError(t, err)

	feedString(t, d, `{"customer_uuid":"abc","timestamp":5}`)
	ev, err := d.Feed(KeyEnter)
	require.NoError(t, err)
	assert.Equal(t, "abc", ev.Identifier)
}

func TestKeyboardDecoderShiftModifier(t *testing.T) {
	d := NewKeyboardDecoder(magic)

	// shift+minus is underscore, bare minus stays a hyphen
	for _, code := range []string{KeyLeftShift, "KEY_MINUS", "KEY_MINUS"} {
		_, err := d.Feed(code)
		require.NoError(t, err)
	}
	assert.Equal(t, "_-", d.buf.String())

	// shift over a key with no shifted meaning falls back to the plain map
	d2 := NewKeyboardDecoder(magic)
	for _, code := range []string{KeyRightShift, "KEY_A"} {
		_, err := d2.Feed(code)
		require.NoError(t, err)
	}
	assert.Equal(t, "a", d2.buf.String())
}

func TestKeyboardDecoderBypassFrameGetsMagicTimestamp(t *testing.T) {
	d := NewKeyboardDecoder(magic)
	feedString(t, d, `{"customer_uuid":"abc"}`)

	ev, err := d.Feed(KeyEnter)
	require.NoError(t, err)
	assert.Equal(t, magic, ev.ClaimedTimestamp)
}

func TestSerialDecoderJSONFrame(t *testing.T) {
	d := NewSerialDecoder(magic)
	ev, err := d.DecodeLine(`{"customer_uuid":"abc","timestamp":99}` + "\r")
	require.NoError(t, err)
	assert.Equal(t, "abc", ev.Identifier)
	assert.Equal(t, int64(99), ev.ClaimedTimestamp)
	assert.Equal(t, models.SourceSerialJSON, ev.Source)
}

func TestSerialDecoderRawUID(t *testing.T) {
	d := NewSerialDecoder(magic)
	ev, err := d.DecodeLine("3735928559")
	require.NoError(t, err)
	assert.Equal(t, HashIdentifier("EFBEADDE"), ev.Identifier)
	assert.Equal(t, magic, ev.ClaimedTimestamp)
	assert.Equal(t, models.SourceSerialRawUID, ev.Source)
}

func TestSerialDecoderMalformedJSON(t *testing.T) {
	d := NewSerialDecoder(magic)
	_, err := d.DecodeLine(`{"customer_uuid":`)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeCardUID(t *testing.T) {
	ev, err := DecodeCardUID([]byte{0x08, 0x04, 0xD6, 0x94, 0x32}, magic)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCardUID, ev.Source)
	assert.Equal(t, magic, ev.ClaimedTimestamp)

	// same raw bytes always produce the same surrogate identifier
	again, err := DecodeCardUID([]byte{0x08, 0x04, 0xD6, 0x94, 0x32}, magic)
	require.NoError(t, err)
	assert.Equal(t, ev.Identifier, again.Identifier)
}
