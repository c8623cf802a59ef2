package device

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/decoder"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

func TestRunSerialPumpsFramesAndReturnsNilAtEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner")
	frames := "{\"customer_uuid\":\"u1\",\"timestamp\":1700000000}\n" +
		"garbage-###\n" +
		"DEADBEEF\n"
	require.NoError(t, os.WriteFile(path, []byte(frames), 0644))

	out := make(chan models.ScanEvent, 8)
	dec := decoder.NewSerialDecoder(models.DefaultMagicTimestamp)

	// the caller's retry loop depends on a drained stream reporting nil
	err := RunSerial(context.Background(), path, dec, out)
	require.NoError(t, err)

	require.Len(t, out, 2)

	ev := <-out
	assert.Equal(t, "u1", ev.Identifier)
	assert.Equal(t, int64(1700000000), ev.ClaimedTimestamp)

	ev = <-out
	assert.Equal(t, decoder.HashIdentifier("EFBEADDE"), ev.Identifier)
	assert.Equal(t, models.DefaultMagicTimestamp, ev.ClaimedTimestamp)
	assert.Equal(t, models.SourceSerialRawUID, ev.Source)
}

func TestRunSerialMissingDevice(t *testing.T) {
	out := make(chan models.ScanEvent, 1)
	dec := decoder.NewSerialDecoder(models.DefaultMagicTimestamp)

	err := RunSerial(context.Background(), filepath.Join(t.TempDir(), "absent"), dec, out)
	assert.Error(t, err)
}

func TestRunKeyboardAssemblesFrame(t *testing.T) {
	byChar := map[rune]string{}
	for code, ch := range decoder.Keymap {
		byChar[rune(ch[0])] = code
	}
	var keycodes strings.Builder
	for _, r := range `{"customer_uuid":"u1"}` {
		if r == '_' {
			keycodes.WriteString(decoder.KeyLeftShift + "\nKEY_MINUS\n")
			continue
		}
		keycodes.WriteString(byChar[r] + "\n")
	}
	keycodes.WriteString(decoder.KeyEnter + "\n")

	path := filepath.Join(t.TempDir(), "kbd")
	require.NoError(t, os.WriteFile(path, []byte(keycodes.String()), 0644))

	out := make(chan models.ScanEvent, 1)
	dec := decoder.NewKeyboardDecoder(models.DefaultMagicTimestamp)

	err := RunKeyboard(context.Background(), path, dec, out)
	require.NoError(t, err)

	require.Len(t, out, 1)
	ev := <-out
	assert.Equal(t, "u1", ev.Identifier)
	assert.Equal(t, models.DefaultMagicTimestamp, ev.ClaimedTimestamp)
}
