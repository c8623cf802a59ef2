package device

import (
	"bufio"
	"context"
	"errors"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/decoder"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

// RunSerial reads newline-delimited frames from a serial scanner device and
// feeds decoded events into out. Malformed frames are discarded; the
// scanner re-sends on the next physical scan.
func RunSerial(ctx context.Context, path string, dec *decoder.SerialDecoder, out chan<- models.ScanEvent) error {
	return readLines(ctx, path, out, func(line string) (*models.ScanEvent, error) {
		return dec.DecodeLine(line)
	})
}

// RunKeyboard reads key-up keycodes, one per line, from the keyboard
// emulation shim and feeds completed frames into out.
func RunKeyboard(ctx context.Context, path string, dec *decoder.KeyboardDecoder, out chan<- models.ScanEvent) error {
	return readLines(ctx, path, out, func(keycode string) (*models.ScanEvent, error) {
		return dec.Feed(keycode)
	})
}

func readLines(ctx context.Context, path string, out chan<- models.ScanEvent,
	decode func(string) (*models.ScanEvent, error)) error {

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ev, err := decode(scanner.Text())
		if err != nil {
			if !errors.Is(err, decoder.ErrDecode) {
				log.Errorf("decode failure: %s", err)
			}
			continue
		}
		if ev == nil {
			continue
		}

		select {
		case out <- *ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
