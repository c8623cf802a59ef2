package decoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

// ErrDecode marks a malformed frame. The frame is discarded without retry:
// the scanner re-sends on the next physical scan.
var ErrDecode = errors.New("decode error")

type qrPayload struct {
	CustomerUUID string `json:"customer_uuid"`
	Timestamp    int64  `json:"timestamp"`
}

// KeyboardDecoder accumulates characters from keyboard-emulation key-up
// events until an ENTER keycode closes the frame.
type KeyboardDecoder struct {
	buf            strings.Builder
	magicTimestamp int64
	shifted        bool
}

func NewKeyboardDecoder(magicTimestamp int64) *KeyboardDecoder {
	return &KeyboardDecoder{magicTimestamp: magicTimestamp}
}

// Feed consumes one key-up keycode. It returns a scan event when an ENTER
// keycode completes a parseable frame, (nil, nil) while accumulating, and
// ErrDecode for a frame that does not parse.
func (d *KeyboardDecoder) Feed(keycode string) (*models.ScanEvent, error) {
	if keycode == KeyLeftShift || keycode == KeyRightShift {
		d.shifted = true
		return nil, nil
	}

	if keycode != KeyEnter {
		if d.shifted {
			d.shifted = false
			if ch, ok := ShiftedKeymap[keycode]; ok {
				d.buf.WriteString(ch)
				return nil, nil
			}
		}
		if ch, ok := Keymap[keycode]; ok {
			d.buf.WriteString(ch)
		}
		return nil, nil
	}

	d.shifted = false
	frame := d.buf.String()
	d.buf.Reset()

	// scanners occasionally stutter the opening brace, re-anchor on it
	frame = "{" + strings.TrimLeft(frame, "{")

	var p qrPayload
	if err := json.Unmarshal([]byte(frame), &p); err != nil {
		log.Errorf("invalid QR frame, discarding: %s", err)
		return nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if p.CustomerUUID == "" {
		log.Error("QR frame missing customer_uuid, discarding")
		return nil, fmt.Errorf("%w: missing customer_uuid", ErrDecode)
	}
	if p.Timestamp == 0 {
		// pre-registered bypass codes carry no timestamp
		p.Timestamp = d.magicTimestamp
	}

	return &models.ScanEvent{
		Identifier:       p.CustomerUUID,
		ClaimedTimestamp: p.Timestamp,
		Source:           models.SourceKeyboard,
	}, nil
}

// SerialDecoder parses newline-delimited frames from a serial scanner.
type SerialDecoder struct {
	magicTimestamp int64
}

func NewSerialDecoder(magicTimestamp int64) *SerialDecoder {
	return &SerialDecoder{magicTimestamp: magicTimestamp}
}

// DecodeLine turns one serial line into a scan event. A JSON frame is
// canonical; anything else is treated as a raw card identifier and hashed
// into a surrogate UUID.
func (d *SerialDecoder) DecodeLine(line string) (*models.ScanEvent, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("%w: empty frame", ErrDecode)
	}

	if strings.HasPrefix(line, "{") {
		var p qrPayload
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDecode, err)
		}
		if p.CustomerUUID == "" {
			return nil, fmt.Errorf("%w: missing customer_uuid", ErrDecode)
		}
		if p.Timestamp == 0 {
			p.Timestamp = d.magicTimestamp
		}
		return &models.ScanEvent{
			Identifier:       p.CustomerUUID,
			ClaimedTimestamp: p.Timestamp,
			Source:           models.SourceSerialJSON,
		}, nil
	}

	hexUID, err := NormalizeUID(line)
	if err != nil {
		return nil, err
	}

	return &models.ScanEvent{
		Identifier:       HashIdentifier(hexUID),
		ClaimedTimestamp: d.magicTimestamp,
		Source:           models.SourceSerialRawUID,
	}, nil
}

// DecodeCardUID normalizes raw UID bytes from an NFC reader. Card reads are
// timestamp-less, so the event carries the magic sentinel.
func DecodeCardUID(raw []byte, magicTimestamp int64) (*models.ScanEvent, error) {
	decimal, err := CardUIDToDecimal(raw)
	if err != nil {
		return nil, err
	}
	hexUID, err := NormalizeUID(decimal)
	if err != nil {
		return nil, err
	}
	return &models.ScanEvent{
		Identifier:       HashIdentifier(hexUID),
		ClaimedTimestamp: magicTimestamp,
		Source:           models.SourceCardUID,
	}, nil
}
