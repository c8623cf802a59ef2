package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

// InputMode enumerates the recognized scanner wirings.
type InputMode string

const (
	InputKeyboard InputMode = "keyboard"
	InputSerial   InputMode = "serial"
)

// KioskConfig is the validated startup configuration of one direction's
// kiosk process. It replaces the scattered env lookups of earlier revisions:
// every recognized option is enumerated here and checked once.
type KioskConfig struct {
	Hostname string
	Username string
	Password string

	EntranceUUID string
	Direction    string

	InputMode     InputMode
	QRDevicePath  string
	UseLCD        bool
	HasCamera     bool
	RecordingDir  string
	HeartbeatDir  string
	CustomersFile string
	OverflowFile  string

	RelayPinDoor        int
	RelayToggleDuration time.Duration
	OpenNTimes          int

	MagicTimestamp int64
}

// FromEnv reads and validates the kiosk configuration. It fails hard on
// anything required: a kiosk with a half-formed config must not pretend to
// guard a door.
func FromEnv() (*KioskConfig, error) {
	cfg := &KioskConfig{
		Hostname:     os.Getenv("HOSTNAME"),
		Username:     os.Getenv("USERNAME"),
		Password:     os.Getenv("PASSWORD"),
		EntranceUUID: os.Getenv("ENTRANCE_UUID"),
		Direction:    os.Getenv("DIRECTION"),

		QRDevicePath:  os.Getenv("QR_USB_DEVICE_PATH"),
		RecordingDir:  getenvDefault("RECORDING_DIR", "./recordings"),
		HeartbeatDir:  getenvDefault("HEARTBEAT_DIR", "."),
		CustomersFile: getenvDefault("CUSTOMERS_FILE", "./customers.json"),
		OverflowFile:  getenvDefault("OVERFLOW_FILE", "./entrance_log_overflow.jsonl"),

		UseLCD:    getenvBool("USE_LCD", true),
		HasCamera: getenvBool("HAS_CAMERA", false),

		RelayPinDoor: getenvInt("RELAY_PIN_DOOR", 24),
		OpenNTimes:   getenvInt("OPEN_N_TIMES", 1),

		MagicTimestamp: getenvInt64("MAGIC_TIMESTAMP", models.DefaultMagicTimestamp),
	}

	if cfg.Direction == "" {
		cfg.Direction = os.Getenv("ENTRANCE_DIRECTION")
	}

	if getenvBool("IS_SERIAL_DEVICE", false) {
		cfg.InputMode = InputSerial
	} else {
		cfg.InputMode = InputKeyboard
	}

	seconds := getenvFloat("RELAY_TOGGLE_DURATION", 1.0)
	cfg.RelayToggleDuration = time.Duration(seconds * float64(time.Second))

	for key, val := range map[string]string{
		"HOSTNAME":      cfg.Hostname,
		"USERNAME":      cfg.Username,
		"PASSWORD":      cfg.Password,
		"ENTRANCE_UUID": cfg.EntranceUUID,
		"DIRECTION":     cfg.Direction,
	} {
		if val == "" {
			return nil, fmt.Errorf("missing required environment variable %s", key)
		}
	}
	if cfg.OpenNTimes < 1 {
		return nil, fmt.Errorf("OPEN_N_TIMES must be at least 1, got %d", cfg.OpenNTimes)
	}
	if cfg.RelayToggleDuration <= 0 {
		return nil, fmt.Errorf("RELAY_TOGGLE_DURATION must be positive")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
