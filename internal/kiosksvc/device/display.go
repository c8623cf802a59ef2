package device

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const lcdWidth = 16

// Display is the two-line status surface of the kiosk. The LCD hardware
// driver lives outside this module; the default implementation just logs.
type Display interface {
	// Show renders two lines. A non-zero timeout means the message is
	// transient and the idle prompt returns afterwards.
	Show(line1, line2 string, timeout time.Duration)
	Clear()
}

type logDisplay struct{}

// NewLogDisplay returns a Display that writes to the service log, used when
// USE_LCD is off or no panel is attached.
func NewLogDisplay() Display {
	return logDisplay{}
}

func (logDisplay) Show(line1, line2 string, timeout time.Duration) {
	log.Infof("display: %s | %s", line1, line2)
}

func (logDisplay) Clear() {
	log.Info("display: clear")
}

// ScrollWindows splits a line into the 16-character windows an LCD scroll
// cycles through. A line that fits is returned as-is.
func ScrollWindows(line string) []string {
	if len(line) <= lcdWidth {
		return []string{line}
	}
	positions := len(line) - lcdWidth + 1
	windows := make([]string, 0, positions)
	for i := 0; i < positions; i++ {
		windows = append(windows, line[i:i+lcdWidth])
	}
	return windows
}
