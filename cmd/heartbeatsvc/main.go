package main

import (
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/entradakit/kiosk-services/configs"
	"github.com/entradakit/kiosk-services/internal/heartbeat"
)

const SERVICE_NAME = "heartbeat"

const sleepInterval = 20 * time.Second

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
}

// heartbeatsvc watches the per-direction heartbeat files and exits non-zero
// the moment a kiosk goes quiet. The external supervisor restarts the scan
// units on our failure; we never restart anything ourselves.
func main() {
	dir := os.Getenv("HEARTBEAT_DIR")
	if dir == "" {
		dir = "."
	}

	bidirectional := false
	if v := os.Getenv("IS_BIDIRECT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("Invalid IS_BIDIRECT value: %v", err)
		}
		bidirectional = b
	}

	log.Infof("IS_BIDIRECT: %v, HEARTBEAT_DIR: %s, MAX_HEARTBEAT_DELAY: %s",
		bidirectional, dir, heartbeat.MaxDelay)

	for {
		if heartbeat.Healthy(dir, bidirectional, time.Now()) {
			log.Info("All devices are alive.")
		} else {
			log.Warn("One or more devices are not alive.")
			os.Exit(1)
		}
		time.Sleep(sleepInterval)
	}
}
