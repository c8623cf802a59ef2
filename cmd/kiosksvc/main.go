package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/entradakit/kiosk-services/configs"
	"github.com/entradakit/kiosk-services/internal/comm"
	"github.com/entradakit/kiosk-services/internal/heartbeat"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/bridge"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/broker"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/client"
	kioskconfig "github.com/entradakit/kiosk-services/internal/kiosksvc/config"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/decoder"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/device"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/service"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/store"
	nats "github.com/entradakit/kiosk-services/internal/nats"
	natsgo "github.com/nats-io/nats.go"
)

const SERVICE_NAME = "kiosk"

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg, err := kioskconfig.FromEnv()
	if err != nil {
		log.Fatalf("invalid kiosk configuration: %v", err)
	}
	config.CreateUniqueInstance(SERVICE_NAME + "_" + cfg.Direction)

	log.Infof("initializing ENTRANCE_UUID: %s", cfg.EntranceUUID)
	log.Infof("using relay pin %d for the door", cfg.RelayPinDoor)
	log.Infof("using %d toggles for the relay", cfg.OpenNTimes)
	log.Infof("using %s for the relay pulse", cfg.RelayToggleDuration)

	api := client.New(cfg.Hostname)
	session := service.NewSessionService(api, cfg.Username, cfg.Password)

	customers := store.NewCustomerStore(cfg.CustomersFile)
	overflow := store.NewOverflowStore(cfg.OverflowFile)

	access := service.NewAccessService(customers, api, session,
		cfg.EntranceUUID, cfg.Direction, cfg.MagicTimestamp)
	reporter := service.NewReporterService(api, session, overflow)

	// NATS carries the camera hand-off and diagnostics; the door must work
	// without it
	var conn *natsgo.Conn
	n, err := nats.Connect(SERVICE_NAME + "-" + cfg.Direction)
	if err != nil {
		log.Warnf("unable to connect to NATS server, running without event bus: %v", err)
	} else {
		defer n.Conn.Close()
		conn = n.Conn
		log.Printf("NATS connection established successfully %s", n.Url)
	}

	var camera *bridge.CameraBridge
	if cfg.HasCamera {
		camera = bridge.New(cfg.RecordingDir, conn, cfg.Direction)
	}

	display := device.NewLogDisplay()
	relay := device.NewAsyncRelay(device.NewLogRelay(cfg.RelayPinDoor))

	b := broker.NewBroker(cfg, access, reporter, display, relay, camera, conn)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// heartbeat keeps the external watchdog from restarting a live unit
	go heartbeat.NewWriter(cfg.HeartbeatDir, cfg.Direction).Run(ctx)

	instanceID := SERVICE_NAME + "_" + cfg.Direction
	if conn != nil {
		go runPresence(ctx, conn, instanceID)
	}

	go runReader(ctx, cfg, b)

	b.Run(ctx)

	if conn != nil {
		// retract presence before the deferred connection close
		data, _ := json.Marshal(comm.ServiceShutdown{ID: instanceID})
		if err := conn.Publish(comm.SubjectServiceShutdown, data); err == nil {
			conn.Flush()
		}
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// runPresence announces this instance on the bus at the file-heartbeat
// cadence so the status service can show which directions are up.
func runPresence(ctx context.Context, conn *natsgo.Conn, id string) {
	ticker := time.NewTicker(heartbeat.WriteInterval)
	defer ticker.Stop()

	publish := func() {
		data, _ := json.Marshal(comm.ServiceHeartbeat{ID: id, Timestamp: time.Now()})
		if err := conn.Publish(comm.SubjectServiceHeartbeat, data); err != nil {
			log.Warnf("service heartbeat publish failed: %s", err)
		}
	}

	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}

// runReader connects to the scanner device, retrying while the USB device
// settles, then pumps decoded events into the broker.
func runReader(ctx context.Context, cfg *kioskconfig.KioskConfig, b *broker.Broker) {
	for ctx.Err() == nil {
		var err error
		switch cfg.InputMode {
		case kioskconfig.InputSerial:
			dec := decoder.NewSerialDecoder(cfg.MagicTimestamp)
			err = device.RunSerial(ctx, cfg.QRDevicePath, dec, b.Events)
		default:
			dec := decoder.NewKeyboardDecoder(cfg.MagicTimestamp)
			err = device.RunKeyboard(ctx, cfg.QRDevicePath, dec, b.Events)
		}
		if ctx.Err() != nil {
			return
		}
		// a clean EOF (unplugged device) must back off the same way an
		// open failure does, or the loop reopens the path hot
		if err != nil {
			log.Warnf("failed to read from the QR code scanner: %v. Retrying in 15 seconds...", err)
		} else {
			log.Warn("QR code scanner stream ended. Reopening in 15 seconds...")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(15 * time.Second):
		}
	}
}
