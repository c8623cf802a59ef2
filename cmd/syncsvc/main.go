package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	config "github.com/entradakit/kiosk-services/configs"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/client"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/service"
	"github.com/entradakit/kiosk-services/internal/kiosksvc/store"
)

const SERVICE_NAME = "sync"

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
}

// syncsvc downloads the customer roster and atomically replaces the local
// snapshot the kiosk consults. Runs from a timer unit, not a daemon.
func main() {
	hostname := os.Getenv("HOSTNAME")
	username := os.Getenv("USERNAME")
	password := os.Getenv("PASSWORD")
	outPath := os.Getenv("CUSTOMERS_FILE")
	if outPath == "" {
		outPath = "./customers.json"
	}
	if hostname == "" || username == "" || password == "" {
		log.Fatal("HOSTNAME, USERNAME and PASSWORD must be set")
	}

	api := client.New(hostname)
	session := service.NewSessionService(api, username, password)

	ctx := context.Background()

	token, err := session.Token(ctx)
	if err != nil {
		log.Fatalf("could not get JWT token: %v", err)
	}

	customers, err := api.GetCustomers(ctx, token)
	if err != nil {
		log.Fatalf("failed to retrieve customers: %v", err)
	}

	snapshot := store.MergeAliases(customers)

	if err := store.WriteSnapshot(outPath, snapshot); err != nil {
		log.Fatalf("failed to write customers snapshot: %v", err)
	}
	log.Infof("successfully written %d customers (%d keys) to %s",
		len(customers), len(snapshot), outPath)
}
