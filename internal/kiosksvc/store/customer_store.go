package store

import (
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/kiosksvc/models"
)

// CustomerStore reads the local roster snapshot written out-of-band by the
// sync service. The file is re-read on every lookup: a lookup is O(file
// size), but it always sees the latest snapshot without an invalidation
// signal. Read failures degrade to a cache miss so the caller can fall
// through to remote verification.
type CustomerStore struct {
	path string
}

func NewCustomerStore(path string) *CustomerStore {
	return &CustomerStore{path: path}
}

// Lookup returns the cached customer for an identifier (customer UUID or a
// card-number alias), or nil on a miss.
func (s *CustomerStore) Lookup(identifier string) *models.Customer {
	snapshot, ok := s.load()
	if !ok {
		return nil
	}
	c, ok := snapshot[identifier]
	if !ok {
		return nil
	}
	return &c
}

// Snapshot returns the whole roster map, empty when unreadable.
func (s *CustomerStore) Snapshot() map[string]models.Customer {
	snapshot, ok := s.load()
	if !ok {
		return map[string]models.Customer{}
	}
	return snapshot
}

func (s *CustomerStore) load() (map[string]models.Customer, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("customer cache unreadable, treating as miss: %s", err)
		}
		return nil, false
	}

	var snapshot map[string]models.Customer
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Warnf("customer cache malformed, treating as miss: %s", err)
		return nil, false
	}
	return snapshot, true
}

// MergeAliases keys a roster download by customer UUID plus any card-number
// aliases, so card scans resolve without a dedicated index. Keys must stay
// unique across the merged map; on a collision the last writer wins, with
// uuid keys written first and second-card aliases last.
func MergeAliases(customers []models.Customer) map[string]models.Customer {
	snapshot := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		snapshot[c.CustomerUUID] = c
	}
	for _, c := range customers {
		if c.CardNumber != "" {
			snapshot[c.CardNumber] = c
		}
	}
	for _, c := range customers {
		if c.SecondCardNumber != "" {
			snapshot[c.SecondCardNumber] = c
		}
	}
	return snapshot
}

// WriteSnapshot atomically replaces the roster file. Used by the sync
// service, never by the kiosk loop.
func WriteSnapshot(path string, snapshot map[string]models.Customer) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
