package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/entradakit/kiosk-services/internal/comm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS handled by router
}

// Ws fans kiosk events out to connected diagnostic clients.
type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	writeMu sync.Mutex
}

func NewWs() *Ws {
	return &Ws{}
}

// HandleWS upgrades the connection and parks it until the client goes away.
// The feed is one-directional; inbound frames are drained and dropped.
func (s *Ws) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %s", err)
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		log.Errorf("error generating socket id: %s", err)
		conn.Close()
		return
	}
	socketId := id.String()

	s.connMap.Store(socketId, conn)
	log.Infof("status client %s connected", socketId)

	go func() {
		defer func() {
			s.connMap.Delete(socketId)
			conn.Close()
			log.Infof("status client %s disconnected", socketId)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends one message to every connected client. Dead connections
// are dropped from the map.
func (s *Ws) Broadcast(msg *comm.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("marshal ws message: %s", err)
		return
	}

	s.connMap.Range(func(key, value interface{}) bool {
		conn := value.(*websocket.Conn)
		s.writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		s.writeMu.Unlock()
		if err != nil {
			log.Warnf("dropping status client %s: %s", key, err)
			s.connMap.Delete(key)
			conn.Close()
		}
		return true
	})
}
