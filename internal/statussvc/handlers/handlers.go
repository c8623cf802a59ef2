package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"

	"github.com/entradakit/kiosk-services/internal/statussvc/broker"
	"github.com/entradakit/kiosk-services/internal/statussvc/ws"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	Ws        *ws.Ws
	Broker    *broker.Broker
}

func NewHandler(sock *ws.Ws, b *broker.Broker) *Handler {
	return &Handler{Ws: sock, Broker: b}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (rs *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "status service is running at port " + os.Getenv("STATUS_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	h.CreateResponse(w, rsp)
}

// DecisionsHandler returns the newest-first tail of access decisions.
func (h *Handler) DecisionsHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "recent decisions",
		Code:    200,
		Data:    h.Broker.Recent(),
	}
	h.CreateResponse(w, rsp)
}

// ServicesHandler returns the latest heartbeat per kiosk service instance.
func (h *Handler) ServicesHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "live services",
		Code:    200,
		Data:    h.Broker.Services(),
	}
	h.CreateResponse(w, rsp)
}

func (h *Handler) WSHandler(w http.ResponseWriter, r *http.Request) {
	h.Ws.HandleWS(w, r)
}
