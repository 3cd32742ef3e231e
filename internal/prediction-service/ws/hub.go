package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/countdown"
)

// Métricas Prometheus para monitoramento de conexões e mensagens
var (
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prediction_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsTicksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_ws_ticks_sent_total",
		Help: "Total de ticks de countdown enviados via WS",
	})
)

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// SessionID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type      string `json:"type"`      // subscribe | unsubscribe | ping
	SessionID string `json:"sessionId"` // requerido em subscribe/unsubscribe
}

// TickUpdate é o tick de countdown empurrado para os clientes da sessão
type TickUpdate struct {
	SessionID string         `json:"sessionId"`
	Tick      countdown.Tick `json:"tick"`
}

// Representa uma conexão de cliente WebSocket.
// O mutex serializa escritas: *websocket.Conn não suporta writers concorrentes,
// e o mesmo cliente recebe pongs do read loop e ticks do broadcast.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e assinaturas de ticks por sessão
// subs: mapeia sessionID para o conjunto de clientes inscritos
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// sessionID -> set of clients
	subs map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe no fluxo de ticks de uma sessão e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	wsConnections.Inc()
	defer func() {
		wsConnections.Dec()
		conn.Close()
	}()

	pong, _ := json.Marshal(map[string]string{"type": "pong"})
	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.mu.Lock()
			if _, ok := h.subs[msg.SessionID]; !ok {
				h.subs[msg.SessionID] = make(map[*client]struct{})
			}
			h.subs[msg.SessionID][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.SessionID]; ok {
				delete(m, c)
				if len(m) == 0 {
					delete(h.subs, msg.SessionID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = c.write(pong)
		}
	}
	// Remove o cliente de todas as assinaturas ao desconectar
	h.mu.Lock()
	for sid, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, sid)
		}
	}
	h.mu.Unlock()
}

// BroadcastTick envia o tick para todos os clientes inscritos na sessão.
// Satisfaz workflow.TickSink.
func (h *Hub) BroadcastTick(sessionID string, t countdown.Tick) {
	// Copia o conjunto sob RLock: o read loop muta o mapa sob Lock concorrentemente
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[sessionID]))
	for c := range h.subs[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(TickUpdate{SessionID: sessionID, Tick: t})
	for _, c := range targets {
		if err := c.write(b); err == nil {
			wsTicksSent.Inc()
		}
	}
}
