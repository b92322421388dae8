package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"rule-board/pkg/hub"
	"rule-board/pkg/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Handlers contains all HTTP and WebSocket handlers
type Handlers struct {
	hub   *hub.Hub
	store store.RuleStore
}

// NewHandlers creates a new handlers instance
func NewHandlers(h *hub.Hub, s store.RuleStore) *Handlers {
	return &Handlers{
		hub:   h,
		store: s,
	}
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; the board has no auth
	},
}

// envelope carries the type tag of an incoming frame plus the payload of
// whichever variant it turns out to be
type envelope struct {
	Type string          `json:"type"`
	Rule json.RawMessage `json:"rule,omitempty"`
	ID   string          `json:"id,omitempty"`
}

// HandleWebSocket upgrades the connection and registers a new client
// session with the hub
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &hub.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Hub:  h.hub,
		Send: make(chan []byte, 256),
	}

	go h.writePump(client)
	go h.readPump(client)

	h.hub.Register <- client
}

// readPump handles reading messages from the WebSocket. Malformed frames
// and unknown message types are logged and skipped; the connection stays
// open and no broadcast happens for them.
func (h *Handlers) readPump(c *hub.Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in readPump for %s: %v\n%s", c.ID, r, debug.Stack())
		}
		select {
		case c.Hub.Unregister <- c:
		default:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1 << 20)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket unexpected close for %s: %v", c.ID, err)
			}
			break
		}

		var env envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("Error parsing message from %s: %v", c.ID, err)
			continue
		}

		switch env.Type {
		case "saveRule":
			var rule store.Rule
			if err := json.Unmarshal(env.Rule, &rule); err != nil {
				log.Printf("Invalid saveRule payload from %s: %v", c.ID, err)
				continue
			}
			c.Hub.SaveRule(rule)

		case "deleteRule":
			// Deleting an unknown id is a no-op, not an error
			c.Hub.DeleteRule(env.ID)

		default:
			log.Printf("Unknown message type from %s: %q", c.ID, env.Type)
		}
	}
}

// writePump handles writing messages to the WebSocket
func (h *Handlers) writePump(c *hub.Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		select {
		case c.Hub.Unregister <- c:
		default:
		}
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// hub closed the channel: say goodbye and return
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error for %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ListRules returns the full ordered snapshot
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.store.Snapshot())
}

// GetRule retrieves a single rule by id
func (h *Handlers) GetRule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	rule, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrRuleNotFound) {
			http.Error(w, "Rule not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get rule", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// SaveRule upserts a rule through the hub so connected clients receive the
// same broadcast and notification as for a websocket mutation
func (h *Handlers) SaveRule(w http.ResponseWriter, r *http.Request) {
	var rule store.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if rule.ID == "" {
		http.Error(w, "Missing rule id", http.StatusBadRequest)
		return
	}

	h.hub.SaveRule(rule)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// DeleteRule removes a rule through the hub. Unlike the websocket path,
// deleting an unknown id over HTTP reports 404.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	if _, ok := h.hub.DeleteRule(id); !ok {
		http.Error(w, "Rule not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Status reports the number of rules and connected clients
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rules":   h.store.Len(),
		"clients": h.hub.ClientCount(),
	})
}
