package hub

import (
	"encoding/json"
	"log"
	"runtime/debug"
	"sync"

	"rule-board/pkg/notify"
	"rule-board/pkg/store"

	"github.com/gorilla/websocket"
)

// Client represents one connected websocket session. A reconnect creates a
// brand-new Client with a fresh id; closed sessions are never revived.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte
}

// rulesMessage is the full-state snapshot pushed to every client. Rules is
// always present, an empty array when the store is empty.
type rulesMessage struct {
	Type  string       `json:"type"`
	Rules []store.Rule `json:"rules"`
}

// mutationKind tags the variants of mutation
type mutationKind int

const (
	saveMutation mutationKind = iota
	deleteMutation
)

// mutation is the tagged union of the two store-changing requests. Only the
// run loop applies them, which serializes all mutations in arrival order.
type mutation struct {
	kind mutationKind
	rule store.Rule // saveMutation payload
	id   string     // deleteMutation payload
	done chan mutationResult
}

type mutationResult struct {
	rule    store.Rule
	applied bool
}

// Hub owns the rule store and the set of connected clients. Every mutation,
// from any connection or HTTP request, funnels through its single run loop;
// after each one the full snapshot is broadcast to all clients, including
// the one that submitted the change.
type Hub struct {
	store    store.RuleStore
	notifier notify.Notifier

	clients map[string]*Client
	mutex   sync.RWMutex

	Register   chan *Client
	Unregister chan *Client
	mutations  chan mutation
}

// NewHub creates the hub and starts its run loop
func NewHub(s store.RuleStore, n notify.Notifier) *Hub {
	h := &Hub{
		store:      s,
		notifier:   n,
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		mutations:  make(chan mutation),
	}

	go h.run()

	return h
}

// SaveRule upserts the rule through the run loop. It returns after the
// store change and broadcast have been applied; the notification is in
// flight on its own goroutine.
func (h *Hub) SaveRule(rule store.Rule) {
	done := make(chan mutationResult, 1)
	h.mutations <- mutation{kind: saveMutation, rule: rule, done: done}
	<-done
}

// DeleteRule removes the rule with the given id through the run loop and
// returns the removed rule. A missing id reports false; it still triggers a
// broadcast but no notification.
func (h *Hub) DeleteRule(id string) (store.Rule, bool) {
	done := make(chan mutationResult, 1)
	h.mutations <- mutation{kind: deleteMutation, id: id, done: done}
	res := <-done
	return res.rule, res.applied
}

// ClientCount returns the number of currently connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// run handles registration, unregistration and mutations, one at a time
func (h *Hub) run() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic in hub.run: %v\n%s", rec, debug.Stack())
		}
	}()

	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			// First message a client ever sees is the current snapshot
			h.sendSnapshot(client)
			log.Printf("Client %s connected (%d online)", client.ID, h.ClientCount())

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %s disconnected (%d online)", client.ID, h.ClientCount())

		case m := <-h.mutations:
			h.apply(m)
		}
	}
}

// apply runs one mutation to completion: store change, best-effort
// notification, then a snapshot broadcast to every connected client. The
// notification goroutine and the broadcast are independent; neither waits
// for the other.
func (h *Hub) apply(m mutation) {
	var res mutationResult

	switch m.kind {
	case saveMutation:
		inserted := h.store.Upsert(m.rule)
		kind := notify.KindUpdate
		if inserted {
			kind = notify.KindCreate
		}
		go h.notifier.Notify(kind, m.rule)
		res = mutationResult{rule: m.rule, applied: true}

	case deleteMutation:
		removed, ok := h.store.Remove(m.id)
		if ok {
			go h.notifier.Notify(notify.KindDelete, removed)
		}
		res = mutationResult{rule: removed, applied: ok}
	}

	h.broadcastSnapshot()

	if m.done != nil {
		m.done <- res
	}
}

// sendSnapshot pushes the current snapshot to a single client
func (h *Hub) sendSnapshot(c *Client) {
	data, err := json.Marshal(rulesMessage{Type: "rules", Rules: h.store.Snapshot()})
	if err != nil {
		log.Printf("Error marshaling snapshot: %v", err)
		return
	}

	select {
	case c.Send <- data:
	default:
		// drop on slow client
	}
}

// broadcastSnapshot pushes the current snapshot to every connected client.
// A client whose send buffer is full is evicted; that never aborts delivery
// to the remaining clients.
func (h *Hub) broadcastSnapshot() {
	data, err := json.Marshal(rulesMessage{Type: "rules", Rules: h.store.Snapshot()})
	if err != nil {
		log.Printf("Error marshaling snapshot: %v", err)
		return
	}

	h.mutex.Lock()
	for id, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			close(client.Send)
			delete(h.clients, id)
		}
	}
	h.mutex.Unlock()
}
