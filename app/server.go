package app

import (
	"log"
	"net/http"

	"rule-board/pkg/config"
	"rule-board/pkg/handlers"
	"rule-board/pkg/hub"
	"rule-board/pkg/notify"
	"rule-board/pkg/store"

	"github.com/gorilla/mux"
)

// Server represents the application server
type Server struct {
	router *mux.Router
	hub    *hub.Hub
	store  store.RuleStore
	config *config.Config
}

// NewServer creates a new server instance
func NewServer() *Server {
	// Load configuration
	cfg := config.Load()

	// The rule list is in-memory only; it resets on process restart
	ruleStore := store.NewMemoryRuleStore()

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewDiscordNotifier(cfg.WebhookURL)
	} else {
		log.Println("DISCORD_WEBHOOK_URL not set, mutation notifications disabled")
	}

	h := hub.NewHub(ruleStore, notifier)

	// Initialize handlers
	hs := handlers.NewHandlers(h, ruleStore)

	// Setup routes
	r := mux.NewRouter()

	// WebSocket endpoint for real-time rule synchronization
	r.HandleFunc("/ws", hs.HandleWebSocket)

	// REST API endpoints for the same rule list
	r.HandleFunc("/api/rules", hs.SaveRule).Methods("POST")
	r.HandleFunc("/api/rules", hs.ListRules).Methods("GET")
	r.HandleFunc("/api/rules/{id}", hs.GetRule).Methods("GET")
	r.HandleFunc("/api/rules/{id}", hs.DeleteRule).Methods("DELETE")
	r.HandleFunc("/api/status", hs.Status).Methods("GET")

	return &Server{
		router: r,
		hub:    h,
		store:  ruleStore,
		config: cfg,
	}
}

// Start starts the server
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.config.GetServerAddr()
	}
	log.Printf("Starting rule board server on %s", addr)
	// Wrap the router with a top-level CORS middleware so that preflight
	// (OPTIONS) requests are handled before mux does method-based matching
	// (which can otherwise return 405).
	return http.ListenAndServe(addr, corsMiddleware(s.router))
}

// Router returns the configured router, wrapped with CORS
func (s *Server) Router() http.Handler {
	return corsMiddleware(s.router)
}

// corsMiddleware handles CORS headers and responds to preflight requests at
// the outer layer so they don't get rejected by method-restricted routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
		} else {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		w.Header().Set("Access-Control-Max-Age", "600")
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Headers")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
