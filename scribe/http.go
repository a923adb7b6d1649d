package scribe

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bosley/murmur/catalog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

//go:embed static
var staticFiles embed.FS

type wsConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	scribe    *Scribe
	closeOnce sync.Once
}

func (s *Scribe) routes() *mux.Router {
	router := mux.NewRouter()

	// API routes
	router.HandleFunc("/api/history", s.handleGetHistory).Methods("GET")
	router.HandleFunc("/api/history", s.handleClearHistory).Methods("DELETE")
	router.HandleFunc("/api/settings", s.handleGetSettings).Methods("GET")
	router.HandleFunc("/api/settings", s.handleUpdateSettings).Methods("PUT")
	router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/api/languages", s.handleLanguages).Methods("GET")
	router.HandleFunc("/api/models", s.handleModels).Methods("GET")
	router.HandleFunc("/ws", s.handleWebSocket)

	if static, err := fs.Sub(staticFiles, "static"); err == nil {
		router.PathPrefix("/").Handler(http.FileServer(http.FS(static)))
	}

	return router
}

func (s *Scribe) startHTTP(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.config.PanelAddr,
		Handler: s.routes(),
	}

	go func() {
		slog.Info("Panel listening", "addr", s.config.PanelAddr)
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	return s.server.Shutdown(context.Background())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *Scribe) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Entries())
}

func (s *Scribe) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	slog.Info("History cleared")
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Scribe) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Settings())
}

func (s *Scribe) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid settings payload", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.UpdateSettings(in))
}

func (s *Scribe) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"healthy": s.client.Health(r.Context()),
	})
}

func (s *Scribe) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transcribing": s.Transcribing(),
		"historySize":  s.store.Len(),
	})
}

// handleLanguages passes the backend's language map through, falling back
// to the built-in catalog when the backend is unreachable.
func (s *Scribe) handleLanguages(w http.ResponseWriter, r *http.Request) {
	raw, err := s.client.Languages(r.Context())
	if err != nil {
		slog.Debug("Backend language list unavailable, serving catalog", "error", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"languages": catalog.Languages(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (s *Scribe) handleModels(w http.ResponseWriter, r *http.Request) {
	raw, err := s.client.Models(r.Context())
	if err != nil {
		slog.Debug("Backend model list unavailable, serving catalog", "error", err)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"models":  catalog.Models(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func (s *Scribe) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	wsConn := &wsConnection{
		conn:   conn,
		send:   make(chan []byte, 256),
		scribe: s,
	}

	s.subscribers.Store(wsConn, struct{}{})

	go wsConn.writePump()
	go wsConn.readPump()
}

// broadcast fans an event out to every connected panel.
func (s *Scribe) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err)
		return
	}

	s.subscribers.Range(func(key, _ interface{}) bool {
		conn := key.(*wsConnection)
		select {
		case conn.send <- data:
		default:
			slog.Warn("Failed to send to subscriber - channel full")
		}
		return true
	})
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConnection) readPump() {
	defer func() {
		c.scribe.subscribers.Delete(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			break
		}
	}
}
