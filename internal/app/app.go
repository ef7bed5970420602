// Package app implements the dashboard and notification surface of the
// ground station: JSON endpoints for fleet and mission state, a websocket
// event stream, bbolt-backed result storage and Prometheus metrics. It is a
// pure observer of the core; the only mutations it can request go through
// the same command surface an operator console would use.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.etcd.io/bbolt"
)

// App is the dashboard server.
type App struct {
	DB     *bbolt.DB
	Mux    *http.ServeMux
	Server *http.Server

	// command surface wired by the System at construction
	ScheduleMissions func() error
	StartMission     func(input map[string]float64) error
	Snapshot         func() Snapshot

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// NewApp initializes the dashboard with its database and routes.
func NewApp(dbPath string) (*App, error) {
	if dbPath == "" {
		dbPath = filepath.Join("tmp", "gcs.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("[app] failed to create db dir: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0o666, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("[app] failed to open BoltDB: %w", err)
	}

	a := &App{
		DB:      db,
		Mux:     http.NewServeMux(),
		clients: map[*websocket.Conn]bool{},
	}
	a.registerRoutes()
	return a, nil
}

// Start launches the web server and blocks until stopped.
func (a *App) Start(addr string) error {
	if addr == "" {
		log.Println("[app] dashboard not started (empty address)")
		return nil
	}
	addr = strings.TrimPrefix(addr, "http://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	a.Server = &http.Server{Addr: addr, Handler: a.Mux}
	log.Printf("[app] dashboard listening at http://%s", addr)
	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[app] HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the web server and closes the DB.
func (a *App) Stop() {
	if a.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			log.Printf("[app] HTTP server shutdown error: %v", err)
		}
	}
	a.mu.Lock()
	for c := range a.clients {
		_ = c.Close()
		delete(a.clients, c)
	}
	a.mu.Unlock()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("[app] error closing BoltDB: %v", err)
		}
	}
}
