package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/Prannn182/CodeCollab/config"
	"github.com/Prannn182/CodeCollab/domain"
	"github.com/Prannn182/CodeCollab/hub"
	"github.com/Prannn182/CodeCollab/protocol"
	"github.com/Prannn182/CodeCollab/runner"
	"github.com/Prannn182/CodeCollab/store"
	ws "github.com/Prannn182/CodeCollab/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	sessions := store.New()

	reaper := store.NewReaper(sessions, cfg.SweepInterval, cfg.InactivityThreshold)
	reaper.Start()

	presence := hub.New()
	go presence.Run()

	handler := protocol.NewHandler(sessions, presence, runner.New(), cfg.ExecTimeout)

	router := mux.NewRouter()
	router.HandleFunc("/ws", wsHandler(presence, handler)).Methods(http.MethodGet)
	router.HandleFunc("/health", healthHandler(sessions, presence)).Methods(http.MethodGet)
	router.HandleFunc("/stats", statsHandler(presence)).Methods(http.MethodGet)
	router.Use(corsMiddleware)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	reaper.Stop()
	presence.Stop()
}

func setupLogger(levelName string) {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func wsHandler(presence *hub.Hub, handler *protocol.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		ws.NewConn(uuid.NewString(), conn, presence, handler).Start()
	}
}

type healthResponse struct {
	Status           string             `json:"status"`
	Timestamp        string             `json:"timestamp"`
	ActiveRooms      int                `json:"activeRooms"`
	TotalConnections int                `json:"totalConnections"`
	Rooms            []domain.RoomStats `json:"rooms"`
}

func healthHandler(sessions *store.Store, presence *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := sessions.AllStats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{
			Status:           "healthy",
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
			ActiveRooms:      len(stats),
			TotalConnections: presence.ConnectionCount(),
			Rooms:            stats,
		})
	}
}

func statsHandler(presence *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, clients := presence.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"rooms": groups, "clients": clients})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
