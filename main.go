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
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/Swatijha060/chatly/api"
	"github.com/Swatijha060/chatly/auth"
	"github.com/Swatijha060/chatly/domain"
	"github.com/Swatijha060/chatly/hub"
	"github.com/Swatijha060/chatly/internal/transport"
	"github.com/Swatijha060/chatly/protocol"
	"github.com/Swatijha060/chatly/store"
	ws "github.com/Swatijha060/chatly/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	setupLogger()
	setAllowedOrigins(os.Getenv("ALLOWED_ORIGINS"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("SQLITE_PATH")
	if dbPath == "" {
		dbPath = "chatly.db"
	}
	dataStore, err := store.OpenSQLite(dbPath)
	if err != nil {
		slog.Error("failed to open store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer dataStore.Close()
	slog.Info("storage ready", "path", dbPath)

	broadcaster := hub.New()
	router := protocol.NewRouter(broadcaster)
	authService := &auth.Service{Store: dataStore}
	apiHandler := &api.Handler{Store: dataStore}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/register", authService.RegisterHandler)
	mux.HandleFunc("POST /api/users/login", authService.LoginHandler)
	mux.HandleFunc("GET /api/users/me", authService.RequireUser(authService.MeHandler))
	mux.HandleFunc("POST /api/groups", authService.RequireAdmin(apiHandler.CreateGroup))
	mux.HandleFunc("GET /api/groups", authService.RequireUser(apiHandler.ListGroups))
	mux.HandleFunc("GET /api/groups/{groupId}", authService.RequireUser(apiHandler.GetGroup))
	mux.HandleFunc("POST /api/groups/{groupId}/join", authService.RequireUser(apiHandler.JoinGroup))
	mux.HandleFunc("POST /api/groups/{groupId}/leave", authService.RequireUser(apiHandler.LeaveGroup))
	mux.HandleFunc("POST /api/messages", authService.RequireUser(apiHandler.SendMessage))
	mux.HandleFunc("GET /api/messages/{groupId}", authService.RequireUser(apiHandler.GroupMessages))
	mux.HandleFunc("/ws", wsHandler(dataStore, router))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(broadcaster))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
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
}

func setupLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// wsHandler authenticates the upgrade via the token query parameter and
// binds the resolved user to the connection before handing it to the router.
func wsHandler(dataStore store.Store, handler domain.EventHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			transport.WriteError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		user, ok := dataStore.UserByToken(token)
		if !ok {
			transport.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(uuid.New().String(), user.ID, conn, handler)
		wsConn.Start()
		slog.Info("client connected", "connId", wsConn.ID(), "userId", user.ID)
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(broadcaster *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rooms, clients := broadcaster.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"rooms": rooms, "clients": clients})
	}
}
