package main

import (
	"context"
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
	"github.com/rs/cors"

	"freightlink-realtime-server/api"
	"freightlink-realtime-server/bridge"
	"freightlink-realtime-server/config"
	"freightlink-realtime-server/domain"
	"freightlink-realtime-server/hub"
	"freightlink-realtime-server/presence"
	"freightlink-realtime-server/protocol"
	"freightlink-realtime-server/session"
	"freightlink-realtime-server/store"
	ws "freightlink-realtime-server/websocket"
)

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

	registry := presence.New()
	rooms := hub.New()
	dispatcher := protocol.NewDispatcher(rooms, registry)
	relay := bridge.New()

	if cfg.NATSURL != "" {
		bus, err := bridge.Connect(cfg.NATSURL)
		if err != nil {
			slog.Error("nats connect failed", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer bus.Close()

		if _, err := bus.Subscribe(dispatcher); err != nil {
			slog.Error("nats subscribe failed", "error", err)
			os.Exit(1)
		}
		relay.Attach(bus)
		dispatcher.SetRemote(bus)
		slog.Info("delivery bridge routing over nats", "url", cfg.NATSURL)
	} else {
		relay.Attach(dispatcher)
	}

	storeClient := store.NewClient(cfg.StoreURL, store.WithTimeout(cfg.StoreTimeout))
	handshake := session.Handshake{
		Verifier: session.NewJWTVerifier(cfg.SessionSecret),
		Trust:    cfg.TrustHandshake,
	}
	if cfg.TrustHandshake {
		slog.Warn("handshake trust mode enabled, client-asserted identities are accepted")
	}

	handler := api.New(storeClient, relay, registry, rooms)
	router := handler.Router()
	router.HandleFunc("/ws", wsHandler(cfg.AllowedOrigins, handshake, dispatcher))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsMiddleware.Handler(router),
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
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

func setupLogger(level string) {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin header.
			return origin == "" || allowed[origin]
		},
	}
}

func wsHandler(allowedOrigins []string, handshake session.Handshake, dispatcher domain.EventHandler) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := handshake.UserID(r)
		if err != nil {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		wsConn := ws.NewConn(uuid.New().String(), userID, conn, dispatcher)
		wsConn.Start()
	}
}
