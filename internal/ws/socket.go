// Package ws is the realtime fan-out. Each session owns two socket.io rooms,
// lobby:<code> and game:<code>; clients subscribe to the one matching their
// screen and must re-subscribe after a reconnect. Delivery is best-effort;
// clients reconcile missed events from the HTTP status snapshot.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/faceoff/internal/game"
)

// lookupTimeout bounds the session check on subscribe. socket.io handlers
// carry no request context, so the handler makes its own.
const lookupTimeout = 3 * time.Second

type Server struct {
	store game.Store
	io    *socketio.Server
}

func New(store game.Store) *Server {
	return &Server{store: store}
}

type subscribePayload struct {
	SessionCode string `json:"sessionCode"`
	Scope       string `json:"scope"` // "lobby" | "game"
}

// Mount attaches the socket.io server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "subscribe", func(s socketio.Conn, payload subscribePayload) map[string]any {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		topic, err := srv.topicFor(ctx, payload)
		if err != nil {
			return srv.err(s, "bad_subscribe", err.Error())
		}
		s.Join(topic)
		log.Info().Str("sid", s.ID()).Str("topic", topic).Msg("subscribed")
		return map[string]any{"ok": true, "topic": topic}
	})

	io.OnEvent("/", "unsubscribe", func(s socketio.Conn, payload subscribePayload) map[string]any {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		topic, err := srv.topicFor(ctx, payload)
		if err != nil {
			return srv.err(s, "bad_subscribe", err.Error())
		}
		s.Leave(topic)
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) topicFor(ctx context.Context, payload subscribePayload) (string, error) {
	if _, err := srv.store.GetSession(ctx, payload.SessionCode); err != nil {
		return "", err
	}
	switch payload.Scope {
	case "lobby":
		return game.LobbyTopic(payload.SessionCode), nil
	case "game":
		return game.GameTopic(payload.SessionCode), nil
	}
	return "", game.ErrValidation
}

// Publish implements game.Broadcaster. Every event goes out under a single
// "event" name carrying the {type, payload} envelope, so clients handle push
// and poll payloads uniformly.
func (srv *Server) Publish(topic string, ev game.Event) {
	if srv.io == nil {
		return
	}
	srv.io.BroadcastToRoom("/", topic, "event", ev)
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
