package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/roomrelay/signaling/internal/dispatch"
	"github.com/roomrelay/signaling/internal/fanout"
	"github.com/roomrelay/signaling/internal/identity"
	"github.com/roomrelay/signaling/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades incoming HTTP requests to WebSocket connections and wires
// each one to the Event Dispatcher via the Fan-out Engine.
type Server struct {
	dispatcher     *dispatch.Dispatcher
	fanout         *fanout.Engine
	sendBufferSize int
	upgrader       websocket.Upgrader
}

// NewServer builds a Server. allowedOrigins mirrors ALLOWED_ORIGINS: an
// empty list permits any origin, useful for non-browser clients and local
// development.
func NewServer(d *dispatch.Dispatcher, f *fanout.Engine, allowedOrigins []string, sendBufferSize int) *Server {
	return &Server{
		dispatcher:     d,
		fanout:         f,
		sendBufferSize: sendBufferSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(allowedOrigins),
			WriteBufferPool: &sync.Pool{
				New: func() any { return make([]byte, 4096) },
			},
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		originURL, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			allowedURL, err := url.Parse(strings.TrimSpace(a))
			if err != nil {
				continue
			}
			if originURL.Scheme == allowedURL.Scheme && originURL.Host == allowedURL.Host {
				return true
			}
		}
		return false
	}
}

// ServeWS upgrades the request and starts the connection's read/write pumps.
func (s *Server) ServeWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to upgrade websocket", zap.Error(err))
		return
	}

	connectionID := uuid.New().String()
	clientIdentity := identity.Extract(c.Request.Header, c.Request.RemoteAddr)

	connection := NewConnection(connectionID, conn, s.sendBufferSize)
	s.fanout.Register(connectionID, connection)
	s.dispatcher.HandleConnect(connectionID, clientIdentity)

	logging.Info(context.Background(), "connection established",
		zap.String("connection_id", connectionID))

	go connection.writePump()
	go connection.readPump(s.dispatcher)
}
