package statusserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Status server binds localhost only; any origin on the same machine
	// may open the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the optional, purely observational HTTP+WebSocket board for a
// launch. It never influences launch semantics: closing every connection,
// or never starting the server at all, changes nothing about how nodes run.
type Server struct {
	hub *Hub
	log *logger.Logger
	e   *echo.Echo
}

// New builds a Server wired to hub's snapshot and broadcast feed; Start
// binds it to localhost.
func New(hub *Hub, log *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{hub: hub, log: log, e: e}

	e.Use(middleware.Recover())
	e.GET("/health", s.handleHealth)
	e.GET("/status", s.handleStatus)
	e.GET("/ws", s.handleWebSocket)

	return s
}

// Start serves on localhost:port until ctx is cancelled, then shuts down
// gracefully. It returns nil on a clean shutdown.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server starting", "addr", addr)
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.e.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.hub.Snapshot())
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Warn("status websocket upgrade failed", "error", err)
		return nil
	}

	cl := newClient(s.hub, conn)
	s.hub.register <- cl

	go cl.writePump()
	go cl.readPump()
	return nil
}
