// Package httpapi serves the room-code HTML shell and the Code Endpoint
// that issues fresh room codes.
package httpapi

import (
	"html/template"
	"net/http"

	"github.com/roomrelay/signaling/internal/codegen"
	"github.com/roomrelay/signaling/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shellTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Room Relay</title>
</head>
<body>
  <div id="app" data-room-id="{{.RoomID}}"></div>
  <script type="module" src="/static/app.js"></script>
</body>
</html>
`

// API wires the HTML shell and create_code routes onto a gin router.
type API struct {
	generator *codegen.Generator
	tmpl      *template.Template
}

// New builds an API. tmpl is parsed once at startup; a malformed template is
// a programmer error, not a runtime condition, so New panics on parse failure.
func New(generator *codegen.Generator) *API {
	return &API{
		generator: generator,
		tmpl:      template.Must(template.New("shell").Parse(shellTemplate)),
	}
}

// RegisterShell mounts the HTML shell routes onto router.
func (a *API) RegisterShell(router gin.IRouter) {
	router.GET("/", a.serveShell)
	router.GET("/:roomId", a.serveShell)
}

// RegisterCreateCode mounts POST /create_code, running middleware (e.g. a
// rate limiter) ahead of the handler.
func (a *API) RegisterCreateCode(router gin.IRouter, middleware ...gin.HandlerFunc) {
	handlers := append(middleware, a.createCode)
	router.POST("/create_code", handlers...)
}

func (a *API) serveShell(c *gin.Context) {
	roomID := c.Param("roomId")
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := a.tmpl.Execute(c.Writer, struct{ RoomID string }{RoomID: roomID}); err != nil {
		logging.Error(c.Request.Context(), "failed to render shell template", zap.Error(err))
	}
}

func (a *API) createCode(c *gin.Context) {
	code, err := a.generator.Generate()
	if err != nil {
		logging.Error(c.Request.Context(), "code generation exhausted attempts", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not generate a room code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}
