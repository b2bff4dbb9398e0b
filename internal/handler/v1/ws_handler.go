package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/realtime"
)

// websocketConnect upgrades the request and binds the connection to the
// authenticated owner. The client then receives that owner's change
// events until it disconnects.
func (h *Handler) websocketConnect(c *gin.Context) {
	claims := callerClaims(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.hub, conn, claims.UserID, h.log)
	client.Start()
}
