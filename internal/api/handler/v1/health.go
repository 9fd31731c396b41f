package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/api/handler/v1/response"
)

type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping Pinger
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{
		ping: ping,
	}
}

// HandleHealthcheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  response.Err
// @Router       /healthz [get]
func (h *HealthHandler) HandleHealthcheck(ctx *gin.Context) {
	if err := h.ping(ctx.Request.Context()); err != nil {
		response.RenderErr(ctx, response.ErrServiceUnavailable(fmt.Errorf("v1.HandleHealthcheck -> h.ping -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
