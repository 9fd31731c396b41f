package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/chatboard/internal/api/handler/v1/request"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/domain"
	"github.com/yizeng/gab/gin/gorm/chatboard/internal/service"
)

type ChatService interface {
	Send(ctx context.Context, text string) (domain.NotifyResult, error)
	List(ctx context.Context, order domain.Order) ([]domain.ChatMessage, error)
}

type ChatHandler struct {
	svc      ChatService
	pagePath string
}

func NewChatHandler(svc ChatService, pagePath string) *ChatHandler {
	return &ChatHandler{
		svc:      svc,
		pagePath: pagePath,
	}
}

// HandleIndex serves the board page.
func (h *ChatHandler) HandleIndex(ctx *gin.Context) {
	ctx.File(h.pagePath)
}

// HandleSendMessage godoc
// @Summary      Post a message
// @Description  Stores the message, then forwards it by email. The body reports the email outcome.
// @Tags         messages
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        message  formData  string  false  "message text"
// @Success      200      {object}  domain.NotifyResult
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Failure      503      {object}  response.Err
// @Router       /send [post]
func (h *ChatHandler) HandleSendMessage(ctx *gin.Context) {
	var req request.SendMessageRequest
	if err := ctx.ShouldBind(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.svc.Send(ctx.Request.Context(), req.Message)
	if err != nil {
		renderStoreErr(ctx, fmt.Errorf("v1.HandleSendMessage -> h.svc.Send -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleGetMessages godoc
// @Summary      List messages
// @Description  Returns every stored message, newest first unless order=asc.
// @Tags         messages
// @Produce      json
// @Param        order  query     string  false  "asc or desc (default)"
// @Success      200    {array}   domain.ChatMessage
// @Failure      400    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Failure      503    {object}  response.Err
// @Router       /messages [get]
func (h *ChatHandler) HandleGetMessages(ctx *gin.Context) {
	var req request.ListMessagesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	messages, err := h.svc.List(ctx.Request.Context(), domain.ParseOrder(req.Order))
	if err != nil {
		renderStoreErr(ctx, fmt.Errorf("v1.HandleGetMessages -> h.svc.List -> %w", err))
		return
	}

	ctx.JSON(http.StatusOK, messages)
}

func renderStoreErr(ctx *gin.Context, err error) {
	if errors.Is(err, service.ErrStoreConnect) {
		response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		return
	}

	response.RenderErr(ctx, response.ErrInternalServerError(err))
}
