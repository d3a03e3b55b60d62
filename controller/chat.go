package controller

import (
	"consultant-agent-backend/dao"
	"consultant-agent-backend/middleware"
	"consultant-agent-backend/model"
	"consultant-agent-backend/request"
	"consultant-agent-backend/response"
	"consultant-agent-backend/service/chat"
	"consultant-agent-backend/utils"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// chatOrchestrator 编排器能力，注入以便测试替换
type chatOrchestrator interface {
	ResolveSession(ctx context.Context, tenantID, email, sessionID, firstMessage string) (*model.Session, error)
	Respond(ctx context.Context, session *model.Session, policy model.AccessPolicy, message string, emit func(token string)) (string, error)
}

type ChatController struct {
	orchestrator chatOrchestrator
}

func NewChatController(orchestrator *chat.Orchestrator) *ChatController {
	return &ChatController{
		orchestrator: orchestrator,
	}
}

// Chat 处理一轮对话，通过SSE流式返回回答
func (cc *ChatController) Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	grant := middleware.GetGrant(c)

	// 客户端断开时请求context被取消，生成随之终止
	ctx := c.Request.Context()

	session, err := cc.orchestrator.ResolveSession(ctx, grant.TenantID, grant.Email, req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
				Msg: ErrSessionNotFound.Error(),
			})
			return
		}
		slog.Error(ErrChatTurn.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrChatTurn.Error(),
		})
		return
	}

	// 会话ID在流式响应开始前写入响应头
	c.Header("X-Session-Id", session.SessionID)
	utils.SetSSEHeaders(c)

	_, err = cc.orchestrator.Respond(ctx, session, grant.Policy(), req.Message, func(token string) {
		utils.SendSSEMessage(c, utils.EventAnswer, token)
	})
	if err != nil {
		slog.Error(ErrChatTurn.Error(), "session_id", session.SessionID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, ErrChatTurn.Error())
	}

	utils.SendSSEMessage(c, utils.EventDone, "")
}

// MessageFeedback 记录用户对单条助手消息的点赞/点踩
func (cc *ChatController) MessageFeedback(c *gin.Context) {
	var req request.MessageFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	grant := middleware.GetGrant(c)

	message, err := dao.GetMessageByID(req.MessageID)
	if err != nil {
		slog.Error(ErrUpdateFeedback.Error(), "message_id", req.MessageID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateFeedback.Error(),
		})
		return
	}
	if message == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrMessageNotFound.Error(),
		})
		return
	}

	// 归属校验经由消息所在会话
	session, err := dao.GetSessionByID(message.SessionID)
	if err != nil {
		slog.Error(ErrUpdateFeedback.Error(), "message_id", req.MessageID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateFeedback.Error(),
		})
		return
	}
	if session == nil || session.TenantID != grant.TenantID || session.UserEmail != grant.Email {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrMessageNotFound.Error(),
		})
		return
	}

	if err := dao.UpdateMessageRating(req.MessageID, req.Rating); err != nil {
		slog.Error(ErrUpdateFeedback.Error(), "message_id", req.MessageID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateFeedback.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}
