package controller

import (
	"consultant-agent-backend/dao"
	"consultant-agent-backend/middleware"
	"consultant-agent-backend/model"
	"consultant-agent-backend/request"
	"consultant-agent-backend/response"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionController struct{}

func NewSessionController() *SessionController {
	return &SessionController{}
}

func (sc *SessionController) CreateSession(c *gin.Context) {
	grant := middleware.GetGrant(c)

	session := &model.Session{
		TenantID:  grant.TenantID,
		UserEmail: grant.Email,
		SessionID: uuid.New().String(),
		Title:     model.DefaultSessionTitle,
	}
	if err := dao.CreateSession(session); err != nil {
		slog.Error(ErrCreateSession.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrCreateSession.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response.Response{
		Data: response.SessionResponse{
			SessionID: session.SessionID,
			Title:     session.Title,
			UpdatedAt: session.UpdatedAt,
		},
	})
}

func (sc *SessionController) GetSessions(c *gin.Context) {
	grant := middleware.GetGrant(c)
	sessions, err := dao.GetSessionsByTenantAndEmail(grant.TenantID, grant.Email)
	if err != nil {
		slog.Error(ErrGetSessions.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessions.Error(),
		})
		return
	}

	var resp response.GetSessionsResponse
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, response.SessionResponse{
			SessionID: s.SessionID,
			Title:     s.Title,
			UpdatedAt: s.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func (sc *SessionController) DeleteSession(c *gin.Context) {
	session, ok := sc.ownedSession(c)
	if !ok {
		return
	}

	if err := dao.DeleteSession(session.SessionID); err != nil {
		slog.Error(ErrDeleteSession.Error(), "session_id", session.SessionID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrDeleteSession.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func (sc *SessionController) GetSessionMessages(c *gin.Context) {
	session, ok := sc.ownedSession(c)
	if !ok {
		return
	}

	messages, err := dao.GetMessagesBySessionID(session.SessionID)
	if err != nil {
		slog.Error(ErrGetSessionMessages.Error(), "session_id", session.SessionID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessionMessages.Error(),
		})
		return
	}

	var resp response.GetSessionMessagesResponse
	for _, m := range messages {
		resp.Messages = append(resp.Messages, response.MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Rating:    m.Rating,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Data: resp,
	})
}

func (sc *SessionController) UpdateSessionTitle(c *gin.Context) {
	session, ok := sc.ownedSession(c)
	if !ok {
		return
	}

	var req request.UpdateSessionTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	if err := dao.UpdateSessionTitle(session.SessionID, req.Title); err != nil {
		slog.Error(ErrUpdateSessionTitle.Error(), "session_id", session.SessionID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateSessionTitle.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}

func (sc *SessionController) ownedSession(c *gin.Context) (*model.Session, bool) {
	grant := middleware.GetGrant(c)
	session, err := dao.GetSessionByID(c.Param("id"))
	if err != nil {
		slog.Error(ErrGetSessions.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetSessions.Error(),
		})
		return nil, false
	}
	if session == nil || session.TenantID != grant.TenantID || session.UserEmail != grant.Email {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrSessionNotFound.Error(),
		})
		return nil, false
	}
	return session, true
}
