package controller

import (
	"consultant-agent-backend/dao"
	"consultant-agent-backend/middleware"
	"consultant-agent-backend/request"
	"consultant-agent-backend/response"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TenantController struct{}

func NewTenantController() *TenantController {
	return &TenantController{}
}

func (tc *TenantController) GetTenant(c *gin.Context) {
	grant := middleware.GetGrant(c)
	tenant, err := dao.GetTenantByID(grant.TenantID)
	if err != nil {
		slog.Error(ErrGetTenant.Error(), "tenant_id", grant.TenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrGetTenant.Error(),
		})
		return
	}
	if tenant == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, response.Response{
			Msg: ErrGetTenant.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Data: response.TenantResponse{
			ID:       tenant.ID,
			Name:     tenant.Name,
			Persona:  tenant.Persona,
			Language: tenant.Language,
		},
	})
}

func (tc *TenantController) UpdateTenant(c *gin.Context) {
	var req request.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}

	grant := middleware.GetGrant(c)
	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Persona != nil {
		updates["persona"] = *req.Persona
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, response.Response{})
		return
	}

	if err := dao.UpdateTenant(grant.TenantID, updates); err != nil {
		slog.Error(ErrUpdateTenant.Error(), "tenant_id", grant.TenantID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrUpdateTenant.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.Response{})
}
