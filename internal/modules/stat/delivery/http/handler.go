package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	statService "anoa.com/authorhub/internal/modules/stat/service"
	"anoa.com/authorhub/pkg/response"
)

type StatHandler struct {
	statService statService.StatService
	render      *response.Renderer
}

func NewStatHandler(statService statService.StatService, render *response.Renderer) *StatHandler {
	return &StatHandler{
		statService: statService,
		render:      render,
	}
}

func (h *StatHandler) GetOverview(c *gin.Context) {
	overview, err := h.statService.Overview(c.Request.Context())
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "", overview)
}
