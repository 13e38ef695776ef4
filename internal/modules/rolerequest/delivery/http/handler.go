package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"anoa.com/authorhub/internal/modules/rolerequest/dto"
	rolerequest "anoa.com/authorhub/internal/modules/rolerequest/service"
	"anoa.com/authorhub/pkg/response"
	"anoa.com/authorhub/pkg/validator"
)

type RoleRequestHandler struct {
	service rolerequest.RoleRequestService
	render  *response.Renderer
}

func NewRoleRequestHandler(service rolerequest.RoleRequestService, render *response.Renderer) *RoleRequestHandler {
	return &RoleRequestHandler{service: service, render: render}
}

// RequestAuthor handles POST /request-author.
func (h *RoleRequestHandler) RequestAuthor(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	var input dto.FileRoleRequestInput
	// An empty body means "no reason".
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		h.render.Fail(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	request, err := h.service.File(c.Request.Context(), caller, input)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusCreated, "Yêu cầu trở thành Author đã được gửi. Vui lòng chờ admin phê duyệt.", request)
}

func (h *RoleRequestHandler) ListMine(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	requests, err := h.service.ListOwn(c.Request.Context(), caller)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "", requests)
}

func (h *RoleRequestHandler) Cancel(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	var param dto.RequestIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.render.Fail(c, http.StatusNotFound, "Không tìm thấy yêu cầu.")
		return
	}

	if err := h.service.Cancel(c.Request.Context(), caller, param.RequestID); err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Đã hủy yêu cầu thành công.", nil)
}
