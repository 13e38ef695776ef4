package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anoa.com/authorhub/internal/modules/admin/dto"
	admin "anoa.com/authorhub/internal/modules/admin/service"
	"anoa.com/authorhub/pkg/response"
	"anoa.com/authorhub/pkg/validator"
)

type AdminHandler struct {
	adminService admin.AdminService
	render       *response.Renderer
}

func NewAdminHandler(adminService admin.AdminService, render *response.Renderer) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		render:       render,
	}
}

func (h *AdminHandler) GetRoleRequests(c *gin.Context) {
	var filter dto.RoleRequestFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.render.Fail(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	list, err := h.adminService.ListRoleRequests(c.Request.Context(), filter)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.SuccessWithMeta(c, http.StatusOK, "", list.Items, list.Meta)
}

func (h *AdminHandler) ApproveRoleRequest(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	result, err := h.adminService.ApproveRoleRequest(c.Request.Context(), caller, c.Param("requestId"))
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Phê duyệt quyền thành công.", result)
}

func (h *AdminHandler) DenyRoleRequest(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	result, err := h.adminService.DenyRoleRequest(c.Request.Context(), caller, c.Param("requestId"))
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Từ chối yêu cầu thành công.", result)
}
