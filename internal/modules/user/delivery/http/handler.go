package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anoa.com/authorhub/internal/modules/user/dto"
	user "anoa.com/authorhub/internal/modules/user/service"
	"anoa.com/authorhub/pkg/response"
	"anoa.com/authorhub/pkg/validator"
)

type UserHandler struct {
	userService user.UserService
	render      *response.Renderer
}

func NewUserHandler(userService user.UserService, render *response.Renderer) *UserHandler {
	return &UserHandler{
		userService: userService,
		render:      render,
	}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var input dto.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.render.Fail(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	u, created, err := h.userService.Register(c.Request.Context(), input)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	if !created {
		h.render.Success(c, http.StatusOK, "Người dùng với cognitoId này đã tồn tại.", u)
		return
	}
	h.render.Success(c, http.StatusCreated, "Tạo người dùng thành công", u)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	var param dto.CognitoIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.render.Fail(c, http.StatusBadRequest, "Cognito ID là bắt buộc.")
		return
	}

	u, err := h.userService.GetByCognitoID(c.Request.Context(), param.CognitoID)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "", u)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	var param dto.CognitoIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.render.Fail(c, http.StatusBadRequest, "Cognito ID là bắt buộc.")
		return
	}

	var input dto.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.render.Fail(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	u, err := h.userService.Update(c.Request.Context(), caller, param.CognitoID, input)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Cập nhật người dùng thành công", u)
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	caller, err := response.GetCaller(c)
	if err != nil {
		h.render.Error(c, err)
		return
	}

	var param dto.CognitoIDParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.render.Fail(c, http.StatusBadRequest, "Cognito ID là bắt buộc.")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil || fileHeader == nil {
		h.render.Fail(c, http.StatusBadRequest, "Vui lòng chọn ảnh đại diện.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.render.Fail(c, http.StatusBadRequest, "Không thể đọc ảnh đại diện.")
		return
	}
	defer file.Close()

	u, err := h.userService.UpdateAvatar(c.Request.Context(), caller, param.CognitoID, dto.AvatarFile{
		Reader:   file,
		FileName: fileHeader.Filename,
	})
	if err != nil {
		h.render.Error(c, err)
		return
	}

	h.render.Success(c, http.StatusOK, "Cập nhật ảnh đại diện thành công", u)
}
