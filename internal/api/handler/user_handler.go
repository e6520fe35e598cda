package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/service"
	"github.com/TQuyenG/clinic-system-sub004/pkg/response"
)

// UserHandler 员工目录 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// Me 获取当前员工档案
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.userSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 11103, "员工不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, profile)
}

// List 员工列表（支持按角色过滤）
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	role := c.Query("role")

	users, total, err := h.userSvc.List(c.Request.Context(), role, page, pageSize)
	if err != nil {
		handleServiceError(c, err, 11100)
		return
	}

	response.OKPage(c, users, total, page, pageSize)
}

// Create 新建员工（管理员）
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11101, "参数校验失败")
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, 11100)
		return
	}

	response.Created(c, user)
}
