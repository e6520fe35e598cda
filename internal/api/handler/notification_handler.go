package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/TQuyenG/clinic-system-sub004/internal/service"
	"github.com/TQuyenG/clinic-system-sub004/pkg/response"
)

// NotificationHandler 通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List 查询本人通知
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	unreadOnly := c.Query("unread_only") == "true"

	notifications, total, err := h.notificationSvc.List(c.Request.Context(), userID, unreadOnly, page, pageSize)
	if err != nil {
		handleServiceError(c, err, 17000)
		return
	}

	response.OKPage(c, notifications, total, page, pageSize)
}

// MarkRead 标记通知为已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 17001, "通知ID不能为空")
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), id, userID); err != nil {
		handleServiceError(c, err, 17000)
		return
	}

	response.OK(c, nil)
}

// UnreadCount 未读通知数
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.CountUnread(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, 17000)
		return
	}

	response.OK(c, gin.H{"count": count})
}
