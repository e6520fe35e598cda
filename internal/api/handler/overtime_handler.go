package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/service"
	"github.com/TQuyenG/clinic-system-sub004/pkg/response"
)

// OvertimeHandler 加班登记 HTTP 处理器
type OvertimeHandler struct {
	overtimeSvc service.OvertimeService
}

// NewOvertimeHandler 创建 OvertimeHandler
func NewOvertimeHandler(overtimeSvc service.OvertimeService) *OvertimeHandler {
	return &OvertimeHandler{overtimeSvc: overtimeSvc}
}

// Register 提交加班登记
// POST /api/v1/overtimes
func (h *OvertimeHandler) Register(c *gin.Context) {
	workerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RegisterOvertimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	ot, err := h.overtimeSvc.Register(c.Request.Context(), &req, workerID)
	if err != nil {
		handleServiceError(c, err, 14000)
		return
	}

	response.Created(c, ot)
}

// ListMy 查询本人加班记录
// GET /api/v1/overtimes/my
func (h *OvertimeHandler) ListMy(c *gin.Context) {
	workerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)

	ots, total, err := h.overtimeSvc.ListMy(c.Request.Context(), workerID, page, pageSize)
	if err != nil {
		handleServiceError(c, err, 14000)
		return
	}

	response.OKPage(c, ots, total, page, pageSize)
}

// Approve 审批通过加班登记（管理员）
// PUT /api/v1/overtimes/:id/approve
func (h *OvertimeHandler) Approve(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "加班登记ID不能为空")
		return
	}

	ot, err := h.overtimeSvc.Approve(c.Request.Context(), id, approverID)
	if err != nil {
		handleServiceError(c, err, 14000)
		return
	}

	response.OK(c, ot)
}

// Reject 拒绝加班登记（管理员）
// PUT /api/v1/overtimes/:id/reject
func (h *OvertimeHandler) Reject(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "加班登记ID不能为空")
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	ot, err := h.overtimeSvc.Reject(c.Request.Context(), id, req.Reason, approverID)
	if err != nil {
		handleServiceError(c, err, 14000)
		return
	}

	response.OK(c, ot)
}

// Cancel 取消加班登记（仅发起人）
// PUT /api/v1/overtimes/:id/cancel
func (h *OvertimeHandler) Cancel(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "加班登记ID不能为空")
		return
	}

	if err := h.overtimeSvc.Cancel(c.Request.Context(), id, callerID); err != nil {
		handleServiceError(c, err, 14000)
		return
	}

	response.OK(c, nil)
}
