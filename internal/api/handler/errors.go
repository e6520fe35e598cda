package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
	"github.com/TQuyenG/clinic-system-sub004/pkg/response"
)

// handleServiceError 按错误类别映射为 HTTP 响应。
// baseCode 为各模块的错误码段基数（如排班模块 13000），
// 类别偏移固定，保证同类错误在不同模块中的码尾一致。
func handleServiceError(c *gin.Context, err error, baseCode int) {
	var bizErr *pkgerrors.Error
	if !errors.As(err, &bizErr) {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			response.Conflict(c, baseCode+9, "记录已被并发修改，请刷新后重试")
			return
		}
		response.InternalError(c)
		return
	}

	switch bizErr.Kind {
	case pkgerrors.KindValidation:
		response.BadRequest(c, baseCode+1, bizErr.Message)
	case pkgerrors.KindConflict:
		response.Conflict(c, baseCode+2, bizErr.Message)
	case pkgerrors.KindNotFound:
		response.NotFound(c, baseCode+3, bizErr.Message)
	case pkgerrors.KindAuthorization:
		response.Forbidden(c, baseCode+4, bizErr.Message)
	case pkgerrors.KindLimitExceeded:
		response.Error(c, http.StatusUnprocessableEntity, baseCode+5, bizErr.Message)
	case pkgerrors.KindConfiguration:
		response.Error(c, http.StatusUnprocessableEntity, baseCode+6, bizErr.Message)
	default:
		response.InternalError(c)
	}
}
