package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// NotificationService 通知业务接口
//
// 审批流程产生的领域事件（registration.approved 等）在此落库；
// 实际投递（邮件/推送）由外部通知服务消费，不在本服务范围内。
type NotificationService interface {
	// Publish 记录一条领域事件通知；失败只记日志，不影响主流程
	Publish(ctx context.Context, userID, eventType, relatedType, relatedID, title, content string)
	// List 分页查询用户通知
	List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]dto.NotificationResponse, int64, error)
	// MarkRead 标记已读
	MarkRead(ctx context.Context, id, userID string) error
	// CountUnread 未读数
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) Publish(ctx context.Context, userID, eventType, relatedType, relatedID, title, content string) {
	n := model.Notification{
		UserID:      userID,
		Type:        eventType,
		Title:       title,
		Content:     content,
		RelatedType: &relatedType,
		RelatedID:   &relatedID,
	}
	if err := s.repo.Notification.Create(ctx, &n); err != nil {
		// 通知失败不阻断审批主流程
		s.logger.Error("记录通知失败",
			zap.String("event", eventType),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]dto.NotificationResponse, int64, error) {
	offset := (page - 1) * pageSize
	list, total, err := s.repo.Notification.ListByUser(ctx, userID, unreadOnly, offset, pageSize)
	if err != nil {
		s.logger.Error("查询通知失败", zap.Error(err))
		return nil, 0, err
	}

	resps := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		resps = append(resps, dto.NotificationResponse{
			ID:          n.NotificationID,
			Type:        n.Type,
			Title:       n.Title,
			Content:     n.Content,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return resps, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.Notification.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("通知不存在")
		}
		return err
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, userID)
}
