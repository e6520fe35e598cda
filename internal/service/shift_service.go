package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TQuyenG/clinic-system-sub004/internal/dto"
	"github.com/TQuyenG/clinic-system-sub004/internal/model"
	"github.com/TQuyenG/clinic-system-sub004/internal/repository"
	pkgerrors "github.com/TQuyenG/clinic-system-sub004/pkg/errors"
)

// ShiftService 班次模板目录业务接口
//
// 设计说明：
//   - 模板是纯配置：命名班次 + 起止时刻 + 适用星期，不含任何重复展开逻辑。
//   - 模板从不删除，只停用（Deactivate），保证历史审批记录中的子时段标识仍可解析。
//   - 响应中附带 SlotSplitter 的拆分结果，前端据此渲染可选子时段。
type ShiftService interface {
	// ListTemplates 列出班次模板（含子时段拆分结果）
	ListTemplates(ctx context.Context, includeInactive bool) ([]dto.ShiftTemplateResponse, error)
	// UpsertTemplate 创建或按名称更新班次模板
	UpsertTemplate(ctx context.Context, req *dto.UpsertShiftTemplateRequest, operatorID string) (*dto.ShiftTemplateResponse, error)
	// DeactivateTemplate 停用班次模板
	DeactivateTemplate(ctx context.Context, name string, operatorID string) error
}

type shiftService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, logger: logger}
}

func (s *shiftService) ListTemplates(ctx context.Context, includeInactive bool) ([]dto.ShiftTemplateResponse, error) {
	templates, err := s.repo.ShiftTemplate.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("查询班次模板失败", zap.Error(err))
		return nil, err
	}

	resps := make([]dto.ShiftTemplateResponse, 0, len(templates))
	for i := range templates {
		resp, err := toShiftTemplateResponse(&templates[i])
		if err != nil {
			return nil, err
		}
		resps = append(resps, *resp)
	}
	return resps, nil
}

func (s *shiftService) UpsertTemplate(ctx context.Context, req *dto.UpsertShiftTemplateRequest, operatorID string) (*dto.ShiftTemplateResponse, error) {
	startMin, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, pkgerrors.Validation("无效的起始时刻 %q", req.StartTime)
	}
	endMin, err := ParseClock(req.EndTime)
	if err != nil {
		return nil, pkgerrors.Validation("无效的结束时刻 %q", req.EndTime)
	}
	if startMin >= endMin {
		return nil, pkgerrors.Validation("起始时刻必须早于结束时刻")
	}
	if len(req.ApplicableWeekdays) == 0 {
		return nil, pkgerrors.Validation("适用星期不能为空")
	}

	// 去重并排序
	seen := make(map[int]bool)
	weekdays := make(model.IntArray, 0, len(req.ApplicableWeekdays))
	for _, w := range req.ApplicableWeekdays {
		if !seen[w] {
			seen[w] = true
			weekdays = append(weekdays, w)
		}
	}
	sort.Ints(weekdays)

	existing, err := s.repo.ShiftTemplate.GetByName(ctx, req.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询班次模板失败", zap.Error(err))
		return nil, err
	}

	if existing != nil {
		existing.DisplayName = req.DisplayName
		existing.StartTime = FormatClock(startMin)
		existing.EndTime = FormatClock(endMin)
		existing.ApplicableWeekdays = weekdays
		existing.UpdatedBy = &operatorID
		if err := s.repo.ShiftTemplate.Update(ctx, existing); err != nil {
			s.logger.Error("更新班次模板失败", zap.Error(err))
			return nil, err
		}
		return toShiftTemplateResponse(existing)
	}

	t := model.ShiftTemplate{
		Name:               req.Name,
		DisplayName:        req.DisplayName,
		StartTime:          FormatClock(startMin),
		EndTime:            FormatClock(endMin),
		ApplicableWeekdays: weekdays,
		IsActive:           true,
	}
	t.CreatedBy = &operatorID
	if err := s.repo.ShiftTemplate.Create(ctx, &t); err != nil {
		s.logger.Error("创建班次模板失败", zap.Error(err))
		return nil, err
	}
	return toShiftTemplateResponse(&t)
}

func (s *shiftService) DeactivateTemplate(ctx context.Context, name string, operatorID string) error {
	t, err := s.repo.ShiftTemplate.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("班次模板 %q 不存在", name)
		}
		return err
	}
	if !t.IsActive {
		return nil // 已停用，幂等
	}

	t.IsActive = false
	t.UpdatedBy = &operatorID
	if err := s.repo.ShiftTemplate.Update(ctx, t); err != nil {
		s.logger.Error("停用班次模板失败", zap.Error(err))
		return err
	}
	return nil
}

func toShiftTemplateResponse(t *model.ShiftTemplate) (*dto.ShiftTemplateResponse, error) {
	slots, err := SplitTemplate(t)
	if err != nil {
		return nil, err
	}
	slotResps := make([]dto.SubSlotResponse, 0, len(slots))
	for _, s := range slots {
		slotResps = append(slotResps, dto.SubSlotResponse{ID: s.ID(), Start: s.Start, End: s.End})
	}
	return &dto.ShiftTemplateResponse{
		ID:                 t.ShiftTemplateID,
		Name:               t.Name,
		DisplayName:        t.DisplayName,
		StartTime:          t.StartTime,
		EndTime:            t.EndTime,
		ApplicableWeekdays: t.ApplicableWeekdays,
		IsActive:           t.IsActive,
		SubSlots:           slotResps,
	}, nil
}
