package usecase

import (
	"context"
	"fmt"

	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type AdminLogService interface {
	ListLogs(ctx context.Context, actor Actor, req *request.AdminLogFilterRequest) (*response.PaginatedResponse[response.AdminLogResponse], error)
}

type adminLogService struct {
	repo repository.AdminLogRepository
	log  *zap.Logger
}

func NewAdminLogService(repo repository.AdminLogRepository, log *zap.Logger) AdminLogService {
	return &adminLogService{
		repo: repo,
		log:  log.With(zap.String("service", "admin_log")),
	}
}

func (s *adminLogService) ListLogs(ctx context.Context, actor Actor, req *request.AdminLogFilterRequest) (*response.PaginatedResponse[response.AdminLogResponse], error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	logs, err := s.repo.FindAll(ctx, req.TargetType, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list admin logs: %w", err)
	}
	total, err := s.repo.Count(ctx, req.TargetType)
	if err != nil {
		return nil, fmt.Errorf("count admin logs: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(logs, response.AdminLogToResponse), req.Page, req.PerPage, total), nil
}
