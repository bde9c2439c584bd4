package repository

import (
	"context"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"go.uber.org/zap"
)

type AdminLogRepository interface {
	Create(ctx context.Context, log *entity.AdminLog) error
	FindAll(ctx context.Context, targetType string, limit, offset int) ([]*entity.AdminLog, error)
	Count(ctx context.Context, targetType string) (int64, error)
}

type adminLogRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAdminLogRepository(db database.Querier, log *zap.Logger) AdminLogRepository {
	return &adminLogRepository{
		db:  db,
		log: log.With(zap.String("repository", "admin_log")),
	}
}

func scanAdminLog(row scanner) (*entity.AdminLog, error) {
	var l entity.AdminLog
	err := row.Scan(&l.ID, &l.AdminID, &l.Action, &l.TargetType, &l.TargetID, &l.Details, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *adminLogRepository) Create(ctx context.Context, entry *entity.AdminLog) error {
	query := `
		INSERT INTO admin_logs (id, admin_id, action, target_type, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.AdminID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create admin log",
			zap.Error(err),
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID.String()))
		return fmt.Errorf("create admin log %s: %w", entry.Action, err)
	}

	return nil
}

func (r *adminLogRepository) FindAll(ctx context.Context, targetType string, limit, offset int) ([]*entity.AdminLog, error) {
	query := `
		SELECT id, admin_id, action, target_type, target_id, details, created_at
		FROM admin_logs
		WHERE ($1 = '' OR target_type = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, targetType, limit, offset)
	if err != nil {
		r.log.Error("Failed to find admin logs", zap.Error(err))
		return nil, fmt.Errorf("find admin logs: %w", err)
	}

	logs, err := collect(rows, scanAdminLog)
	if err != nil {
		return nil, fmt.Errorf("scan admin log rows: %w", err)
	}
	return logs, nil
}

func (r *adminLogRepository) Count(ctx context.Context, targetType string) (int64, error) {
	query := `SELECT COUNT(*) FROM admin_logs WHERE ($1 = '' OR target_type = $1)`

	var count int64
	if err := r.db.QueryRow(ctx, query, targetType).Scan(&count); err != nil {
		r.log.Error("Failed to count admin logs", zap.Error(err))
		return 0, fmt.Errorf("count admin logs: %w", err)
	}
	return count, nil
}
