package repository

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewReplyRepository interface {
	Create(ctx context.Context, reply *entity.ReviewReply) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ReviewReply, error)
	FindByReviewID(ctx context.Context, reviewID uuid.UUID) ([]*entity.ReviewReply, error)
	Update(ctx context.Context, reply *entity.ReviewReply) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const replyColumns = `id, review_id, manager_id, content, is_published, created_at, updated_at`

type reviewReplyRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReviewReplyRepository(db database.Querier, log *zap.Logger) ReviewReplyRepository {
	return &reviewReplyRepository{
		db:  db,
		log: log.With(zap.String("repository", "review_reply")),
	}
}

func scanReply(row scanner) (*entity.ReviewReply, error) {
	var reply entity.ReviewReply
	err := row.Scan(
		&reply.ID,
		&reply.ReviewID,
		&reply.ManagerID,
		&reply.Content,
		&reply.IsPublished,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

func (r *reviewReplyRepository) Create(ctx context.Context, reply *entity.ReviewReply) error {
	query := `
		INSERT INTO review_replies (id, review_id, manager_id, content, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		reply.ID,
		reply.ReviewID,
		reply.ManagerID,
		reply.Content,
		reply.IsPublished,
		reply.CreatedAt,
		reply.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create reply", zap.Error(err), zap.String("review_id", reply.ReviewID.String()))
		return fmt.Errorf("create reply to review %s: %w", reply.ReviewID, mapWriteError(err))
	}

	return nil
}

func (r *reviewReplyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ReviewReply, error) {
	query := `SELECT ` + replyColumns + ` FROM review_replies WHERE id = $1`

	reply, err := scanReply(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reply by ID", zap.Error(err), zap.String("reply_id", id.String()))
		return nil, fmt.Errorf("find reply by ID %s: %w", id, err)
	}

	return reply, nil
}

func (r *reviewReplyRepository) FindByReviewID(ctx context.Context, reviewID uuid.UUID) ([]*entity.ReviewReply, error) {
	query := `
		SELECT ` + replyColumns + `
		FROM review_replies
		WHERE review_id = $1 AND is_published
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, reviewID)
	if err != nil {
		r.log.Error("Failed to find replies by review", zap.Error(err), zap.String("review_id", reviewID.String()))
		return nil, fmt.Errorf("find replies of review %s: %w", reviewID, err)
	}

	replies, err := collect(rows, scanReply)
	if err != nil {
		return nil, fmt.Errorf("scan reply rows: %w", err)
	}
	return replies, nil
}

func (r *reviewReplyRepository) Update(ctx context.Context, reply *entity.ReviewReply) error {
	query := `UPDATE review_replies SET content = $2, is_published = $3, updated_at = $4 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, reply.ID, reply.Content, reply.IsPublished, reply.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to update reply", zap.Error(err), zap.String("reply_id", reply.ID.String()))
		return fmt.Errorf("update reply %s: %w", reply.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reply %s: %w", reply.ID, ErrNotFound)
	}

	return nil
}

func (r *reviewReplyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM review_replies WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete reply", zap.Error(err), zap.String("reply_id", id.String()))
		return fmt.Errorf("delete reply %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("reply %s: %w", id, ErrNotFound)
	}

	return nil
}
