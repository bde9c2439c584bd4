package usecase

import (
	"context"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	// Public endpoints
	ListHotelReviews(ctx context.Context, hotelID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	GetHotelReviewStats(ctx context.Context, hotelID string) (*response.HotelReviewStats, error)
	ListReplies(ctx context.Context, reviewID string) ([]response.ReplyResponse, error)

	// Guest endpoints
	CreateReview(ctx context.Context, actor Actor, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor Actor, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor Actor, reviewID string) error
	ListMyReviews(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)

	// Manager replies
	CreateReply(ctx context.Context, actor Actor, req *request.CreateReplyRequest) (*response.ReplyResponse, error)
	UpdateReply(ctx context.Context, actor Actor, replyID string, req *request.UpdateReplyRequest) (*response.ReplyResponse, error)
	DeleteReply(ctx context.Context, actor Actor, replyID string) error

	// Admin
	AdminDeleteReview(ctx context.Context, actor Actor, reviewID string, req *request.AdminDeleteReviewRequest) error
}

type reviewService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, actor Actor, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}
	reservationID, err := parseID(req.ReservationID, "reservation_id")
	if err != nil {
		return nil, err
	}

	// Only the guest who stayed may review, and only after check-out
	reservation, err := s.repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, reservationID)
	}
	if !actor.Owns(reservation.UserID) {
		return nil, fmt.Errorf("%w: reservation belongs to another user", ErrUnauthorized)
	}
	if reservation.Status != entity.ReservationStatusCheckedOut {
		return nil, fmt.Errorf("%w: reviews open after check-out", ErrInvalidState)
	}

	// One review per reservation, deleted ones included
	existing, err := s.repo.Review.FindByReservationID(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: reservation already reviewed", ErrConflict)
	}

	room, err := s.repo.Room.FindByID(ctx, reservation.HotelRoomID)
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room of reservation %s", ErrNotFound, reservationID)
	}

	now := s.now()
	review := &entity.HotelReview{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:        actor.UserID,
		HotelID:       room.HotelID,
		ReservationID: reservationID,
		Rating:        req.Rating,
		Title:         req.Title,
		Content:       req.Content,
		Pros:          req.Pros,
		Cons:          req.Cons,
		StayDate:      reservation.CheckInDate,
		IsVerified:    true,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		s.log.Error("Failed to create review", zap.Error(err), zap.String("reservation_id", reservationID.String()))
		return nil, conflictOr(err, "reservation already reviewed")
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("hotel_id", review.HotelID.String()),
		zap.Int("rating", review.Rating))

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, actor Actor, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	review, err := s.loadOwned(ctx, actor, reviewID)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Title != nil {
		review.Title = *req.Title
	}
	if req.Content != nil {
		review.Content = *req.Content
	}
	if req.Pros != nil {
		review.Pros = req.Pros
	}
	if req.Cons != nil {
		review.Cons = req.Cons
	}
	review.UpdatedAt = s.now()

	if err := s.repo.Review.Update(ctx, review); err != nil {
		return nil, notFoundOr(err, "review")
	}

	resp := response.ReviewToResponse(review)
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor Actor, reviewID string) error {
	review, err := s.loadOwned(ctx, actor, reviewID)
	if err != nil {
		return err
	}

	if err := s.repo.Review.SoftDelete(ctx, review.ID, nil, nil); err != nil {
		return notFoundOr(err, "review")
	}

	s.log.Info("Review deleted", zap.String("review_id", review.ID.String()))
	return nil
}

func (s *reviewService) AdminDeleteReview(ctx context.Context, actor Actor, reviewID string, req *request.AdminDeleteReviewRequest) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}
	id, err := parseID(reviewID, "review id")
	if err != nil {
		return err
	}

	adminID := actor.UserID
	reason := req.Reason
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Review.SoftDelete(ctx, id, &reason, &adminID); err != nil {
			return err
		}
		return tx.AdminLog.Create(ctx, newAdminLog(adminID, "delete", "review", id, reason, s.now()))
	})
	if err != nil {
		return notFoundOr(err, "review")
	}

	s.log.Info("Review removed by admin", zap.String("review_id", id.String()), zap.String("admin_id", adminID.String()))
	return nil
}

func (s *reviewService) ListHotelReviews(ctx context.Context, hotelID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	id, err := parseID(hotelID, "hotel id")
	if err != nil {
		return nil, err
	}
	req.Normalize()

	reviews, err := s.repo.Review.FindByHotelID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	total, err := s.repo.Review.CountByHotelID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(reviews, response.ReviewToResponse), req.Page, req.PerPage, total), nil
}

func (s *reviewService) ListMyReviews(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	req.Normalize()

	reviews, err := s.repo.Review.FindByUserID(ctx, actor.UserID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	total, err := s.repo.Review.CountByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(reviews, response.ReviewToResponse), req.Page, req.PerPage, total), nil
}

func (s *reviewService) GetHotelReviewStats(ctx context.Context, hotelID string) (*response.HotelReviewStats, error) {
	id, err := parseID(hotelID, "hotel id")
	if err != nil {
		return nil, err
	}

	avg, count, err := s.repo.Review.GetHotelReviewStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}
	return &response.HotelReviewStats{AverageRating: avg, ReviewCount: count}, nil
}

func (s *reviewService) ListReplies(ctx context.Context, reviewID string) ([]response.ReplyResponse, error) {
	id, err := parseID(reviewID, "review id")
	if err != nil {
		return nil, err
	}

	replies, err := s.repo.Reply.FindByReviewID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return response.MapSlice(replies, response.ReplyToResponse), nil
}

func (s *reviewService) CreateReply(ctx context.Context, actor Actor, req *request.CreateReplyRequest) (*response.ReplyResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	reviewID, err := parseID(req.ReviewID, "review_id")
	if err != nil {
		return nil, err
	}

	review, err := s.repo.Review.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("%w: review %s", ErrNotFound, reviewID)
	}
	if err := s.authorizeReply(ctx, actor, review.HotelID); err != nil {
		return nil, err
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	now := s.now()
	reply := &entity.ReviewReply{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ReviewID:     reviewID,
		ManagerID:    actor.UserID,
		Content:      req.Content,
		IsPublished:  published,
	}
	if err := s.repo.Reply.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}

	s.log.Info("Reply created", zap.String("reply_id", reply.ID.String()), zap.String("review_id", reviewID.String()))
	resp := response.ReplyToResponse(reply)
	return &resp, nil
}

func (s *reviewService) UpdateReply(ctx context.Context, actor Actor, replyID string, req *request.UpdateReplyRequest) (*response.ReplyResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	reply, err := s.loadManagedReply(ctx, actor, replyID)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		reply.Content = *req.Content
	}
	if req.IsPublished != nil {
		reply.IsPublished = *req.IsPublished
	}
	reply.UpdatedAt = s.now()

	if err := s.repo.Reply.Update(ctx, reply); err != nil {
		return nil, notFoundOr(err, "reply")
	}

	resp := response.ReplyToResponse(reply)
	return &resp, nil
}

func (s *reviewService) DeleteReply(ctx context.Context, actor Actor, replyID string) error {
	reply, err := s.loadManagedReply(ctx, actor, replyID)
	if err != nil {
		return err
	}
	if err := s.repo.Reply.Delete(ctx, reply.ID); err != nil {
		return notFoundOr(err, "reply")
	}
	return nil
}

func (s *reviewService) loadOwned(ctx context.Context, actor Actor, reviewID string) (*entity.HotelReview, error) {
	id, err := parseID(reviewID, "review id")
	if err != nil {
		return nil, err
	}
	review, err := s.repo.Review.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("%w: review %s", ErrNotFound, id)
	}
	if !actor.Owns(review.UserID) {
		return nil, fmt.Errorf("%w: review belongs to another user", ErrUnauthorized)
	}
	return review, nil
}

func (s *reviewService) loadManagedReply(ctx context.Context, actor Actor, replyID string) (*entity.ReviewReply, error) {
	id, err := parseID(replyID, "reply id")
	if err != nil {
		return nil, err
	}
	reply, err := s.repo.Reply.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reply: %w", err)
	}
	if reply == nil {
		return nil, fmt.Errorf("%w: reply %s", ErrNotFound, id)
	}
	review, err := s.repo.Review.FindByID(ctx, reply.ReviewID)
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}
	if review == nil {
		return nil, fmt.Errorf("%w: review %s", ErrNotFound, reply.ReviewID)
	}
	if err := s.authorizeReply(ctx, actor, review.HotelID); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *reviewService) authorizeReply(ctx context.Context, actor Actor, hotelID uuid.UUID) error {
	ok, err := canManageHotel(ctx, s.repo.User, actor, hotelID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: only the hotel's manager may reply", ErrUnauthorized)
	}
	return nil
}
