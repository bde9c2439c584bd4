package usecase

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/portone"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentService interface {
	RegisterBillingKey(ctx context.Context, actor Actor, req *request.RegisterBillingKeyRequest) (*response.BillingKeyResponse, error)
	GetBillingKey(ctx context.Context, actor Actor) (*response.BillingKeyResponse, error)
	ListMyPayments(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentHistoryResponse], error)
	ListPayments(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentHistoryResponse], error)
}

type paymentService struct {
	repo *repository.Repository
	saga *sagaSupport
	log  *zap.Logger
}

func newPaymentService(repo *repository.Repository, saga *sagaSupport, log *zap.Logger) PaymentService {
	return &paymentService{
		repo: repo,
		saga: saga,
		log:  log.With(zap.String("service", "payment")),
	}
}

// RegisterBillingKey issues a PortOne billing key once per user. The card
// data is passed through and never stored.
func (s *paymentService) RegisterBillingKey(ctx context.Context, actor Actor, req *request.RegisterBillingKeyRequest) (*response.BillingKeyResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	user, err := s.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}
	if user.BillingKey != nil && *user.BillingKey != "" {
		return nil, fmt.Errorf("%w: billing key already registered", ErrConflict)
	}

	gctx, cancel := context.WithTimeout(ctx, s.saga.timeout)
	defer cancel()

	info, err := s.saga.gateway.CreateBillingKey(gctx, portone.BillingKeyRequest{
		Customer: customerOf(user),
		Card:     cardCredential(req.Card),
	})
	if err != nil {
		s.log.Warn("Billing key issue failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("%w: billing key was not issued: %v", ErrPayment, err)
	}

	if err := s.repo.User.UpdateBillingKey(ctx, user.ID, info.BillingKey); err != nil {
		return nil, fmt.Errorf("store billing key: %w", err)
	}

	s.log.Info("Billing key registered", zap.String("user_id", user.ID.String()))
	return &response.BillingKeyResponse{Registered: true, Status: info.Status}, nil
}

// GetBillingKey reports whether the caller has a key and its state at the
// gateway, e.g. ISSUED or DELETED.
func (s *paymentService) GetBillingKey(ctx context.Context, actor Actor) (*response.BillingKeyResponse, error) {
	user, err := s.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}
	if user.BillingKey == nil || *user.BillingKey == "" {
		return &response.BillingKeyResponse{Registered: false}, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.saga.timeout)
	defer cancel()

	info, err := s.saga.gateway.GetBillingKey(gctx, *user.BillingKey)
	if err != nil {
		if errors.Is(err, portone.ErrNotFound) {
			return &response.BillingKeyResponse{Registered: true, Status: "NOT_FOUND"}, nil
		}
		return nil, fmt.Errorf("query billing key: %w", err)
	}
	return &response.BillingKeyResponse{Registered: true, Status: info.Status}, nil
}

func (s *paymentService) ListMyPayments(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentHistoryResponse], error) {
	req.Normalize()

	payments, err := s.repo.Payment.FindByUserID(ctx, actor.UserID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	total, err := s.repo.Payment.CountByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(payments, response.PaymentToResponse), req.Page, req.PerPage, total), nil
}

func (s *paymentService) ListPayments(ctx context.Context, actor Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PaymentHistoryResponse], error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", ErrUnauthorized)
	}
	req.Normalize()

	payments, err := s.repo.Payment.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	total, err := s.repo.Payment.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	return response.NewPaginatedResponse(response.MapSlice(payments, response.PaymentToResponse), req.Page, req.PerPage, total), nil
}

func customerOf(user *entity.User) *portone.Customer {
	customer := &portone.Customer{
		ID:    user.ID.String(),
		Name:  &portone.CustomerName{Full: user.Username},
		Email: user.Email,
	}
	if user.Phone != nil {
		customer.PhoneNumber = *user.Phone
	}
	return customer
}

func cardCredential(card request.CardRequest) portone.CardCredential {
	return portone.CardCredential{
		Number:                            card.Number,
		ExpiryYear:                        card.ExpiryYear,
		ExpiryMonth:                       card.ExpiryMonth,
		BirthOrBusinessRegistrationNumber: card.BirthOrBusinessNo,
		PasswordTwoDigits:                 card.PasswordTwoDigits,
	}
}
