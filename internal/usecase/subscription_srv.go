package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/portone"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]response.PlanResponse, error)
	CreateSubscription(ctx context.Context, actor Actor, req *request.CreateSubscriptionRequest) (*response.SubscriptionResponse, error)
	GetMySubscriptions(ctx context.Context, actor Actor) ([]response.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, actor Actor, subscriptionID string) (*response.SubscriptionResponse, error)

	// RenewSubscription applies one paid cycle. A record whose transaction id
	// is already stored leaves the subscription unchanged.
	RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, newEndDate time.Time, record *entity.PaymentHistory) (*response.SubscriptionResponse, error)
	HandleWebhook(ctx context.Context, body []byte, header http.Header) (*response.WebhookResponse, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// schedulePayload is stored on subscription sagas: the plan and the moment
// the cycle's charge is due.
type schedulePayload struct {
	PlanID    uuid.UUID `json:"plan_id"`
	TimeToPay time.Time `json:"time_to_pay"`
}

const webhookStatusPaid = "paid"

type subscriptionService struct {
	repo          *repository.Repository
	saga          *sagaSupport
	webhookSecret string
	allowUnsigned bool
	grace         time.Duration
	now           func() time.Time
	log           *zap.Logger
}

func newSubscriptionService(repo *repository.Repository, saga *sagaSupport, config *utils.Config, log *zap.Logger) *subscriptionService {
	return &subscriptionService{
		repo:          repo,
		saga:          saga,
		webhookSecret: config.PortOne.WebhookSecret,
		allowUnsigned: config.PortOne.AllowUnsignedWebhooks,
		grace:         config.Subscription.GracePeriod,
		now:           saga.now,
		log:           log.With(zap.String("service", "subscription")),
	}
}

func (s *subscriptionService) ListPlans(ctx context.Context) ([]response.PlanResponse, error) {
	plans, err := s.repo.Plan.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return response.MapSlice(plans, response.PlanToResponse), nil
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, actor Actor, req *request.CreateSubscriptionRequest) (*response.SubscriptionResponse, error) {
	// 1. Validasi
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	planID, err := parseID(req.PlanID, "plan_id")
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.Plan.FindByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: plan %s", ErrNotFound, planID)
	}

	// 2. Billing key dan subscription aktif
	user, err := s.repo.User.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, actor.UserID)
	}
	if user.BillingKey == nil || *user.BillingKey == "" {
		return nil, fmt.Errorf("%w: register a billing key before subscribing", ErrValidation)
	}

	active, err := s.repo.Subscription.FindActiveByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load active subscription: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: user already has an active subscription", ErrConflict)
	}

	// 3. Charge the first month under a saga. The subscription row is only
	// written once the money is captured.
	now := s.now()
	sub := &entity.Subscription{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:       actor.UserID,
		PlanID:       plan.ID,
		Status:       entity.SubscriptionStatusActive,
		StartDate:    now,
		EndDate:      utils.AddMonth(now),
	}
	saga, err := s.newCreateSaga(sub, plan)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Saga.Create(ctx, saga); err != nil {
		return nil, fmt.Errorf("start subscription saga: %w", err)
	}

	log := s.log.With(zap.String("saga_id", saga.ID.String()), zap.String("subscription_id", sub.ID.String()))

	txID, err := s.saga.charge(ctx, saga, portone.OneTimePaymentRequest{
		OrderName: orderName(plan),
		Amount:    plan.Price,
		Method:    portone.PaymentMethod{BillingKey: *user.BillingKey},
		Customer:  customerOf(user),
	})
	if err != nil {
		if errors.Is(err, errOutcomeUnknown) {
			s.saga.raise(ctx, sagaAlert(alert.KindPaymentUnknown, saga, err.Error()))
			return nil, fmt.Errorf("%w: payment outcome is unknown and will be reconciled", ErrPayment)
		}
		s.saga.mark(ctx, saga, entity.SagaFailed, err)
		return nil, err
	}

	// 4. Money moved: persist subscription, payment row and the next cycle's
	// schedule saga together, whatever happens to the request.
	pctx := context.WithoutCancel(ctx)
	if err := s.saga.capture(pctx, saga, txID); errors.Is(err, repository.ErrStateChanged) {
		return nil, fmt.Errorf("%w: payment is being reconciled", ErrPayment)
	}

	next, err := s.newScheduleSaga(sub, plan)
	if err != nil {
		return nil, err
	}
	method := request.PaymentMethodBillingKey
	description := "first month"
	payment := &entity.PaymentHistory{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:         actor.UserID,
		SubscriptionID: &sub.ID,
		Amount:         plan.Price,
		PaymentType:    entity.PaymentTypeSubscription,
		Status:         entity.PaymentStatusCompleted,
		TransactionID:  &txID,
		PaymentID:      saga.PaymentID,
		PaymentMethod:  &method,
		Description:    &description,
	}

	err = s.repo.Tx.WithinTx(pctx, func(tx *repository.Repository) error {
		if err := tx.Subscription.Create(pctx, sub); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: user already has an active subscription", ErrConflict)
			}
			return err
		}
		if err := tx.Payment.Create(pctx, payment); err != nil {
			return err
		}
		if _, err := tx.Saga.Create(pctx, next); err != nil {
			return err
		}
		return tx.Saga.MarkState(pctx, saga.ID, saga.State, entity.SagaCompleted, nil)
	})
	if errors.Is(err, repository.ErrStateChanged) {
		log.Warn("Saga taken over before the subscription was stored", zap.Error(err))
		return nil, fmt.Errorf("%w: payment is being reconciled", ErrPayment)
	}
	if err != nil {
		log.Error("Failed to persist paid subscription, compensating", zap.Error(err))
		_ = s.saga.compensate(pctx, saga, err)
		return nil, err
	}
	saga.State = entity.SagaCompleted

	// 5. Schedule the second month; the worker retries on failure
	if err := s.schedule(pctx, next); err != nil {
		log.Warn("Scheduling next cycle failed, left for retry", zap.Error(err))
	}

	log.Info("Subscription created",
		zap.String("user_id", actor.UserID.String()),
		zap.String("plan", string(plan.Type)),
		zap.String("transaction_id", txID))

	resp := response.SubscriptionToResponse(sub)
	return &resp, nil
}

// newCreateSaga prepares the charge for the first cycle.
func (s *subscriptionService) newCreateSaga(sub *entity.Subscription, plan *entity.SubscriptionPlan) (*entity.BookingSaga, error) {
	saga := s.saga.newSaga(entity.SagaSubscriptionCreate, "subscription-create:"+sub.ID.String(), sub.UserID, plan.Price)
	saga.SubscriptionID = &sub.ID
	saga.PaymentID = cyclePaymentID(sub.ID, sub.StartDate)

	payload, err := json.Marshal(schedulePayload{PlanID: plan.ID, TimeToPay: sub.StartDate})
	if err != nil {
		return nil, fmt.Errorf("encode subscription payload: %w", err)
	}
	saga.Payload = payload
	return saga, nil
}

// newScheduleSaga prepares the charge for the cycle that starts at the
// subscription's current end date.
func (s *subscriptionService) newScheduleSaga(sub *entity.Subscription, plan *entity.SubscriptionPlan) (*entity.BookingSaga, error) {
	cycle := sub.EndDate.Format("20060102")

	saga := s.saga.newSaga(entity.SagaSubscriptionSchedule,
		fmt.Sprintf("subscription:%s:%s", sub.ID, cycle), sub.UserID, plan.Price)
	saga.SubscriptionID = &sub.ID
	saga.PaymentID = cyclePaymentID(sub.ID, sub.EndDate)

	payload, err := json.Marshal(schedulePayload{PlanID: plan.ID, TimeToPay: sub.EndDate})
	if err != nil {
		return nil, fmt.Errorf("encode schedule payload: %w", err)
	}
	saga.Payload = payload
	return saga, nil
}

func cyclePaymentID(subscriptionID uuid.UUID, cycleStart time.Time) string {
	return fmt.Sprintf("sub-%s-%s", subscriptionID, cycleStart.Format("20060102"))
}

func orderName(plan *entity.SubscriptionPlan) string {
	return fmt.Sprintf("%s subscription", plan.Type)
}

// schedule registers the saga's charge with the gateway. "Already exists"
// means an earlier attempt got through. A subscription that is no longer
// active gets no further charges.
func (s *subscriptionService) schedule(ctx context.Context, saga *entity.BookingSaga) error {
	var p schedulePayload
	if err := json.Unmarshal(saga.Payload, &p); err != nil {
		return fmt.Errorf("decode schedule payload of saga %s: %w", saga.ID, err)
	}

	if saga.SubscriptionID != nil {
		sub, err := s.repo.Subscription.FindByID(ctx, *saga.SubscriptionID)
		if err != nil {
			return fmt.Errorf("load subscription: %w", err)
		}
		if sub == nil || sub.Status != entity.SubscriptionStatusActive {
			s.log.Info("Subscription not active, cycle not scheduled",
				zap.String("saga_id", saga.ID.String()),
				zap.String("subscription_id", saga.SubscriptionID.String()))
			return s.saga.mark(ctx, saga, entity.SagaCompleted, errors.New("subscription is not active"))
		}
	}

	user, err := s.repo.User.FindByID(ctx, saga.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.BillingKey == nil || *user.BillingKey == "" {
		err := fmt.Errorf("%w: user %s has no billing key", ErrInconsistentState, saga.UserID)
		s.saga.mark(ctx, saga, entity.SagaStarted, err)
		return err
	}
	plan, err := s.repo.Plan.FindByID(ctx, p.PlanID)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("%w: plan %s", ErrInconsistentState, p.PlanID)
	}

	gctx, cancel := context.WithTimeout(ctx, s.saga.timeout)
	_, err = s.saga.gateway.CreateSchedule(gctx, saga.PaymentID, portone.ScheduleRequest{
		BillingKey: *user.BillingKey,
		OrderName:  orderName(plan),
		Amount:     plan.Price,
		Customer:   customerOf(user),
		TimeToPay:  p.TimeToPay,
	})
	cancel()
	if err != nil && !errors.Is(err, portone.ErrAlreadyExists) {
		s.saga.mark(ctx, saga, entity.SagaStarted, err)
		return fmt.Errorf("create schedule %s: %w", saga.PaymentID, err)
	}

	return s.saga.mark(ctx, saga, entity.SagaCompleted, nil)
}

func (s *subscriptionService) GetMySubscriptions(ctx context.Context, actor Actor) ([]response.SubscriptionResponse, error) {
	subs, err := s.repo.Subscription.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return response.MapSlice(subs, response.SubscriptionToResponse), nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, actor Actor, subscriptionID string) (*response.SubscriptionResponse, error) {
	id, err := parseID(subscriptionID, "subscription id")
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Subscription.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: subscription %s", ErrNotFound, id)
	}
	if !actor.IsAdmin() && !actor.Owns(sub.UserID) {
		return nil, fmt.Errorf("%w: subscription belongs to another user", ErrUnauthorized)
	}
	if sub.Status != entity.SubscriptionStatusActive {
		return nil, fmt.Errorf("%w: subscription is %s", ErrInvalidState, sub.Status)
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Subscription.UpdateStatus(ctx, id, entity.SubscriptionStatusActive, entity.SubscriptionStatusCancelled); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: subscription changed concurrently", ErrConflict)
			}
			return err
		}
		if actor.IsAdmin() {
			return tx.AdminLog.Create(ctx, newAdminLog(actor.UserID, "cancel", "subscription", id, "", s.now()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub.Status = entity.SubscriptionStatusCancelled
	sub.UpdatedAt = s.now()

	// A charge that still fires is recorded and alerted by the webhook, never
	// renewed; revoking here keeps it from firing at all.
	s.revokeSchedules(ctx, sub)

	s.log.Info("Subscription cancelled",
		zap.String("subscription_id", id.String()),
		zap.String("actor_id", actor.UserID.String()))

	resp := response.SubscriptionToResponse(sub)
	return &resp, nil
}

func (s *subscriptionService) revokeSchedules(ctx context.Context, sub *entity.Subscription) {
	user, err := s.repo.User.FindByID(ctx, sub.UserID)
	if err != nil || user == nil || user.BillingKey == nil || *user.BillingKey == "" {
		s.log.Warn("No billing key to revoke schedules for",
			zap.Error(err), zap.String("subscription_id", sub.ID.String()))
		return
	}

	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saga.timeout)
	defer cancel()
	result, err := s.saga.gateway.RevokeSchedules(gctx, *user.BillingKey)
	if err != nil {
		s.saga.raise(ctx, alert.Alert{
			Kind:           alert.KindScheduleNotRevoked,
			SubscriptionID: sub.ID.String(),
			UserID:         sub.UserID.String(),
			PaymentID:      cyclePaymentID(sub.ID, sub.EndDate),
			Reason:         err.Error(),
		})
		return
	}
	s.log.Info("Payment schedules revoked",
		zap.String("subscription_id", sub.ID.String()),
		zap.Strings("schedule_ids", result.RevokedScheduleIDs))
}

func (s *subscriptionService) RenewSubscription(ctx context.Context, subscriptionID uuid.UUID, newEndDate time.Time, record *entity.PaymentHistory) (*response.SubscriptionResponse, error) {
	if record == nil || record.TransactionID == nil || *record.TransactionID == "" {
		return nil, fmt.Errorf("%w: payment record needs a transaction id", ErrValidation)
	}

	sub, _, err := s.renew(ctx, subscriptionID, func(*entity.Subscription) (time.Time, *entity.PaymentHistory) {
		return newEndDate, record
	})
	if err != nil {
		return nil, err
	}

	resp := response.SubscriptionToResponse(sub)
	return &resp, nil
}

// renew runs one renewal under the subscription row lock. build sees the
// locked row and returns the new end date plus the payment row to insert.
// Only an active subscription is extended; a charge against a cancelled or
// expired one is recorded and alerted.
func (s *subscriptionService) renew(ctx context.Context, id uuid.UUID, build func(*entity.Subscription) (time.Time, *entity.PaymentHistory)) (*entity.Subscription, bool, error) {
	var (
		sub     *entity.Subscription
		record  *entity.PaymentHistory
		renewed bool
		stray   bool
		next    *entity.BookingSaga
	)

	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		sub, err = tx.Subscription.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return fmt.Errorf("%w: subscription %s", ErrNotFound, id)
		}

		var newEnd time.Time
		newEnd, record = build(sub)
		record.SubscriptionID = &sub.ID
		record.UserID = sub.UserID

		inserted, err := tx.Payment.CreateIfAbsent(ctx, record)
		if err != nil {
			return err
		}
		if !inserted {
			// duplicate delivery of a transaction already applied
			return nil
		}
		if sub.Status != entity.SubscriptionStatusActive {
			stray = true
			return nil
		}

		if err := tx.Subscription.ExtendEndDate(ctx, sub.ID, newEnd); err != nil {
			return err
		}
		sub.EndDate = newEnd
		renewed = true

		plan, err := tx.Plan.FindByID(ctx, sub.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return fmt.Errorf("%w: plan %s", ErrInconsistentState, sub.PlanID)
		}
		saga, err := s.newScheduleSaga(sub, plan)
		if err != nil {
			return err
		}
		created, err := tx.Saga.Create(ctx, saga)
		if err != nil {
			return err
		}
		if created {
			next = saga
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if stray {
		s.log.Warn("Charge received for inactive subscription",
			zap.String("subscription_id", id.String()),
			zap.String("status", string(sub.Status)))
		a := alert.Alert{
			Kind:           alert.KindChargeAfterCancel,
			SubscriptionID: sub.ID.String(),
			UserID:         sub.UserID.String(),
			PaymentID:      record.PaymentID,
			Amount:         record.Amount,
			Reason:         fmt.Sprintf("paid charge on %s subscription, refund manually", sub.Status),
		}
		if record.TransactionID != nil {
			a.TransactionID = *record.TransactionID
		}
		s.saga.raise(ctx, a)
	}

	if next != nil {
		if err := s.schedule(ctx, next); err != nil {
			s.log.Warn("Scheduling next cycle failed, left for retry",
				zap.Error(err), zap.String("subscription_id", id.String()))
		}
	}
	return sub, renewed, nil
}

// HandleWebhook processes a recurring-charge notification. The body must be
// signed, and a paid notification is only trusted once the gateway confirms
// the cycle's charge at the plan price.
func (s *subscriptionService) HandleWebhook(ctx context.Context, body []byte, header http.Header) (*response.WebhookResponse, error) {
	switch {
	case s.webhookSecret != "":
		if err := portone.VerifyWebhook(s.webhookSecret, header, body, s.now()); err != nil {
			s.log.Warn("Rejected webhook", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
	case !s.allowUnsigned:
		s.log.Warn("Rejected webhook, no webhook secret configured")
		return nil, fmt.Errorf("%w: webhook signing is not configured", ErrInvalidCredentials)
	}

	var req request.SubscriptionWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", ErrValidation)
	}
	if errs := utils.ValidateStruct(&req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	subID, err := parseID(req.SubscriptionID, "subscriptionId")
	if err != nil {
		return nil, err
	}

	s.log.Info("Subscription webhook received",
		zap.String("subscription_id", req.SubscriptionID),
		zap.String("transaction_id", req.TransactionID),
		zap.String("status", req.Status),
		zap.Int64("amount", req.Amount))

	txID := req.TransactionID
	now := s.now()

	if !strings.EqualFold(req.Status, webhookStatusPaid) {
		return s.recordFailedCharge(ctx, subID, req, now)
	}

	sub, err := s.repo.Subscription.FindByID(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: subscription %s", ErrNotFound, subID)
	}

	seen, err := s.repo.Payment.FindByTransactionID(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if seen != nil {
		s.log.Info("Duplicate webhook ignored", zap.String("transaction_id", txID))
		return &response.WebhookResponse{SubscriptionID: sub.ID.String(), Renewed: false, EndDate: sub.EndDate}, nil
	}

	paymentID := cyclePaymentID(sub.ID, sub.EndDate)
	if err := s.confirmCharge(ctx, sub, paymentID, req.Amount); err != nil {
		return nil, err
	}

	sub, renewed, err := s.renew(ctx, subID, func(sub *entity.Subscription) (time.Time, *entity.PaymentHistory) {
		base := sub.EndDate
		if now.After(base) {
			base = now
		}
		description := "subscription renewal"
		return utils.AddMonth(base), &entity.PaymentHistory{
			BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Amount:        req.Amount,
			PaymentType:   entity.PaymentTypeSubscription,
			Status:        entity.PaymentStatusCompleted,
			TransactionID: &txID,
			PaymentID:     paymentID,
			Description:   &description,
		}
	})
	if err != nil {
		return nil, err
	}

	if !renewed {
		s.log.Info("Webhook did not renew", zap.String("transaction_id", txID), zap.String("status", string(sub.Status)))
	}
	return &response.WebhookResponse{SubscriptionID: sub.ID.String(), Renewed: renewed, EndDate: sub.EndDate}, nil
}

// confirmCharge checks the notified amount against the plan and asks the
// gateway whether the cycle's charge really is paid in full.
func (s *subscriptionService) confirmCharge(ctx context.Context, sub *entity.Subscription, paymentID string, amount int64) error {
	plan, err := s.repo.Plan.FindByID(ctx, sub.PlanID)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("%w: plan %s", ErrInconsistentState, sub.PlanID)
	}
	if amount != plan.Price {
		s.log.Warn("Webhook amount does not match plan",
			zap.String("subscription_id", sub.ID.String()),
			zap.Int64("amount", amount),
			zap.Int64("price", plan.Price))
		return fmt.Errorf("%w: amount %d does not match plan price %d", ErrValidation, amount, plan.Price)
	}

	payment, err := s.saga.getPayment(ctx, paymentID)
	switch {
	case errors.Is(err, portone.ErrNotFound):
		return fmt.Errorf("%w: no charge %s at the gateway", ErrPayment, paymentID)
	case err != nil:
		return fmt.Errorf("confirm charge %s: %w", paymentID, err)
	}
	if payment.Status != portone.PaymentStatusPaid {
		return fmt.Errorf("%w: charge %s is %s", ErrPayment, paymentID, payment.Status)
	}
	if payment.Amount.Total != plan.Price {
		return fmt.Errorf("%w: charge %s is %d, plan price %d", ErrValidation, paymentID, payment.Amount.Total, plan.Price)
	}
	return nil
}

func (s *subscriptionService) recordFailedCharge(ctx context.Context, subID uuid.UUID, req request.SubscriptionWebhookRequest, now time.Time) (*response.WebhookResponse, error) {
	sub, err := s.repo.Subscription.FindByID(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: subscription %s", ErrNotFound, subID)
	}

	txID := req.TransactionID
	description := "charge " + strings.ToLower(req.Status)
	record := &entity.PaymentHistory{
		BaseNoDelete:   entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		UserID:         sub.UserID,
		SubscriptionID: &sub.ID,
		Amount:         req.Amount,
		PaymentType:    entity.PaymentTypeSubscription,
		Status:         entity.PaymentStatusFailed,
		TransactionID:  &txID,
		PaymentID:      cyclePaymentID(sub.ID, sub.EndDate),
		Description:    &description,
	}
	if _, err := s.repo.Payment.CreateIfAbsent(ctx, record); err != nil {
		return nil, fmt.Errorf("record failed charge: %w", err)
	}

	s.log.Warn("Subscription charge not paid",
		zap.String("subscription_id", subID.String()),
		zap.String("status", req.Status))
	return &response.WebhookResponse{SubscriptionID: sub.ID.String(), Renewed: false, EndDate: sub.EndDate}, nil
}

// ExpireOverdue ends subscriptions whose paid period ran out more than the
// grace period ago.
func (s *subscriptionService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.Subscription.ExpireOverdue(ctx, now.Add(-s.grace))
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	if n > 0 {
		s.log.Info("Subscriptions expired", zap.Int64("count", n))
	}
	return n, nil
}
