package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/dto/request"
	"hotel-booking/pkg/alert"
	"hotel-booking/pkg/portone"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) subscribe(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := h.subscriptions.CreateSubscription(context.Background(), h.guestActor(),
		&request.CreateSubscriptionRequest{PlanID: h.plan.ID.String()})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func webhookBody(t *testing.T, subID uuid.UUID, txID, status string) []byte {
	t.Helper()
	return webhookBodyFor(t, subID, txID, status, 9900)
}

func webhookBodyFor(t *testing.T, subID uuid.UUID, txID, status string, amount int64) []byte {
	t.Helper()
	body, err := json.Marshal(request.SubscriptionWebhookRequest{
		TransactionID:  txID,
		SubscriptionID: subID.String(),
		Amount:         amount,
		Status:         status,
	})
	require.NoError(t, err)
	return body
}

func (h *harness) subscriptionPayments(status entity.PaymentStatus) []*entity.PaymentHistory {
	var out []*entity.PaymentHistory
	for _, p := range h.paymentsOfType(entity.PaymentTypeSubscription) {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

func TestCreateSubscriptionSchedulesFirstRenewal(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)

	sub := h.store.subs[subID]
	require.NotNil(t, sub)
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, utils.AddMonth(h.now), sub.EndDate)
	assert.Equal(t, 1, h.gateway.schedules)

	sagas := h.sagaByKind(entity.SagaSubscriptionSchedule)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaCompleted, sagas[0].State)
	assert.Equal(t, cyclePaymentID(subID, sub.EndDate), sagas[0].PaymentID)
}

func TestCreateSubscriptionChargesFirstMonth(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	sub := h.store.subs[subID]

	assert.Equal(t, 1, h.gateway.charges)

	payments := h.paymentsOfType(entity.PaymentTypeSubscription)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentStatusCompleted, payments[0].Status)
	assert.Equal(t, h.plan.Price, payments[0].Amount)
	assert.Equal(t, cyclePaymentID(subID, sub.StartDate), payments[0].PaymentID)
	require.NotNil(t, payments[0].TransactionID)
	assert.Equal(t, "tx-"+payments[0].PaymentID, *payments[0].TransactionID)

	sagas := h.sagaByKind(entity.SagaSubscriptionCreate)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaCompleted, sagas[0].State)
	assert.Equal(t, payments[0].PaymentID, sagas[0].PaymentID)
}

func TestCreateSubscriptionDeclinedChargeStoresNothing(t *testing.T) {
	h := newHarness(t)
	h.gateway.chargeErr = &portone.APIError{Status: 400, Type: "CARD_DECLINED", Message: "declined"}

	_, err := h.subscriptions.CreateSubscription(context.Background(), h.guestActor(),
		&request.CreateSubscriptionRequest{PlanID: h.plan.ID.String()})
	assert.ErrorIs(t, err, ErrPayment)

	assert.Empty(t, h.store.subs)
	assert.Empty(t, h.paymentsOfType(entity.PaymentTypeSubscription))
	assert.Zero(t, h.gateway.schedules)

	sagas := h.sagaByKind(entity.SagaSubscriptionCreate)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaFailed, sagas[0].State)
}

func TestCreateSubscriptionRefundsWhenPersistFails(t *testing.T) {
	h := newHarness(t)
	h.store.failOn["payment.create"] = errors.New("disk full")

	_, err := h.subscriptions.CreateSubscription(context.Background(), h.guestActor(),
		&request.CreateSubscriptionRequest{PlanID: h.plan.ID.String()})
	require.Error(t, err)

	assert.Empty(t, h.store.subs, "subscription insert rolled back with the payment row")
	assert.Equal(t, 1, h.gateway.cancels)
	assert.Empty(t, h.sagaByKind(entity.SagaSubscriptionSchedule))

	sagas := h.sagaByKind(entity.SagaSubscriptionCreate)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaCompensated, sagas[0].State)
	assert.Contains(t, h.alerts.kinds(), alert.KindCompensated)
}

func TestCreateSubscriptionUnknownChargeRefundedByWorker(t *testing.T) {
	h := newHarness(t)
	h.gateway.chargeErr = fmt.Errorf("%w: deadline exceeded", portone.ErrOutcomeUnknown)
	h.gateway.chargeLands = true
	h.gateway.queryErr = fmt.Errorf("%w: gateway down", portone.ErrOutcomeUnknown)

	_, err := h.subscriptions.CreateSubscription(context.Background(), h.guestActor(),
		&request.CreateSubscriptionRequest{PlanID: h.plan.ID.String()})
	assert.ErrorIs(t, err, ErrPayment)
	assert.Empty(t, h.store.subs)

	sagas := h.sagaByKind(entity.SagaSubscriptionCreate)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaPaymentUnknown, sagas[0].State)

	h.gateway.queryErr = nil
	h.now = h.now.Add(3 * time.Minute)
	_, err = h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.SagaCompensated, h.sagaState(sagas[0].ID))
	assert.Equal(t, 1, h.gateway.cancels)
	assert.Equal(t, 1, h.gateway.charges, "never charged twice")
	assert.Empty(t, h.store.subs)
}

func TestCreateSubscriptionRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.subscribe(t)

	_, err := h.subscriptions.CreateSubscription(ctx, h.guestActor(), &request.CreateSubscriptionRequest{PlanID: h.plan.ID.String()})
	assert.ErrorIs(t, err, ErrConflict, "one active subscription per user")

	_, err = h.subscriptions.CreateSubscription(ctx, h.adminActor(), &request.CreateSubscriptionRequest{PlanID: h.plan.ID.String()})
	assert.ErrorIs(t, err, ErrValidation, "admin has no billing key")

	_, err = h.subscriptions.CreateSubscription(ctx, h.guestActor(), &request.CreateSubscriptionRequest{PlanID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, h.gateway.charges, "rejected requests never charge")
}

func TestCreateSubscriptionScheduleFailureLeftOpen(t *testing.T) {
	h := newHarness(t)
	h.gateway.scheduleErr = errors.New("connection reset")
	h.subscribe(t)

	sagas := h.sagaByKind(entity.SagaSubscriptionSchedule)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaStarted, sagas[0].State)
	require.NotNil(t, sagas[0].LastError)
	assert.Contains(t, *sagas[0].LastError, "connection reset")
}

func TestWebhookDuplicateDeliveryRenewsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.subscribe(t)
	firstEnd := h.store.subs[subID].EndDate
	body := webhookBody(t, subID, "tx-renew-1", "Paid")

	first, err := h.subscriptions.HandleWebhook(ctx, body, http.Header{})
	require.NoError(t, err)
	assert.True(t, first.Renewed)
	assert.Equal(t, utils.AddMonth(firstEnd), first.EndDate)

	second, err := h.subscriptions.HandleWebhook(ctx, body, http.Header{})
	require.NoError(t, err)
	assert.False(t, second.Renewed)
	assert.Equal(t, first.EndDate, second.EndDate)

	assert.Equal(t, first.EndDate, h.store.subs[subID].EndDate)
	assert.Len(t, h.paymentsOfType(entity.PaymentTypeSubscription), 2, "first month plus one renewal")
	assert.Equal(t, 2, h.gateway.schedules, "first cycle plus the one after the renewal")
	assert.Len(t, h.sagaByKind(entity.SagaSubscriptionSchedule), 2)
}

func TestWebhookRenewalRecordsCyclePaymentID(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	end := h.store.subs[subID].EndDate

	_, err := h.subscriptions.HandleWebhook(context.Background(), webhookBody(t, subID, "tx-renew-1", "Paid"), http.Header{})
	require.NoError(t, err)

	var renewal *entity.PaymentHistory
	for _, p := range h.paymentsOfType(entity.PaymentTypeSubscription) {
		if p.TransactionID != nil && *p.TransactionID == "tx-renew-1" {
			renewal = p
		}
	}
	require.NotNil(t, renewal)
	assert.Equal(t, cyclePaymentID(subID, end), renewal.PaymentID)
}

func TestWebhookAfterLapseRenewsFromNow(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	h.now = h.now.AddDate(0, 2, 0)

	resp, err := h.subscriptions.HandleWebhook(context.Background(), webhookBody(t, subID, "tx-late", "paid"), http.Header{})
	require.NoError(t, err)
	assert.Equal(t, utils.AddMonth(h.now), resp.EndDate)
}

func TestWebhookFailedChargeRecordedWithoutRenewal(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	end := h.store.subs[subID].EndDate

	resp, err := h.subscriptions.HandleWebhook(context.Background(), webhookBody(t, subID, "tx-fail", "Failed"), http.Header{})
	require.NoError(t, err)
	assert.False(t, resp.Renewed)
	assert.Equal(t, end, h.store.subs[subID].EndDate)

	failed := h.subscriptionPayments(entity.PaymentStatusFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "tx-fail", *failed[0].TransactionID)
	assert.Len(t, h.subscriptionPayments(entity.PaymentStatusCompleted), 1, "only the first month")
}

func TestWebhookRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.subscriptions.HandleWebhook(ctx, []byte("{not json"), http.Header{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.subscriptions.HandleWebhook(ctx, webhookBody(t, uuid.New(), "tx-x", "Paid"), http.Header{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWebhookRefusedWithoutSecret(t *testing.T) {
	h := newHarness(t)
	h.subscriptions.allowUnsigned = false
	subID := h.subscribe(t)
	end := h.store.subs[subID].EndDate

	_, err := h.subscriptions.HandleWebhook(context.Background(), webhookBody(t, subID, "tx-forged", "Paid"), http.Header{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, end, h.store.subs[subID].EndDate)
	assert.Len(t, h.paymentsOfType(entity.PaymentTypeSubscription), 1)
}

func TestWebhookAmountMustMatchPlan(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	end := h.store.subs[subID].EndDate

	_, err := h.subscriptions.HandleWebhook(context.Background(), webhookBodyFor(t, subID, "tx-cheap", "Paid", 100), http.Header{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, end, h.store.subs[subID].EndDate)
	assert.Len(t, h.paymentsOfType(entity.PaymentTypeSubscription), 1)
}

func TestWebhookPaidNeedsGatewayConfirmation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *harness, paymentID string)
		want   error
	}{
		{"charge failed at the gateway", func(h *harness, id string) {
			h.gateway.payments[id].Status = portone.PaymentStatusFailed
		}, ErrPayment},
		{"no such charge", func(h *harness, id string) {
			delete(h.gateway.payments, id)
		}, ErrPayment},
		{"charged a different amount", func(h *harness, id string) {
			h.gateway.payments[id].Amount.Total = 100
		}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			subID := h.subscribe(t)
			end := h.store.subs[subID].EndDate
			tt.mutate(h, cyclePaymentID(subID, end))

			_, err := h.subscriptions.HandleWebhook(context.Background(), webhookBody(t, subID, "tx-unconfirmed", "Paid"), http.Header{})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, end, h.store.subs[subID].EndDate)
			assert.Len(t, h.paymentsOfType(entity.PaymentTypeSubscription), 1)
		})
	}
}

func TestWebhookSignature(t *testing.T) {
	h := newHarness(t)
	h.subscriptions.webhookSecret = "shared-secret"
	h.subscriptions.allowUnsigned = false
	subID := h.subscribe(t)
	body := webhookBody(t, subID, "tx-signed", "Paid")

	_, err := h.subscriptions.HandleWebhook(context.Background(), body, http.Header{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	ts := strconv.FormatInt(h.now.Unix(), 10)
	header := http.Header{}
	header.Set("webhook-id", "msg-1")
	header.Set("webhook-timestamp", ts)
	header.Set("webhook-signature", "v1,"+portone.SignWebhook([]byte("shared-secret"), "msg-1", ts, body))

	resp, err := h.subscriptions.HandleWebhook(context.Background(), body, header)
	require.NoError(t, err)
	assert.True(t, resp.Renewed)
}

func TestCancelSubscription(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.subscribe(t)

	stranger := Actor{UserID: uuid.New(), Role: entity.RoleUser}
	_, err := h.subscriptions.CancelSubscription(ctx, stranger, subID.String())
	assert.ErrorIs(t, err, ErrUnauthorized)

	resp, err := h.subscriptions.CancelSubscription(ctx, h.guestActor(), subID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusCancelled, resp.Status)
	assert.Equal(t, 1, h.gateway.revokes)

	_, err = h.subscriptions.CancelSubscription(ctx, h.guestActor(), subID.String())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelSubscriptionRevokeFailureAlerts(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	h.gateway.revokeErr = errors.New("connection reset")

	resp, err := h.subscriptions.CancelSubscription(context.Background(), h.guestActor(), subID.String())
	require.NoError(t, err, "the cancellation stands")
	assert.Equal(t, entity.SubscriptionStatusCancelled, resp.Status)
	assert.Contains(t, h.alerts.kinds(), alert.KindScheduleNotRevoked)
}

func TestChargeAfterCancellationDoesNotReactivate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.subscribe(t)
	end := h.store.subs[subID].EndDate

	_, err := h.subscriptions.CancelSubscription(ctx, h.guestActor(), subID.String())
	require.NoError(t, err)

	// the PG fired the cycle's charge anyway
	resp, err := h.subscriptions.HandleWebhook(ctx, webhookBody(t, subID, "tx-after-cancel", "Paid"), http.Header{})
	require.NoError(t, err)
	assert.False(t, resp.Renewed)

	sub := h.store.subs[subID]
	assert.Equal(t, entity.SubscriptionStatusCancelled, sub.Status)
	assert.Equal(t, end, sub.EndDate)
	assert.Len(t, h.sagaByKind(entity.SagaSubscriptionSchedule), 1, "no further cycle")
	assert.Equal(t, 1, h.gateway.schedules)
	assert.Contains(t, h.alerts.kinds(), alert.KindChargeAfterCancel)
	assert.Len(t, h.subscriptionPayments(entity.PaymentStatusCompleted), 2, "the stray charge is on record")
}

func TestScheduleSkipsCancelledSubscription(t *testing.T) {
	h := newHarness(t)
	h.gateway.scheduleErr = errors.New("connection reset")
	subID := h.subscribe(t)

	_, err := h.subscriptions.CancelSubscription(context.Background(), h.guestActor(), subID.String())
	require.NoError(t, err)

	h.gateway.scheduleErr = nil
	h.now = h.now.Add(3 * time.Minute)
	_, err = h.worker.RunOnce(context.Background())
	require.NoError(t, err)

	sagas := h.sagaByKind(entity.SagaSubscriptionSchedule)
	require.Len(t, sagas, 1)
	assert.Equal(t, entity.SagaCompleted, sagas[0].State)
	require.NotNil(t, sagas[0].LastError)
	assert.Contains(t, *sagas[0].LastError, "not active")
	assert.Equal(t, 1, h.gateway.schedules, "only the failed first attempt")
}

func TestRenewSubscriptionIsIdempotentPerTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	subID := h.subscribe(t)
	newEnd := h.now.AddDate(0, 3, 0)

	record := func() *entity.PaymentHistory {
		txID := "tx-manual"
		return &entity.PaymentHistory{
			BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New()},
			Amount:        9900,
			PaymentType:   entity.PaymentTypeSubscription,
			Status:        entity.PaymentStatusCompleted,
			TransactionID: &txID,
			PaymentID:     "manual",
		}
	}

	resp, err := h.subscriptions.RenewSubscription(ctx, subID, newEnd, record())
	require.NoError(t, err)
	assert.Equal(t, newEnd, resp.EndDate)

	_, err = h.subscriptions.RenewSubscription(ctx, subID, newEnd.AddDate(0, 1, 0), record())
	require.NoError(t, err)
	assert.Equal(t, newEnd, h.store.subs[subID].EndDate)

	_, err = h.subscriptions.RenewSubscription(ctx, subID, newEnd, &entity.PaymentHistory{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExpireOverdueHonoursGracePeriod(t *testing.T) {
	h := newHarness(t)
	subID := h.subscribe(t)
	end := h.store.subs[subID].EndDate

	n, err := h.subscriptions.ExpireOverdue(context.Background(), end.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = h.subscriptions.ExpireOverdue(context.Background(), end.Add(73*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, entity.SubscriptionStatusExpired, h.store.subs[subID].Status)
}
