package entity

import (
	"time"

	"github.com/google/uuid"
)

type PlanType string

const (
	PlanBasic    PlanType = "basic"
	PlanBusiness PlanType = "business"
	PlanPremium  PlanType = "premium"
)

type SubscriptionPlan struct {
	ID          uuid.UUID `db:"id"`
	Type        PlanType  `db:"type"`
	Price       int64     `db:"price"`
	Description string    `db:"description"`
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type Subscription struct {
	BaseNoDelete
	UserID    uuid.UUID          `db:"user_id"`
	PlanID    uuid.UUID          `db:"plan_id"`
	Status    SubscriptionStatus `db:"status"`
	StartDate time.Time          `db:"start_date"`
	EndDate   time.Time          `db:"end_date"`
}
