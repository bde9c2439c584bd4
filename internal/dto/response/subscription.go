package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type PlanResponse struct {
	ID          string          `json:"id"`
	Type        entity.PlanType `json:"type"`
	Price       int64           `json:"price"`
	Description string          `json:"description"`
}

type SubscriptionResponse struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"user_id"`
	PlanID    string                    `json:"plan_id"`
	Status    entity.SubscriptionStatus `json:"status"`
	StartDate time.Time                 `json:"start_date"`
	EndDate   time.Time                 `json:"end_date"`
	CreatedAt time.Time                 `json:"created_at"`
}

type WebhookResponse struct {
	SubscriptionID string    `json:"subscription_id"`
	Renewed        bool      `json:"renewed"`
	EndDate        time.Time `json:"end_date"`
}

type AdminLogResponse struct {
	ID         string    `json:"id"`
	AdminID    string    `json:"admin_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

// Helper converters
func PlanToResponse(plan *entity.SubscriptionPlan) PlanResponse {
	return PlanResponse{
		ID:          plan.ID.String(),
		Type:        plan.Type,
		Price:       plan.Price,
		Description: plan.Description,
	}
}

func SubscriptionToResponse(sub *entity.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        sub.ID.String(),
		UserID:    sub.UserID.String(),
		PlanID:    sub.PlanID.String(),
		Status:    sub.Status,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		CreatedAt: sub.CreatedAt,
	}
}

func AdminLogToResponse(l *entity.AdminLog) AdminLogResponse {
	return AdminLogResponse{
		ID:         l.ID.String(),
		AdminID:    l.AdminID.String(),
		Action:     l.Action,
		TargetType: l.TargetType,
		TargetID:   l.TargetID.String(),
		Details:    l.Details,
		CreatedAt:  l.CreatedAt,
	}
}
