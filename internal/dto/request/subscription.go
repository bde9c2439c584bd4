package request

type RegisterBillingKeyRequest struct {
	Card CardRequest `json:"card" validate:"required"`
}

type CreateSubscriptionRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid4"`
}

// SubscriptionWebhookRequest is the gateway's recurring-charge notification.
type SubscriptionWebhookRequest struct {
	TransactionID  string `json:"transactionId" validate:"required"`
	SubscriptionID string `json:"subscriptionId" validate:"required,uuid"`
	Amount         int64  `json:"amount" validate:"gte=0"`
	Status         string `json:"status" validate:"required"`
}

type AdminLogFilterRequest struct {
	PaginatedRequest
	TargetType string `json:"target_type" validate:"omitempty,max=50"`
}

type UserFilterRequest struct {
	PaginatedRequest
	Role string `json:"role" validate:"omitempty,oneof=user hotel_manager admin"`
}
