package request

type CreateReviewRequest struct {
	ReservationID string  `json:"reservation_id" validate:"required,uuid4"`
	Rating        int     `json:"rating" validate:"required,min=1,max=5"`
	Title         string  `json:"title" validate:"required,min=3,max=100"`
	Content       string  `json:"content" validate:"required,min=10,max=1000"`
	Pros          *string `json:"pros,omitempty" validate:"omitempty,max=500"`
	Cons          *string `json:"cons,omitempty" validate:"omitempty,max=500"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=10,max=1000"`
	Pros    *string `json:"pros,omitempty" validate:"omitempty,max=500"`
	Cons    *string `json:"cons,omitempty" validate:"omitempty,max=500"`
}

type AdminDeleteReviewRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=200"`
}

type CreateReplyRequest struct {
	ReviewID    string `json:"review_id" validate:"required,uuid4"`
	Content     string `json:"content" validate:"required,min=10,max=1000"`
	IsPublished *bool  `json:"is_published,omitempty"`
}

type UpdateReplyRequest struct {
	Content     *string `json:"content,omitempty" validate:"omitempty,min=10,max=1000"`
	IsPublished *bool   `json:"is_published,omitempty"`
}
