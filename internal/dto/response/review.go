package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type ReviewResponse struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	HotelID       string    `json:"hotel_id"`
	ReservationID string    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Pros          *string   `json:"pros,omitempty"`
	Cons          *string   `json:"cons,omitempty"`
	StayDate      time.Time `json:"stay_date"`
	IsVerified    bool      `json:"is_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type HotelReviewStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

type ReplyResponse struct {
	ID          string    `json:"id"`
	ReviewID    string    `json:"review_id"`
	ManagerID   string    `json:"manager_id"`
	Content     string    `json:"content"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Helper converters
func ReviewToResponse(review *entity.HotelReview) ReviewResponse {
	return ReviewResponse{
		ID:            review.ID.String(),
		UserID:        review.UserID.String(),
		HotelID:       review.HotelID.String(),
		ReservationID: review.ReservationID.String(),
		Rating:        review.Rating,
		Title:         review.Title,
		Content:       review.Content,
		Pros:          review.Pros,
		Cons:          review.Cons,
		StayDate:      review.StayDate,
		IsVerified:    review.IsVerified,
		CreatedAt:     review.CreatedAt,
		UpdatedAt:     review.UpdatedAt,
	}
}

func ReplyToResponse(reply *entity.ReviewReply) ReplyResponse {
	return ReplyResponse{
		ID:          reply.ID.String(),
		ReviewID:    reply.ReviewID.String(),
		ManagerID:   reply.ManagerID.String(),
		Content:     reply.Content,
		IsPublished: reply.IsPublished,
		CreatedAt:   reply.CreatedAt,
		UpdatedAt:   reply.UpdatedAt,
	}
}
