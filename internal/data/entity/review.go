package entity

import (
	"time"

	"github.com/google/uuid"
)

type HotelReview struct {
	Base
	UserID           uuid.UUID  `db:"user_id"`
	HotelID          uuid.UUID  `db:"hotel_id"`
	ReservationID    uuid.UUID  `db:"reservation_id"`
	Rating           int        `db:"rating"` // 1-5
	Title            string     `db:"title"`
	Content          string     `db:"content"`
	Pros             *string    `db:"pros"`
	Cons             *string    `db:"cons"`
	StayDate         time.Time  `db:"stay_date"`
	IsVerified       bool       `db:"is_verified"`
	DeleteReason     *string    `db:"delete_reason"`
	DeletedByAdminID *uuid.UUID `db:"deleted_by_admin_id"`
}

type ReviewReply struct {
	BaseNoDelete
	ReviewID    uuid.UUID `db:"review_id"`
	ManagerID   uuid.UUID `db:"manager_id"`
	Content     string    `db:"content"`
	IsPublished bool      `db:"is_published"`
}
