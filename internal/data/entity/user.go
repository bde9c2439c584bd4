package entity

import "github.com/google/uuid"

type UserRole string

const (
	RoleUser         UserRole = "user"
	RoleHotelManager UserRole = "hotel_manager"
	RoleAdmin        UserRole = "admin"
)

type User struct {
	Base
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password"`
	Phone        *string    `db:"phone"`
	Role         UserRole   `db:"role"`
	HotelID      *uuid.UUID `db:"hotel_id"` // only for hotel managers
	BillingKey   *string    `db:"billing_key"`
	IsActive     bool       `db:"is_active"`
}

// ManagesHotel reports whether the user is the manager of hotelID.
func (u *User) ManagesHotel(hotelID uuid.UUID) bool {
	return u != nil && u.Role == RoleHotelManager && u.HotelID != nil && *u.HotelID == hotelID
}
